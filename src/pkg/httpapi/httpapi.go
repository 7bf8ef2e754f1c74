// Package httpapi exposes the extraction service behind a long-running
// echo/v4 server: POST /v1/extract accepts a multipart file upload and
// returns the extract.DocumentResult JSON. Grounded on the teacher's
// src/pkg/echo-middleware stack (bearer auth, rate limiting, route logging)
// wired around a single route instead of the teacher's full expense API.
package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	echomw "receipt-grandtotal/src/pkg/echo-middleware"
	"receipt-grandtotal/src/pkg/extract"
)

// Processor is satisfied by *extract.Service (or a test double); handlers
// depend on this interface rather than the concrete type.
type Processor interface {
	Process(inputPath string) extract.DocumentResult
}

var allowedUploadExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".pdf": true,
}

// Server wraps an echo.Echo configured with the single /v1/extract route.
type Server struct {
	Echo *echo.Echo

	processor Processor
	uploadDir string
}

// NewServer builds a Server around processor, applying the shared
// echomw middleware stack: route access logging, bearer auth, and
// per-client-IP rate limiting.
func NewServer(processor Processor, uploadDir string, rateLimit, burst int) *Server {
	e := echo.New()
	e.HideBanner = true

	echomw.UptdateRateLimits(rateLimit, burst)

	e.Use(echomw.RouteAccessLoggerMiddleware)
	e.Use(echomw.RateLimiterMiddleware)

	srv := &Server{Echo: e, processor: processor, uploadDir: uploadDir}

	group := e.Group("/v1", echomw.RequireBearerToken)
	group.POST("/extract", srv.handleExtract)

	return srv
}

// Start runs the server, blocking until it exits or errors.
func (s *Server) Start(address string) error {
	tl.Log(tl.Notice, palette.BlueBold, "%s listening on '%s'", "extractd", address)
	return s.Echo.Start(address)
}

func (s *Server) handleExtract(c echo.Context) error {
	fileHeader, formErr := c.FormFile("file")
	if formErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Missing 'file' field in /v1/extract request: %s", formErr)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing 'file' multipart field"})
	}

	savedPath, saveErr := s.saveUpload(fileHeader)
	if saveErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Failed to save upload '%s': %s", fileHeader.Filename, saveErr)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to save upload"})
	}
	defer os.Remove(savedPath)

	result := s.processor.Process(savedPath)
	if result.Error != "" && result.GrandTotal == nil {
		return c.JSON(http.StatusUnprocessableEntity, result)
	}
	return c.JSON(http.StatusOK, result)
}

// saveUpload writes the multipart file to uploadDir, rejecting extensions
// rasterize.ToPages wouldn't accept anyway, so the error surfaces before a
// wasted rasterize/OCR round trip.
func (s *Server) saveUpload(fileHeader *multipart.FileHeader) (string, *xerr.Error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedUploadExt[ext] {
		return "", xerr.NewError(errUnsupportedExt(ext), "unsupported upload extension", fileHeader.Filename)
	}

	if mkErr := os.MkdirAll(s.uploadDir, 0o755); mkErr != nil {
		return "", xerr.NewError(mkErr, "create upload directory", s.uploadDir)
	}

	src, openErr := fileHeader.Open()
	if openErr != nil {
		return "", xerr.NewError(openErr, "open uploaded file", fileHeader.Filename)
	}
	defer src.Close()

	destPath := filepath.Join(s.uploadDir, sanitizeUploadName(fileHeader.Filename))
	dest, createErr := os.Create(destPath)
	if createErr != nil {
		return "", xerr.NewError(createErr, "create destination file", destPath)
	}
	defer dest.Close()

	if _, copyErr := io.Copy(dest, src); copyErr != nil {
		return "", xerr.NewError(copyErr, "copy uploaded file", destPath)
	}

	return destPath, nil
}

func sanitizeUploadName(name string) string {
	base := filepath.Base(name)
	return strings.ReplaceAll(base, " ", "_")
}

func errUnsupportedExt(ext string) error {
	return &unsupportedExtError{ext: ext}
}

type unsupportedExtError struct{ ext string }

func (e *unsupportedExtError) Error() string {
	return "unsupported file extension: " + e.ext
}

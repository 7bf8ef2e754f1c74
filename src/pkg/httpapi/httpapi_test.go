package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	echomw "receipt-grandtotal/src/pkg/echo-middleware"
	"receipt-grandtotal/src/pkg/extract"
)

// getExpectedToken caches the bearer token via sync.Once on first read, so
// the test binary fixes it once here rather than per test.
func TestMain(m *testing.M) {
	os.Setenv(echomw.EnvIntakeBearerToken, "test-token")
	os.Exit(m.Run())
}

const testBearerHeader = "Bearer test-token"

func intPtr(v int) *int { return &v }

type fakeProcessor struct {
	result      extract.DocumentResult
	lastInput   string
	inputExists bool
}

func (f *fakeProcessor) Process(inputPath string) extract.DocumentResult {
	f.lastInput = inputPath
	if _, err := os.Stat(inputPath); err == nil {
		f.inputExists = true
	}
	return f.result
}

func newMultipartRequest(t *testing.T, fieldName, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %s", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %s", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %s", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleExtractSuccessSavesUploadAndReturnsResult(t *testing.T) {
	uploadDir := t.TempDir()
	fake := &fakeProcessor{result: extract.DocumentResult{GrandTotal: intPtr(42000), Currency: "IDR"}}
	srv := NewServer(fake, uploadDir, 5, 10)

	req := newMultipartRequest(t, "file", "receipt.jpg", []byte("fake-image-bytes"))
	req.Header.Set("Authorization", testBearerHeader)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decoded extract.DocumentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response body: %s", err)
	}
	if decoded.GrandTotal == nil || *decoded.GrandTotal != 42000 {
		t.Fatalf("expected grand total 42000 in response, got %+v", decoded)
	}
	if !fake.inputExists {
		t.Fatal("expected the saved upload to exist on disk when Process ran")
	}

	if _, err := os.Stat(fake.lastInput); err == nil {
		t.Fatal("expected the saved upload to be removed after the request completed")
	}
}

func TestHandleExtractMissingFileReturnsBadRequest(t *testing.T) {
	fake := &fakeProcessor{}
	srv := NewServer(fake, t.TempDir(), 5, 10)

	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.Header.Set("Authorization", testBearerHeader)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a request with no file field, got %d", rec.Code)
	}
}

func TestHandleExtractRejectsUnsupportedExtension(t *testing.T) {
	fake := &fakeProcessor{}
	srv := NewServer(fake, t.TempDir(), 5, 10)

	req := newMultipartRequest(t, "file", "receipt.bmp", []byte("irrelevant"))
	req.Header.Set("Authorization", testBearerHeader)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unsupported extension, got %d: %s", rec.Code, rec.Body.String())
	}
	if fake.lastInput != "" {
		t.Fatal("expected Process to never run for a rejected upload")
	}
}

func TestHandleExtractFailureReturnsUnprocessableEntity(t *testing.T) {
	fake := &fakeProcessor{result: extract.DocumentResult{Error: "no grand total found on any page"}}
	srv := NewServer(fake, t.TempDir(), 5, 10)

	req := newMultipartRequest(t, "file", "receipt.png", []byte("fake-image-bytes"))
	req.Header.Set("Authorization", testBearerHeader)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when extraction fails with no grand total, got %d", rec.Code)
	}
}

func TestSaveUploadSanitizesFilenameSpaces(t *testing.T) {
	uploadDir := t.TempDir()
	srv := &Server{uploadDir: uploadDir}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "my receipt.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %s", err)
	}
	if _, err := io.Copy(part, bytes.NewReader([]byte("bytes"))); err != nil {
		t.Fatalf("write part: %s", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %s", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(10 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %s", err)
	}
	_, fileHeader, err := req.FormFile("file")
	if err != nil {
		t.Fatalf("FormFile: %s", err)
	}

	destPath, saveErr := srv.saveUpload(fileHeader)
	if saveErr != nil {
		t.Fatalf("saveUpload returned error: %s", saveErr)
	}
	if filepath.Base(destPath) != "my_receipt.png" {
		t.Fatalf("expected sanitized filename 'my_receipt.png', got %q", filepath.Base(destPath))
	}
}

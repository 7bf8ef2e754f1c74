// Package rasterize turns an input document (a single image, or a
// multi-page PDF) into one image file per page, ready for
// src/pkg/preprocess. PDF handling shells out to poppler's pdftoppm, the
// way other receipt/bill pipelines in the retrieved corpus do — there is
// no pure-Go PDF rasterizer among the teacher's dependencies.
package rasterize

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const (
	primaryDPI  = 300
	fallbackDPI = 200
)

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
}

// Page is one rasterized page: its source image path plus that image's
// pixel dimensions.
type Page struct {
	Index  int
	Path   string
	Width  float64
	Height float64
}

// ToPages renders inputPath into one Page per side. A .pdf is rasterized
// with pdftoppm at 300 DPI, falling back to 200 DPI whenever the 300-DPI
// run fails.
// Any other extension is treated as a single already-rasterized page.
func ToPages(inputPath, workDir string) (pages []Page, e *xerr.Error) {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".pdf" {
		if !allowedImageExt[ext] {
			return nil, xerr.NewError(fmt.Errorf("unsupported input extension %q", ext), "unsupported input file", inputPath)
		}
		return singleImagePage(inputPath)
	}
	return rasterizePDF(inputPath, workDir)
}

func singleImagePage(inputPath string) ([]Page, *xerr.Error) {
	img, openErr := imaging.Open(inputPath)
	if openErr != nil {
		return nil, xerr.NewError(openErr, "open input image", inputPath)
	}
	bounds := img.Bounds()
	return []Page{{
		Index:  0,
		Path:   inputPath,
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
	}}, nil
}

func rasterizePDF(pdfPath, workDir string) ([]Page, *xerr.Error) {
	tempDir, mkErr := os.MkdirTemp(workDir, "rasterize-*")
	if mkErr != nil {
		return nil, xerr.NewError(mkErr, "create temp rasterize dir", workDir)
	}

	paths, runErr := runPdftoppm(pdfPath, tempDir, primaryDPI)
	if runErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "pdftoppm at %d DPI failed for '%s': %s; retrying at %d DPI", primaryDPI, pdfPath, runErr, fallbackDPI)
		paths, runErr = runPdftoppm(pdfPath, tempDir, fallbackDPI)
		if runErr != nil {
			return nil, runErr
		}
	}

	if len(paths) == 0 {
		return nil, xerr.NewError(fmt.Errorf("no pages produced"), "rasterize PDF", pdfPath)
	}

	pages := make([]Page, 0, len(paths))
	for idx, p := range paths {
		img, openErr := imaging.Open(p)
		if openErr != nil {
			return nil, xerr.NewError(openErr, "open rasterized PDF page", p)
		}
		bounds := img.Bounds()
		pages = append(pages, Page{
			Index:  idx,
			Path:   p,
			Width:  float64(bounds.Dx()),
			Height: float64(bounds.Dy()),
		})
	}

	tl.Log(tl.Info1, palette.Green, "Rasterized '%s' into %s pages", pdfPath, strconv.Itoa(len(pages)))
	return pages, nil
}

func runPdftoppm(pdfPath, outDir string, dpi int) ([]string, *xerr.Error) {
	outputPrefix := filepath.Join(outDir, "page")
	// exec.Command passes arguments directly to the OS, not through a
	// shell, so pdfPath never risks shell-metacharacter injection.
	cmd := exec.Command("pdftoppm", "-png", "-r", strconv.Itoa(dpi), pdfPath, outputPrefix)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return nil, xerr.NewError(runErr, "run pdftoppm", fmt.Sprintf("dpi=%d output=%s", dpi, string(output)))
	}

	files, globErr := filepath.Glob(outputPrefix + "-*.png")
	if globErr != nil {
		return nil, xerr.NewError(globErr, "glob rasterized pages", outDir)
	}
	if len(files) == 0 {
		files, globErr = filepath.Glob(outputPrefix + "*.png")
		if globErr != nil {
			return nil, xerr.NewError(globErr, "glob rasterized pages", outDir)
		}
	}
	sort.Strings(files)
	return files, nil
}

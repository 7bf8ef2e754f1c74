// Package pipeline wires src/pkg/rasterize, src/pkg/preprocess, and
// src/pkg/ocradapter into an extract.Service: the same loader/OCR closures
// every src/cmd binary that runs extraction needs, factored out once all
// three (extract, extract-batch, extractd) needed it.
package pipeline

import (
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/extract"
	"receipt-grandtotal/src/pkg/ocradapter"
	"receipt-grandtotal/src/pkg/preprocess"
	"receipt-grandtotal/src/pkg/rasterize"
)

// NewService builds an extract.Service backed by real rasterization,
// preprocessing, and OCR. Each extract.Page's Image field carries its own
// processed-image path directly (rather than a side-table keyed by page
// index), so concurrent Process calls from src/pkg/httpapi never share
// mutable state.
func NewService() *extract.Service {
	return extract.NewService(loadPages, runOCR)
}

func loadPages(inputPath string) ([]extract.Page, *xerr.Error) {
	workDir := filepath.Join(os.TempDir(), "receipt-grandtotal")
	if mkErr := os.MkdirAll(workDir, 0o755); mkErr != nil {
		return nil, xerr.NewError(mkErr, "create rasterize work dir", workDir)
	}

	rawPages, rasterErr := rasterize.ToPages(inputPath, workDir)
	if rasterErr != nil {
		return nil, rasterErr
	}

	pages := make([]extract.Page, 0, len(rawPages))
	for _, rp := range rawPages {
		processedPath := rp.Path + ".processed.png"
		if procErr := preprocess.Standard(rp.Path, processedPath); procErr != nil {
			return nil, procErr
		}
		// OCR runs on the processed image, which preprocess.Standard resizes,
		// so the page dimensions come from it rather than from the raw raster.
		processedImage, openErr := imaging.Open(processedPath)
		if openErr != nil {
			return nil, xerr.NewError(openErr, "open processed page image", processedPath)
		}
		bounds := processedImage.Bounds()
		pages = append(pages, extract.Page{Index: rp.Index, Width: float64(bounds.Dx()), Height: float64(bounds.Dy()), Image: processedPath})
	}
	return pages, nil
}

// runOCR satisfies extract.OCRFunc. A handwritten crop-retry page carries an
// extract.CropRegion in its Image field instead of a plain path: that case
// is materialized as its own cropped, re-binarized file before OCR runs.
func runOCR(page extract.Page, minConfidence float64) []extract.Line {
	if region, isRegion := page.Image.(extract.CropRegion); isRegion {
		return runCroppedOCR(region, minConfidence)
	}

	path, ok := page.Image.(string)
	if !ok {
		return nil
	}
	return ocrPath(path, minConfidence)
}

// runCroppedOCR crops the parent page's processed image down to the group's
// padded bounding box, re-binarizes it with the gentler handwritten
// profile, and OCRs just that crop. Returned bboxes are region-relative;
// src/pkg/extract re-bases them onto page coordinates itself.
func runCroppedOCR(region extract.CropRegion, minConfidence float64) []extract.Line {
	parentPath, ok := region.Page.Image.(string)
	if !ok {
		return nil
	}

	parentImage, openErr := imaging.Open(parentPath)
	if openErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Failed to open '%s' for crop retry: %s", parentPath, openErr)
		return nil
	}

	rect := image.Rect(int(region.MinX), int(region.MinY), int(region.MaxX), int(region.MaxY))
	cropped := imaging.Crop(parentImage, rect)

	cropPath := parentPath + ".crop-" + strconv.Itoa(int(region.MinX)) + "-" + strconv.Itoa(int(region.MinY)) + ".png"
	if saveErr := imaging.Save(cropped, cropPath); saveErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Failed to save crop '%s': %s", cropPath, saveErr)
		return nil
	}

	processedPath := cropPath + ".processed.png"
	if procErr := preprocess.Handwritten(cropPath, processedPath); procErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Failed to preprocess crop '%s': %s", cropPath, procErr)
		return nil
	}

	return ocrPath(processedPath, minConfidence)
}

func ocrPath(path string, minConfidence float64) []extract.Line {
	lines, ocrErr := ocradapter.Read(path, minConfidence)
	if ocrErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "OCR failed for '%s': %s", path, ocrErr)
		return nil
	}

	out := make([]extract.Line, len(lines))
	for i, l := range lines {
		out[i] = extract.Line{Text: l.Text, Confidence: l.Confidence, Bbox: l.Bbox}
	}
	return out
}

// Package ocradapter wraps gosseract to produce the bounding-box-bearing
// lines src/pkg/extract needs, instead of the teacher's plain Text()
// call. Adapted from src/pkg/ocr/tesseract.go.
package ocradapter

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Line mirrors extract.Line without importing it, so this package stays
// independently testable; src/pkg/pipeline converts between the two at the
// call site.
type Line struct {
	Text       string
	Confidence float64
	Bbox       [8]float64
}

// Languages is Tesseract's "+"-joined language string. Indonesian
// receipts mix Bahasa Indonesia with printed Latin digits, so both
// language packs are loaded.
const Languages = "ind+eng"

// Read runs OCR over imagePath and returns every recognized text line
// whose confidence is at least minConfidence (0-1 scale). Lines are
// returned in Tesseract's native reading order, not sorted by position;
// callers needing geometric order should sort by bbox Y themselves.
func Read(imagePath string, minConfidence float64) (lines []Line, e *xerr.Error) {
	tl.Log(tl.Info1, palette.Cyan, "Running OCR on processed image '%s'", imagePath)

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := client.SetLanguage(Languages); err != nil {
		return nil, xerr.NewError(err, "unable to client.SetLanguage", imagePath)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return nil, xerr.NewError(err, "unable to client.SetVariable(\"preserve_interword_spaces\", \"1\")", imagePath)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, xerr.NewError(err, "unable to client.SetPageSegMode(PSM_AUTO)", imagePath)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, xerr.NewError(err, "unable to client.SetImage(imagePath)", imagePath)
	}

	boxes, boxErr := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if boxErr != nil {
		return nil, xerr.NewError(boxErr, "unable to client.GetBoundingBoxes(RIL_TEXTLINE)", imagePath)
	}

	lines = make([]Line, 0, len(boxes))
	for _, b := range boxes {
		confidence := b.Confidence / 100.0
		if confidence < minConfidence {
			continue
		}
		rect := b.Box
		lines = append(lines, Line{
			Text:       b.Word,
			Confidence: confidence,
			Bbox: [8]float64{
				float64(rect.Min.X), float64(rect.Min.Y),
				float64(rect.Max.X), float64(rect.Min.Y),
				float64(rect.Max.X), float64(rect.Max.Y),
				float64(rect.Min.X), float64(rect.Max.Y),
			},
		})
	}

	tl.Log(tl.Info1, palette.Green, "OCR completed for '%s' (lines: %s, floor: %.2f)", imagePath, fmt.Sprintf("%d", len(lines)), minConfidence)
	return lines, nil
}

package preprocess

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 220, G: 220, B: 220, A: 255})
	img.Set(1, 0, color.NRGBA{R: 30, G: 30, B: 30, A: 255})

	out := threshold(img, 200)

	if got := out.NRGBAAt(0, 0); got.R != 255 {
		t.Fatalf("bright pixel thresholded to %d, want 255", got.R)
	}
	if got := out.NRGBAAt(1, 0); got.R != 0 {
		t.Fatalf("dark pixel thresholded to %d, want 0", got.R)
	}
}

func TestDilateSpreadsDarkPixel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.Set(1, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	out := dilate(img)

	if got := out.NRGBAAt(1, 1); got.R != 0 {
		t.Fatalf("center pixel = %d, want 0", got.R)
	}
	if got := out.NRGBAAt(0, 1); got.R != 0 {
		t.Fatalf("left neighbor of a dark pixel should darken via its right-neighbor check, got %d", got.R)
	}
	if got := out.NRGBAAt(1, 0); got.R != 0 {
		t.Fatalf("neighbor above a dark pixel should darken via its below-neighbor check, got %d", got.R)
	}
	if got := out.NRGBAAt(2, 2); got.R != 255 {
		t.Fatalf("far corner pixel = %d, want untouched 255", got.R)
	}
}

func TestStandardProducesDoubleHeightImage(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.png")
	destPath := filepath.Join(dir, "dest.png")

	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				src.Set(x, y, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
			} else {
				src.Set(x, y, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
			}
		}
	}
	if saveErr := imaging.Save(src, sourcePath); saveErr != nil {
		t.Fatalf("failed to save fixture source image: %s", saveErr)
	}

	if procErr := Standard(sourcePath, destPath); procErr != nil {
		t.Fatalf("Standard() returned error: %s", procErr)
	}

	out, openErr := imaging.Open(destPath)
	if openErr != nil {
		t.Fatalf("failed to open processed output: %s", openErr)
	}
	bounds := out.Bounds()
	if bounds.Dy() != 20 {
		t.Fatalf("processed image height = %d, want double the source height (20)", bounds.Dy())
	}
}

func TestHandwrittenProducesTripleHeightImage(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.png")
	destPath := filepath.Join(dir, "dest.png")

	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.NRGBA{R: 180, G: 180, B: 180, A: 255})
		}
	}
	if saveErr := imaging.Save(src, sourcePath); saveErr != nil {
		t.Fatalf("failed to save fixture source image: %s", saveErr)
	}

	if procErr := Handwritten(sourcePath, destPath); procErr != nil {
		t.Fatalf("Handwritten() returned error: %s", procErr)
	}

	out, openErr := imaging.Open(destPath)
	if openErr != nil {
		t.Fatalf("failed to open processed output: %s", openErr)
	}
	if got := out.Bounds().Dy(); got != 30 {
		t.Fatalf("processed image height = %d, want triple the source height (30)", got)
	}
}

func TestStandardErrorsOnMissingSource(t *testing.T) {
	dir := t.TempDir()
	if procErr := Standard(filepath.Join(dir, "missing.png"), filepath.Join(dir, "dest.png")); procErr == nil {
		t.Fatal("expected an error for a missing source image")
	}
}

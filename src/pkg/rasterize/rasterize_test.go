package rasterize

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestToPagesSingleImage(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "receipt.png")

	src := image.NewNRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			src.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	if saveErr := imaging.Save(src, imgPath); saveErr != nil {
		t.Fatalf("failed to save fixture image: %s", saveErr)
	}

	pages, e := ToPages(imgPath, dir)
	if e != nil {
		t.Fatalf("ToPages() returned error: %s", e)
	}
	if len(pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(pages))
	}
	if pages[0].Width != 120 || pages[0].Height != 80 {
		t.Fatalf("pages[0] dims = %vx%v, want 120x80", pages[0].Width, pages[0].Height)
	}
	if pages[0].Path != imgPath {
		t.Fatalf("pages[0].Path = %q, want %q", pages[0].Path, imgPath)
	}
}

func TestToPagesRejectsUnsupportedExtension(t *testing.T) {
	if _, e := ToPages("receipt.bmp", t.TempDir()); e == nil {
		t.Fatal("expected an error for an unsupported file extension")
	}
}

func TestToPagesRejectsMissingImage(t *testing.T) {
	if _, e := ToPages(filepath.Join(t.TempDir(), "missing.png"), t.TempDir()); e == nil {
		t.Fatal("expected an error for a missing image file")
	}
}

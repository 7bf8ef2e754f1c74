package pipeline

import (
	"testing"

	"receipt-grandtotal/src/pkg/extract"
)

func TestNewServiceIsWired(t *testing.T) {
	svc := NewService()
	if svc == nil {
		t.Fatal("NewService() returned nil")
	}
	if svc.LoadPages == nil {
		t.Fatal("expected a non-nil LoadPages loader")
	}
	if svc.OCR == nil {
		t.Fatal("expected a non-nil OCR func")
	}
}

func TestRunOCRReturnsNilForUnrecognizedImageHandle(t *testing.T) {
	lines := runOCR(extract.Page{Index: 0}, 0.5)
	if lines != nil {
		t.Fatalf("expected nil lines for a page with no image handle, got %v", lines)
	}
}

func TestRunCroppedOCRReturnsNilWhenParentHasNoPath(t *testing.T) {
	region := extract.CropRegion{Page: extract.Page{Index: 0}, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	if lines := runCroppedOCR(region, 0.45); lines != nil {
		t.Fatalf("expected nil lines when the parent page carries no image path, got %v", lines)
	}
}

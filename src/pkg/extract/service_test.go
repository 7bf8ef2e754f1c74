package extract

import (
	"errors"
	"os"
	"testing"

	"github.com/tuumbleweed/xerr"
)

func fakeOCR(pagesLines map[int][]Line) OCRFunc {
	return func(page Page, minConfidence float64) []Line {
		if region, isRegion := page.Image.(CropRegion); isRegion {
			_ = region
			return nil
		}
		lines := pagesLines[page.Index]
		out := make([]Line, 0, len(lines))
		for _, l := range lines {
			if l.Confidence >= minConfidence {
				out = append(out, l)
			}
		}
		return out
	}
}

func TestServiceProcessSingleRetailPage(t *testing.T) {
	pages := []Page{{Index: 0, Width: 400, Height: 600}}
	lines := map[int][]Line{
		0: {
			line("Toko Maju Jaya", 0.95, 0),
			line("Subtotal 50.000", 0.95, 300),
			line("PPN 5.000", 0.95, 320),
			line("Total 55.000", 0.95, 340),
		},
	}

	svc := NewService(func(string) ([]Page, *xerr.Error) { return pages, nil }, fakeOCR(lines))
	result := svc.Process("receipt.jpg")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.GrandTotal == nil {
		t.Fatal("expected a non-nil grand total")
	}
	if *result.GrandTotal != 55000 {
		t.Fatalf("GrandTotal = %d, want 55000", *result.GrandTotal)
	}
}

func TestServiceProcessReturnsErrorOnZeroTotal(t *testing.T) {
	pages := []Page{{Index: 0, Width: 400, Height: 600}}
	lines := map[int][]Line{
		0: {line("hello world", 0.95, 0)},
	}
	svc := NewService(func(string) ([]Page, *xerr.Error) { return pages, nil }, fakeOCR(lines))
	result := svc.Process("blank.jpg")

	if result.GrandTotal != nil {
		t.Fatalf("expected nil grand total, got %v", *result.GrandTotal)
	}
	if result.Error == "" {
		t.Fatal("expected a non-empty error message")
	}
}

// TestServiceProcessSummaryShortCircuitsToSingleFocusPage pins spec.md
// §4.7 step 2: once a summary table is detected, the result carries exactly
// one per_page entry (the detected page) and every other page is never run
// through the full per-page pipeline.
func TestServiceProcessSummaryShortCircuitsToSingleFocusPage(t *testing.T) {
	pages := []Page{
		{Index: 0, Width: 600, Height: 800},
		{Index: 1, Width: 600, Height: 800},
	}
	summaryLines := []Line{
		line("Laporan Pertanggung Jawaban Pengeluaran", 0.95, 0),
		line("Saldo Awal 1.000.000", 0.95, 40),
		line("Debet 500.000", 0.95, 60),
		line("Pengeluaran", 0.95, 80),
		line("Total", 0.95, 200),
		line("400.000", 0.95, 220),
	}
	otherPageLines := []Line{
		line("Toko Maju Jaya", 0.95, 0),
		line("Total 9.000", 0.95, 60),
	}

	var fullPipelineCallsOnOtherPage int
	ocr := func(page Page, minConfidence float64) []Line {
		if page.Index == 0 {
			return summaryLines
		}
		if minConfidence >= pageOCRFloor {
			fullPipelineCallsOnOtherPage++
		}
		return otherPageLines
	}

	os.Setenv("OCR_SUMMARY_TEMPLATE_MODE", "strict")
	defer os.Unsetenv("OCR_SUMMARY_TEMPLATE_MODE")

	svc := NewService(func(string) ([]Page, *xerr.Error) { return pages, nil }, ocr)
	result := svc.Process("laporan.pdf")

	if result.GrandTotal == nil || *result.GrandTotal != 400000 {
		t.Fatalf("GrandTotal = %v, want 400000", result.GrandTotal)
	}
	if len(result.PerPage) != 1 {
		t.Fatalf("len(PerPage) = %d, want 1 (only the detected summary page)", len(result.PerPage))
	}
	if result.PerPage[0].Page != 1 {
		t.Fatalf("PerPage[0].Page = %d, want 1", result.PerPage[0].Page)
	}
	if fullPipelineCallsOnOtherPage != 0 {
		t.Fatalf("expected the non-focus page to never run through the full per-page pipeline, got %d calls", fullPipelineCallsOnOtherPage)
	}
}

func TestServiceProcessPropagatesLoaderError(t *testing.T) {
	loaderErr := xerr.NewError(errors.New("no such file"), "open file", "missing.jpg")
	svc := NewService(func(string) ([]Page, *xerr.Error) { return nil, loaderErr }, fakeOCR(nil))
	result := svc.Process("missing.jpg")

	if result.Error == "" {
		t.Fatal("expected loader error to surface in DocumentResult.Error")
	}
}

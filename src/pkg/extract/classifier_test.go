package extract

import "testing"

func line(text string, conf float64, y float64) Line {
	return Line{Text: text, Confidence: conf, Bbox: [8]float64{0, y, 100, y, 100, y + 20, 0, y + 20}}
}

func TestClassifyRetail(t *testing.T) {
	lines := []Line{
		line("Toko Maju Jaya", 0.95, 0),
		line("Subtotal 50.000", 0.95, 20),
		line("PPN 5.000", 0.95, 40),
		line("Total 55.000", 0.95, 60),
	}
	if got := classify(lines); got != CategoryRetail {
		t.Fatalf("classify() = %q, want %q", got, CategoryRetail)
	}
}

func TestClassifyBilling(t *testing.T) {
	lines := []Line{
		line("Jumlah Tagihan", 0.9, 0),
		line("150.000", 0.9, 20),
		line("Nomor Telepon 08123456", 0.9, 40),
	}
	if got := classify(lines); got != CategoryBilling {
		t.Fatalf("classify() = %q, want %q", got, CategoryBilling)
	}
}

func TestClassifyInstitutional(t *testing.T) {
	lines := []Line{
		line("KWITANSI", 0.9, 0),
		line("Telah terima sebesar Rp 100.000", 0.9, 20),
		line("terbilang seratus ribu rupiah", 0.9, 40),
	}
	if got := classify(lines); got != CategoryInstitutional {
		t.Fatalf("classify() = %q, want %q", got, CategoryInstitutional)
	}
}

func TestClassifyEmptyIsUnknown(t *testing.T) {
	if got := classify(nil); got != CategoryUnknown {
		t.Fatalf("classify(nil) = %q, want %q", got, CategoryUnknown)
	}
}

func TestSegmenterSplitsOnXGap(t *testing.T) {
	pageWidth, pageHeight := 1000.0, 500.0
	var lines []Line
	for y := 0.0; y < 200; y += 20 {
		lines = append(lines, line("total 10.000", 0.9, y))
	}
	for y := 0.0; y < 200; y += 20 {
		lines = append(lines, Line{Text: "total 20.000", Confidence: 0.9, Bbox: [8]float64{700, y, 800, y, 800, y + 20, 700, y + 20}})
	}

	groups := segment(lines, pageWidth, pageHeight)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups from x-gap split, got %d", len(groups))
	}
}

func TestSegmenterSingleGroupWhenNoGap(t *testing.T) {
	lines := []Line{line("total 10.000", 0.9, 0), line("total 20.000", 0.9, 20)}
	groups := segment(lines, 400, 500)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
}

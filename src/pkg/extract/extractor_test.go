package extract

import "testing"

func TestExtractGenericKeywordStage(t *testing.T) {
	lines := LineGroup{
		line("Item A 10.000", 0.95, 0),
		line("Total: 25.000", 0.95, 20),
	}
	total, ok := extractGeneric(lines, 500)
	if !ok {
		t.Fatal("expected extractGeneric to find a total")
	}
	if total.Amount != 25000 {
		t.Fatalf("total.Amount = %d, want 25000", total.Amount)
	}
}

func TestExtractHandwrittenRequiresMinimum(t *testing.T) {
	lines := LineGroup{line("5.000", 0.9, 0)}
	if _, ok := extractHandwritten(lines); ok {
		t.Fatal("expected extractHandwritten to reject amounts below MinHandwrittenAmount")
	}

	lines = LineGroup{line("50.000", 0.9, 0)}
	total, ok := extractHandwritten(lines)
	if !ok || total.Amount != 50000 {
		t.Fatalf("extractHandwritten() = %+v, %v", total, ok)
	}
}

func TestExtractKuitansi(t *testing.T) {
	lines := LineGroup{
		line("KWITANSI", 0.9, 0),
		line("Telah terima sebesar Rp 250.000", 0.9, 20),
	}
	total, ok := extractKuitansi(lines)
	if !ok || total.Amount != 250000 {
		t.Fatalf("extractKuitansi() = %+v, %v", total, ok)
	}
}

func TestExtractRetailPrefersKeywordAnchor(t *testing.T) {
	lines := LineGroup{
		line("Item Kopi 40.000", 0.9, 0),
		line("Subtotal 10.000", 0.9, 20),
		line("Total 10.000", 0.9, 40),
	}
	total, ok := extractRetail(lines, 500)
	if !ok {
		t.Fatal("expected extractRetail to find a total")
	}
	if total.Amount != 10000 {
		t.Fatalf("total.Amount = %d, want 10000", total.Amount)
	}
}

func TestExtractTotalBayarSameLine(t *testing.T) {
	lines := LineGroup{
		line("No Pelanggan 12345", 0.9, 0),
		line("Total Bayar Rp 150.000", 0.9, 20),
	}
	total, ok := extractTotalBayar(lines)
	if !ok || total.Amount != 150000 {
		t.Fatalf("extractTotalBayar() = %+v, %v", total, ok)
	}
}

func TestExtractTotalBayarNextLineLookahead(t *testing.T) {
	lines := LineGroup{
		line("Total", 0.9, 0),
		line("Bayar Rp 200.000", 0.9, 20),
	}
	total, ok := extractTotalBayar(lines)
	if !ok || total.Amount != 200000 {
		t.Fatalf("extractTotalBayar() = %+v, %v", total, ok)
	}
}

func TestExtractUnknownBillingTotalPicksLargest(t *testing.T) {
	lines := LineGroup{
		line("Total", 0.9, 0),
		line("50.000", 0.9, 20),
		line("keterangan lain", 0.9, 40),
		line("130.000", 0.9, 60),
	}
	total, ok := extractUnknownBillingTotal(lines)
	if !ok {
		t.Fatal("expected extractUnknownBillingTotal to find a total")
	}
	if total.Amount != 130000 {
		t.Fatalf("total.Amount = %d, want 130000 (largest nearby amount, not nearest)", total.Amount)
	}
}

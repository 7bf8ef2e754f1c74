package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeResultFile(t *testing.T, dir, name string, result documentResult) string {
	t.Helper()
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal fixture result: %s", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture result: %s", err)
	}
	return path
}

func int64Ptr(v int64) *int64 { return &v }

func TestBuildAggregatesByFirstCategoryDetected(t *testing.T) {
	outDir := t.TempDir()
	runDir := filepath.Join(outDir, "july-2026")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("create run dir: %s", err)
	}

	writeResultFile(t, runDir, "a.result.json", documentResult{
		GrandTotal: int64Ptr(15000), Currency: "IDR", ReceiptCount: 1,
		CategoryDetected: []string{"retail_printed"},
	})
	writeResultFile(t, runDir, "b.result.json", documentResult{
		GrandTotal: int64Ptr(35000), Currency: "IDR", ReceiptCount: 1,
		CategoryDetected: []string{"retail_printed"},
	})
	writeResultFile(t, runDir, "c.result.json", documentResult{
		GrandTotal: int64Ptr(50000), Currency: "IDR", ReceiptCount: 1,
		CategoryDetected: []string{"handwritten"},
	})
	writeResultFile(t, runDir, "d.result.json", documentResult{
		Error: "no grand total found found on page",
	})

	options := Options{OutDir: outDir, Year: 2026, Month: time.July, Timezone: "Asia/Jakarta", MaxRows: 10, ReportTitle: "Test report"}
	result, buildErr := Build(options)
	if buildErr != nil {
		t.Fatalf("Build returned error: %s", buildErr)
	}

	if result.DocumentCount != 3 {
		t.Fatalf("expected 3 documents counted (failed doc excluded), got %d", result.DocumentCount)
	}
	if result.TotalSpent != 100000 {
		t.Fatalf("expected total spent 100000, got %d", result.TotalSpent)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 category rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Key != "retail_printed" || result.Rows[0].Amount != 50000 {
		t.Fatalf("expected retail_printed to lead with amount 50000, got %+v", result.Rows[0])
	}
	if result.Rows[0].DisplayName != "Retail (printed)" {
		t.Fatalf("expected known display name mapping, got %q", result.Rows[0].DisplayName)
	}
}

func TestBuildOnlyScansRequestedYearMonthDirectory(t *testing.T) {
	outDir := t.TempDir()
	juneDir := filepath.Join(outDir, "june-2026")
	julyDir := filepath.Join(outDir, "july-2026")
	if err := os.MkdirAll(juneDir, 0o755); err != nil {
		t.Fatalf("create june dir: %s", err)
	}
	if err := os.MkdirAll(julyDir, 0o755); err != nil {
		t.Fatalf("create july dir: %s", err)
	}
	writeResultFile(t, juneDir, "stale.result.json", documentResult{
		GrandTotal: int64Ptr(999999), CategoryDetected: []string{"handwritten"},
	})
	writeResultFile(t, julyDir, "fresh.result.json", documentResult{
		GrandTotal: int64Ptr(1000), CategoryDetected: []string{"handwritten"},
	})

	result, buildErr := Build(Options{OutDir: outDir, Year: 2026, Month: time.July, Timezone: "Asia/Jakarta", MaxRows: 10})
	if buildErr != nil {
		t.Fatalf("Build returned error: %s", buildErr)
	}
	if result.TotalSpent != 1000 {
		t.Fatalf("expected June's directory to be excluded, got total %d", result.TotalSpent)
	}
}

func TestBuildGroupsOverflowCategoriesIntoOther(t *testing.T) {
	outDir := t.TempDir()
	runDir := filepath.Join(outDir, "july-2026")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("create run dir: %s", err)
	}

	categories := []string{"handwritten", "retail_printed", "institutional_kuitansi", "digital_payment", "simple_proof"}
	for i, category := range categories {
		writeResultFile(t, runDir, category+".result.json", documentResult{
			GrandTotal: int64Ptr(int64(1000 * (i + 1))), CategoryDetected: []string{category},
		})
	}

	result, buildErr := Build(Options{OutDir: outDir, Year: 2026, Month: time.July, Timezone: "Asia/Jakarta", MaxRows: 3})
	if buildErr != nil {
		t.Fatalf("Build returned error: %s", buildErr)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("expected rows capped at MaxRows (3), got %d", len(result.Rows))
	}
	last := result.Rows[len(result.Rows)-1]
	if last.Key != "other" {
		t.Fatalf("expected overflow categories grouped under 'other', got %q", last.Key)
	}
}

func TestBuildMissingRunDirectoryReturnsEmptyReport(t *testing.T) {
	outDir := t.TempDir()
	result, buildErr := Build(Options{OutDir: outDir, Year: 2026, Month: time.July, Timezone: "Asia/Jakarta", MaxRows: 10})
	if buildErr == nil {
		t.Fatal("expected an error when the run directory does not exist")
	}
	if result.DocumentCount != 0 {
		t.Fatalf("expected zero-value report on error, got %+v", result)
	}
}

func TestRenderHTMLIncludesTitleAndTotal(t *testing.T) {
	monthlyReport := MonthlyReport{
		Title: "Grand total report — July 2026", Year: 2026, Month: time.July,
		DocumentCount: 2, TotalSpent: 45000,
		Rows: []CategoryRow{{Key: "handwritten", DisplayName: "Handwritten", Amount: 45000, Percent: 100, Color: "#2563EB", BarPercent: 100}},
		PeriodStart: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, time.July, 31, 23, 59, 59, 0, time.UTC),
		GeneratedAt: time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC),
		Notes:       []string{"Totals source: grand_total from each document's result JSON."},
	}

	rendered := RenderHTML(monthlyReport)

	if !containsAll(rendered, "Grand total report — July 2026", "Rp 45.000", "Handwritten", "100.0%") {
		t.Fatalf("rendered HTML missing expected fragments:\n%s", rendered)
	}
}

func TestRenderHTMLEscapesUntrustedFields(t *testing.T) {
	monthlyReport := MonthlyReport{
		Title: `<script>alert(1)</script>`,
		Rows:  []CategoryRow{{DisplayName: `<b>bold</b>`, Color: "#000"}},
	}
	rendered := RenderHTML(monthlyReport)
	if containsAll(rendered, "<script>alert(1)</script>") {
		t.Fatal("expected title to be HTML-escaped, found raw script tag")
	}
}

func TestFormatIDRGroupsThousands(t *testing.T) {
	cases := map[int64]string{
		0:         "Rp 0",
		999:       "Rp 999",
		1000:      "Rp 1.000",
		1500000:   "Rp 1.500.000",
		-2500:     "-Rp 2.500",
	}
	for amount, want := range cases {
		if got := formatIDR(amount); got != want {
			t.Errorf("formatIDR(%d) = %q, want %q", amount, got, want)
		}
	}
}

func containsAll(haystack string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}

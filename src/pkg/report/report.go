/*
Package report aggregates the *.result.json files produced by
src/cmd/extract-batch into a monthly HTML summary, keyed on
category_detected instead of the teacher's LLM-derived spend category.
Adapted from the teacher's src/cmd/report/main.go renderer.
*/
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tuumbleweed/xerr"
)

// Options controls which result files are included and where output goes.
type Options struct {
	OutDir      string
	Year        int
	Month       time.Month
	Timezone    string
	MaxRows     int
	ReportTitle string
}

// categoryAgg accumulates grand totals for a category_detected value across
// many documents.
type categoryAgg struct {
	Key             string
	DisplayName     string
	Amount          int64
	DocumentHitCount int64
}

// CategoryRow is a rendered row in the final report.
type CategoryRow struct {
	Key         string
	DisplayName string
	Amount      int64
	Percent     float64
	Color       string
	BarPercent  int
}

// MonthlyReport is the computed summary used to render HTML.
type MonthlyReport struct {
	Title        string
	Year         int
	Month        time.Month
	Timezone     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	GeneratedAt  time.Time
	DocumentCount int
	TotalSpent   int64
	Rows         []CategoryRow
	Notes        []string
}

// documentResult is the subset of extract.DocumentResult this package reads
// from disk. It is declared independently rather than imported so a report
// run never needs to link the OCR/OCR-adapter dependency chain.
type documentResult struct {
	GrandTotal       *int64   `json:"grand_total"`
	Currency         string   `json:"currency"`
	ReceiptCount     int      `json:"receipt_count"`
	CategoryDetected []string `json:"category_detected"`
	Error            string   `json:"error,omitempty"`
}

// Build scans options.OutDir for a <month>-<year>/*.result.json tree (the
// output of cmd/extract-batch), aggregates grand_total by the first
// category_detected entry of each document, and returns a MonthlyReport.
//
// Unlike the teacher's report, which filters by a per-receipt date field,
// OCR'd receipts carry no reliable machine-parseable date (spec.md's
// Non-goals exclude vendor/date extraction), so the period is selected by
// the run's year-month output directory instead of a per-document field.
func Build(options Options) (MonthlyReport, *xerr.Error) {
	location, locErr := time.LoadLocation(options.Timezone)
	if locErr != nil {
		location = time.UTC
	}

	periodStart := time.Date(options.Year, options.Month, 1, 0, 0, 0, 0, location)
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	runDir := filepath.Join(options.OutDir, fmt.Sprintf("%s-%04d", strings.ToLower(options.Month.String()), options.Year))

	resultPaths, scanErr := collectResultFiles(runDir)
	if scanErr != nil {
		return MonthlyReport{}, scanErr
	}

	categoryAggByKey := make(map[string]*categoryAgg)
	documentCount := 0
	var totalSpent int64

	for _, resultPath := range resultPaths {
		result, loadErr := loadDocumentResult(resultPath)
		if loadErr != nil {
			continue
		}
		if result.GrandTotal == nil || result.Error != "" {
			continue
		}

		documentCount++
		totalSpent += *result.GrandTotal

		categoryKey := "uncategorized"
		if len(result.CategoryDetected) > 0 {
			categoryKey = normalizeCategoryKey(result.CategoryDetected[0])
		}

		agg, exists := categoryAggByKey[categoryKey]
		if !exists {
			agg = &categoryAgg{Key: categoryKey, DisplayName: displayCategoryName(categoryKey)}
			categoryAggByKey[categoryKey] = agg
		}
		agg.Amount += *result.GrandTotal
		agg.DocumentHitCount++
	}

	rows := buildCategoryRows(categoryAggByKey, totalSpent, options.MaxRows)

	notes := []string{
		"Totals source: grand_total from each document's result JSON.",
		"Category percentages are computed from grand_total divided by the displayed total.",
		"Documents are grouped by the extract-batch run's output month directory, not a per-receipt date field.",
	}

	return MonthlyReport{
		Title:         options.ReportTitle,
		Year:          options.Year,
		Month:         options.Month,
		Timezone:      options.Timezone,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		GeneratedAt:   time.Now().In(location),
		DocumentCount: documentCount,
		TotalSpent:    totalSpent,
		Rows:          rows,
		Notes:         notes,
	}, nil
}

func collectResultFiles(runDir string) ([]string, *xerr.Error) {
	var paths []string
	walkErr := filepath.WalkDir(runDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".result.json") {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, xerr.NewErrorEC(walkErr, "walk run directory", "runDir", runDir, false)
	}
	sort.Strings(paths)
	return paths, nil
}

func loadDocumentResult(path string) (documentResult, *xerr.Error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return documentResult{}, xerr.NewErrorEC(readErr, "read result JSON", "path", path, false)
	}
	var result documentResult
	if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
		return documentResult{}, xerr.NewErrorEC(unmarshalErr, "unmarshal result JSON", "path", path, false)
	}
	return result, nil
}

func normalizeCategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func displayCategoryName(categoryKey string) string {
	known := map[string]string{
		"handwritten":             "Handwritten",
		"retail_printed":          "Retail (printed)",
		"institutional_kuitansi":  "Institutional (kuitansi)",
		"digital_payment":         "Digital payment",
		"simple_proof":            "Simple proof",
		"resi_tagihan":            "Billing / invoice",
		"saldo_pengeluaran_summary": "Expense report summary",
		"unknown":                 "Unknown",
		"uncategorized":           "Uncategorized",
	}
	if name, ok := known[categoryKey]; ok {
		return name
	}
	parts := strings.Split(categoryKey, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func buildCategoryRows(categoryAggByKey map[string]*categoryAgg, totalSpent int64, maxRows int) []CategoryRow {
	rows := make([]CategoryRow, 0, len(categoryAggByKey))
	for _, agg := range categoryAggByKey {
		percent := 0.0
		if totalSpent > 0 {
			percent = (float64(agg.Amount) / float64(totalSpent)) * 100.0
		}
		barPercent := int(math.Round(percent))
		if agg.Amount > 0 && barPercent == 0 {
			barPercent = 1
		}
		if barPercent > 100 {
			barPercent = 100
		}
		rows = append(rows, CategoryRow{
			Key:         agg.Key,
			DisplayName: agg.DisplayName,
			Amount:      agg.Amount,
			Percent:     percent,
			BarPercent:  barPercent,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })

	if maxRows < 3 {
		maxRows = 3
	}
	if len(rows) > maxRows {
		keep := rows[:maxRows-1]
		rest := rows[maxRows-1:]

		var otherAmount int64
		for _, r := range rest {
			otherAmount += r.Amount
		}
		otherPercent := 0.0
		if totalSpent > 0 {
			otherPercent = (float64(otherAmount) / float64(totalSpent)) * 100.0
		}
		otherBarPercent := int(math.Round(otherPercent))
		if otherAmount > 0 && otherBarPercent == 0 {
			otherBarPercent = 1
		}
		if otherBarPercent > 100 {
			otherBarPercent = 100
		}
		rows = append(keep, CategoryRow{
			Key: "other", DisplayName: "Other", Amount: otherAmount,
			Percent: otherPercent, BarPercent: otherBarPercent,
		})
	}

	paletteColors := []string{
		"#2563EB", "#7C3AED", "#059669", "#DB2777", "#D97706",
		"#0EA5E9", "#65A30D", "#9333EA", "#F43F5E", "#14B8A6",
	}
	for i := range rows {
		rows[i].Color = paletteColors[i%len(paletteColors)]
	}
	return rows
}

// RenderHTML converts a MonthlyReport into a single email-safe HTML string.
func RenderHTML(report MonthlyReport) string {
	var buffer bytes.Buffer

	totalFormatted := formatIDR(report.TotalSpent)
	monthName := report.Month.String()

	buffer.WriteString("<!doctype html><html><head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:#111827;"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#F3F4F6;"><tr><td align="center" style="padding:24px;">`)
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="680" style="border-collapse:separate;background-color:#F3F4F6;width:680px;max-width:680px;"><tr><td style="padding:0;">`)

	buffer.WriteString(`<div style="padding:8px 4px 18px 4px;">`)
	buffer.WriteString(`<div style="font-size:24px;font-weight:800;line-height:1.2;color:#111827;">` + html.EscapeString(report.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Period: <span style="font-weight:700;color:#111827;">` + html.EscapeString(monthName) + ` ` + strconv.Itoa(report.Year) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Documents: <span style="font-weight:700;color:#111827;">` + strconv.Itoa(report.DocumentCount) + `</span>`)
	buffer.WriteString(`</div></div>`)

	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:18px 18px 6px 18px;">`)
	buffer.WriteString(`<div style="font-size:12px;letter-spacing:0.10em;text-transform:uppercase;color:#6B7280;">Total grand total</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:34px;font-weight:900;line-height:1.1;color:#111827;">` + html.EscapeString(totalFormatted) + `</div>`)
	buffer.WriteString(`<div style="margin-top:8px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`From <span style="font-weight:700;color:#111827;">` + report.PeriodStart.Format("2006-01-02") + `</span> to <span style="font-weight:700;color:#111827;">` + report.PeriodEnd.Format("2006-01-02") + `</span>`)
	buffer.WriteString(`</div></div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;"><div style="height:1px;background-color:#E5E7EB;width:100%;"></div>`)
	buffer.WriteString(`<div style="margin-top:14px;font-size:14px;font-weight:800;color:#111827;">Category breakdown</div></div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	if report.DocumentCount == 0 || len(report.Rows) == 0 {
		buffer.WriteString(`<div style="padding:14px;border:1px dashed #D1D5DB;border-radius:12px;background-color:#FAFAFA;color:#6B7280;font-size:13px;line-height:1.6;">No documents found for this month in the selected directory.</div>`)
	} else {
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
		for _, row := range report.Rows {
			buffer.WriteString(`<tr><td style="padding:12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)
			buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;"><tr>`)
			buffer.WriteString(`<td style="vertical-align:top;padding-right:10px;">`)
			buffer.WriteString(`<div style="display:inline-block;width:10px;height:10px;border-radius:999px;background-color:` + row.Color + `;margin-right:8px;position:relative;top:1px;"></div>`)
			buffer.WriteString(`<span style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(row.DisplayName) + `</span></td>`)
			buffer.WriteString(`<td align="right" style="vertical-align:top;">`)
			buffer.WriteString(`<div style="font-size:14px;font-weight:900;color:#111827;">` + html.EscapeString(formatIDR(row.Amount)) + `</div>`)
			buffer.WriteString(`<div style="margin-top:2px;font-size:12px;font-weight:800;color:#6B7280;">` + fmt.Sprintf("%.1f%%", row.Percent) + `</div></td></tr>`)
			buffer.WriteString(`<tr><td colspan="2" style="padding-top:10px;"><div style="width:100%;height:10px;border-radius:999px;background-color:#EEF2FF;overflow:hidden;border:1px solid #E5E7EB;">`)
			buffer.WriteString(`<div style="height:10px;width:` + strconv.Itoa(row.BarPercent) + `%;background-color:` + row.Color + `;border-radius:999px;"></div></div></td></tr>`)
			buffer.WriteString(`</table></td></tr>`)
		}
		buffer.WriteString(`</table>`)
	}
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px;"><div style="font-size:13px;font-weight:900;color:#111827;">Notes</div>`)
	buffer.WriteString(`<div style="margin-top:10px;font-size:12px;line-height:1.7;color:#6B7280;">`)
	for _, note := range report.Notes {
		buffer.WriteString(`• ` + html.EscapeString(note) + `<br>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`<div style="margin-top:12px;font-size:11px;color:#9CA3AF;">Generated ` + html.EscapeString(report.GeneratedAt.Format("2006-01-02 15:04:05")) + `</div></div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)

	buffer.WriteString(`</td></tr></table></td></tr></table></body></html>`)

	return buffer.String()
}

func cardOpen() string {
	return `<div style="background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:16px;box-shadow:0 8px 24px rgba(17,24,39,0.06);overflow:hidden;">`
}

func cardClose() string {
	return `</div>`
}

// formatIDR formats an integer rupiah amount with dot thousand separators.
func formatIDR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	raw := strconv.FormatInt(amount, 10)
	return fmt.Sprintf("%sRp %s", sign, groupThousands(raw))
}

func groupThousands(raw string) string {
	if len(raw) <= 3 {
		return raw
	}
	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(raw[:firstGroupLen])
	for i := firstGroupLen; i < len(raw); i += 3 {
		builder.WriteString(".")
		builder.WriteString(raw[i : i+3])
	}
	return builder.String()
}

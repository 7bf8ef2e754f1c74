/*
Package main renders a monthly HTML report aggregating the *.result.json
files produced by cmd/extract-batch. Adapted from the teacher's
cmd/report/main.go CLI shape.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/report"
)

func main() {
	options := parseFlags()

	tl.Log(tl.Notice, palette.BlueBold, "Generating monthly grand-total report for %04d-%02d from '%s'", options.Year, int(options.Month), options.OutDir)

	monthlyReport, reportErr := report.Build(options)
	if reportErr != nil {
		reportErr.QuitIf(xerr.ErrorTypeError)
	}

	htmlText := report.RenderHTML(monthlyReport)

	writeErr := os.WriteFile(flagOutputPath, []byte(htmlText), 0o644)
	xerr.QuitIfError(writeErr, "write HTML report file")

	tl.Log(tl.Info1, palette.Green, "Saved report to '%s'", flagOutputPath)
}

var flagOutputPath string

func parseFlags() report.Options {
	outDirFlag := flag.String("out", "./out", "Directory to scan for extract-batch run output (year-month subdirectories)")
	yearFlag := flag.Int("year", 0, "Year to report (default: current year)")
	monthFlag := flag.Int("month", 0, "Month to report 1-12 (default: current month)")
	outputFlag := flag.String("o", "", "Output HTML path (default: ./tmp/report-YYYY-MM.html)")
	timezoneFlag := flag.String("tz", "Asia/Jakarta", "IANA timezone (e.g., Asia/Jakarta)")
	maxRowsFlag := flag.Int("max-rows", 10, "Maximum category rows before grouping remainder into 'Other'")
	titleFlag := flag.String("title", "", "Report title (default: Grand total report — Month Year)")

	flag.Parse()

	location, locationErr := time.LoadLocation(*timezoneFlag)
	if locationErr != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Invalid timezone '%s'; falling back to UTC", *timezoneFlag)
		location = time.UTC
	}
	now := time.Now().In(location)

	year := *yearFlag
	if year == 0 {
		year = now.Year()
	}
	month := *monthFlag
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}

	flagOutputPath = *outputFlag
	if flagOutputPath == "" {
		flagOutputPath = fmt.Sprintf("./tmp/report-%04d-%02d.html", year, month)
	}

	title := *titleFlag
	if title == "" {
		title = fmt.Sprintf("Grand total report — %s %d", time.Month(month).String(), year)
	}

	return report.Options{
		OutDir:      *outDirFlag,
		Year:        year,
		Month:       time.Month(month),
		Timezone:    *timezoneFlag,
		MaxRows:     *maxRowsFlag,
		ReportTitle: title,
	}
}

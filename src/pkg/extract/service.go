package extract

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// PageLoader turns a source file (image or PDF) into one rasterized page
// per side. It is satisfied by src/pkg/rasterize together with
// src/pkg/preprocess; the extract package only depends on the signature so
// it can be exercised with fixture pages in tests.
type PageLoader func(inputPath string) ([]Page, *xerr.Error)

// Service ties the page loader and OCR adapter together to produce a
// DocumentResult for one input file. See spec.md §4.7.
type Service struct {
	LoadPages PageLoader
	OCR       OCRFunc
}

// NewService wires a Service from the loader and OCR adapter the caller
// constructed (rasterize+preprocess, and ocradapter, respectively).
func NewService(loadPages PageLoader, ocr OCRFunc) *Service {
	return &Service{LoadPages: loadPages, OCR: ocr}
}

// Process runs the full pipeline against a single input document:
// rasterize, detect a summary-table template (short-circuiting if one is
// found), otherwise process only the best summary-focus page when any page
// scored as one, and else process every page and sum the grand total. See
// spec.md §4.7.
func (s *Service) Process(inputPath string) DocumentResult {
	pages, xe := s.LoadPages(inputPath)
	if xe != nil {
		tl.Log(tl.Warning, palette.PurpleBright, "Failed to load pages from '%s': %s", inputPath, xe)
		return DocumentResult{Currency: "IDR", Error: fmt.Sprintf("%s", xe)}
	}
	if len(pages) == 0 {
		return DocumentResult{Currency: "IDR", Error: "document contained no pages"}
	}

	focusPageIndexes := findSummaryFocusPageIndexes(pages, s.OCR)

	if detection, ok := detectSummaryTemplate(pages, s.OCR, focusPageIndexes); ok {
		tl.Log(tl.Info1, palette.Cyan, "Summary template detected on page %d, total=%d", detection.pageIndex+1, detection.total)
		return s.buildFromSummary(detection)
	}

	if len(focusPageIndexes) > 0 {
		tl.Log(tl.Info1, palette.Cyan, "No summary template matched; processing focus page %d only", focusPageIndexes[0]+1)
		return s.processFocusPage(pages[focusPageIndexes[0]])
	}

	return s.processAllPages(pages)
}

// processFocusPage handles spec.md §4.7 step 3: when a page scored as
// having "summary focus" (laporan/rekap vocabulary) but the summary-table
// detector didn't actually recognize a pengeluaran table on it, only that
// page is processed and its PageResult becomes the document result — the
// other pages are assumed to be narrative/cover pages, not receipts.
func (s *Service) processFocusPage(page Page) DocumentResult {
	pr := processPage(page, s.OCR)

	result := DocumentResult{
		Currency:         "IDR",
		ReceiptCount:     pr.ReceiptCount,
		CategoryDetected: dedupeCategories(pr.Categories),
		PerPage:          []PageResult{pr},
		RawText:          joinRawText(pr.RawText),
		Confidence:       round4(pr.AvgConfidence),
	}

	if pr.PageTotal == 0 {
		result.Error = "no total amount could be extracted from this document"
		return result
	}

	grandTotal := pr.PageTotal
	result.GrandTotal = &grandTotal
	return result
}

func dedupeCategories(categories []Category) []Category {
	seen := map[Category]bool{}
	var out []Category
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// buildFromSummary short-circuits the per-page pipeline once a
// "pengeluaran" summary table has been found: the grand total comes from
// that single page, which becomes the only per_page entry. Other pages in
// the document are OCR'd only for focus-page scoring and are never run
// through the per-page pipeline — the short-circuit is closed
// under page order, so permuting the non-focus pages cannot change the
// result. See spec.md §4.7 step 2.
func (s *Service) buildFromSummary(detection summaryDetection) DocumentResult {
	pr := PageResult{
		Page:      detection.pageIndex + 1,
		PageTotal: detection.total,
		Receipts: []Receipt{{
			Total:      detection.total,
			Confidence: detection.confidence,
		}},
		ReceiptCount:  1,
		Categories:    []Category{CategorySummary},
		AvgConfidence: detection.confidence,
		RawText:       rawTexts(detection.lines),
	}

	grandTotal := detection.total
	return DocumentResult{
		GrandTotal:       &grandTotal,
		Currency:         "IDR",
		Confidence:       round4(detection.confidence),
		ReceiptCount:     1,
		CategoryDetected: []Category{CategorySummary},
		PerPage:          []PageResult{pr},
		RawText:          joinRawText(pr.RawText),
	}
}

// processAllPages runs the per-page pipeline over every page and sums the
// resulting totals into a single grand total, per spec.md §4.7.
func (s *Service) processAllPages(pages []Page) DocumentResult {
	perPage := make([]PageResult, 0, len(pages))
	var rawText []string
	categorySeen := map[Category]bool{}
	var categories []Category

	grandTotal := 0
	receiptCount := 0
	var confSum float64
	var confCount int

	for _, page := range pages {
		pr := processPage(page, s.OCR)
		perPage = append(perPage, pr)
		rawText = append(rawText, pr.RawText...)
		grandTotal += pr.PageTotal
		receiptCount += pr.ReceiptCount
		for _, r := range pr.Receipts {
			confSum += r.Confidence
			confCount++
		}
		for _, c := range pr.Categories {
			if !categorySeen[c] {
				categorySeen[c] = true
				categories = append(categories, c)
			}
		}
	}

	result := DocumentResult{
		Currency:         "IDR",
		ReceiptCount:     receiptCount,
		CategoryDetected: categories,
		PerPage:          perPage,
		RawText:          joinRawText(rawText),
	}

	if confCount > 0 {
		result.Confidence = round4(confSum / float64(confCount))
	}

	if grandTotal == 0 {
		result.Error = "no total amount could be extracted from this document"
		return result
	}

	result.GrandTotal = &grandTotal
	return result
}

func joinRawText(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

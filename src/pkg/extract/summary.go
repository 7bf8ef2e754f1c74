package extract

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

var summaryTemplatePageKeywords = []string{"laporan", "pertanggung jawaban", "pertanggungjawaban", "rekap", "rekapitulasi"}

var nonAlnumRegexp = regexp.MustCompile(`[^a-z0-9]+`)
var multiSpaceRegexp = regexp.MustCompile(`\s+`)
var summaryKeywordLineRegexp = regexp.MustCompile(`(?i)lapor|rekap|pertanggung|jawab`)

// summaryMode reads OCR_SUMMARY_TEMPLATE_MODE; invalid values fall back to
// strict, per spec.md §6/§7.
func summaryMode() string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("OCR_SUMMARY_TEMPLATE_MODE")))
	if mode != "strict" && mode != "lenient" {
		return "strict"
	}
	return mode
}

func normalizeSummaryText(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.ToLower(l.Text))
	}
	joined := sb.String()
	normalized := nonAlnumRegexp.ReplaceAllString(joined, " ")
	normalized = multiSpaceRegexp.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// hasSummaryFocusKeyword reports whether a page's text suggests it is part
// of an expense accountability report, per spec.md §4.5.
func hasSummaryFocusKeyword(lines []Line) bool {
	normalized := normalizeSummaryText(lines)
	if containsAny(normalized, summaryTemplatePageKeywords) {
		return true
	}
	return strings.Contains(normalized, "pertanggung") && strings.Contains(normalized, "jawab")
}

// scoreSummaryPage implements the focus-page scoring formula of spec.md
// §4.5.
func scoreSummaryPage(lines []Line, pageWidth, pageHeight float64) float64 {
	if len(lines) == 0 {
		return 0
	}

	joined := strings.ToLower(strings.Join(rawTexts(lines), "\n"))
	normalized := nonAlnumRegexp.ReplaceAllString(joined, " ")
	normalized = strings.TrimSpace(multiSpaceRegexp.ReplaceAllString(normalized, " "))

	hasLaporan := strings.Contains(normalized, "laporan")
	hasRekap := strings.Contains(normalized, "rekap") || strings.Contains(normalized, "rekapitulasi")
	hasPengeluaran := strings.Contains(normalized, "pengeluaran")
	hasPertanggungjawaban := strings.Contains(normalized, "pertanggung jawaban") ||
		strings.Contains(normalized, "pertanggungjawaban") ||
		(strings.Contains(normalized, "pertanggung") && strings.Contains(normalized, "jawab"))
	hasGenericTotal := strings.Contains(normalized, "jumlah") || strings.Contains(normalized, "total")

	score := 0.0
	if hasLaporan || hasRekap {
		score += 0.35
	}
	if hasPertanggungjawaban {
		score += 0.25
	}
	if hasPengeluaran {
		score += 0.2
	}
	if hasGenericTotal && !(hasLaporan || hasRekap || hasPengeluaran || hasPertanggungjawaban) {
		score -= 0.2
	}

	var keywordLines, pengeluaranLines []Line
	for _, l := range lines {
		if summaryKeywordLineRegexp.MatchString(l.Text) {
			keywordLines = append(keywordLines, l)
		}
		if strings.Contains(strings.ToLower(l.Text), "pengeluaran") {
			pengeluaranLines = append(pengeluaranLines, l)
		}
	}

	if len(keywordLines) > 0 && len(pengeluaranLines) > 0 {
		titleLine := earliestByY(keywordLines)
		headerLine := earliestByY(pengeluaranLines)
		titleY := yCenter(titleLine.Bbox)
		headerY := yCenter(headerLine.Bbox)
		if titleY < pageHeight*0.45 && titleY+20 < headerY && headerY < pageHeight*0.75 {
			score += 0.25
		}
	}

	if len(pengeluaranLines) > 0 {
		header := earliestByY(pengeluaranLines)
		headerX := xCenter(header.Bbox)
		headerY := yCenter(header.Bbox)
		xTolerance := maxFloat(pageWidth*0.2, 90)

		columnHits := 0
		for _, l := range lines {
			if yCenter(l.Bbox) <= headerY {
				continue
			}
			if absFloat(xCenter(l.Bbox)-headerX) > xTolerance {
				continue
			}
			if len(amountsFromLine(strings.ToLower(l.Text))) > 0 {
				columnHits++
			}
		}
		if columnHits >= 2 {
			bonus := 0.18 + float64(columnHits-2)*0.04
			if bonus > 0.30 {
				bonus = 0.30
			}
			score += bonus
		}
	}

	return score
}

func rawTexts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func earliestByY(lines []Line) Line {
	best := lines[0]
	bestY := yCenter(best.Bbox)
	for _, l := range lines[1:] {
		y := yCenter(l.Bbox)
		if y < bestY {
			best = l
			bestY = y
		}
	}
	return best
}

// findSummaryFocusPageIndexes scores every page that has a summary focus
// keyword and returns their indexes ordered by (score desc, first-page
// preferred, descending index) — see spec.md §4.5.
func findSummaryFocusPageIndexes(pages []Page, ocr OCRFunc) []int {
	type scored struct {
		idx   int
		score float64
	}
	var scoredIndexes []scored

	for idx, page := range pages {
		lines := ocr(page, 0.35)
		if hasSummaryFocusKeyword(lines) {
			scoredIndexes = append(scoredIndexes, scored{idx, scoreSummaryPage(lines, page.Width, page.Height)})
		}
	}

	if len(scoredIndexes) == 0 {
		return nil
	}

	sort.SliceStable(scoredIndexes, func(i, j int) bool {
		a, b := scoredIndexes[i], scoredIndexes[j]
		if a.score != b.score {
			return a.score > b.score
		}
		aFirst, bFirst := boolToInt(a.idx == 0), boolToInt(b.idx == 0)
		if aFirst != bFirst {
			return aFirst > bFirst
		}
		return a.idx > b.idx
	})

	out := make([]int, len(scoredIndexes))
	for i, s := range scoredIndexes {
		out[i] = s.idx
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type summaryDetection struct {
	pageIndex  int
	total      int
	confidence float64
	lines      []Line
}

// detectSummaryTemplate tries the summary-table detector across the given
// candidate page indexes (defaulting to page order, page 1 first, when no
// focus pages were found), per spec.md §4.5.
func detectSummaryTemplate(pages []Page, ocr OCRFunc, focusPageIndexes []int) (summaryDetection, bool) {
	if len(pages) == 0 {
		return summaryDetection{}, false
	}

	candidateIndexes := focusPageIndexes
	if len(candidateIndexes) == 0 {
		candidateIndexes = make([]int, len(pages))
		for i := range pages {
			candidateIndexes[i] = i
		}
		sort.SliceStable(candidateIndexes, func(i, j int) bool {
			a, b := candidateIndexes[i], candidateIndexes[j]
			return boolToInt(a == 0) > boolToInt(b == 0)
		})
	}

	type candidatePage struct {
		idx   int
		page  Page
		lines []Line
	}
	var candidatePages []candidatePage
	var headerHintX *float64

	for _, idx := range candidateIndexes {
		page := pages[idx]
		lines := ocr(page, 0.35)
		candidatePages = append(candidatePages, candidatePage{idx, page, lines})
		if headerHintX == nil {
			for _, l := range lines {
				if strings.Contains(strings.ToLower(l.Text), "pengeluaran") {
					x := xCenter(l.Bbox)
					headerHintX = &x
					break
				}
			}
		}
	}

	for _, cp := range candidatePages {
		if len(cp.lines) == 0 {
			continue
		}
		amount, conf, bbox, ok := extractPengeluaranSummaryTotal(cp.lines, cp.page.Width, headerHintX)
		if !ok {
			continue
		}
		_ = bbox
		return summaryDetection{pageIndex: cp.idx, total: amount, confidence: conf, lines: cp.lines}, true
	}

	return summaryDetection{}, false
}

// extractPengeluaranSummaryTotal implements the strict/lenient gate and the
// Strategy-A2 Total-row reading, per spec.md §4.5.
func extractPengeluaranSummaryTotal(lines []Line, pageWidth float64, headerHintX *float64) (amount int, confidence float64, bbox [8]float64, ok bool) {
	joined := strings.ToLower(strings.Join(rawTexts(lines), "\n"))
	normalized := strings.TrimSpace(multiSpaceRegexp.ReplaceAllString(nonAlnumRegexp.ReplaceAllString(joined, " "), " "))

	hasPengeluaran := strings.Contains(normalized, "pengeluaran")
	hasSaldo := strings.Contains(normalized, "saldo")
	hasLaporan := strings.Contains(normalized, "laporan")
	hasRekap := strings.Contains(normalized, "rekap") || strings.Contains(normalized, "rekapitulasi")
	hasPertanggungjawaban := strings.Contains(normalized, "laporan pertanggung jawaban") ||
		strings.Contains(normalized, "laporan pertanggungjawaban") ||
		strings.Contains(normalized, "pertanggungjawaban") ||
		(strings.Contains(normalized, "pertanggung") && strings.Contains(normalized, "jawab"))

	hasTableTerms := containsAny(joined, []string{"saldo", "debet", "kredit", "jumlah", "total"})
	amountDensity := 0
	for _, l := range lines {
		amountDensity += len(amountsFromLine(strings.ToLower(l.Text)))
	}

	var headerLines []Line
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l.Text), "pengeluaran") {
			headerLines = append(headerLines, l)
		}
	}
	hasHeaderContext := len(headerLines) > 0 || headerHintX != nil

	columnAmountHits := 0
	if hasHeaderContext {
		var headerX, headerY float64
		if len(headerLines) > 0 {
			header := headerLines[0]
			headerX = xCenter(header.Bbox)
			headerY = yCenter(header.Bbox)
		} else {
			headerX = *headerHintX
			headerY = lines[0].Bbox[1]
			for _, l := range lines {
				if yCenter(l.Bbox) < headerY {
					headerY = yCenter(l.Bbox)
				}
			}
		}
		xTolerance := maxFloat(pageWidth*0.22, 90)
		for _, l := range lines {
			if yCenter(l.Bbox) <= headerY {
				continue
			}
			if absFloat(xCenter(l.Bbox)-headerX) > xTolerance {
				continue
			}
			columnAmountHits += len(amountsFromLine(strings.ToLower(l.Text)))
		}
	}

	mode := summaryMode()
	if mode == "strict" {
		if !(hasPengeluaran && hasSaldo && hasLaporan && hasPertanggungjawaban) {
			return 0, 0, [8]float64{}, false
		}
		if !hasTableTerms || amountDensity < 2 {
			return 0, 0, [8]float64{}, false
		}
	} else {
		hasReferenceContext := hasLaporan || hasPertanggungjawaban || hasRekap
		hasColumnContext := hasHeaderContext && columnAmountHits >= 1
		qualifies := (hasPengeluaran && hasReferenceContext && (amountDensity >= 1 || hasColumnContext)) ||
			(hasReferenceContext && hasColumnContext) ||
			(hasHeaderContext && hasTableTerms && amountDensity >= 1)
		if !qualifies {
			return 0, 0, [8]float64{}, false
		}
		if amountDensity < 1 && columnAmountHits < 1 {
			return 0, 0, [8]float64{}, false
		}
	}

	ordered := sortedLinesByY(lines)

	type totalLabelCandidate struct {
		amount int
		conf   float64
		bbox   [8]float64
		baseY  float64
	}
	var totalLabelCandidates []totalLabelCandidate

	for idx, line := range ordered {
		lineText := strings.ToLower(line.Text)
		if !strings.Contains(lineText, "total") {
			continue
		}

		baseY := yCenter(line.Bbox)
		var collected []int
		chosenBbox := line.Bbox

		hi := idx + 4
		if hi > len(ordered) {
			hi = len(ordered)
		}
		for nextIdx := idx + 1; nextIdx < hi; nextIdx++ {
			next := ordered[nextIdx]
			nextY := yCenter(next.Bbox)
			if nextY+5 < baseY {
				continue
			}
			if nextY-baseY > 120 {
				break
			}
			nextAmounts := amountsFromLine(strings.ToLower(next.Text))
			if len(nextAmounts) > 0 {
				collected = append(collected, nextAmounts...)
				chosenBbox = next.Bbox
			}
		}

		var chosenAmount int
		switch {
		case len(collected) >= 3:
			// [pemasukan, pengeluaran, saldo] -> pick the middle one.
			chosenAmount = collected[1]
		case len(collected) == 2:
			// Heuristic: pengeluaran is the smaller of the pair. Flips on
			// reports with different opening-balance conventions; see
			// spec.md §9 open question (b).
			chosenAmount = minInt(collected[0], collected[1])
		case len(collected) == 1:
			chosenAmount = collected[0]
		default:
			continue
		}

		if chosenAmount >= 10_000 {
			totalLabelCandidates = append(totalLabelCandidates, totalLabelCandidate{chosenAmount, 0.97, chosenBbox, baseY})
		}
	}

	if len(totalLabelCandidates) == 0 {
		return 0, 0, [8]float64{}, false
	}

	sort.SliceStable(totalLabelCandidates, func(i, j int) bool {
		if totalLabelCandidates[i].baseY != totalLabelCandidates[j].baseY {
			return totalLabelCandidates[i].baseY > totalLabelCandidates[j].baseY
		}
		return totalLabelCandidates[i].conf > totalLabelCandidates[j].conf
	})

	best := totalLabelCandidates[0]
	return best.amount, best.conf, best.bbox, true
}

func sortedLinesByY(lines []Line) []Line {
	ordered := append([]Line(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool { return yCenter(ordered[i].Bbox) < yCenter(ordered[j].Bbox) })
	return ordered
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package extract

// Page is one page of a source document, already rendered to an
// image by src/pkg/rasterize. The extract package never touches image bytes
// directly — it reads through the OCRFunc it is given, so the OCR engine
// and the preprocessing profile stay swappable in tests.
type Page struct {
	Index  int
	Width  float64
	Height float64

	// Image is an opaque handle into the rasterizer/preprocess output
	// (the processed image's file path in production, a CropRegion for a
	// handwritten crop retry, a fixture in tests). OCRFunc
	// implementations type-assert it back to whatever they need.
	Image interface{}
}

// OCRFunc runs OCR over a page at the given minimum line confidence floor
// and returns the surviving lines with bounding boxes. See spec.md §6.
type OCRFunc func(page Page, minConfidence float64) []Line

const (
	pageOCRFloor        = 0.6
	handwrittenOCRFloor = 0.45
)

// processPage implements the per-page pipeline of spec.md §4.6: classify
// the whole page, segment it into receipt groups, extract a total per
// group (with a handwritten crop-retry and a billing override pass), then
// assemble the PageResult.
func processPage(page Page, ocr OCRFunc) PageResult {
	lines := ocr(page, pageOCRFloor)

	result := PageResult{Page: page.Index + 1}
	if len(lines) == 0 {
		return result
	}

	pageCategory := classify(lines)
	groups := segment(lines, page.Width, page.Height)

	var totals []Total
	var categories []Category

	for _, group := range groups {
		groupCategory := classify(group)
		if groupCategory == CategoryUnknown {
			groupCategory = pageCategory
		}

		total, ok := extractTotalForGroup(page, ocr, group, groupCategory, page.Height)
		if !ok {
			continue
		}
		totals = append(totals, total)
		categories = append(categories, groupCategory)
	}

	// Retail receipts sometimes place two stubs side by side; when the
	// groups of a retail-classified page yielded only one total, run the
	// secondary ranked pass over the whole page, excluding that amount.
	if len(totals) == 1 && pageCategory == CategoryRetail {
		if secondary, ok := extractRetailSecondary(lines, page.Height, totals[0].Amount); ok {
			totals = append(totals, secondary)
			categories = append(categories, CategoryRetail)
		}
	}

	// A billing anchor overrides every group total on the page: bills are
	// never split into multiple receipts by the segmenter's heuristics.
	// This runs over the full page regardless of how the page classified,
	// since a lone "Total Bayar" anchor can win even on a page the
	// classifier didn't route to resi_tagihan. Only the three named
	// billing strategies participate (spec.md §4.6 step 5) — the
	// last-resort bare-"total" stage inside extractUnknownBillingTotal is
	// reserved for the per-group resi_tagihan dispatch in
	// extractTotalForGroup and would otherwise hijack ordinary retail
	// totals.
	if billingTotal, ok := extractBillingOverride(lines); ok {
		totals = []Total{billingTotal}
		categories = []Category{CategoryBilling}
	}

	result.Receipts = receiptsFromTotals(totals)
	result.ReceiptCount = len(result.Receipts)
	result.Categories = categories
	result.RawText = rawTexts(lines)

	pageTotal := 0
	var confSum float64
	for _, t := range totals {
		pageTotal += t.Amount
		confSum += t.Confidence
	}
	result.PageTotal = pageTotal
	if len(totals) > 0 {
		result.AvgConfidence = round4(confSum / float64(len(totals)))
	}

	return result
}

// extractTotalForGroup dispatches to the category-specific strategy, with
// a handwritten crop-and-retry when the first pass at the page-level OCR
// floor comes up empty. See spec.md §4.4 and §4.6.
func extractTotalForGroup(page Page, ocr OCRFunc, group LineGroup, category Category, pageHeight float64) (Total, bool) {
	switch category {
	case CategoryHandwritten:
		if t, ok := extractHandwritten(group); ok {
			return t, true
		}
		return retryHandwrittenGroup(page, ocr, group)
	case CategoryDigital:
		return extractDigitalPayment(group)
	case CategorySimple:
		return extractSimpleProof(group)
	case CategoryInstitutional:
		return extractKuitansi(group)
	case CategoryBilling:
		return extractUnknownBillingTotal(group)
	case CategoryRetail:
		return extractRetail(group, pageHeight)
	default:
		return extractGeneric(group, pageHeight)
	}
}

// retryHandwrittenGroup re-OCRs just the group's bounding region at a
// lower confidence floor, the way the original pipeline re-crops and
// re-binarizes a handwritten stub before giving up on it. See spec.md
// §4.6.
func retryHandwrittenGroup(page Page, ocr OCRFunc, group LineGroup) (Total, bool) {
	region := cropGroupRegion(page, group)
	cropped := ocr(region, handwrittenOCRFloor)
	if len(cropped) == 0 {
		return Total{}, false
	}
	rect := region.Image.(CropRegion)
	offset := offsetGroupLines(cropped, rect.MinX, rect.MinY)
	return extractHandwritten(offset)
}

// cropGroupRegionPadding is the fixed-pixel pad applied on every side of a
// group's bounding box before re-OCRing it. See spec.md §4.4.6.
const cropGroupRegionPadding = 20.0

// cropGroupRegion derives a synthetic Page covering only the
// group's bounding box, padded by cropGroupRegionPadding pixels on each side.
func cropGroupRegion(page Page, group LineGroup) Page {
	minX, minY, maxX, maxY := groupBounds(group)
	pad := cropGroupRegionPadding

	minX -= pad
	minY -= pad
	maxX += pad
	maxY += pad
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > page.Width {
		maxX = page.Width
	}
	if maxY > page.Height {
		maxY = page.Height
	}

	return Page{
		Index:  page.Index,
		Width:  maxX - minX,
		Height: maxY - minY,
		Image:  CropRegion{Page: page, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY},
	}
}

// CropRegion carries the crop rectangle through to the OCR adapter, which
// is responsible for actually slicing the underlying image.
type CropRegion struct {
	Page             Page
	MinX, MinY       float64
	MaxX, MaxY       float64
}

// offsetGroupLines re-bases lines OCR'd from a cropped region back onto the
// original page's coordinate space, adding back the exact offset
// cropGroupRegion cropped away, so downstream bbox consumers still see
// page-relative coordinates.
func offsetGroupLines(lines []Line, offsetX, offsetY float64) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		bbox := l.Bbox
		for j := 0; j < 8; j += 2 {
			bbox[j] += offsetX
			bbox[j+1] += offsetY
		}
		out[i] = Line{Text: l.Text, Confidence: l.Confidence, Bbox: bbox}
	}
	return out
}

// extractBillingOverride runs the first three billing strategies of spec.md
// §4.4.5 — total_bayar, then explicit_jumlah_tagihan, then tagihan_anchor —
// over the whole page's lines, in that priority order, and takes precedence
// over every group-level total the moment one of them succeeds.
func extractBillingOverride(lines []Line) (Total, bool) {
	if t, ok := extractTotalBayar(lines); ok {
		return t, true
	}
	if t, ok := extractExplicitJumlahTagihan(lines); ok {
		return t, true
	}
	if t, ok := extractTagihanAnchorTotal(lines); ok {
		return t, true
	}
	return Total{}, false
}

func groupBounds(group LineGroup) (minX, minY, maxX, maxY float64) {
	if len(group) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = group[0].Bbox[0], group[0].Bbox[1]
	maxX, maxY = group[0].Bbox[0], group[0].Bbox[1]
	for _, l := range group {
		for i := 0; i < 8; i += 2 {
			x, y := l.Bbox[i], l.Bbox[i+1]
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	return minX, minY, maxX, maxY
}


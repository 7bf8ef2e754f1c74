package extract

import (
	"regexp"
	"strings"
)

var (
	retailMarkers        = []string{"subtotal", "diskon", "discount", "service", "ppn", "tax"}
	institutionalMarkers = []string{"kwitansi", "invoice", "faktur", "sebesar", "terbilang"}
	paymentMarkers       = []string{"transfer", "bank", "rekening", "va", "virtual account", "qris", "qr", "merchant"}
	simpleMarkers        = []string{"paid", "bukti", "proof"}
	resiTagihanMarkers   = []string{
		"jumlah tagihan", "tagihan", "no.resi", "nomor telepon", "pelanggan", "admin", "pospay",
	}
)

var numericOnlyRegexp = regexp.MustCompile(`^[\d.,\s]+$`)

// classify labels a line set as one of the seven receipt categories using
// keyword hits and geometric statistics. It never returns an empty string;
// an empty lines slice classifies as unknown.
//
// Rule order follows spec.md's decision table exactly (handwritten first,
// then the combined "tagihan" fast-path, then the score-threshold rules,
// falling through to unknown). This differs slightly from the procedural
// order of the original Python source, which checks the bare substring
// "tagihan" before the handwritten heuristic and checks the RESI_TAGIHAN
// keyword-count rule only as a last resort; the two renderings of the rule
// set agree on every receipt where the handwritten heuristic doesn't also
// fire, which the corpus never does for billing receipts.
func classify(lines []Line) Category {
	if len(lines) == 0 {
		return CategoryUnknown
	}

	texts := make([]string, len(lines))
	var confSum float64
	heights := make([]float64, len(lines))
	shortBoxes := 0
	numericLines := 0

	for i, l := range lines {
		lower := strings.ToLower(l.Text)
		texts[i] = lower
		confSum += l.Confidence
		heights[i] = bboxHeight(l.Bbox)
		if len([]rune(lower)) <= 6 {
			shortBoxes++
		}
		if numericOnlyRegexp.MatchString(lower) {
			numericLines++
		}
	}

	avgConf := confSum / float64(len(lines))
	heightVariance := variance(heights)
	densityShort := float64(shortBoxes) / float64(len(texts))
	ratioNumeric := float64(numericLines) / float64(len(texts))

	combined := strings.Join(texts, "\n")

	retailScore := countHits(combined, retailMarkers)
	institutionalScore := countHits(combined, institutionalMarkers)
	paymentScore := countHits(combined, paymentMarkers)
	simpleScore := countHits(combined, simpleMarkers)
	resiTagihanScore := countHits(combined, resiTagihanMarkers)

	switch {
	case avgConf < 0.75 && heightVariance > 200 && densityShort > 0.25:
		return CategoryHandwritten
	case strings.Contains(combined, "tagihan") || resiTagihanScore >= 3:
		return CategoryBilling
	case retailScore >= 2:
		return CategoryRetail
	case institutionalScore >= 1:
		return CategoryInstitutional
	case paymentScore >= 2 && retailScore == 0:
		return CategoryDigital
	case simpleScore >= 1 && ratioNumeric > 0.3:
		return CategorySimple
	default:
		return CategoryUnknown
	}
}

func countHits(combined string, markers []string) int {
	hits := 0
	for _, m := range markers {
		if strings.Contains(combined, m) {
			hits++
		}
	}
	return hits
}

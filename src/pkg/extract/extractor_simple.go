package extract

import "strings"

// maxAmountWithBbox returns the largest in-range amount across a group and
// the bbox of the line it was read from.
func maxAmountWithBbox(lines LineGroup) (int, [8]float64, bool) {
	var maxAmount int
	var maxBbox [8]float64
	found := false

	for _, line := range lines {
		amounts := amountsFromLine(line.Text)
		if len(amounts) == 0 {
			continue
		}
		lineMax := maxInt(amounts)
		if !found || lineMax > maxAmount {
			maxAmount = lineMax
			maxBbox = line.Bbox
			found = true
		}
	}
	return maxAmount, maxBbox, found
}

// extractHandwritten returns the maximum in-range amount, requiring it to
// additionally be >= MinHandwrittenAmount. Confidence literal: 0.6.
func extractHandwritten(lines LineGroup) (Total, bool) {
	amount, bbox, ok := maxAmountWithBbox(lines)
	if !ok || amount < MinHandwrittenAmount {
		return Total{}, false
	}
	return Total{Amount: amount, Confidence: 0.6, Bbox: bbox}, true
}

// extractDigitalPayment returns the maximum in-range amount. Confidence
// literal: 0.7.
func extractDigitalPayment(lines LineGroup) (Total, bool) {
	amount, bbox, ok := maxAmountWithBbox(lines)
	if !ok {
		return Total{}, false
	}
	return Total{Amount: amount, Confidence: 0.7, Bbox: bbox}, true
}

// extractSimpleProof returns the maximum in-range amount. Confidence
// literal: 0.6.
func extractSimpleProof(lines LineGroup) (Total, bool) {
	amount, bbox, ok := maxAmountWithBbox(lines)
	if !ok {
		return Total{}, false
	}
	return Total{Amount: amount, Confidence: 0.6, Bbox: bbox}, true
}

// extractKuitansi scans for a line containing "sebesar" ("in the amount
// of") and returns the max amount on that line. Confidence literal: 0.7.
func extractKuitansi(lines LineGroup) (Total, bool) {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line.Text), "sebesar") {
			continue
		}
		amounts := amountsFromLine(line.Text)
		if len(amounts) == 0 {
			continue
		}
		return Total{Amount: maxInt(amounts), Confidence: 0.7, Bbox: line.Bbox}, true
	}
	return Total{}, false
}

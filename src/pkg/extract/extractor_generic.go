package extract

import (
	"regexp"
	"sort"
	"strings"
)

var nineDigitRunRegexp = regexp.MustCompile(`\b\d{9,}\b`)

// extractGeneric is the default TotalStrategy: three ordered stages, the
// first that yields a result wins. See spec.md §4.4.1.
func extractGeneric(lines LineGroup, pageHeight float64) (Total, bool) {
	if len(lines) == 0 {
		return Total{}, false
	}

	if t, ok := stageKeyword(lines); ok {
		return t, true
	}
	if t, ok := stageKeywordNeighbor(lines); ok {
		return t, true
	}
	if t, ok := stagePosition(lines, pageHeight); ok {
		return t, true
	}
	return Total{}, false
}

// stageKeyword: same-line keyword, pick the max amount on that line.
func stageKeyword(lines LineGroup) (Total, bool) {
	for _, line := range lines {
		text := strings.ToLower(line.Text)
		if !keywordMatch(text) {
			continue
		}
		amounts := amountsFromLine(text)
		if len(amounts) == 0 {
			continue
		}
		amount := maxInt(amounts)
		score := genericScore(true, false, line.Confidence)
		if score < MinScoreThreshold {
			continue
		}
		return Total{Amount: amount, Confidence: score, Bbox: line.Bbox}, true
	}
	return Total{}, false
}

// stageKeywordNeighbor: sort by y, for each keyword line scan the next 5
// lines, skipping NEGATIVE_NEAR hits, scoring every in-range amount found.
func stageKeywordNeighbor(lines LineGroup) (Total, bool) {
	ordered := sortedByY(lines)

	type cand struct {
		amount int
		score  float64
		bbox   [8]float64
	}
	var candidates []cand

	for idx, line := range ordered {
		text := strings.ToLower(line.Text)
		if !keywordMatch(text) {
			continue
		}

		limit := idx + 6
		if limit > len(ordered) {
			limit = len(ordered)
		}
		for nextIdx := idx + 1; nextIdx < limit; nextIdx++ {
			next := ordered[nextIdx]
			nextText := strings.ToLower(next.Text)
			if containsAny(nextText, negativeNearTokens) {
				continue
			}
			for _, amount := range amountsFromLine(nextText) {
				if amount < MinAmount || amount > MaxValidAmount {
					continue
				}
				score := 0.58
				score += clamp01(line.Confidence) * 0.15
				score += clamp01(next.Confidence) * 0.15
				score += (float64(amount) / MaxValidAmount) * 0.12
				score -= float64(nextIdx-idx) * 0.03
				candidates = append(candidates, cand{amount, score, next.Bbox})
			}
		}
	}

	if len(candidates) == 0 {
		return Total{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].amount > candidates[j].amount
	})

	best := candidates[0]
	if best.score < 0.5 {
		return Total{}, false
	}
	return Total{Amount: best.amount, Confidence: round4(clamp01(best.score)), Bbox: best.bbox}, true
}

// stagePosition: bottom-half lines, keyword-bearing preferred over plain.
func stagePosition(lines LineGroup, pageHeight float64) (Total, bool) {
	bottomThreshold := pageHeight * 0.6

	type cand struct {
		score  float64
		amount int
		bbox   [8]float64
	}
	var candidates, keywordCandidates []cand

	for _, line := range lines {
		text := strings.ToLower(line.Text)
		if containsAny(text, negativeNearTokens) {
			continue
		}
		if nineDigitRunRegexp.MatchString(text) {
			continue
		}

		hasKeyword := keywordMatch(text)
		for _, amount := range amountsFromLine(text) {
			if amount < MinAmount || amount > MaxValidAmount {
				continue
			}
			yc := yCenter(line.Bbox)
			if yc < bottomThreshold {
				continue
			}
			score := genericScore(hasKeyword, true, line.Confidence)
			if hasKeyword {
				score += 0.12
			}
			entry := cand{score, amount, line.Bbox}
			candidates = append(candidates, entry)
			if hasKeyword {
				keywordCandidates = append(keywordCandidates, entry)
			}
		}
	}

	ranked := candidates
	if len(keywordCandidates) > 0 {
		ranked = keywordCandidates
	}
	if len(ranked) == 0 {
		return Total{}, false
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].amount > ranked[j].amount
	})

	best := ranked[0]
	if best.score < MinScoreThreshold {
		return Total{}, false
	}
	return Total{Amount: best.amount, Confidence: round4(clamp01(best.score)), Bbox: best.bbox}, true
}

func genericScore(keyword, bottom bool, confidence float64) float64 {
	score := 0.0
	if keyword {
		score += 0.4
	}
	if bottom {
		score += 0.2
	}
	score += 0.2
	score += clamp01(confidence) * 0.2
	return score
}

func sortedByY(lines LineGroup) LineGroup {
	ordered := append(LineGroup(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return yCenter(ordered[i].Bbox) < yCenter(ordered[j].Bbox)
	})
	return ordered
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

package extract

import (
	"sort"
	"strings"
)

type retailCandidate struct {
	amount int
	score  float64
	bbox   [8]float64
}

type amountLine struct {
	amount int
	conf   float64
	bbox   [8]float64
	yc     float64
}

// extractRetail is the ranked extractor for retail_printed receipts. See
// spec.md §4.4.4.
func extractRetail(lines LineGroup, pageHeight float64) (Total, bool) {
	var candidates, keywordCandidates []retailCandidate
	var keywordAnchors []amountLine
	var amountLines []amountLine

	for _, line := range lines {
		text := strings.ToLower(line.Text)
		normalized := zeroToOh(text)
		confidence := line.Confidence
		yc := yCenter(line.Bbox)
		isBottom := yc > pageHeight*0.6
		hasKeyword := containsAny(normalized, retailRankKeywords)
		hasNegative := containsAny(text, v3NegativeContextTokens)

		amounts := amountsFromLine(text)
		if hasKeyword && !hasNegative && len(amounts) == 0 {
			keywordAnchors = append(keywordAnchors, amountLine{bbox: line.Bbox, conf: confidence, yc: yc})
		}

		for _, amount := range amounts {
			score := 0.0
			if hasKeyword {
				score += 0.4
			}
			if isBottom {
				score += 0.2
			}
			score += clamp01(confidence) * 0.2
			score += (float64(amount) / MaxValidAmount) * 0.2
			if hasNegative {
				score -= 0.3
			}
			candidates = append(candidates, retailCandidate{amount, score, line.Bbox})
			amountLines = append(amountLines, amountLine{amount: amount, conf: confidence, bbox: line.Bbox, yc: yc})
			if hasKeyword && !hasNegative {
				keywordCandidates = append(keywordCandidates, retailCandidate{amount, score + 0.1, line.Bbox})
			}
		}
	}

	// Pair keyword-only anchors with the nearest amount line below them.
	for _, anchor := range keywordAnchors {
		var best amountLine
		bestDistance := -1.0
		hasBest := false
		for _, al := range amountLines {
			verticalDistance := al.yc - anchor.yc
			if verticalDistance < 0 || verticalDistance > pageHeight*0.22 {
				continue
			}
			if !hasBest || verticalDistance < bestDistance {
				bestDistance = verticalDistance
				best = al
				hasBest = true
			}
		}
		if !hasBest {
			continue
		}
		proximityBonus := 0.15 - (bestDistance/maxFloat(pageHeight, 1))*0.6
		if proximityBonus < 0 {
			proximityBonus = 0
		}
		score := 0.45 + clamp01((anchor.conf+best.conf)/2)*0.2 + (float64(best.amount)/MaxValidAmount)*0.2 + proximityBonus
		keywordCandidates = append(keywordCandidates, retailCandidate{best.amount, score, best.bbox})
	}

	if len(keywordCandidates) > 0 {
		sort.SliceStable(keywordCandidates, func(i, j int) bool {
			if keywordCandidates[i].score != keywordCandidates[j].score {
				return keywordCandidates[i].score > keywordCandidates[j].score
			}
			return keywordCandidates[i].amount > keywordCandidates[j].amount
		})
		kw := keywordCandidates[0]
		if kw.score >= RetailMinScoreThreshold-0.08 {
			return Total{Amount: kw.amount, Confidence: round4(clamp01(kw.score)), Bbox: kw.bbox}, true
		}
	}

	if len(candidates) == 0 {
		return Total{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	best := candidates[0]

	if best.score < RetailMinScoreThreshold {
		if len(keywordCandidates) == 0 {
			return Total{}, false
		}
		sort.SliceStable(keywordCandidates, func(i, j int) bool {
			if keywordCandidates[i].score != keywordCandidates[j].score {
				return keywordCandidates[i].score > keywordCandidates[j].score
			}
			return keywordCandidates[i].amount > keywordCandidates[j].amount
		})
		best = keywordCandidates[0]
	}

	if best.score < RetailMinScoreThreshold {
		return Total{}, false
	}
	return Total{Amount: best.amount, Confidence: round4(clamp01(best.score)), Bbox: best.bbox}, true
}

// extractRetailSecondary runs when exactly one retail total was found and
// the page holds two side-by-side retail stubs: rerun the scoring over the
// full page excluding the primary amount, floor relaxed to 0.45, plus a
// neighbor-anchor fallback. See spec.md §4.4.4.
func extractRetailSecondary(lines LineGroup, pageHeight float64, primaryAmount int) (Total, bool) {
	var candidates []retailCandidate
	ordered := sortedByY(lines)

	for _, line := range lines {
		text := strings.ToLower(line.Text)
		normalized := zeroToOh(text)
		confidence := line.Confidence
		isBottom := yCenter(line.Bbox) > pageHeight*0.55
		hasKeyword := containsAny(normalized, retailRankKeywords)
		hasNegative := containsAny(text, v3NegativeContextTokens)

		for _, amount := range amountsFromLine(text) {
			if amount == primaryAmount {
				continue
			}
			score := 0.0
			if hasKeyword {
				score += 0.45
			}
			if isBottom {
				score += 0.15
			}
			score += clamp01(confidence) * 0.2
			score += (float64(amount) / MaxValidAmount) * 0.2
			if hasNegative {
				score -= 0.25
			}
			candidates = append(candidates, retailCandidate{amount, score, line.Bbox})
		}
	}

	for idx, line := range ordered {
		text := strings.ToLower(line.Text)
		normalized := zeroToOh(text)
		if !containsAny(normalized, retailRankKeywords) {
			continue
		}
		if containsAny(text, v3NegativeContextTokens) {
			continue
		}

		anchorConf := line.Confidence
		limit := idx + 6
		if limit > len(ordered) {
			limit = len(ordered)
		}
		for nextIdx := idx + 1; nextIdx < limit; nextIdx++ {
			next := ordered[nextIdx]
			nextText := strings.ToLower(next.Text)
			if containsAny(nextText, v3NegativeContextTokens) {
				continue
			}
			for _, amount := range amountsFromLine(nextText) {
				if amount == primaryAmount {
					continue
				}
				score := 0.58 + clamp01((anchorConf+next.Confidence)/2)*0.2 + (float64(amount)/MaxValidAmount)*0.2
				score -= float64(nextIdx-idx) * 0.03
				candidates = append(candidates, retailCandidate{amount, score, next.Bbox})
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
	if best.score < 0.45 {
		return Total{}, false
	}
	return Total{Amount: best.amount, Confidence: round4(clamp01(best.score)), Bbox: best.bbox}, true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

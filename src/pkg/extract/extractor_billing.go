package extract

import (
	"sort"
	"strings"
)

type billingCandidate struct {
	score  float64
	amount int
	bbox   [8]float64
}

type billingAmount struct {
	amount int
	bbox   [8]float64
	conf   float64
}

// extractTotalBayar is the primary billing strategy. See spec.md §4.4.5.1.
func extractTotalBayar(lines LineGroup) (Total, bool) {
	ordered := sortedByY(lines)
	var candidates []billingCandidate

	for idx, line := range ordered {
		anchorText := zeroToOh(strings.ToLower(line.Text))

		hasTotalBayar := strings.Contains(anchorText, "total bayar") ||
			strings.Contains(anchorText, "total pembayaran") ||
			strings.Contains(anchorText, "jumlah pembayaran")
		hasJumlahTagihan := strings.Contains(anchorText, "jumlah tagihan")
		hasTotalTagihan := strings.Contains(anchorText, "total tagihan")

		if !hasTotalBayar && strings.Contains(anchorText, "total") && idx+1 < len(ordered) {
			nextText := zeroToOh(strings.ToLower(ordered[idx+1].Text))
			if strings.Contains(nextText, "bayar") || strings.Contains(nextText, "pembayaran") {
				hasTotalBayar = true
			}
		}

		if !(hasTotalBayar || hasJumlahTagihan || hasTotalTagihan) {
			continue
		}

		anchorConf := clamp01(line.Confidence)
		lo := idx - 1
		if lo < 0 {
			lo = 0
		}
		hi := idx + 8
		if hi > len(ordered) {
			hi = len(ordered)
		}
		for nearIdx := lo; nearIdx < hi; nearIdx++ {
			near := ordered[nearIdx]
			nearNorm := zeroToOh(strings.ToLower(near.Text))
			nearText := strings.ToLower(near.Text)
			if strings.Contains(nearNorm, "total admin") {
				continue
			}
			if containsAny(nearNorm, []string{"npwp", "resi", "telepon", "pelanggan", "tanggal", "jam"}) {
				continue
			}

			nearConf := clamp01(near.Confidence)
			distancePenalty := float64(nearIdx-idx) * 0.03
			for _, amount := range amountsFromLine(nearText) {
				if amount < 10_000 || amount > MaxValidAmount {
					continue
				}
				keywordBonus := 0.12
				if hasTotalBayar {
					keywordBonus = 0.18
				}
				score := 0.78 + keywordBonus + ((anchorConf+nearConf)/2)*0.1 - absFloat(distancePenalty)
				score += (float64(amount) / MaxValidAmount) * 0.12
				candidates = append(candidates, billingCandidate{score, amount, near.Bbox})
			}
		}
	}

	var tagihanValues, adminValues []billingAmount
	for idx, line := range ordered {
		textNorm := zeroToOh(strings.ToLower(line.Text))
		confidence := clamp01(line.Confidence)

		if strings.Contains(textNorm, "jumlah tagihan") || strings.Contains(textNorm, "total tagihan") {
			local := collectBillingAmounts(ordered, idx, idx+5)
			if len(local) > 0 {
				best := largestBillingAmount(local)
				tagihanValues = append(tagihanValues, billingAmount{best.amount, best.bbox, maxFloat(confidence, best.conf)})
			}
		}

		if strings.Contains(textNorm, "total admin") {
			local := collectBillingAmounts(ordered, idx, idx+4)
			if len(local) > 0 {
				best := largestBillingAmount(local)
				adminValues = append(adminValues, billingAmount{best.amount, best.bbox, maxFloat(confidence, best.conf)})
			}
		}
	}

	if len(tagihanValues) > 0 && len(adminValues) > 0 {
		tagihan := largestBillingAmount(tagihanValues)
		admin := largestBillingAmount(adminValues)
		combined := tagihan.amount + admin.amount
		if combined >= MinAmount && combined <= MaxValidAmount {
			comboScore := 0.95 + ((tagihan.conf + admin.conf) / 2) * 0.04
			candidates = append(candidates, billingCandidate{comboScore, combined, tagihan.bbox})
		}
	}

	return rankBillingCandidates(candidates, 0.5)
}

func collectBillingAmounts(ordered LineGroup, from, to int) []billingAmount {
	if to > len(ordered) {
		to = len(ordered)
	}
	var out []billingAmount
	for i := from; i < to; i++ {
		line := ordered[i]
		conf := clamp01(line.Confidence)
		for _, amount := range amountsFromLine(strings.ToLower(line.Text)) {
			if amount < MinAmount || amount > MaxValidAmount {
				continue
			}
			out = append(out, billingAmount{amount, line.Bbox, conf})
		}
	}
	return out
}

func largestBillingAmount(vals []billingAmount) billingAmount {
	best := vals[0]
	for _, v := range vals[1:] {
		if v.amount > best.amount {
			best = v
		}
	}
	return best
}

// extractExplicitJumlahTagihan. See spec.md §4.4.5.2.
func extractExplicitJumlahTagihan(lines LineGroup) (Total, bool) {
	ordered := sortedByY(lines)
	var candidates []billingCandidate

	for idx, line := range ordered {
		anchorText := strings.ToLower(line.Text)
		var anchorBonus float64
		switch {
		case strings.Contains(anchorText, "total bayar") || strings.Contains(anchorText, "total pembayaran"):
			anchorBonus = 0.2
		case strings.Contains(anchorText, "jumlah tagihan"):
			anchorBonus = 0.08
		default:
			continue
		}

		hi := idx + 4
		if hi > len(ordered) {
			hi = len(ordered)
		}
		for nextIdx := idx; nextIdx < hi; nextIdx++ {
			next := ordered[nextIdx]
			nextText := strings.ToLower(next.Text)
			if containsAny(nextText, blockedBillingTokens) {
				continue
			}
			confidence := clamp01(next.Confidence)
			distancePenalty := float64(nextIdx-idx) * 0.03
			for _, amount := range amountsFromLine(nextText) {
				if amount < MinAmount || amount > MaxValidAmount {
					continue
				}
				score := 0.86 + confidence*0.08 + anchorBonus - distancePenalty
				candidates = append(candidates, billingCandidate{score, amount, next.Bbox})
			}
		}
	}

	return rankBillingCandidates(candidates, 0)
}

// extractTagihanAnchorTotal. See spec.md §4.4.5.3.
func extractTagihanAnchorTotal(lines LineGroup) (Total, bool) {
	ordered := sortedByY(lines)
	var candidates []billingCandidate

	for idx, line := range ordered {
		anchorText := strings.ToLower(line.Text)
		if !strings.Contains(anchorText, "tagihan") {
			continue
		}

		anchorConf := clamp01(line.Confidence)
		hi := idx + 4
		if hi > len(ordered) {
			hi = len(ordered)
		}
		for nearIdx := idx; nearIdx < hi; nearIdx++ {
			near := ordered[nearIdx]
			nearText := strings.ToLower(near.Text)
			if containsAny(nearText, blockedBillingTokens) {
				continue
			}

			nearConf := clamp01(near.Confidence)
			distancePenalty := float64(nearIdx-idx) * 0.05
			keywordBonus := 0.0
			if strings.Contains(anchorText, "jumlah tagihan") || strings.Contains(nearText, "jumlah tagihan") {
				keywordBonus += 0.16
			}
			if strings.Contains(nearText, "total bayar") || strings.Contains(nearText, "total pembayaran") {
				keywordBonus += 0.08
			}

			for _, amount := range amountsFromLine(nearText) {
				if amount < MinAmount || amount > MaxValidAmount {
					continue
				}
				score := 0.76 + ((anchorConf+nearConf)/2)*0.18 + keywordBonus - distancePenalty
				candidates = append(candidates, billingCandidate{score, amount, near.Bbox})
			}
		}
	}

	return rankBillingCandidates(candidates, 0.5)
}

// extractUnknownBillingTotal is the last-resort billing strategy for
// unknown/resi_tagihan receipts lacking explicit phrasing. See spec.md
// §4.4.5.4.
func extractUnknownBillingTotal(lines LineGroup) (Total, bool) {
	ordered := sortedByY(lines)
	if t, ok := extractTotalBayar(ordered); ok {
		return t, true
	}
	if t, ok := extractExplicitJumlahTagihan(ordered); ok {
		return t, true
	}
	if t, ok := extractTagihanAnchorTotal(ordered); ok {
		return t, true
	}

	strongAnchors := []string{"jumlah tagihan", "total tagihan", "total bayar", "total pembayaran", "grand total", "total"}
	weakAnchors := []string{"tagihan"}

	var candidates []billingCandidate
	for idx, line := range ordered {
		anchorText := strings.ToLower(line.Text)
		isStrong := containsAny(anchorText, strongAnchors)
		isWeak := containsAny(anchorText, weakAnchors)
		if !(isStrong || isWeak) {
			continue
		}

		anchorConf := clamp01(line.Confidence)
		var local []billingAmount
		hi := idx + 4
		if hi > len(ordered) {
			hi = len(ordered)
		}
		for nearIdx := idx; nearIdx < hi; nearIdx++ {
			near := ordered[nearIdx]
			nearText := strings.ToLower(near.Text)
			if containsAny(nearText, blockedBillingTokens) {
				continue
			}
			nearConf := clamp01(near.Confidence)
			for _, amount := range amountsFromLine(nearText) {
				if amount < MinAmount || amount > MaxValidAmount {
					continue
				}
				local = append(local, billingAmount{amount, near.Bbox, nearConf})
			}
		}
		if len(local) == 0 {
			continue
		}

		// Prefer the largest nearby amount, not the nearest — admin fees are
		// always smaller than the bill.
		chosen := largestBillingAmount(local)
		base := 0.66
		if isStrong {
			base = 0.76
		}
		score := base + ((anchorConf+chosen.conf)/2)*0.18
		candidates = append(candidates, billingCandidate{score, chosen.amount, chosen.bbox})
	}

	return rankBillingCandidates(candidates, 0.5)
}

func rankBillingCandidates(candidates []billingCandidate, floor float64) (Total, bool) {
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
	if best.score < floor {
		return Total{}, false
	}
	return Total{Amount: best.amount, Confidence: round4(clamp01(best.score)), Bbox: best.bbox}, true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

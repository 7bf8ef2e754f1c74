package extract

import "sort"

// segment splits a page's lines into at most two spatial groups. It sorts by
// x-centroid first and splits at the largest adjacent gap when that gap
// exceeds 20% of the page width (left/right receipts); otherwise it falls
// back to a y-centroid split at a 12%-of-height gap (top/bottom receipts);
// otherwise it emits a single group. The (unreachable under this policy, but
// guarded) more-than-two-groups case merges the smallest group into the
// next-smallest until at most two remain.
func segment(lines []Line, pageWidth, pageHeight float64) []LineGroup {
	if len(lines) == 0 {
		return nil
	}

	byX := append([]Line(nil), lines...)
	sort.SliceStable(byX, func(i, j int) bool {
		return xCenter(byX[i].Bbox) < xCenter(byX[j].Bbox)
	})

	maxXGap := 0.0
	xSplitIdx := -1
	for i := 1; i < len(byX); i++ {
		gap := xCenter(byX[i].Bbox) - xCenter(byX[i-1].Bbox)
		if gap > maxXGap {
			maxXGap = gap
			xSplitIdx = i
		}
	}

	var groups []LineGroup
	if maxXGap > pageWidth*0.20 && xSplitIdx >= 0 {
		groups = []LineGroup{
			append(LineGroup(nil), byX[:xSplitIdx]...),
			append(LineGroup(nil), byX[xSplitIdx:]...),
		}
	} else {
		byY := append([]Line(nil), lines...)
		sort.SliceStable(byY, func(i, j int) bool {
			return yCenter(byY[i].Bbox) < yCenter(byY[j].Bbox)
		})

		maxYGap := 0.0
		ySplitIdx := -1
		for i := 1; i < len(byY); i++ {
			gap := yCenter(byY[i].Bbox) - yCenter(byY[i-1].Bbox)
			if gap > maxYGap {
				maxYGap = gap
				ySplitIdx = i
			}
		}

		if maxYGap > pageHeight*0.12 && ySplitIdx >= 0 {
			groups = []LineGroup{
				append(LineGroup(nil), byY[:ySplitIdx]...),
				append(LineGroup(nil), byY[ySplitIdx:]...),
			}
		} else {
			groups = []LineGroup{append(LineGroup(nil), byX...)}
		}
	}

	if len(groups) > 2 {
		groups = mergeSmallest(groups)
	}
	if len(groups) > 2 {
		groups = groups[:2]
	}
	return groups
}

func mergeSmallest(groups []LineGroup) []LineGroup {
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i]) < len(groups[j])
	})
	smallest := groups[0]
	rest := groups[1:]
	rest[0] = append(rest[0], smallest...)
	return rest
}

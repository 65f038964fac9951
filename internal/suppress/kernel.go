package suppress

import (
	"sort"
)

// Float covers the coordinate widths the engine operates on. All arithmetic
// for a run happens in the input's own width so results never depend on an
// intermediate conversion.
type Float interface {
	~float32 | ~float64
}

// kernel runs the greedy suppression loop over column slices of box
// coordinates. areas, order and suppressed are caller-provided scratch
// buffers of length len(scores); their prior contents are overwritten.
// off is the span correction of the coordinate mode (1 for inclusive pixel
// semantics, 0 for exclusive). Returned kept indices are in ascending input
// order.
func kernel[T Float](x1, y1, x2, y2, scores []T, threshold, off T, areas []T, order []int, suppressed []bool) []int {
	n := len(scores)

	for i := range n {
		areas[i] = (x2[i] - x1[i] + off) * (y2[i] - y1[i] + off)
		order[i] = i
		suppressed[i] = false
	}

	// Rank by descending score; stable so tied scores keep input order.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	for p := range n {
		i := order[p]
		if suppressed[i] {
			continue
		}
		ix1, iy1, ix2, iy2 := x1[i], y1[i], x2[i], y2[i]
		iarea := areas[i]

		for q := p + 1; q < n; q++ {
			j := order[q]
			if suppressed[j] {
				continue
			}

			xx1 := max(ix1, x1[j])
			yy1 := max(iy1, y1[j])
			xx2 := min(ix2, x2[j])
			yy2 := min(iy2, y2[j])

			w := max(0, xx2-xx1+off)
			h := max(0, yy2-yy1+off)
			inter := w * h

			// Degenerate boxes can drive the union to zero; they never
			// suppress anything.
			union := iarea + areas[j] - inter
			if union <= 0 {
				continue
			}
			if inter/union >= threshold {
				suppressed[j] = true
			}
		}
	}

	kept := make([]int, 0, n)
	for i := range n {
		if !suppressed[i] {
			kept = append(kept, i)
		}
	}
	return kept
}

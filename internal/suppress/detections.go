package suppress

import (
	"sort"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
)

// Detection pairs a bounding box with its confidence score.
type Detection struct {
	Box   geometry.Box
	Score float64
}

// Filter runs greedy NMS over detections and returns the kept ones ordered
// by descending score. The input slice is not modified.
func Filter(dets []Detection, opts Options) []Detection {
	if len(dets) <= 1 {
		return dets
	}

	boxes := make([]geometry.Box, len(dets))
	scores := make([]float64, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Score
	}

	// Lengths match by construction, so Suppress cannot fail here.
	kept, _ := Suppress(boxes, scores, opts)

	out := make([]Detection, 0, len(kept))
	for _, i := range kept {
		out = append(out, dets[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// FilterByScore drops detections scoring below minScore. A minScore of zero
// keeps everything. The input slice is not modified.
func FilterByScore(dets []Detection, minScore float64) []Detection {
	if minScore <= 0 {
		return dets
	}
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= minScore {
			out = append(out, d)
		}
	}
	return out
}

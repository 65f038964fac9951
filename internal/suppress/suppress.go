// Package suppress implements greedy Non-Maximum Suppression over
// axis-aligned bounding boxes: candidates are ranked by descending score and
// a lower-ranked box is dropped when its IoU with a surviving higher-ranked
// box reaches the threshold.
package suppress

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
	"github.com/MeKo-Tech/nonmax/internal/mempool"
)

// ErrInvalidArgument reports a contract violation in caller-supplied input,
// detected before any work begins.
var ErrInvalidArgument = errors.New("invalid argument")

// Options control a suppression run.
type Options struct {
	// Threshold is the IoU at or above which the lower-scoring box of an
	// overlapping pair is suppressed. Typically in [0, 1]; the engine
	// imposes no range check.
	Threshold float64
	// Mode selects inclusive pixel or exclusive continuous coordinate
	// semantics for areas and overlaps.
	Mode geometry.CoordMode
}

// DefaultOptions returns the conventional detection post-processing setup.
func DefaultOptions() Options {
	return Options{Threshold: 0.5, Mode: geometry.Inclusive}
}

// Suppress runs greedy NMS over parallel box and score slices and returns
// the indices of the surviving boxes in ascending input order. Inputs are
// never modified. Boxes with x2 < x1 or y2 < y1 are tolerated; their clamped
// overlap is zero so they suppress nothing.
func Suppress(boxes []geometry.Box, scores []float64, opts Options) ([]int, error) {
	if len(boxes) != len(scores) {
		return nil, fmt.Errorf("%w: %d boxes vs %d scores", ErrInvalidArgument, len(boxes), len(scores))
	}
	n := len(boxes)
	if n == 0 {
		return nil, nil
	}

	// Transient column-major working set, released on return.
	cols := mempool.GetFloat64(5 * n)
	defer mempool.PutFloat64(cols)
	x1 := cols[0*n : 1*n]
	y1 := cols[1*n : 2*n]
	x2 := cols[2*n : 3*n]
	y2 := cols[3*n : 4*n]
	areas := cols[4*n : 5*n]
	for i, b := range boxes {
		x1[i], y1[i], x2[i], y2[i] = b.MinX, b.MinY, b.MaxX, b.MaxY
	}

	order := mempool.GetInt(n)
	defer mempool.PutInt(order)
	suppressed := mempool.GetBool(n)
	defer mempool.PutBool(suppressed)

	return kernel(x1, y1, x2, y2, scores, opts.Threshold, opts.Mode.Offset(), areas, order, suppressed), nil
}

// SuppressCoords is Suppress over a flat row-major N×4 coordinate layout
// (x1, y1, x2, y2 per box), generic over the coordinate width so float32
// model outputs run without a float64 round trip.
func SuppressCoords[T Float](coords, scores []T, opts Options) ([]int, error) {
	n := len(scores)
	if len(coords) != 4*n {
		return nil, fmt.Errorf("%w: %d coordinates for %d scores (want %d)",
			ErrInvalidArgument, len(coords), n, 4*n)
	}
	if n == 0 {
		return nil, nil
	}

	cols := make([]T, 5*n)
	x1 := cols[0*n : 1*n]
	y1 := cols[1*n : 2*n]
	x2 := cols[2*n : 3*n]
	y2 := cols[3*n : 4*n]
	areas := cols[4*n : 5*n]
	for i := range n {
		x1[i] = coords[4*i]
		y1[i] = coords[4*i+1]
		x2[i] = coords[4*i+2]
		y2[i] = coords[4*i+3]
	}

	order := mempool.GetInt(n)
	defer mempool.PutInt(order)
	suppressed := mempool.GetBool(n)
	defer mempool.PutBool(suppressed)

	return kernel(x1, y1, x2, y2, scores, T(opts.Threshold), T(opts.Mode.Offset()), areas, order, suppressed), nil
}

// Suppressor selects the kept subset of a frame of detections. It is the
// swap point for alternative kernels (a SIMD or accelerator-backed variant)
// behind the same contract.
type Suppressor interface {
	Suppress(boxes []geometry.Box, scores []float64) ([]int, error)
}

// Greedy is the scalar greedy Suppressor.
type Greedy struct {
	Options Options
}

// Suppress implements Suppressor.
func (g Greedy) Suppress(boxes []geometry.Box, scores []float64) ([]int, error) {
	return Suppress(boxes, scores, g.Options)
}

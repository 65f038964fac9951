package suppress

import (
	"errors"
	"testing"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
)

func TestSuppressEmpty(t *testing.T) {
	kept, err := Suppress(nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 0 {
		t.Fatalf("expected empty result, got %v", kept)
	}
}

func TestSuppressSingle(t *testing.T) {
	boxes := []geometry.Box{geometry.NewBox(0, 0, 10, 10)}
	for _, thr := range []float64{0, 0.5, 1} {
		kept, err := Suppress(boxes, []float64{0.9}, Options{Threshold: thr})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kept) != 1 || kept[0] != 0 {
			t.Fatalf("threshold %v: expected [0], got %v", thr, kept)
		}
	}
}

func TestSuppressNoOverlap(t *testing.T) {
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),
		geometry.NewBox(20, 20, 30, 30),
		geometry.NewBox(100, 0, 110, 10),
	}
	scores := []float64{0.2, 0.9, 0.5}
	for _, thr := range []float64{0.05, 0.5, 1} {
		kept, err := Suppress(boxes, scores, Options{Threshold: thr})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kept) != 3 {
			t.Fatalf("threshold %v: expected all 3 kept, got %v", thr, kept)
		}
	}
}

func TestSuppressDuplicateBoxes(t *testing.T) {
	b := geometry.NewBox(0, 0, 10, 10)
	boxes := []geometry.Box{b, b}

	// Higher score survives regardless of input position.
	kept, err := Suppress(boxes, []float64{0.4, 0.8}, Options{Threshold: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 || kept[0] != 1 {
		t.Fatalf("expected [1], got %v", kept)
	}

	// Tied scores: exactly one survives, and the stable order keeps the
	// earlier input index.
	kept, err = Suppress(boxes, []float64{0.6, 0.6}, Options{Threshold: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 || kept[0] != 0 {
		t.Fatalf("expected [0], got %v", kept)
	}
}

func TestSuppressScenario(t *testing.T) {
	// A overlaps B heavily; C is far away and scores highest.
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),   // A
		geometry.NewBox(1, 1, 11, 11),   // B
		geometry.NewBox(50, 50, 60, 60), // C
	}
	scores := []float64{0.9, 0.8, 0.95}

	for _, mode := range []geometry.CoordMode{geometry.Inclusive, geometry.Exclusive} {
		kept, err := Suppress(boxes, scores, Options{Threshold: 0.5, Mode: mode})
		if err != nil {
			t.Fatalf("mode %v: unexpected error: %v", mode, err)
		}
		if len(kept) != 2 || kept[0] != 0 || kept[1] != 2 {
			t.Fatalf("mode %v: expected [0 2], got %v", mode, kept)
		}
	}
}

func TestSuppressLengthMismatch(t *testing.T) {
	boxes := []geometry.Box{geometry.NewBox(0, 0, 1, 1)}
	_, err := Suppress(boxes, []float64{0.5, 0.6}, DefaultOptions())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSuppressDegenerateBoxes(t *testing.T) {
	// An inverted box has negative extent; its clamped overlap is zero so it
	// neither suppresses nor gets suppressed.
	boxes := []geometry.Box{
		{MinX: 10, MinY: 10, MaxX: 0, MaxY: 0},
		geometry.NewBox(0, 0, 10, 10),
	}
	scores := []float64{0.9, 0.8}
	kept, err := Suppress(boxes, scores, Options{Threshold: 0.3, Mode: geometry.Exclusive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("expected both boxes kept, got %v", kept)
	}
}

func TestSuppressDoesNotMutateInputs(t *testing.T) {
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),
		geometry.NewBox(1, 1, 11, 11),
	}
	scores := []float64{0.2, 0.9}
	boxesCopy := append([]geometry.Box(nil), boxes...)
	scoresCopy := append([]float64(nil), scores...)

	if _, err := Suppress(boxes, scores, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range boxes {
		if boxes[i] != boxesCopy[i] || scores[i] != scoresCopy[i] {
			t.Fatalf("inputs mutated at %d", i)
		}
	}
}

func TestSuppressCoordsMatchesSuppress(t *testing.T) {
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),
		geometry.NewBox(1, 1, 11, 11),
		geometry.NewBox(50, 50, 60, 60),
		geometry.NewBox(52, 48, 61, 59),
		geometry.NewBox(8, 2, 18, 12),
	}
	scores := []float64{0.9, 0.8, 0.95, 0.6, 0.55}

	coords32 := make([]float32, 0, 4*len(boxes))
	scores32 := make([]float32, 0, len(boxes))
	for i, b := range boxes {
		coords32 = append(coords32, float32(b.MinX), float32(b.MinY), float32(b.MaxX), float32(b.MaxY))
		scores32 = append(scores32, float32(scores[i]))
	}

	opts := Options{Threshold: 0.4, Mode: geometry.Inclusive}
	want, err := Suppress(boxes, scores, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := SuppressCoords(coords32, scores32, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("float32 kept %v, float64 kept %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("float32 kept %v, float64 kept %v", got, want)
		}
	}
}

func TestSuppressCoordsShapeMismatch(t *testing.T) {
	_, err := SuppressCoords([]float32{0, 0, 1}, []float32{0.5}, DefaultOptions())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSuppressCoordsEmpty(t *testing.T) {
	kept, err := SuppressCoords[float64](nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 0 {
		t.Fatalf("expected empty result, got %v", kept)
	}
}

func TestSuppressThresholdMonotone(t *testing.T) {
	// Disjoint clusters of two overlapping boxes each, at different overlap
	// levels, plus a singleton. Per cluster the kept count is 1 below the
	// cluster's IoU and 2 at or above it, so the total kept count can only
	// grow as the threshold rises.
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),
		geometry.NewBox(1, 1, 11, 11), // high overlap with previous
		geometry.NewBox(100, 0, 110, 10),
		geometry.NewBox(105, 0, 115, 10), // moderate overlap with previous
		geometry.NewBox(0, 100, 10, 110),
		geometry.NewBox(8, 100, 18, 110), // low overlap with previous
		geometry.NewBox(200, 200, 210, 210),
	}
	scores := []float64{0.9, 0.8, 0.85, 0.7, 0.75, 0.6, 0.5}

	prev := 0
	for thr := 0.0; thr <= 1.0; thr += 0.05 {
		kept, err := Suppress(boxes, scores, Options{Threshold: thr, Mode: geometry.Exclusive})
		if err != nil {
			t.Fatalf("threshold %v: unexpected error: %v", thr, err)
		}
		if len(kept) < prev {
			t.Fatalf("kept count decreased from %d to %d at threshold %v", prev, len(kept), thr)
		}
		prev = len(kept)
	}
	if prev != len(boxes) {
		t.Fatalf("expected all boxes kept at threshold 1, got %d", prev)
	}
}

func TestGreedySuppressor(t *testing.T) {
	var s Suppressor = Greedy{Options: Options{Threshold: 0.5}}
	boxes := []geometry.Box{
		geometry.NewBox(0, 0, 10, 10),
		geometry.NewBox(0, 0, 10, 10),
	}
	kept, err := s.Suppress(boxes, []float64{0.9, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 || kept[0] != 0 {
		t.Fatalf("expected [0], got %v", kept)
	}
}

func TestFilterOrdersByScore(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 10, 10), Score: 0.9},
		{Box: geometry.NewBox(1, 1, 11, 11), Score: 0.8},
		{Box: geometry.NewBox(50, 50, 60, 60), Score: 0.95},
	}
	kept := Filter(dets, Options{Threshold: 0.5})
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept detections, got %d", len(kept))
	}
	if kept[0].Score != 0.95 || kept[1].Score != 0.9 {
		t.Fatalf("kept detections not in score order: %+v", kept)
	}
}

func TestFilterByScore(t *testing.T) {
	dets := []Detection{
		{Box: geometry.NewBox(0, 0, 1, 1), Score: 0.9},
		{Box: geometry.NewBox(2, 2, 3, 3), Score: 0.3},
	}
	got := FilterByScore(dets, 0.5)
	if len(got) != 1 || got[0].Score != 0.9 {
		t.Fatalf("unexpected filtered detections: %+v", got)
	}
	if got := FilterByScore(dets, 0); len(got) != 2 {
		t.Fatalf("minScore 0 should keep everything, got %+v", got)
	}
}

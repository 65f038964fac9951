package geometry

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// CoordMode selects the coordinate convention used for areas and overlaps.
//
// Inclusive treats coordinates as pixel indices where both endpoints belong
// to the box, so a box from x1 to x2 spans x2-x1+1 pixels. This matches the
// convention of common detection frameworks. Exclusive treats coordinates as
// continuous, so the same box spans x2-x1 units. The two conventions yield
// different IoU values near box boundaries; pick one and apply it to every
// box in a frame.
type CoordMode int

const (
	// Inclusive pixel-index semantics (width = x2-x1+1). The default.
	Inclusive CoordMode = iota
	// Exclusive continuous semantics (width = x2-x1).
	Exclusive
)

// Offset returns the additive span correction for the mode (1 or 0).
func (m CoordMode) Offset() float64 {
	if m == Inclusive {
		return 1
	}
	return 0
}

// String returns the textual name of the mode.
func (m CoordMode) String() string {
	if m == Inclusive {
		return "inclusive"
	}
	return "exclusive"
}

// Area returns the box area under the given coordinate mode.
// Degenerate boxes yield zero, never a negative area.
func (b Box) Area(mode CoordMode) float64 {
	w := b.Width() + mode.Offset()
	h := b.Height() + mode.Offset()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU computes Intersection over Union of two boxes under the given
// coordinate mode, in [0, 1]. Non-overlapping or degenerate pairs yield 0.
func IoU(a, b Box, mode CoordMode) float64 {
	off := mode.Offset()

	xx1 := math.Max(a.MinX, b.MinX)
	yy1 := math.Max(a.MinY, b.MinY)
	xx2 := math.Min(a.MaxX, b.MaxX)
	yy2 := math.Min(a.MaxY, b.MaxY)

	w := math.Max(0, xx2-xx1+off)
	h := math.Max(0, yy2-yy1+off)
	inter := w * h

	union := a.Area(mode) + b.Area(mode) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package render draws suppression results over the source image, kept boxes
// in one color and suppressed boxes in another.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/MeKo-Tech/nonmax/internal/suppress"
)

// Style controls overlay appearance.
type Style struct {
	KeptColor       color.Color
	SuppressedColor color.Color
	Thickness       int
	DrawSuppressed  bool
}

// DefaultStyle draws kept boxes in green; suppressed boxes are skipped.
func DefaultStyle() Style {
	return Style{
		KeptColor:       color.RGBA{G: 255, A: 255},
		SuppressedColor: color.RGBA{R: 255, A: 255},
		Thickness:       2,
		DrawSuppressed:  false,
	}
}

// Overlay draws the detections over img and returns an RGBA copy. kept holds
// the surviving input indices as returned by the suppression engine; the
// remaining detections are treated as suppressed.
func Overlay(img image.Image, dets []suppress.Detection, kept []int, style Style) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}

	keptSet := make(map[int]struct{}, len(kept))
	for _, i := range kept {
		keptSet[i] = struct{}{}
	}

	// Suppressed boxes first so kept outlines stay on top.
	if style.DrawSuppressed {
		for i, d := range dets {
			if _, ok := keptSet[i]; ok {
				continue
			}
			drawRect(dst, d.Box.ToRect(dst.Bounds()), style.SuppressedColor, style.Thickness)
		}
	}
	for _, i := range kept {
		if i < 0 || i >= len(dets) {
			continue
		}
		drawRect(dst, dets[i].Box.ToRect(dst.Bounds()), style.KeptColor, style.Thickness)
	}
	return dst
}

// drawRect draws an axis-aligned rectangle outline into dst.
func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	// Top and bottom edges
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	// Left and right edges
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// ParseColor parses a #RRGGBB or #RRGGBBAA hex string into a color.
func ParseColor(s string) (color.Color, error) {
	if len(s) == 0 || s[0] != '#' {
		return nil, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := color.RGBA{A: 255}
	if len(hex) == 8 {
		c.A = uint8(v & 0xFF)
		v >>= 8
	}
	c.B = uint8(v & 0xFF)
	c.G = uint8((v >> 8) & 0xFF)
	c.R = uint8((v >> 16) & 0xFF)
	return c, nil
}

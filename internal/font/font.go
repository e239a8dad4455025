// Package font describes fonts and their metrics, and caches rasterized
// glyphs for the renderer.
package font

import (
	"errors"
	"fmt"
	"math"
)

// Step is the amount a single font size action changes the size by.
const Step Size = 0.5

// ErrInvalidSize is returned for non-positive or non-finite sizes.
var ErrInvalidSize = errors.New("font: invalid size")

// Size is a font size in points.
type Size float32

// Add returns s plus delta points, floored at Step.
func (s Size) Add(delta Size) Size {
	next := s + delta
	if next < Step {
		return Step
	}
	return next
}

// Pixels converts the size to device pixels at dpr.
func (s Size) Pixels(dpr float64) float64 {
	return float64(s) * dpr * 96 / 72
}

func (s Size) valid() bool {
	f := float64(s)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Description selects a font face.
type Description struct {
	Family string `json:"family"`
	Size   Size   `json:"size"`
}

func (d Description) String() string {
	return fmt.Sprintf("%s %.1fpt", d.Family, float32(d.Size))
}

// Metrics are the pixel metrics of a loaded face. Positions are relative
// to the baseline, positive upwards; Descent is negative.
type Metrics struct {
	AverageAdvance     float64 `json:"average_advance"`
	LineHeight         float64 `json:"line_height"`
	Descent            float32 `json:"descent"`
	UnderlinePosition  float32 `json:"underline_position"`
	UnderlineThickness float32 `json:"underline_thickness"`
	StrikeoutPosition  float32 `json:"strikeout_position"`
	StrikeoutThickness float32 `json:"strikeout_thickness"`
}

// Offset shifts cell or glyph placement in pixels.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rasterizer loads faces. Implementations need not be safe for concurrent use.
type Rasterizer interface {
	Metrics(desc Description, dpr float64) (Metrics, error)
	Rasterize(r rune, desc Description, dpr float64) (Glyph, error)
}

// ComputeCellSize derives the cell dimensions from face metrics plus the
// configured offset. Each dimension is floored and at least one pixel.
func ComputeCellSize(offset Offset, m Metrics) (width, height float32) {
	w := math.Max(1, math.Floor(m.AverageAdvance+float64(offset.X)))
	h := math.Max(1, math.Floor(m.LineHeight+float64(offset.Y)))
	return float32(w), float32(h)
}

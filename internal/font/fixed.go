package font

import (
	"math"

	"github.com/mattn/go-runewidth"
)

// Fixed is a rasterizer for monospace cell canvases. Its metrics are
// proportional to the pixel size, so any family yields the same layout.
type Fixed struct {
	// Advance and Height are fractions of the pixel size.
	Advance float64
	Height  float64
}

// NewFixed returns the default proportions of a typical monospace face.
func NewFixed() *Fixed {
	return &Fixed{Advance: 0.6, Height: 1.2}
}

// Metrics implements Rasterizer.
func (f *Fixed) Metrics(desc Description, dpr float64) (Metrics, error) {
	if !desc.Size.valid() {
		return Metrics{}, ErrInvalidSize
	}
	px := desc.Size.Pixels(dpr)
	thickness := float32(math.Max(1, math.Round(px/16)))
	return Metrics{
		AverageAdvance:     px * f.Advance,
		LineHeight:         px * f.Height,
		Descent:            float32(-px * 0.2),
		UnderlinePosition:  float32(-px * 0.1),
		UnderlineThickness: thickness,
		StrikeoutPosition:  float32(px * 0.25),
		StrikeoutThickness: thickness,
	}, nil
}

// Rasterize implements Rasterizer.
func (f *Fixed) Rasterize(r rune, desc Description, dpr float64) (Glyph, error) {
	cells := runewidth.RuneWidth(r)
	if cells < 1 {
		cells = 1
	}
	return Glyph{Rune: r, Cells: cells}, nil
}

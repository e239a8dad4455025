// Package geometry turns window pixels, cell metrics and DPI into the grid
// layout shared by the display, the terminal and the pty.
package geometry

import (
	"math"

	"github.com/andyrewlee/termview/internal/term"
)

// PhysicalSize is a size in device pixels.
type PhysicalSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LogicalSize is a size in DPI-independent pixels.
type LogicalSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToPhysical converts logical pixels to device pixels.
func (l LogicalSize) ToPhysical(dpr float64) PhysicalSize {
	dpr = sanitizeDPR(dpr)
	return PhysicalSize{Width: l.Width * dpr, Height: l.Height * dpr}
}

// ToLogical converts device pixels to logical pixels.
func (p PhysicalSize) ToLogical(dpr float64) LogicalSize {
	dpr = sanitizeDPR(dpr)
	return LogicalSize{Width: p.Width / dpr, Height: p.Height / dpr}
}

// Rescale converts a size rendered at one DPR to the same logical size at another.
func (p PhysicalSize) Rescale(from, to float64) PhysicalSize {
	from, to = sanitizeDPR(from), sanitizeDPR(to)
	return PhysicalSize{Width: p.Width / from * to, Height: p.Height / from * to}
}

// ApproxEqual compares two sizes within Epsilon.
func (p PhysicalSize) ApproxEqual(o PhysicalSize) bool {
	return math.Abs(p.Width-o.Width) < Epsilon && math.Abs(p.Height-o.Height) < Epsilon
}

// Epsilon is the tolerance used when comparing floating point geometry.
const Epsilon = 1e-6

// SizeInfo is the authoritative pixel layout of the terminal viewport.
// A SizeInfo is always replaced whole, never patched field by field.
type SizeInfo struct {
	Width      float32 `json:"width"`
	Height     float32 `json:"height"`
	CellWidth  float32 `json:"cell_width"`
	CellHeight float32 `json:"cell_height"`
	PaddingX   float32 `json:"padding_x"`
	PaddingY   float32 `json:"padding_y"`
	DPR        float64 `json:"dpr"`
}

// Cols returns how many whole cells fit horizontally.
func (s SizeInfo) Cols() int {
	return fit(s.Width, s.PaddingX, s.CellWidth)
}

// Lines returns how many whole cells fit vertically.
func (s SizeInfo) Lines() int {
	return fit(s.Height, s.PaddingY, s.CellHeight)
}

func fit(dim, pad, cell float32) int {
	if cell <= 0 {
		return 0
	}
	n := math.Floor(float64(dim-2*pad) / float64(cell))
	if n < 0 || math.IsNaN(n) {
		return 0
	}
	return int(n)
}

// Physical returns the viewport as a PhysicalSize.
func (s SizeInfo) Physical() PhysicalSize {
	return PhysicalSize{Width: float64(s.Width), Height: float64(s.Height)}
}

// Contains reports whether pixel (x, y) lies inside the cell area.
func (s SizeInfo) Contains(x, y int) bool {
	fx, fy := float32(x), float32(y)
	return fx >= s.PaddingX && fx < s.Width-s.PaddingX &&
		fy >= s.PaddingY && fy < s.Height-s.PaddingY
}

// PixelsToCoords maps a pixel to the grid cell under it. Pixels in the
// padding are clamped onto the nearest edge cell; ok is false when the grid
// has no cells.
func (s SizeInfo) PixelsToCoords(x, y int) (term.Point, bool) {
	cols, lines := s.Cols(), s.Lines()
	if cols == 0 || lines == 0 {
		return term.Point{}, false
	}
	col := int(math.Floor(float64(float32(x)-s.PaddingX) / float64(s.CellWidth)))
	line := int(math.Floor(float64(float32(y)-s.PaddingY) / float64(s.CellHeight)))
	return term.Point{Line: clamp(line, 0, lines-1), Column: clamp(col, 0, cols-1)}, true
}

// WithoutLines returns a copy whose height excludes n reserved rows, as seen
// by the pty when the message bar takes n lines.
func (s SizeInfo) WithoutLines(n int) SizeInfo {
	if n <= 0 {
		return s
	}
	s.Height -= s.CellHeight * float32(n)
	if s.Height < 0 {
		s.Height = 0
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

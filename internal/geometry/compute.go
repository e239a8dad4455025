package geometry

import "math"

// Padding is the configured inner window padding in logical pixels.
type Padding struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Params are the inputs to Compute.
type Params struct {
	Viewport       PhysicalSize
	CellWidth      float32
	CellHeight     float32
	Padding        Padding
	DynamicPadding bool
	DPR            float64
}

// Compute derives the SizeInfo for a viewport. The same Params always yield
// the same SizeInfo. Out-of-range inputs are clamped: non-positive cell
// metrics become 1, a non-positive DPR becomes 1, negative or NaN viewport
// dimensions become 0.
func Compute(p Params) SizeInfo {
	dpr := sanitizeDPR(p.DPR)
	cw := sanitizeCell(p.CellWidth)
	ch := sanitizeCell(p.CellHeight)
	width := sanitizeDim(p.Viewport.Width)
	height := sanitizeDim(p.Viewport.Height)

	padX := sanitizeDim(p.Padding.X) * dpr
	padY := sanitizeDim(p.Padding.Y) * dpr
	if p.DynamicPadding {
		padX = spread(width, padX, float64(cw))
		padY = spread(height, padY, float64(ch))
	}

	return SizeInfo{
		Width:      float32(width),
		Height:     float32(height),
		CellWidth:  cw,
		CellHeight: ch,
		PaddingX:   float32(math.Max(0, math.Floor(padX))),
		PaddingY:   float32(math.Max(0, math.Floor(padY))),
		DPR:        dpr,
	}
}

// spread adds half of the space left over after fitting whole cells.
func spread(dim, pad, cell float64) float64 {
	return pad + math.Mod(dim-2*pad, cell)/2
}

// CalculateDimensions returns the viewport needed to show exactly cols x
// lines cells with the configured padding. ok is false when either count is
// zero, meaning the window size decides the grid instead.
func CalculateDimensions(cols, lines int, padding Padding, dpr float64, cellWidth, cellHeight float32) (PhysicalSize, bool) {
	if cols <= 0 || lines <= 0 {
		return PhysicalSize{}, false
	}
	dpr = sanitizeDPR(dpr)
	padX := sanitizeDim(padding.X) * dpr
	padY := sanitizeDim(padding.Y) * dpr

	gridWidth := float64(uint32(sanitizeCell(cellWidth)) * uint32(cols))
	gridHeight := float64(uint32(sanitizeCell(cellHeight)) * uint32(lines))
	return PhysicalSize{
		Width:  math.Floor(gridWidth + 2*padX),
		Height: math.Floor(gridHeight + 2*padY),
	}, true
}

func sanitizeDPR(dpr float64) float64 {
	if dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		return 1
	}
	return dpr
}

func sanitizeCell(v float32) float32 {
	if v <= 0 || v != v {
		return 1
	}
	return v
}

func sanitizeDim(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

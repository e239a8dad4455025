package renderer

import (
	"fmt"
	"math"

	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/term"
)

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// ColoredRect is a rect to fill with a solid color.
type ColoredRect struct {
	Rect
	Color term.Rgb `json:"color"`
}

// Offset is an extra pixel translation applied to decoration rects.
type Offset struct {
	X, Y float32
}

// decorationLine is the open run of one flag, if any.
type decorationLine struct {
	flag  term.Flags
	open  bool
	start term.RenderableCell
	end   term.Point
}

// RectBuilder merges consecutive decorated cells into one rect per run.
// Build a new one for every frame.
type RectBuilder struct {
	inner   []ColoredRect
	lines   []decorationLine
	metrics font.Metrics
	size    geometry.SizeInfo
}

// NewRectBuilder returns a builder tracking underline and strikeout.
func NewRectBuilder(metrics font.Metrics, size geometry.SizeInfo) *RectBuilder {
	return &RectBuilder{
		lines: []decorationLine{
			{flag: term.FlagUnderline},
			{flag: term.FlagStrikeout},
		},
		metrics: metrics,
		size:    size,
	}
}

// Grid is the cell count of the grid the cells are scanned from.
type Grid struct {
	Columns, Lines int
}

// GridOf returns the grid size laid out by size.
func GridOf(size geometry.SizeInfo) Grid {
	return Grid{Columns: size.Cols(), Lines: size.Lines()}
}

// UpdateLines feeds the next cell in scan order. grid is the grid the
// cells come from; a run reaching its last cell is flushed at once.
func (b *RectBuilder) UpdateLines(grid Grid, cell term.RenderableCell, offset Offset) {
	last := cell.Column == grid.Columns-1 && cell.Line == grid.Lines-1

	for i := range b.lines {
		line := &b.lines[i]
		if line.open {
			if cell.Line == line.start.Line &&
				cell.Flags.Contains(line.flag) &&
				cell.Fg == line.start.Fg &&
				cell.Column == line.end.Column+1 {
				line.end = cell.Point()
				if last {
					b.flush(line, offset)
				}
				continue
			}
			b.flush(line, offset)
		}

		if cell.Flags.Contains(line.flag) {
			line.open = true
			line.start = cell
			line.end = cell.Point()
			if last {
				b.flush(line, offset)
			}
		}
	}
}

func (b *RectBuilder) flush(line *decorationLine, offset Offset) {
	b.inner = append(b.inner, b.createRect(line.start, line.end, line.flag, offset))
	line.open = false
}

// Push appends a rect as is.
func (b *RectBuilder) Push(rect Rect, color term.Rgb) {
	b.inner = append(b.inner, ColoredRect{Rect: rect, Color: color})
}

// Rects returns the rects accumulated so far.
func (b *RectBuilder) Rects() []ColoredRect {
	return b.inner
}

// createRect spans from the left edge of start to the right edge of end.
func (b *RectBuilder) createRect(start term.RenderableCell, end term.Point, flag term.Flags, offset Offset) ColoredRect {
	size := b.size
	startX := float32(start.Column) * size.CellWidth
	endX := float32(end.Column+1) * size.CellWidth

	var position, height float32
	switch flag {
	case term.FlagUnderline:
		position, height = b.metrics.UnderlinePosition, b.metrics.UnderlineThickness
	case term.FlagStrikeout:
		position, height = b.metrics.StrikeoutPosition, b.metrics.StrikeoutThickness
	default:
		panic(fmt.Sprintf("renderer: no decoration for flag %#x", uint16(flag)))
	}

	if height < 1 {
		height = 1
	}

	cellBottom := float32(start.Line+1) * size.CellHeight
	baseline := cellBottom + b.metrics.Descent

	y := baseline - position - height/2
	if maxY := cellBottom - height; y > maxY {
		y = maxY
	}

	return ColoredRect{
		Rect: Rect{
			X:      startX + size.PaddingX + offset.X,
			Y:      round(y) + size.PaddingY + offset.Y,
			Width:  endX - startX,
			Height: round(height),
		},
		Color: start.Fg,
	}
}

func round(v float32) float32 {
	return float32(math.Round(float64(v)))
}

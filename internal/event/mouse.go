package event

import (
	"math"
	"time"

	"github.com/andyrewlee/termview/internal/geometry"
)

// ClickState classifies consecutive presses of one button.
type ClickState int

const (
	ClickNone ClickState = iota
	Click
	DoubleClick
	TripleClick
)

func (c ClickState) String() string {
	switch c {
	case Click:
		return "click"
	case DoubleClick:
		return "double-click"
	case TripleClick:
		return "triple-click"
	default:
		return "none"
	}
}

// Side is the half of a cell under the pointer.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// Mouse is the pointer state owned by the processor.
type Mouse struct {
	X, Y   int
	Line   int
	Column int
	Side   Side

	LeftPressed   bool
	MiddlePressed bool
	RightPressed  bool

	LastClick  time.Time
	ClickState ClickState
	LastButton MouseButton

	// ScrollPx accumulates pixel wheel deltas not yet worth a line.
	ScrollPx float64
	// LinesScrolled accumulates fractional line wheel deltas.
	LinesScrolled float64
}

func newMouse() Mouse {
	return Mouse{LastButton: ButtonOther}
}

func (m *Mouse) setPressed(button MouseButton, pressed bool) {
	switch button {
	case ButtonLeft:
		m.LeftPressed = pressed
	case ButtonMiddle:
		m.MiddlePressed = pressed
	case ButtonRight:
		m.RightPressed = pressed
	}
}

// press classifies a button press at now. A press of the same button within
// the double click threshold of a click is a double click, and within the
// triple click threshold of a double click a triple click.
func (m *Mouse) press(button MouseButton, now time.Time, double, triple time.Duration) ClickState {
	elapsed := now.Sub(m.LastClick)
	same := button == m.LastButton
	switch {
	case m.ClickState == Click && same && elapsed < double:
		m.ClickState = DoubleClick
	case m.ClickState == DoubleClick && same && elapsed < triple:
		m.ClickState = TripleClick
	default:
		m.ClickState = Click
	}
	m.LastClick = now
	m.LastButton = button
	return m.ClickState
}

// move records a physical pixel position and the cell under it.
func (m *Mouse) move(x, y int, size geometry.SizeInfo) (changed bool) {
	m.X, m.Y = x, y
	point, ok := size.PixelsToCoords(x, y)
	if !ok {
		return false
	}
	side := cellSide(x, size)
	changed = point.Line != m.Line || point.Column != m.Column || side != m.Side
	m.Line, m.Column, m.Side = point.Line, point.Column, side
	return changed
}

func cellSide(x int, size geometry.SizeInfo) Side {
	if size.CellWidth <= 0 {
		return SideLeft
	}
	rel := float64(float32(x) - size.PaddingX)
	if rel < 0 {
		return SideLeft
	}
	if rel >= float64(size.Cols())*float64(size.CellWidth) {
		return SideRight
	}
	within := math.Mod(rel, float64(size.CellWidth))
	if within > float64(size.CellWidth)/2 {
		return SideRight
	}
	return SideLeft
}

// scroll accumulates a wheel delta and returns whole lines to scroll,
// positive meaning up. Pixel deltas are measured against cellHeight.
func (m *Mouse) scroll(delta float64, unit ScrollUnit, multiplier int, cellHeight float32) int {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0
	}
	switch unit {
	case ScrollPixels:
		if cellHeight <= 0 {
			return 0
		}
		m.ScrollPx += delta * float64(multiplier)
		lines := math.Trunc(m.ScrollPx / float64(cellHeight))
		m.ScrollPx -= lines * float64(cellHeight)
		return int(lines)
	default:
		m.LinesScrolled += delta * float64(multiplier)
		lines := math.Trunc(m.LinesScrolled)
		m.LinesScrolled -= lines
		return int(lines)
	}
}

// scrollSequence returns n cursor key presses in application mode.
func scrollSequence(lines int) []byte {
	cmd := byte('A')
	if lines < 0 {
		cmd = 'B'
		lines = -lines
	}
	out := make([]byte, 0, lines*3)
	for i := 0; i < lines; i++ {
		out = append(out, 0x1b, 'O', cmd)
	}
	return out
}

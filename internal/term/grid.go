package term

import (
	"github.com/mattn/go-runewidth"
)

const tabStop = 8

// Grid is the visible screen: a fixed lines x cols matrix plus a cursor.
type Grid struct {
	Lines  int      `json:"lines"`
	Cols   int      `json:"cols"`
	Rows   [][]Cell `json:"raw"`
	Cursor Point    `json:"cursor"`

	template Cell
}

// NewGrid returns a grid filled with template cells.
func NewGrid(lines, cols int, template Cell) *Grid {
	if lines < 0 {
		lines = 0
	}
	if cols < 0 {
		cols = 0
	}
	g := &Grid{Lines: lines, Cols: cols, template: template}
	g.Rows = make([][]Cell, lines)
	for i := range g.Rows {
		g.Rows[i] = g.blankRow()
	}
	return g
}

func (g *Grid) blankRow() []Cell {
	row := make([]Cell, g.Cols)
	for i := range row {
		row[i] = g.template
	}
	return row
}

// Resize changes the grid dimensions keeping content anchored top-left.
// When lines shrink below the cursor, rows scroll off the top so the cursor
// line stays visible.
func (g *Grid) Resize(lines, cols int) {
	if lines < 0 {
		lines = 0
	}
	if cols < 0 {
		cols = 0
	}
	if lines == g.Lines && cols == g.Cols {
		return
	}

	if shift := g.Cursor.Line - (lines - 1); shift > 0 && shift <= len(g.Rows) {
		g.Rows = g.Rows[shift:]
		g.Cursor.Line -= shift
	}

	rows := make([][]Cell, lines)
	for y := range rows {
		row := make([]Cell, cols)
		for x := range row {
			if y < len(g.Rows) && x < len(g.Rows[y]) {
				row[x] = g.Rows[y][x]
			} else {
				row[x] = g.template
			}
		}
		rows[y] = row
	}
	g.Rows = rows
	g.Lines = lines
	g.Cols = cols
	g.clampCursor()
}

func (g *Grid) clampCursor() {
	if g.Cursor.Line >= g.Lines {
		g.Cursor.Line = g.Lines - 1
	}
	if g.Cursor.Column >= g.Cols {
		g.Cursor.Column = g.Cols - 1
	}
	if g.Cursor.Line < 0 {
		g.Cursor.Line = 0
	}
	if g.Cursor.Column < 0 {
		g.Cursor.Column = 0
	}
}

// Cell returns a pointer to the cell at p, or nil when out of bounds.
func (g *Grid) Cell(p Point) *Cell {
	if p.Line < 0 || p.Line >= g.Lines || p.Column < 0 || p.Column >= g.Cols {
		return nil
	}
	return &g.Rows[p.Line][p.Column]
}

// Put writes r at the cursor using pen for colors and flags, wrapping and
// scrolling as needed.
func (g *Grid) Put(r rune, pen Cell) {
	if g.Lines == 0 || g.Cols == 0 {
		return
	}
	width := runewidth.RuneWidth(r)
	if width <= 0 {
		return
	}
	if g.Cursor.Column+width > g.Cols {
		g.Rows[g.Cursor.Line][g.Cols-1].Flags |= FlagWrapline
		g.Cursor.Column = 0
		g.LineFeed()
	}
	if width > g.Cols {
		return
	}

	cell := pen
	cell.Rune = r
	if width == 2 {
		cell.Flags |= FlagWideChar
	}
	g.Rows[g.Cursor.Line][g.Cursor.Column] = cell
	if width == 2 {
		spacer := pen
		spacer.Rune = ' '
		spacer.Flags |= FlagWideCharSpacer
		g.Rows[g.Cursor.Line][g.Cursor.Column+1] = spacer
	}
	g.Cursor.Column += width
	if g.Cursor.Column >= g.Cols {
		// Pending wrap: park on the last column, the next Put wraps.
		g.Cursor.Column = g.Cols
	}
}

// CarriageReturn moves the cursor to column zero.
func (g *Grid) CarriageReturn() {
	g.Cursor.Column = 0
}

// LineFeed moves the cursor down, scrolling the grid up at the bottom.
func (g *Grid) LineFeed() {
	if g.Lines == 0 {
		return
	}
	if g.Cursor.Line+1 < g.Lines {
		g.Cursor.Line++
		return
	}
	copy(g.Rows, g.Rows[1:])
	g.Rows[g.Lines-1] = g.blankRow()
}

// Backspace moves the cursor one column left.
func (g *Grid) Backspace() {
	if g.Cursor.Column >= g.Cols {
		g.Cursor.Column = g.Cols - 1
	}
	if g.Cursor.Column > 0 {
		g.Cursor.Column--
	}
}

// Tab advances the cursor to the next tab stop.
func (g *Grid) Tab() {
	next := (g.Cursor.Column/tabStop + 1) * tabStop
	if next >= g.Cols {
		next = g.Cols - 1
	}
	if next > g.Cursor.Column {
		g.Cursor.Column = next
	}
}

// Clear resets every cell to the template and homes the cursor.
func (g *Grid) Clear() {
	for i := range g.Rows {
		g.Rows[i] = g.blankRow()
	}
	g.Cursor = Point{}
}

package term

// Flags are per-cell style attributes.
type Flags uint16

const (
	FlagInverse Flags = 1 << iota
	FlagBold
	FlagItalic
	FlagUnderline
	FlagWrapline
	FlagWideChar
	FlagWideCharSpacer
	FlagDim
	FlagHidden
	FlagStrikeout
)

// FlagNone is the empty flag set.
const FlagNone Flags = 0

// Contains reports whether every bit of other is set.
func (f Flags) Contains(other Flags) bool {
	return other != 0 && f&other == other
}

// With returns f with other set.
func (f Flags) With(other Flags) Flags {
	return f | other
}

// Without returns f with other cleared.
func (f Flags) Without(other Flags) Flags {
	return f &^ other
}

// Cell is one grid position.
type Cell struct {
	Rune  rune  `json:"c"`
	Fg    Rgb   `json:"fg"`
	Bg    Rgb   `json:"bg"`
	Flags Flags `json:"flags"`
}

// IsEmpty reports whether the cell has nothing to draw over the background.
func (c Cell) IsEmpty(bg Rgb) bool {
	const visible = FlagInverse | FlagUnderline | FlagStrikeout | FlagWrapline | FlagWideCharSpacer
	return (c.Rune == ' ' || c.Rune == 0) && c.Bg == bg && c.Flags&visible == 0
}

// Point addresses a cell in the visible grid.
type Point struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// RenderableCell is a cell resolved for drawing, tagged with its position.
type RenderableCell struct {
	Line   int
	Column int
	Rune   rune
	Fg     Rgb
	Bg     Rgb
	Flags  Flags
}

// Point returns the cell's grid position.
func (c RenderableCell) Point() Point {
	return Point{Line: c.Line, Column: c.Column}
}

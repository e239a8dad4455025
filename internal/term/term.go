package term

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// maxPending bounds the bytes kept from an unterminated escape sequence.
const maxPending = 4096

// Colors are the primary colors of the terminal.
type Colors struct {
	Foreground Rgb `json:"foreground"`
	Background Rgb `json:"background"`
}

// Term is the terminal state shared by the event loop and the session
// reader. Callers hold the owning FairMutex while using it.
type Term struct {
	grid     *Grid
	colors   Colors
	pen      Cell
	parser   *ansi.Parser
	pending  []byte
	bell     *VisualBell
	messages *MessageBuffer

	title        string
	titleChanged bool
	exited       bool

	// Dirty is set whenever visible content changes.
	Dirty bool
	// IsFocused mirrors the window focus state.
	IsFocused bool
}

// New returns a terminal of cols x lines filled with the background color.
func New(cols, lines int, colors Colors, bell *VisualBell) *Term {
	if bell == nil {
		bell = NewVisualBell(BellEaseOut, 0, colors.Foreground)
	}
	t := &Term{
		colors:   colors,
		parser:   ansi.NewParser(),
		bell:     bell,
		messages: &MessageBuffer{},
		Dirty:    true,
	}
	t.pen = t.blank()
	t.grid = NewGrid(lines, cols, t.blank())
	return t
}

func (t *Term) blank() Cell {
	return Cell{Rune: ' ', Fg: t.colors.Foreground, Bg: t.colors.Background}
}

// Resize fits the grid to cols x lines, keeping the rows taken by the
// message bar out of the grid.
func (t *Term) Resize(cols, lines int) {
	rows := lines - t.messages.LineCount(cols, lines)
	if rows < 1 && lines > 0 {
		rows = 1
	}
	t.grid.Resize(rows, cols)
	t.Dirty = true
}

// Grid exposes the visible grid.
func (t *Term) Grid() *Grid {
	return t.grid
}

// Cols returns the grid width.
func (t *Term) Cols() int {
	return t.grid.Cols
}

// Lines returns the grid height.
func (t *Term) Lines() int {
	return t.grid.Lines
}

// RenderableCells resolves every visible cell in scan order. Inverse cells
// swap foreground and background; hidden cells draw nothing.
func (t *Term) RenderableCells() []RenderableCell {
	out := make([]RenderableCell, 0, t.grid.Lines*t.grid.Cols)
	for y, row := range t.grid.Rows {
		for x, c := range row {
			rc := RenderableCell{Line: y, Column: x, Rune: c.Rune, Fg: c.Fg, Bg: c.Bg, Flags: c.Flags}
			if c.Flags.Contains(FlagInverse) {
				rc.Fg, rc.Bg = c.Bg, c.Fg
			}
			if c.Flags.Contains(FlagHidden) || c.Flags.Contains(FlagWideCharSpacer) {
				rc.Rune = ' '
			}
			out = append(out, rc)
		}
	}
	return out
}

// MessageBuffer returns the queue of message bar entries.
func (t *Term) MessageBuffer() *MessageBuffer {
	return t.messages
}

// VisualBell returns the terminal bell.
func (t *Term) VisualBell() *VisualBell {
	return t.bell
}

// BackgroundColor is the primary background.
func (t *Term) BackgroundColor() Rgb {
	return t.colors.Background
}

// UpdateColors applies new primary colors to blank cells and the pen.
func (t *Term) UpdateColors(colors Colors) {
	old := t.colors
	t.colors = colors
	for _, row := range t.grid.Rows {
		for i := range row {
			if row[i].Fg == old.Foreground {
				row[i].Fg = colors.Foreground
			}
			if row[i].Bg == old.Background {
				row[i].Bg = colors.Background
			}
		}
	}
	t.grid.template = t.blank()
	if t.pen.Fg == old.Foreground {
		t.pen.Fg = colors.Foreground
	}
	if t.pen.Bg == old.Background {
		t.pen.Bg = colors.Background
	}
	t.Dirty = true
}

// Exit marks the terminal as finished.
func (t *Term) Exit() {
	t.exited = true
}

// Exited reports whether Exit was called.
func (t *Term) Exited() bool {
	return t.exited
}

// TakeTitle returns the title set by the child, if it changed since the last call.
func (t *Term) TakeTitle() (string, bool) {
	if !t.titleChanged {
		return "", false
	}
	t.titleChanged = false
	return t.title, true
}

// Feed decodes pty output into the grid. Incomplete sequences are kept
// for the next call.
func (t *Term) Feed(p []byte) {
	data := p
	if len(t.pending) > 0 {
		data = append(t.pending, p...)
		t.pending = nil
	}
	data, tail := splitIncompleteRune(data)

	var state byte
	for len(data) > 0 {
		seq, width, n, newState := ansi.DecodeSequence(data, state, t.parser)
		if n == 0 {
			break
		}
		if newState != ansi.NormalState && n == len(data) {
			if len(data) <= maxPending {
				t.pending = append([]byte(nil), data...)
			}
			break
		}
		if width > 0 {
			r, _ := utf8.DecodeRune(seq)
			t.grid.Put(r, t.pen)
		} else {
			t.handleSequence(seq)
		}
		data = data[n:]
		state = newState
	}
	if len(tail) > 0 {
		t.pending = append(t.pending, tail...)
	}
	t.Dirty = true
}

func splitIncompleteRune(b []byte) ([]byte, []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if b[i] >= utf8.RuneSelf && !utf8.FullRune(b[i:]) {
				return b[:i], append([]byte(nil), b[i:]...)
			}
			break
		}
	}
	return b, nil
}

func (t *Term) handleSequence(seq []byte) {
	if len(seq) == 1 {
		t.control(seq[0])
		return
	}
	switch {
	case ansi.HasCsiPrefix(seq):
		t.csi()
	case ansi.HasOscPrefix(seq):
		t.osc(seq)
	}
}

func (t *Term) control(c byte) {
	switch c {
	case ansi.BEL:
		t.bell.Ring()
	case ansi.BS:
		t.grid.Backspace()
	case ansi.HT:
		t.grid.Tab()
	case ansi.LF, ansi.VT, ansi.FF:
		t.grid.LineFeed()
	case ansi.CR:
		t.grid.CarriageReturn()
	}
}

func (t *Term) csi() {
	cmd := ansi.Cmd(t.parser.Command())
	if cmd.Prefix() != 0 || cmd.Intermediate() != 0 {
		return
	}
	params := t.parser.Params()
	g := t.grid
	switch cmd.Final() {
	case 'm':
		t.pen = applySGR(t.pen, params, t.colors)
	case 'H', 'f':
		row, _, _ := params.Param(0, 1)
		col, _, _ := params.Param(1, 1)
		g.Cursor = Point{Line: row - 1, Column: col - 1}
		g.clampCursor()
	case 'A':
		n, _, _ := params.Param(0, 1)
		g.Cursor.Line -= n
		g.clampCursor()
	case 'B':
		n, _, _ := params.Param(0, 1)
		g.Cursor.Line += n
		g.clampCursor()
	case 'C':
		n, _, _ := params.Param(0, 1)
		g.Cursor.Column += n
		g.clampCursor()
	case 'D':
		n, _, _ := params.Param(0, 1)
		g.Cursor.Column -= n
		g.clampCursor()
	case 'J':
		mode, _, _ := params.Param(0, 0)
		t.eraseDisplay(mode)
	case 'K':
		mode, _, _ := params.Param(0, 0)
		t.eraseLine(g.Cursor.Line, mode)
	}
}

func (t *Term) eraseDisplay(mode int) {
	g := t.grid
	switch mode {
	case 0:
		t.eraseLine(g.Cursor.Line, 0)
		for y := g.Cursor.Line + 1; y < g.Lines; y++ {
			g.Rows[y] = g.blankRow()
		}
	case 1:
		for y := 0; y < g.Cursor.Line; y++ {
			g.Rows[y] = g.blankRow()
		}
		t.eraseLine(g.Cursor.Line, 1)
	case 2, 3:
		cursor := g.Cursor
		g.Clear()
		g.Cursor = cursor
	}
}

func (t *Term) eraseLine(line, mode int) {
	g := t.grid
	if line < 0 || line >= g.Lines {
		return
	}
	col := g.Cursor.Column
	if col >= g.Cols {
		col = g.Cols - 1
	}
	from, to := 0, g.Cols
	switch mode {
	case 0:
		from = col
	case 1:
		to = col + 1
	}
	for x := from; x < to; x++ {
		g.Rows[line][x] = g.template
	}
}

func (t *Term) osc(seq []byte) {
	body := strings.TrimPrefix(string(seq), "\x1b]")
	body = strings.TrimSuffix(strings.TrimSuffix(body, "\a"), "\x1b\\")
	code, title, ok := strings.Cut(body, ";")
	if !ok {
		return
	}
	if code == "0" || code == "2" {
		t.title = title
		t.titleChanged = true
	}
}

// applySGR updates the pen from SGR parameters.
func applySGR(pen Cell, params ansi.Params, colors Colors) Cell {
	if len(params) == 0 {
		pen.Fg, pen.Bg, pen.Flags = colors.Foreground, colors.Background, FlagNone
		return pen
	}

	for i := 0; i < len(params); i++ {
		p, _, _ := params.Param(i, 0)
		switch {
		case p == 0:
			pen.Fg, pen.Bg, pen.Flags = colors.Foreground, colors.Background, FlagNone
		case p == 1:
			pen.Flags |= FlagBold
		case p == 2:
			pen.Flags |= FlagDim
		case p == 3:
			pen.Flags |= FlagItalic
		case p == 4:
			pen.Flags |= FlagUnderline
		case p == 7:
			pen.Flags |= FlagInverse
		case p == 8:
			pen.Flags |= FlagHidden
		case p == 9:
			pen.Flags |= FlagStrikeout
		case p == 21 || p == 22:
			pen.Flags &^= FlagBold | FlagDim
		case p == 23:
			pen.Flags &^= FlagItalic
		case p == 24:
			pen.Flags &^= FlagUnderline
		case p == 27:
			pen.Flags &^= FlagInverse
		case p == 28:
			pen.Flags &^= FlagHidden
		case p == 29:
			pen.Flags &^= FlagStrikeout
		case p >= 30 && p <= 37:
			pen.Fg = IndexedColor(p - 30)
		case p == 38:
			if c, skip, ok := extendedColor(params, i); ok {
				pen.Fg = c
				i += skip
			}
		case p == 39:
			pen.Fg = colors.Foreground
		case p >= 40 && p <= 47:
			pen.Bg = IndexedColor(p - 40)
		case p == 48:
			if c, skip, ok := extendedColor(params, i); ok {
				pen.Bg = c
				i += skip
			}
		case p == 49:
			pen.Bg = colors.Background
		case p >= 90 && p <= 97:
			pen.Fg = IndexedColor(p - 90 + 8)
		case p >= 100 && p <= 107:
			pen.Bg = IndexedColor(p - 100 + 8)
		}
	}
	return pen
}

// extendedColor decodes "5;idx" or "2;r;g;b" following params[i].
func extendedColor(params ansi.Params, i int) (Rgb, int, bool) {
	if i+2 >= len(params) {
		return Rgb{}, 0, false
	}
	mode, _, _ := params.Param(i+1, 0)
	switch {
	case mode == 5:
		idx, _, _ := params.Param(i+2, 0)
		return IndexedColor(idx), 2, true
	case mode == 2 && i+4 < len(params):
		r, _, _ := params.Param(i+2, 0)
		g, _, _ := params.Param(i+3, 0)
		b, _, _ := params.Param(i+4, 0)
		return Rgb{R: uint8(r), G: uint8(g), B: uint8(b)}, 4, true
	}
	return Rgb{}, 0, false
}

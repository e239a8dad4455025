// Package canvas is a software renderer that rasterizes frames onto a grid of
// host terminal cells, one host cell per terminal cell.
package canvas

import (
	"math"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/renderer"
	"github.com/andyrewlee/termview/internal/term"
)

// decorationSplit is the fraction of the cell height below which a thin rect
// counts as strikeout rather than underline.
const decorationSplit = 0.6

type cell struct {
	r         rune
	fg, bg    term.Rgb
	bold      bool
	italic    bool
	underline bool
	strike    bool
	spacer    bool
}

func (c cell) style() styleKey {
	return styleKey{fg: c.fg, bg: c.bg, bold: c.bold, italic: c.italic, underline: c.underline, strike: c.strike}
}

type styleKey struct {
	fg, bg    term.Rgb
	bold      bool
	italic    bool
	underline bool
	strike    bool
}

func (k styleKey) lipgloss() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(k.fg).
		Background(k.bg).
		Bold(k.bold).
		Italic(k.italic).
		Underline(k.underline).
		Strikethrough(k.strike)
}

// Canvas implements renderer.QuadRenderer and renderer.Context.
type Canvas struct {
	mu sync.Mutex

	viewport    geometry.PhysicalSize
	surfaceSize geometry.PhysicalSize
	paddingX    float32
	paddingY    float32
	clearColor  term.Rgb

	cols, lines int
	cells       [][]cell

	// buffers keep the previous frame intact while the next one is built.
	buffers    [2]strings.Builder
	bufferNext int
	frame      string
	frames     int
	closed     bool
	publish    func(frame string)
	styles     map[styleKey]lipgloss.Style
}

// New returns an empty canvas. publish, if non-nil, receives every swapped frame.
func New(publish func(frame string)) *Canvas {
	return &Canvas{publish: publish, styles: make(map[styleKey]lipgloss.Style)}
}

// Resize implements renderer.QuadRenderer.
func (c *Canvas) Resize(viewport geometry.PhysicalSize, paddingX, paddingY float32) {
	c.mu.Lock()
	c.viewport = viewport
	c.paddingX = paddingX
	c.paddingY = paddingY
	c.mu.Unlock()
}

// Clear starts a new frame filled with color.
func (c *Canvas) Clear(color term.Rgb) {
	c.mu.Lock()
	c.clearColor = color
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = cell{r: ' ', fg: color, bg: color}
		}
	}
	c.mu.Unlock()
}

func (c *Canvas) ensure(size geometry.SizeInfo) {
	cols, lines := size.Cols(), size.Lines()
	if cols == c.cols && lines == c.lines && c.cells != nil {
		return
	}
	c.cols, c.lines = cols, lines
	c.cells = make([][]cell, lines)
	for y := range c.cells {
		row := make([]cell, cols)
		for x := range row {
			row[x] = cell{r: ' ', fg: c.clearColor, bg: c.clearColor}
		}
		c.cells[y] = row
	}
}

func (c *Canvas) at(line, col int) *cell {
	if line < 0 || line >= c.lines || col < 0 || col >= c.cols {
		return nil
	}
	return &c.cells[line][col]
}

// RenderCell implements renderer.QuadRenderer.
func (c *Canvas) RenderCell(size geometry.SizeInfo, rc term.RenderableCell, glyphs *font.GlyphCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensure(size)

	dst := c.at(rc.Line, rc.Column)
	if dst == nil {
		return
	}
	r := rc.Rune
	if r == 0 {
		r = ' '
	}
	if glyphs != nil {
		if g, err := glyphs.Glyph(r); err == nil && g.Cells > 1 && rc.Column+g.Cells > c.cols {
			r = ' '
		}
	}
	*dst = cell{
		r:      r,
		fg:     rc.Fg,
		bg:     rc.Bg,
		bold:   rc.Flags.Contains(term.FlagBold),
		italic: rc.Flags.Contains(term.FlagItalic),
		spacer: rc.Flags.Contains(term.FlagWideCharSpacer),
	}
}

// RenderString implements renderer.QuadRenderer.
func (c *Canvas) RenderString(size geometry.SizeInfo, text string, line int, fg, bg term.Rgb, glyphs *font.GlyphCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensure(size)

	col := 0
	for _, r := range text {
		dst := c.at(line, col)
		if dst == nil {
			return
		}
		cells := 1
		if glyphs != nil {
			if g, err := glyphs.Glyph(r); err == nil {
				cells = g.Cells
			}
		}
		*dst = cell{r: r, fg: fg, bg: bg}
		for i := 1; i < cells; i++ {
			if spacer := c.at(line, col+i); spacer != nil {
				*spacer = cell{r: ' ', fg: fg, bg: bg, spacer: true}
			}
		}
		col += cells
	}
}

// DrawRects implements renderer.QuadRenderer. Rects at least one cell tall
// fill the background of the cells they cover; thinner rects decorate them.
func (c *Canvas) DrawRects(size geometry.SizeInfo, bell renderer.Bell, rects []renderer.ColoredRect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensure(size)

	cw, ch := float64(size.CellWidth), float64(size.CellHeight)
	for _, rect := range rects {
		x0 := int(math.Floor((float64(rect.X) - float64(size.PaddingX)) / cw))
		x1 := int(math.Ceil((float64(rect.X+rect.Width) - float64(size.PaddingX)) / cw))
		y := float64(rect.Y) - float64(size.PaddingY)
		if float64(rect.Height) >= ch {
			y0 := int(math.Floor(y / ch))
			y1 := int(math.Ceil((y + float64(rect.Height)) / ch))
			for line := y0; line < y1; line++ {
				for col := max(x0, 0); col < x1; col++ {
					if dst := c.at(line, col); dst != nil {
						dst.bg = rect.Color
					}
				}
			}
			continue
		}

		line := int(math.Floor(y / ch))
		within := y - float64(line)*ch
		underline := within >= ch*decorationSplit
		for col := max(x0, 0); col < x1; col++ {
			dst := c.at(line, col)
			if dst == nil {
				continue
			}
			if underline {
				dst.underline = true
			} else {
				dst.strike = true
			}
			dst.fg = rect.Color
		}
	}

	if bell.Intensity > 0 {
		for y := range c.cells {
			for x := range c.cells[y] {
				cur := &c.cells[y][x]
				cur.bg = blend(cur.bg, bell.Color, bell.Intensity)
			}
		}
	}
}

func blend(base, over term.Rgb, alpha float64) term.Rgb {
	alpha = math.Min(1, math.Max(0, alpha))
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a)*(1-alpha) + float64(b)*alpha))
	}
	return term.Rgb{R: mix(base.R, over.R), G: mix(base.G, over.G), B: mix(base.B, over.B)}
}

// SwapBuffers publishes the frame.
func (c *Canvas) SwapBuffers() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return renderer.ErrSurfaceLost
	}
	frame := c.render()
	c.frame = frame
	c.frames++
	publish := c.publish
	c.mu.Unlock()

	if publish != nil {
		publish(frame)
	}
	return nil
}

// Surface returns the canvas as a presentation context.
func (c *Canvas) Surface() renderer.Context {
	return surface{c}
}

// surface adapts a Canvas to renderer.Context.
type surface struct{ c *Canvas }

// Resize records the surface size. Cell storage follows the SizeInfo of
// each frame instead.
func (s surface) Resize(size geometry.PhysicalSize) {
	s.c.mu.Lock()
	s.c.surfaceSize = size
	s.c.mu.Unlock()
}

func (s surface) SwapBuffers() error { return s.c.SwapBuffers() }

// SurfaceSize returns the size last set through Surface.
func (c *Canvas) SurfaceSize() geometry.PhysicalSize {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaceSize
}

// Close makes later swaps fail.
func (c *Canvas) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Frame returns the last swapped frame.
func (c *Canvas) Frame() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Frames counts swapped frames.
func (c *Canvas) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Viewport returns the last viewport set by Resize.
func (c *Canvas) Viewport() geometry.PhysicalSize {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

func (c *Canvas) render() string {
	b := &c.buffers[c.bufferNext]
	c.bufferNext = (c.bufferNext + 1) % len(c.buffers)
	b.Reset()
	b.Grow(c.cols * c.lines * 2)

	var run strings.Builder
	for y := 0; y < c.lines; y++ {
		var current styleKey
		started := false
		for x := 0; x < c.cols; x++ {
			cur := c.cells[y][x]
			if cur.spacer {
				continue
			}
			key := cur.style()
			if started && key != current {
				b.WriteString(c.styleFor(current).Render(run.String()))
				run.Reset()
			}
			current, started = key, true
			run.WriteRune(cur.r)
		}
		if started {
			b.WriteString(c.styleFor(current).Render(run.String()))
			run.Reset()
		}
		if y < c.lines-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *Canvas) styleFor(k styleKey) lipgloss.Style {
	if s, ok := c.styles[k]; ok {
		return s
	}
	s := k.lipgloss()
	c.styles[k] = s
	return s
}

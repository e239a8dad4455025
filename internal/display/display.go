// Package display owns the rendering side of the terminal: the glyph cache,
// the authoritative viewport geometry, and the per-frame draw pass.
package display

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/perf"
	"github.com/andyrewlee/termview/internal/renderer"
	"github.com/andyrewlee/termview/internal/term"
)

var log = logging.For("display")

// renderTimerColor is the color of the render timer overlay.
var renderTimerColor = term.Rgb{R: 0xd5, G: 0x4e, B: 0x53}

var (
	errNoWindow   = errors.New("no window")
	errNoRenderer = errors.New("no renderer")
)

// Window is the part of the window system the display needs.
type Window interface {
	ScaleFactor() float64
	InnerSize() geometry.LogicalSize
	SetInnerSize(size geometry.LogicalSize) error
}

// Notifier receives the applied geometry after each resize.
type Notifier interface {
	NotifyResize(size geometry.SizeInfo) error
}

// OnResize is implemented by the pty session.
type OnResize interface {
	OnResize(size geometry.SizeInfo)
}

// RenderUpdate is a snapshot of everything one frame needs. The render
// context never touches live terminal state.
type RenderUpdate struct {
	Cells []term.RenderableCell
	// Columns and Lines are the grid size Cells were taken at. Zero means
	// the current pty size.
	Columns, Lines int

	Message       *term.Message
	BellIntensity float64
	Background    term.Rgb
	Config        *config.Config
}

// Stats counts the work done by HandleResize.
type Stats struct {
	Reconciles      int
	Geometry        int
	GlyphRebuilds   int
	PtyNotifies     int
	ViewportResizes int
}

// Display wraps the renderer, its surface and the glyph cache.
type Display struct {
	renderer renderer.QuadRenderer
	context  renderer.Context
	glyphs   *font.GlyphCache
	mailbox  *Mailbox
	meter    *perf.Meter
	notifier Notifier

	fontSize     font.Size
	size         geometry.SizeInfo
	messageLines int

	reconciling atomic.Bool
	stats       Stats
}

// New sets up the glyph cache and the initial geometry, resizing the window
// when the config asks for fixed dimensions.
func New(cfg *config.Config, window Window, ctx renderer.Context, qr renderer.QuadRenderer, rasterizer font.Rasterizer, notifier Notifier) (*Display, error) {
	if window == nil {
		return nil, wrap(SubsystemWindow, errNoWindow)
	}
	if ctx == nil || qr == nil {
		return nil, wrap(SubsystemRender, errNoRenderer)
	}

	dpr := window.ScaleFactor()
	log.Info("device pixel ratio: %v", dpr)
	viewport := window.InnerSize().ToPhysical(dpr)

	glyphs, err := font.NewGlyphCache(rasterizer, cfg.Font.ForSize(cfg.Font.Size), dpr, cfg.Font.GlyphOffset)
	if err != nil {
		return nil, wrap(SubsystemFont, err)
	}
	cw, ch := font.ComputeCellSize(cfg.Font.Offset, glyphs.FontMetrics())

	if dims, ok := geometry.CalculateDimensions(cfg.Window.Dimensions.Columns, cfg.Window.Dimensions.Lines,
		cfg.Window.Padding, dpr, cw, ch); ok {
		if dims.ApproxEqual(viewport) {
			log.Info("estimated window size correctly, skipping resize")
		} else {
			viewport = dims
			if err := window.SetInnerSize(viewport.ToLogical(dpr)); err != nil {
				return nil, wrap(SubsystemWindow, err)
			}
		}
	}

	d := &Display{
		renderer: qr,
		context:  ctx,
		glyphs:   glyphs,
		mailbox:  &Mailbox{},
		meter:    perf.NewMeter(),
		notifier: notifier,
		fontSize: cfg.Font.Size,
	}
	d.size = d.compute(cfg, viewport, cw, ch, dpr)

	qr.Resize(viewport, d.size.PaddingX, d.size.PaddingY)
	log.Info("cell size: %v x %v", cw, ch)
	log.Info("padding: %v x %v", d.size.PaddingX, d.size.PaddingY)

	qr.Clear(cfg.Colors.Primary.Background)
	return d, nil
}

func (d *Display) compute(cfg *config.Config, viewport geometry.PhysicalSize, cw, ch float32, dpr float64) geometry.SizeInfo {
	d.stats.Geometry++
	return geometry.Compute(geometry.Params{
		Viewport:       viewport,
		CellWidth:      cw,
		CellHeight:     ch,
		Padding:        cfg.Window.Padding,
		DynamicPadding: cfg.Window.DynamicPadding && !cfg.Window.Dimensions.IsSet(),
		DPR:            dpr,
	})
}

// Size returns the current geometry.
func (d *Display) Size() geometry.SizeInfo {
	return d.size
}

// PtySize is the geometry without the message bar rows.
func (d *Display) PtySize() geometry.SizeInfo {
	return d.size.WithoutLines(d.messageLines)
}

// FontSize returns the applied font size.
func (d *Display) FontSize() font.Size {
	return d.fontSize
}

// MessageLines returns the applied message bar height.
func (d *Display) MessageLines() int {
	return d.messageLines
}

// Mailbox is where resize signals are sent.
func (d *Display) Mailbox() *Mailbox {
	return d.mailbox
}

// GlyphCache returns the loaded glyphs.
func (d *Display) GlyphCache() *font.GlyphCache {
	return d.glyphs
}

// Stats returns resize work counters.
func (d *Display) Stats() Stats {
	return d.stats
}

// RenderTime returns the rolling average grid draw time in microseconds.
func (d *Display) RenderTime() float64 {
	return d.meter.AverageMicros()
}

// Draw renders one frame and presents it. A failed buffer swap is fatal.
func (d *Display) Draw(u RenderUpdate) error {
	defer perf.Time("display.draw")()

	cfg := u.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	size := d.size
	grid := renderer.Grid{Columns: u.Columns, Lines: u.Lines}
	if grid.Columns <= 0 || grid.Lines <= 0 {
		grid = renderer.GridOf(d.PtySize())
	}
	rects := renderer.NewRectBuilder(d.glyphs.FontMetrics(), size)

	d.renderer.Clear(u.Background)

	sampler := d.meter.Sample()
	for _, cell := range u.Cells {
		rects.UpdateLines(grid, cell, renderer.Offset{})
		d.renderer.RenderCell(size, cell, d.glyphs)
	}
	sampler.Stop()

	bell := renderer.Bell{Intensity: u.BellIntensity, Color: cfg.VisualBell.Color}
	if u.Message != nil {
		text := u.Message.Lines(size.Cols(), size.Lines())
		startLine := size.Lines() - len(text)
		if startLine < 0 {
			startLine = 0
		}
		y := size.PaddingY + size.CellHeight*float32(startLine)
		rects.Push(renderer.Rect{X: 0, Y: y, Width: size.Width, Height: size.Height - y}, u.Message.Color)

		d.renderer.DrawRects(size, bell, rects.Rects())

		offset := 1
		for i := len(text) - 1; i >= 0; i-- {
			line := size.Lines() - offset
			if line < 0 {
				break
			}
			d.renderer.RenderString(size, text[i], line, u.Background, u.Message.Color, d.glyphs)
			offset++
		}
	} else {
		d.renderer.DrawRects(size, bell, rects.Rects())
	}

	if cfg.Debug.RenderTimer {
		timing := fmt.Sprintf("%.3f usec", d.meter.AverageMicros())
		d.renderer.RenderString(size, timing, size.Lines()-2, renderTimerColor, u.Background, d.glyphs)
	}

	perf.Count("display.rects", int64(len(rects.Rects())))
	if err := d.context.SwapBuffers(); err != nil {
		return wrap(SubsystemRender, fmt.Errorf("swap buffers: %w", err))
	}
	return nil
}

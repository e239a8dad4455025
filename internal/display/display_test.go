package display

import (
	"errors"
	"strings"
	"testing"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/renderer"
	"github.com/andyrewlee/termview/internal/term"
)

// stubRasterizer yields 8x16 cells at 11pt and dpr 1, scaling linearly.
type stubRasterizer struct {
	fail error
}

func (r *stubRasterizer) Metrics(desc font.Description, dpr float64) (font.Metrics, error) {
	if r.fail != nil {
		return font.Metrics{}, r.fail
	}
	scale := float64(desc.Size) / 11 * dpr
	return font.Metrics{
		AverageAdvance:     8 * scale,
		LineHeight:         16 * scale,
		Descent:            -3,
		UnderlinePosition:  -1,
		UnderlineThickness: 1,
		StrikeoutPosition:  5,
		StrikeoutThickness: 1,
	}, nil
}

func (r *stubRasterizer) Rasterize(ch rune, desc font.Description, dpr float64) (font.Glyph, error) {
	return font.Glyph{Rune: ch, Cells: 1}, nil
}

type fakeWindow struct {
	dpr      float64
	size     geometry.LogicalSize
	setCalls []geometry.LogicalSize
}

func (w *fakeWindow) ScaleFactor() float64            { return w.dpr }
func (w *fakeWindow) InnerSize() geometry.LogicalSize { return w.size }
func (w *fakeWindow) SetInnerSize(size geometry.LogicalSize) error {
	w.setCalls = append(w.setCalls, size)
	w.size = size
	return nil
}

type stringCall struct {
	text string
	line int
	fg   term.Rgb
}

type fakeRenderer struct {
	resizes []geometry.PhysicalSize
	clears  int
	cells   int
	strings []stringCall
	rects   []renderer.ColoredRect
	bell    renderer.Bell
}

func (r *fakeRenderer) Resize(viewport geometry.PhysicalSize, paddingX, paddingY float32) {
	r.resizes = append(r.resizes, viewport)
}
func (r *fakeRenderer) Clear(color term.Rgb) { r.clears++ }
func (r *fakeRenderer) RenderCell(size geometry.SizeInfo, cell term.RenderableCell, glyphs *font.GlyphCache) {
	r.cells++
}
func (r *fakeRenderer) RenderString(size geometry.SizeInfo, text string, line int, fg, bg term.Rgb, glyphs *font.GlyphCache) {
	r.strings = append(r.strings, stringCall{text: text, line: line, fg: fg})
}
func (r *fakeRenderer) DrawRects(size geometry.SizeInfo, bell renderer.Bell, rects []renderer.ColoredRect) {
	r.rects = append(r.rects, rects...)
	r.bell = bell
}

type fakeContext struct {
	resizes []geometry.PhysicalSize
	swaps   int
	swapErr error
}

func (c *fakeContext) Resize(size geometry.PhysicalSize) { c.resizes = append(c.resizes, size) }
func (c *fakeContext) SwapBuffers() error {
	c.swaps++
	return c.swapErr
}

type fakePty struct {
	sizes []geometry.SizeInfo
}

func (p *fakePty) OnResize(size geometry.SizeInfo) { p.sizes = append(p.sizes, size) }

type fakeNotifier struct {
	sizes []geometry.SizeInfo
	err   error
}

func (n *fakeNotifier) NotifyResize(size geometry.SizeInfo) error {
	n.sizes = append(n.sizes, size)
	return n.err
}

type harness struct {
	cfg      *config.Config
	window   *fakeWindow
	renderer *fakeRenderer
	context  *fakeContext
	pty      *fakePty
	notifier *fakeNotifier
	display  *Display
}

func newHarness(t *testing.T, width, height float64, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Window.Padding = geometry.Padding{}
	if mutate != nil {
		mutate(cfg)
	}
	h := &harness{
		cfg:      cfg,
		window:   &fakeWindow{dpr: 1, size: geometry.LogicalSize{Width: width, Height: height}},
		renderer: &fakeRenderer{},
		context:  &fakeContext{},
		pty:      &fakePty{},
		notifier: &fakeNotifier{},
	}
	d, err := New(cfg, h.window, h.context, h.renderer, &stubRasterizer{}, h.notifier)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.display = d
	return h
}

func (h *harness) send(t *testing.T, signals ...Signal) {
	t.Helper()
	for _, s := range signals {
		if err := h.display.Mailbox().Send(s); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
}

func TestNewComputesInitialGeometry(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	size := h.display.Size()
	if size.Cols() != 80 || size.Lines() != 24 {
		t.Fatalf("expected 80x24, got %dx%d", size.Cols(), size.Lines())
	}
	if len(h.renderer.resizes) != 1 || h.renderer.clears != 1 {
		t.Fatalf("expected renderer resized and cleared once, got %d/%d", len(h.renderer.resizes), h.renderer.clears)
	}
	if h.display.State() != StateIdle {
		t.Fatalf("expected idle state, got %v", h.display.State())
	}
}

func TestNewAppliesConfiguredDimensions(t *testing.T) {
	h := newHarness(t, 100, 100, func(cfg *config.Config) {
		cfg.Window.Dimensions = config.Dimensions{Columns: 10, Lines: 5}
		cfg.Window.Padding = geometry.Padding{X: 1, Y: 2}
		cfg.Window.DynamicPadding = true
	})
	if len(h.window.setCalls) != 1 {
		t.Fatalf("expected SetInnerSize once, got %d", len(h.window.setCalls))
	}
	if got := h.window.setCalls[0]; got != (geometry.LogicalSize{Width: 82, Height: 84}) {
		t.Fatalf("unexpected inner size %+v", got)
	}
	size := h.display.Size()
	if size.PaddingX != 1 || size.PaddingY != 2 {
		t.Fatalf("expected fixed padding with dimensions set, got %vx%v", size.PaddingX, size.PaddingY)
	}
}

func TestNewSkipsResizeWhenSizeMatches(t *testing.T) {
	h := newHarness(t, 80, 80, func(cfg *config.Config) {
		cfg.Window.Dimensions = config.Dimensions{Columns: 10, Lines: 5}
	})
	if len(h.window.setCalls) != 0 {
		t.Fatalf("expected no SetInnerSize, got %+v", h.window.setCalls)
	}
}

func TestNewTagsInitErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(cfg, nil, &fakeContext{}, &fakeRenderer{}, &stubRasterizer{}, nil)
	var de *Error
	if !errors.As(err, &de) || de.Subsystem != SubsystemWindow {
		t.Fatalf("expected window error, got %v", err)
	}

	cause := errors.New("no fonts")
	window := &fakeWindow{dpr: 1, size: geometry.LogicalSize{Width: 10, Height: 10}}
	_, err = New(cfg, window, &fakeContext{}, &fakeRenderer{}, &stubRasterizer{fail: cause}, nil)
	if !errors.As(err, &de) || de.Subsystem != SubsystemFont || !errors.Is(err, cause) {
		t.Fatalf("expected font error wrapping cause, got %v", err)
	}

	_, err = New(cfg, window, nil, &fakeRenderer{}, &stubRasterizer{}, nil)
	if !errors.As(err, &de) || de.Subsystem != SubsystemRender {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestResizeCoalescesSignals(t *testing.T) {
	h := newHarness(t, 400, 300, nil)
	before := h.display.Stats()

	h.send(t,
		SizeSignal{Size: geometry.PhysicalSize{Width: 800, Height: 600}},
		DPRSignal{DPR: 2},
		SizeSignal{Size: geometry.PhysicalSize{Width: 810, Height: 600}},
	)
	if h.display.State() != StateCollecting {
		t.Fatalf("expected collecting state, got %v", h.display.State())
	}
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}

	size := h.display.Size()
	if size.Width != 810 || size.Height != 600 || size.DPR != 2 {
		t.Fatalf("expected 810x600 at dpr 2, got %+v", size)
	}
	if size.CellWidth != 16 || size.CellHeight != 32 {
		t.Fatalf("expected cell size rebuilt for dpr 2, got %vx%v", size.CellWidth, size.CellHeight)
	}
	after := h.display.Stats()
	if after.Geometry-before.Geometry != 1 {
		t.Fatalf("expected one geometry computation, got %d", after.Geometry-before.Geometry)
	}
	if after.GlyphRebuilds-before.GlyphRebuilds != 1 {
		t.Fatalf("expected one glyph cache rebuild, got %d", after.GlyphRebuilds-before.GlyphRebuilds)
	}
	if len(h.notifier.sizes) != 1 || h.notifier.sizes[0] != size {
		t.Fatalf("expected one resize broadcast, got %+v", h.notifier.sizes)
	}
	if last := h.context.resizes[len(h.context.resizes)-1]; last != (geometry.PhysicalSize{Width: 810, Height: 600}) {
		t.Fatalf("unexpected context resize %+v", last)
	}
	if h.display.State() != StateIdle {
		t.Fatalf("expected idle after reconcile, got %v", h.display.State())
	}
}

func TestResizeMessageBarShrinksPty(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	resizesBefore := len(h.renderer.resizes)

	h.send(t, MessageBarSignal{Lines: 2})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}

	if len(h.pty.sizes) != 1 {
		t.Fatalf("expected one pty notification, got %d", len(h.pty.sizes))
	}
	pty := h.pty.sizes[0]
	if pty.Height != 384-32 || pty.Lines() != 22 || pty.Cols() != 80 {
		t.Fatalf("expected pty 80x22 at height 352, got %dx%d at %v", pty.Cols(), pty.Lines(), pty.Height)
	}
	size := h.display.Size()
	if size.Width != 640 || size.Height != 384 {
		t.Fatalf("expected display geometry unchanged, got %+v", size)
	}
	if len(h.renderer.resizes) != resizesBefore+1 || h.renderer.resizes[len(h.renderer.resizes)-1].Width != 640 {
		t.Fatalf("expected viewport width unchanged, got %+v", h.renderer.resizes)
	}
	if h.display.Stats().GlyphRebuilds != 0 {
		t.Fatal("message bar change must not rebuild the glyph cache")
	}

	// A later window resize keeps subtracting the message bar.
	h.send(t, SizeSignal{Size: geometry.PhysicalSize{Width: 640, Height: 400}})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	if got := h.display.PtySize().Lines(); got != 23 {
		t.Fatalf("expected 23 pty lines after growing, got %d", got)
	}
}

func TestResizeWithoutSignalsIsNoop(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	before := h.display.Stats()
	resizes := len(h.renderer.resizes)

	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	if h.display.Stats() != before {
		t.Fatalf("expected no reconcile, stats %+v -> %+v", before, h.display.Stats())
	}
	if len(h.renderer.resizes) != resizes || len(h.context.resizes) != 0 {
		t.Fatal("expected no renderer resize")
	}
}

func TestResizeIsIdempotent(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	h.send(t, SizeSignal{Size: geometry.PhysicalSize{Width: 800, Height: 600}}, FontSizeSignal{Size: 12})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	size, stats := h.display.Size(), h.display.Stats()

	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	if h.display.Size() != size || h.display.Stats() != stats {
		t.Fatal("expected second application to be a no-op")
	}
}

func TestResizeSameSizeIsNoop(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	h.send(t, SizeSignal{Size: geometry.PhysicalSize{Width: 640, Height: 384}}, DPRSignal{DPR: 1}, MessageBarSignal{Lines: 0})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	if h.display.Stats().Reconciles != 0 || len(h.pty.sizes) != 0 {
		t.Fatalf("expected no-op, got %+v", h.display.Stats())
	}
}

func TestResizeFontSizeSynthesizesSize(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	h.send(t, FontSizeSignal{Size: 22})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	size := h.display.Size()
	if size.Width != 640 || size.Height != 384 {
		t.Fatalf("expected synthesized size to match the window, got %+v", size)
	}
	if size.Cols() != 40 || size.Lines() != 12 {
		t.Fatalf("expected 40x12 with doubled cells, got %dx%d", size.Cols(), size.Lines())
	}
	if h.display.FontSize() != 22 {
		t.Fatalf("expected font size applied, got %v", h.display.FontSize())
	}
	if len(h.pty.sizes) != 1 {
		t.Fatalf("expected pty notified of the new grid, got %d", len(h.pty.sizes))
	}
}

func TestResizeBroadcastErrorIsReturned(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	h.notifier.err = ErrClosed
	h.send(t, SizeSignal{Size: geometry.PhysicalSize{Width: 320, Height: 384}})
	if err := h.display.HandleResize(h.cfg, h.pty); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMailboxClosed(t *testing.T) {
	var m Mailbox
	m.Close()
	if err := m.Send(DPRSignal{DPR: 2}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDrawBuildsRectsAndMessage(t *testing.T) {
	h := newHarness(t, 80, 64, nil)
	red := term.Rgb{R: 0xff}
	cells := []term.RenderableCell{
		{Line: 0, Column: 0, Rune: 'a', Fg: red, Flags: term.FlagUnderline},
		{Line: 0, Column: 1, Rune: 'b', Fg: red, Flags: term.FlagUnderline},
		{Line: 0, Column: 2, Rune: 'c', Fg: red},
	}
	msg := term.Message{Text: "oops", Color: term.Rgb{R: 0x80}}
	cfg := config.DefaultConfig()
	cfg.Debug.RenderTimer = true

	err := h.display.Draw(RenderUpdate{Cells: cells, Message: &msg, BellIntensity: 0.5, Background: term.Rgb{}, Config: cfg})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if h.renderer.cells != 3 {
		t.Fatalf("expected 3 cells drawn, got %d", h.renderer.cells)
	}
	if len(h.renderer.rects) != 2 {
		t.Fatalf("expected underline and message rects, got %+v", h.renderer.rects)
	}
	if h.renderer.rects[0].Width != 16 {
		t.Fatalf("expected two-cell underline, got %+v", h.renderer.rects[0])
	}
	bar := h.renderer.rects[1]
	if bar.Y != 48 || bar.Height != 16 || bar.Width != 80 || bar.Color != msg.Color {
		t.Fatalf("unexpected message background %+v", bar)
	}
	if h.renderer.bell.Intensity != 0.5 {
		t.Fatalf("expected bell intensity passed through, got %v", h.renderer.bell.Intensity)
	}
	if len(h.renderer.strings) != 2 {
		t.Fatalf("expected message and timer strings, got %+v", h.renderer.strings)
	}
	if got := h.renderer.strings[0]; !strings.HasPrefix(got.text, "oops") || got.line != 3 {
		t.Fatalf("unexpected message line %+v", got)
	}
	if got := h.renderer.strings[1]; !strings.HasSuffix(got.text, " usec") || got.line != 2 || got.fg != renderTimerColor {
		t.Fatalf("unexpected timer %+v", got)
	}
	if h.context.swaps != 1 {
		t.Fatalf("expected one swap, got %d", h.context.swaps)
	}
}

func TestDrawSwapFailureIsRenderError(t *testing.T) {
	h := newHarness(t, 80, 64, nil)
	h.context.swapErr = renderer.ErrSurfaceLost
	err := h.display.Draw(RenderUpdate{Config: h.cfg})
	var de *Error
	if !errors.As(err, &de) || de.Subsystem != SubsystemRender || !errors.Is(err, renderer.ErrSurfaceLost) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestDrawFlushesLastCellOfSnapshotAfterResize(t *testing.T) {
	h := newHarness(t, 640, 384, nil)
	red := term.Rgb{R: 0xff}
	cells := make([]term.RenderableCell, 0, 80*24)
	for line := 0; line < 24; line++ {
		for col := 0; col < 80; col++ {
			c := term.RenderableCell{Line: line, Column: col, Rune: 'x', Fg: red}
			if line == 23 && col >= 70 {
				c.Flags = term.FlagUnderline
			}
			cells = append(cells, c)
		}
	}

	// The snapshot was taken at 80x24; the window grew before it was drawn.
	h.send(t, SizeSignal{Size: geometry.PhysicalSize{Width: 800, Height: 480}})
	if err := h.display.HandleResize(h.cfg, h.pty); err != nil {
		t.Fatalf("HandleResize: %v", err)
	}
	if got := h.display.Size(); got.Cols() != 100 || got.Lines() != 30 {
		t.Fatalf("expected 100x30 after resize, got %dx%d", got.Cols(), got.Lines())
	}

	if err := h.display.Draw(RenderUpdate{Cells: cells, Columns: 80, Lines: 24, Config: h.cfg}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(h.renderer.rects) != 1 {
		t.Fatalf("expected the trailing underline, got %+v", h.renderer.rects)
	}
	if r := h.renderer.rects[0]; r.X != 70*8 || r.Width != 10*8 {
		t.Fatalf("unexpected underline %+v", r)
	}
}

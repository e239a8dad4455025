package event

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/display"
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/perf"
	"github.com/andyrewlee/termview/internal/term"
)

var log = logging.For("event")

// Signals receives resize-class signals for the display.
type Signals interface {
	Send(s display.Signal) error
}

// Options wires a Processor.
type Options struct {
	Config  *config.Config
	Term    *term.Term
	Lock    *term.FairMutex
	Window  Window
	Session Session
	Signals Signals
	Render  chan<- display.RenderUpdate
	Size    geometry.SizeInfo

	// RefTestDir receives the ref-test dump; empty means the working directory.
	RefTestDir string
	// LoadConfig reloads a config file; nil means config.Load.
	LoadConfig func(path string) (*config.Config, error)
	// Now is the click clock; nil means time.Now.
	Now func() time.Time
}

// Processor runs the poll/drain loop on the event goroutine.
type Processor struct {
	cfg     *config.Config
	term    *term.Term
	lock    *term.FairMutex
	window  Window
	session Session
	signals Signals
	render  chan<- display.RenderUpdate

	size          geometry.SizeInfo
	fontSize      font.Size
	mouse         Mouse
	suppressChars bool
	redraw        bool

	refTestDir string
	loadConfig func(path string) (*config.Config, error)
	now        func() time.Time

	queue []Event
}

// NewProcessor returns a processor. The first render update is allowed
// without a RedrawRequest.
func NewProcessor(opts Options) *Processor {
	p := &Processor{
		cfg:        opts.Config,
		term:       opts.Term,
		lock:       opts.Lock,
		window:     opts.Window,
		session:    opts.Session,
		signals:    opts.Signals,
		render:     opts.Render,
		size:       opts.Size,
		fontSize:   opts.Config.Font.Size,
		mouse:      newMouse(),
		redraw:     true,
		refTestDir: opts.RefTestDir,
		loadConfig: opts.LoadConfig,
		now:        opts.Now,
	}
	if p.lock == nil {
		p.lock = &term.FairMutex{}
	}
	if p.loadConfig == nil {
		p.loadConfig = config.Load
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Mouse returns a copy of the pointer state.
func (p *Processor) Mouse() Mouse {
	return p.mouse
}

// Size returns the last geometry seen by the processor.
func (p *Processor) Size() geometry.SizeInfo {
	return p.size
}

// FontSize returns the current font size.
func (p *Processor) FontSize() font.Size {
	return p.fontSize
}

// Config returns the active config.
func (p *Processor) Config() *config.Config {
	return p.cfg
}

// Run pulls events from src until an Exit event, a finished session or a
// closed terminal. Events are buffered until src reports EventsCleared and
// then handled together.
func (p *Processor) Run(ctx context.Context, src Source) error {
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if p.cfg.Debug.PrintEvents {
			log.Info("%s", Describe(ev))
		}

		if _, ok := ev.(Exit); ok || p.sessionDone() {
			return nil
		}
		if _, ok := ev.(EventsCleared); !ok {
			if !Skip(ev) {
				p.queue = append(p.queue, ev)
			}
			continue
		}

		exited, err := p.drain(ctx)
		if err != nil {
			return err
		}
		if exited {
			return nil
		}
	}
}

func (p *Processor) sessionDone() bool {
	return p.session != nil && p.session.ShouldExit()
}

// drain handles the buffered events under the terminal lock and hands
// off at most one render update.
func (p *Processor) drain(ctx context.Context) (bool, error) {
	defer perf.Time("event_drain")()

	p.lock.Lock()
	t := p.term
	messageLines := t.MessageBuffer().LineCount(p.size.Cols(), p.size.Lines())

	actx := &ActionContext{
		Term:             t,
		Size:             &p.size,
		Mouse:            &p.mouse,
		Window:           p.window,
		session:          p.session,
		fontSize:         p.fontSize,
		originalFontSize: p.cfg.Font.Size,
	}

	var signals []display.Signal
	var handleErr error
	for _, ev := range p.queue {
		sig, err := p.handle(actx, ev)
		if sig != nil {
			signals = append(signals, sig)
		}
		if err != nil && handleErr == nil {
			handleErr = err
		}
	}
	clear(p.queue)
	p.queue = p.queue[:0]

	if actx.fontSize != p.fontSize {
		p.fontSize = actx.fontSize
		signals = append(signals, display.FontSizeSignal{Size: p.fontSize})
	}
	if n := t.MessageBuffer().LineCount(p.size.Cols(), p.size.Lines()); n != messageLines {
		signals = append(signals, display.MessageBarSignal{Lines: n})
	}

	var update *display.RenderUpdate
	if t.Dirty && p.redraw {
		t.Dirty = !t.VisualBell().Completed()
		p.redraw = false
		update = p.snapshot()
	}
	exited := t.Exited()
	p.lock.Unlock()

	if handleErr != nil {
		return exited, handleErr
	}
	if actx.writeErr != nil {
		log.Warn("write to pty failed: %v", actx.writeErr)
	}
	for _, sig := range signals {
		if err := p.signals.Send(sig); err != nil {
			return exited, fmt.Errorf("send resize signal: %w", err)
		}
	}
	if update != nil {
		select {
		case p.render <- *update:
			perf.Count("render_updates", 1)
		case <-ctx.Done():
			return exited, ctx.Err()
		}
	}
	return exited, nil
}

func (p *Processor) snapshot() *display.RenderUpdate {
	t := p.term
	u := &display.RenderUpdate{
		Cells:         t.RenderableCells(),
		Columns:       t.Cols(),
		Lines:         t.Lines(),
		BellIntensity: t.VisualBell().Intensity(),
		Background:    t.BackgroundColor(),
		Config:        p.cfg,
	}
	if msg, ok := t.MessageBuffer().Message(); ok {
		u.Message = &msg
	}
	return u
}

// handle applies one event. Resize-class window events are returned as
// signals instead of being applied.
func (p *Processor) handle(c *ActionContext, ev Event) (display.Signal, error) {
	t := c.Term
	switch e := ev.(type) {
	case Title:
		p.window.SetTitle(e.Title)
	case Wakeup:
		t.Dirty = true
	case Urgent:
		p.window.SetUrgent(!t.IsFocused)
	case RedrawRequest:
		p.redraw = true
	case CursorIcon:
		p.window.SetMouseCursor(e.Icon)
	case Resize:
		t.Resize(e.Size.Cols(), e.Size.Lines())
		p.size = e.Size
		t.Dirty = true
	case ConfigReload:
		p.reloadConfig(e.Path)

	case CloseRequested:
		var err error
		if p.cfg.Debug.RefTest {
			err = p.dumpRefTest()
		}
		t.Exit()
		return nil, err
	case Resized:
		t.Dirty = true
		return display.SizeSignal{Size: e.Size.ToPhysical(p.size.DPR)}, nil
	case ScaleFactorChanged:
		if e.DPR <= 0 || math.IsNaN(e.DPR) || math.IsInf(e.DPR, 0) {
			log.Warn("ignoring scale factor %v", e.DPR)
			return nil, nil
		}
		p.size.DPR = e.DPR
		t.Dirty = true
		return display.DPRSignal{DPR: e.DPR}, nil
	case KeyboardInput:
		p.keyboardInput(c, e)
	case ReceivedCharacter:
		p.receivedChar(c, e.Char)
	case MouseInput:
		p.window.SetMouseVisible(true)
		p.mouseInput(e)
		t.Dirty = true
	case CursorMoved:
		p.cursorMoved(e)
	case MouseWheel:
		p.window.SetMouseVisible(true)
		if lines := p.mouse.scroll(e.Delta, e.Unit, p.cfg.Scrolling.Multiplier, p.size.CellHeight); lines != 0 {
			c.WriteToPty(scrollSequence(lines))
		}
	case Focused:
		t.IsFocused = e.Focused
		t.Dirty = true
		if e.Focused {
			p.window.SetUrgent(false)
		} else {
			p.window.SetMouseVisible(true)
		}
	case DroppedFile:
		c.WriteToPty([]byte(e.Path))
	case RedrawRequested:
		t.Dirty = true
	}
	return nil, nil
}

func (p *Processor) keyboardInput(c *ActionContext, e KeyboardInput) {
	if !e.Pressed {
		return
	}
	if p.cfg.Mouse.HideWhenTyping {
		p.window.SetMouseVisible(false)
	}
	p.suppressChars = e.Action != ActionNone
	switch e.Action {
	case ActionIncreaseFontSize:
		c.ChangeFontSize(font.Step)
	case ActionDecreaseFontSize:
		c.ChangeFontSize(-font.Step)
	case ActionResetFontSize:
		c.ResetFontSize()
	case ActionQuit:
		c.Term.Exit()
	case ActionNone:
		c.WriteToPty(e.Bytes)
	}
}

func (p *Processor) receivedChar(c *ActionContext, r rune) {
	if p.suppressChars || r == utf8.RuneError {
		return
	}
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, r)
	c.WriteToPty(buf[:n])
}

func (p *Processor) mouseInput(e MouseInput) {
	p.mouse.setPressed(e.Button, e.Pressed)
	if !e.Pressed {
		return
	}
	state := p.mouse.press(e.Button, p.now(), p.cfg.Mouse.DoubleClick(), p.cfg.Mouse.TripleClick())
	log.Debug("%s at %d,%d", state, p.mouse.Line, p.mouse.Column)

	if e.Button != ButtonLeft {
		return
	}
	messages := p.term.MessageBuffer()
	if msg, ok := messages.Message(); ok && msg.HitsCloseButton(p.mouse.Line, p.mouse.Column, p.size.Cols(), p.size.Lines()) {
		messages.Pop()
	}
}

func (p *Processor) cursorMoved(e CursorMoved) {
	phys := geometry.LogicalSize{Width: e.X, Height: e.Y}.ToPhysical(p.size.DPR)
	x := clampPixel(phys.Width, float64(p.size.Width))
	y := clampPixel(phys.Height, float64(p.size.Height))
	p.window.SetMouseVisible(true)
	p.mouse.move(x, y, p.size)
}

func clampPixel(v, limit float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > limit {
		v = limit
	}
	return int(v)
}

func (p *Processor) reloadConfig(path string) {
	t := p.term
	t.MessageBuffer().RemoveTopic(config.Topic)
	cfg, err := p.loadConfig(path)
	if err != nil {
		log.Warn("reload %s: %v", path, err)
		t.MessageBuffer().Push(p.cfg.ErrorMessage(err))
		t.Dirty = true
		return
	}
	t.UpdateColors(cfg.Colors.Primary)
	t.VisualBell().Update(cfg.VisualBell.Animation, cfg.VisualBell.Duration(), cfg.VisualBell.Color)
	if cfg.Debug.LogLevel != "" && cfg.Debug.LogLevel != p.cfg.Debug.LogLevel {
		logging.SetLevel(logging.ParseLevel(cfg.Debug.LogLevel))
	}
	p.cfg = cfg
	t.Dirty = true
	log.Info("reloaded %s", path)
}

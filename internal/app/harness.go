package app

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/andyrewlee/termview/internal/display"
	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/ui/preview"
)

// HarnessOptions configures the headless render harness.
type HarnessOptions struct {
	Width        int
	Height       int
	ConfigPath   string
	PayloadBytes int
	NewlineEvery int
	// ResizeEvery toggles the host between full and half width every N frames.
	ResizeEvery int
	// FontEvery alternates font size steps every N frames.
	FontEvery int
	// Decorations mixes underlined and struck out runs into the payload.
	Decorations  bool
	FrameTimeout time.Duration
}

// Harness drives the full event and render pipeline without a host
// terminal or a shell.
type Harness struct {
	app    *App
	frames chan string
	cancel context.CancelFunc

	width, height int
	payloadBytes  int
	newlineEvery  int
	resizeEvery   int
	fontEvery     int
	decorations   bool
	frameTimeout  time.Duration
	payloadBuf    []byte
	spinner       []byte
}

// NewHarness builds and starts a harness.
func NewHarness(opts HarnessOptions) (*Harness, error) {
	if opts.Width <= 0 {
		opts.Width = 160
	}
	if opts.Height <= 0 {
		opts.Height = 48
	}
	if opts.PayloadBytes <= 0 {
		opts.PayloadBytes = 64
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = 2 * time.Second
	}

	a, err := New(Options{
		ConfigPath: opts.ConfigPath,
		HostCols:   opts.Width,
		HostRows:   opts.Height,
		Conn:       newIdleConn(),
	})
	if err != nil {
		return nil, err
	}

	h := &Harness{
		app:          a,
		frames:       make(chan string, 16),
		width:        opts.Width,
		height:       opts.Height,
		payloadBytes: opts.PayloadBytes,
		newlineEvery: opts.NewlineEvery,
		resizeEvery:  opts.ResizeEvery,
		fontEvery:    opts.FontEvery,
		decorations:  opts.Decorations,
		frameTimeout: opts.FrameTimeout,
		payloadBuf:   make([]byte, 0, opts.PayloadBytes+32),
		spinner:      []byte{'|', '/', '-', '\\'},
	}
	a.SetMsgSender(func(msg tea.Msg) {
		frame, ok := msg.(preview.FrameMsg)
		if !ok {
			return
		}
		select {
		case h.frames <- frame.Frame:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	a.Start(ctx)
	return h, nil
}

// App exposes the harnessed app.
func (h *Harness) App() *App { return h.app }

// Step writes one frame of output and the scripted window events.
func (h *Harness) Step(frame int) error {
	payload := h.buildPayload(frame)
	h.app.lock.Lock()
	h.app.term.Feed(payload)
	h.app.lock.Unlock()

	events := []event.Event{event.Wakeup{}}
	if h.resizeEvery > 0 && frame > 0 && frame%h.resizeEvery == 0 {
		cols := h.width
		if (frame/h.resizeEvery)%2 == 1 {
			cols = max(h.width/2, 1)
		}
		events = append(events, event.Resized{Size: h.app.window.SetHostSize(cols, h.height)})
	}
	if h.fontEvery > 0 && frame > 0 && frame%h.fontEvery == 0 {
		action := event.ActionIncreaseFontSize
		if (frame/h.fontEvery)%2 == 0 {
			action = event.ActionDecreaseFontSize
		}
		events = append(events, event.KeyboardInput{Pressed: true, Action: action})
	}
	for _, ev := range events {
		if err := h.app.proxy.Send(ev); err != nil {
			return err
		}
	}
	return nil
}

// Render waits for the next presented frame.
func (h *Harness) Render() (string, error) {
	select {
	case frame := <-h.frames:
		return frame, nil
	case <-time.After(h.frameTimeout):
		return "", errors.New("timed out waiting for a frame")
	}
}

// Stats returns the resize work done so far.
func (h *Harness) Stats() display.Stats {
	return h.app.display.Stats()
}

// Close stops the pipeline.
func (h *Harness) Close() {
	_ = h.app.proxy.Send(event.Exit{})
	_ = h.app.Wait(time.Second)
	h.cancel()
	h.app.Shutdown()
}

func (h *Harness) buildPayload(frame int) []byte {
	if h.payloadBytes > cap(h.payloadBuf) {
		h.payloadBuf = make([]byte, 0, h.payloadBytes+32)
	}
	buf := h.payloadBuf[:0]
	buf = append(buf, '\r', 'f', 'r', 'a', 'm', 'e', ' ')
	buf = strconv.AppendInt(buf, int64(frame), 10)
	buf = append(buf, ' ')
	if len(h.spinner) > 0 {
		buf = append(buf, h.spinner[frame%len(h.spinner)])
	}
	if h.decorations {
		buf = append(buf, " \x1b[4munder\x1b[24m \x1b[9mstruck\x1b[29m \x1b[4;9mboth\x1b[0m "...)
	}
	for len(buf) < h.payloadBytes {
		buf = append(buf, 'x')
	}
	if h.newlineEvery > 0 && frame%h.newlineEvery == 0 {
		buf = append(buf, '\n')
	}
	h.payloadBuf = buf
	return buf
}

// idleConn is a pty that never produces output.
type idleConn struct {
	closed chan struct{}
	once   sync.Once
}

func newIdleConn() *idleConn {
	return &idleConn{closed: make(chan struct{})}
}

func (c *idleConn) Read(p []byte) (int, error) {
	<-c.closed
	return 0, io.EOF
}

func (c *idleConn) Write(p []byte) (int, error) { return len(p), nil }

func (c *idleConn) SetSize(rows, cols uint16) error { return nil }

func (c *idleConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

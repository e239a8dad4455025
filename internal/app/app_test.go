package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/ui/preview"
)

type recordingConn struct {
	*idleConn

	mu    sync.Mutex
	input bytes.Buffer
	sizes [][2]uint16
}

func newRecordingConn() *recordingConn {
	return &recordingConn{idleConn: newIdleConn()}
}

func (c *recordingConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Write(p)
}

func (c *recordingConn) SetSize(rows, cols uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizes = append(c.sizes, [2]uint16{rows, cols})
	return nil
}

func (c *recordingConn) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.String()
}

type msgRecorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *msgRecorder) send(msg tea.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *msgRecorder) quit() (preview.QuitMsg, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.msgs {
		if q, ok := msg.(preview.QuitMsg); ok {
			return q, true
		}
	}
	return preview.QuitMsg{}, false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func newTestApp(t *testing.T, opts Options) (*App, *recordingConn) {
	t.Helper()
	conn := newRecordingConn()
	opts.Conn = conn
	if opts.HostCols == 0 {
		opts.HostCols, opts.HostRows = 40, 10
	}
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a, conn
}

func TestAppInitialGeometryFollowsHost(t *testing.T) {
	a, _ := newTestApp(t, Options{})
	size := a.Display().Size()
	if size.Cols() != 40 || size.Lines() != 10 {
		t.Fatalf("expected a 40x10 grid, got %dx%d", size.Cols(), size.Lines())
	}
	if a.Term().Cols() != 40 || a.Term().Lines() != 10 {
		t.Fatalf("expected the terminal to match, got %dx%d", a.Term().Cols(), a.Term().Lines())
	}
}

func TestAppConfigErrorReservesMessageBar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termview.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	a, _ := newTestApp(t, Options{ConfigPath: path})

	if a.Term().MessageBuffer().IsEmpty() {
		t.Fatal("expected a config error message")
	}
	if a.Term().Lines() >= a.Display().Size().Lines() {
		t.Fatalf("expected message lines to be reserved, term has %d of %d lines", a.Term().Lines(), a.Display().Size().Lines())
	}
	if a.Display().Mailbox().Len() != 1 {
		t.Fatalf("expected one pending message bar signal, got %d", a.Display().Mailbox().Len())
	}
}

func TestAppForwardsKeysAndCloses(t *testing.T) {
	a, conn := newTestApp(t, Options{})
	rec := &msgRecorder{}
	a.SetMsgSender(rec.send)
	a.Start(context.Background())

	a.Model().Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	a.Model().Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	waitFor(t, "pty input", func() bool { return conn.written() == "a\x03" })

	if err := a.Proxy().Send(event.CloseRequested{}); err != nil {
		t.Fatalf("send close: %v", err)
	}
	if err := a.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if q, ok := rec.quit(); !ok || q.Err != nil {
		t.Fatalf("expected a clean quit message, got %+v (sent %v)", q, ok)
	}
}

func TestAppStopsWhenShellExits(t *testing.T) {
	a, conn := newTestApp(t, Options{})
	rec := &msgRecorder{}
	a.SetMsgSender(rec.send)
	a.Start(context.Background())

	_ = conn.Close()
	if err := a.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, ok := rec.quit(); !ok {
		t.Fatal("expected the host to be asked to quit")
	}
}

func TestHarnessRendersPayload(t *testing.T) {
	h, err := NewHarness(HarnessOptions{Width: 40, Height: 6, PayloadBytes: 24, Decorations: true})
	if err != nil {
		t.Fatalf("harness init: %v", err)
	}
	defer h.Close()

	if err := h.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	frame, err := h.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	plain := ansi.Strip(frame)
	if !strings.Contains(plain, "frame 0 |") || !strings.Contains(plain, "under") {
		t.Fatalf("expected payload in frame, got %q", plain)
	}
	if lines := strings.Split(plain, "\n"); len(lines) != 6 {
		t.Fatalf("expected 6 frame lines, got %d", len(lines))
	}
}

func TestHarnessResizeReachesGrid(t *testing.T) {
	h, err := NewHarness(HarnessOptions{Width: 40, Height: 6, ResizeEvery: 1})
	if err != nil {
		t.Fatalf("harness init: %v", err)
	}
	defer h.Close()

	if err := h.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, err := h.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := h.Step(1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	window := h.App().Window()
	waitFor(t, "half-width grid", func() bool {
		select {
		case <-h.frames:
		default:
		}
		return window.Grid().Cols() == 20
	})
}

func TestIdleConn(t *testing.T) {
	c := newIdleConn()
	done := make(chan error, 1)
	go func() {
		_, err := c.Read(make([]byte, 1))
		done <- err
	}()
	_ = c.Close()
	_ = c.Close()
	select {
	case err := <-done:
		if err != io.EOF {
			t.Fatalf("expected EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Close")
	}
}

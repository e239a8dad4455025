package pty

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/perf"
	"github.com/andyrewlee/termview/internal/term"
)

const readBufferSize = 32 * 1024

var log = logging.For("pty")

// Conn is the pty side used by a Session.
type Conn interface {
	io.ReadWriter
	SetSize(rows, cols uint16) error
	Close() error
}

// Poster receives user events from the reader pump.
type Poster interface {
	Send(ev event.Event) error
}

// Session feeds pty output into the terminal and forwards input and resizes
// to the pty.
type Session struct {
	conn   Conn
	term   *term.Term
	lock   *term.FairMutex
	events Poster

	exited    atomic.Bool
	closeOnce sync.Once
}

// NewSession ties conn to t. lock guards t and is shared with the event loop.
func NewSession(conn Conn, t *term.Term, lock *term.FairMutex, events Poster) *Session {
	return &Session{conn: conn, term: t, lock: lock, events: events}
}

// Run reads from the pty until it closes or ctx is done. Every chunk is
// decoded into the grid under the lock, then a Wakeup is posted.
func (s *Session) Run(ctx context.Context) error {
	defer s.markExited()

	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			if perr := s.feed(buf[:n]); perr != nil {
				return perr
			}
		}
		if err != nil {
			if isEOF(err) {
				log.Debug("pty closed: %v", err)
				return nil
			}
			return err
		}
	}
}

func (s *Session) feed(data []byte) error {
	defer perf.Time("pty_feed")()

	s.lock.Lock()
	s.term.Feed(data)
	title, titleChanged := s.term.TakeTitle()
	s.lock.Unlock()

	perf.Count("pty_bytes", int64(len(data)))
	if titleChanged {
		if err := s.events.Send(event.Title{Title: title}); err != nil {
			return err
		}
	}
	return s.events.Send(event.Wakeup{})
}

// markExited flags the session as finished and wakes the event loop so it
// sees ShouldExit.
func (s *Session) markExited() {
	if s.exited.Swap(true) {
		return
	}
	if err := s.events.Send(event.Wakeup{}); err != nil && !errors.Is(err, event.ErrClosed) {
		log.Warn("post exit wakeup: %v", err)
	}
}

func isEOF(err error) bool {
	// Linux reports a closed pty master as EIO.
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}

// Write implements event.Session.
func (s *Session) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// ShouldExit implements event.Session.
func (s *Session) ShouldExit() bool {
	return s.exited.Load()
}

// OnResize implements display.OnResize by resizing the pty to the grid.
func (s *Session) OnResize(size geometry.SizeInfo) {
	rows, cols := clampDim(size.Lines()), clampDim(size.Cols())
	if rows == 0 || cols == 0 {
		return
	}
	if err := s.conn.SetSize(rows, cols); err != nil {
		log.Warn("resize pty to %dx%d: %v", cols, rows, err)
		return
	}
	log.Debug("pty resized to %dx%d", cols, rows)
}

func clampDim(n int) uint16 {
	if n <= 0 {
		return 0
	}
	if n > 0xffff {
		return 0xffff
	}
	return uint16(n)
}

// Close releases the pty.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}

package display

import (
	"errors"
	"sync"

	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
)

// ErrClosed is returned when sending to a closed mailbox.
var ErrClosed = errors.New("display: closed")

// Signal requests geometry reconciliation. Only the last signal of each
// kind in a tick is applied.
type Signal interface {
	signal()
}

// SizeSignal is a new viewport size in physical pixels.
type SizeSignal struct {
	Size geometry.PhysicalSize
}

// DPRSignal is a new device pixel ratio.
type DPRSignal struct {
	DPR float64
}

// FontSizeSignal is a new font size.
type FontSizeSignal struct {
	Size font.Size
}

// MessageBarSignal is the number of lines the message bar now takes.
type MessageBarSignal struct {
	Lines int
}

func (SizeSignal) signal()       {}
func (DPRSignal) signal()        {}
func (FontSizeSignal) signal()   {}
func (MessageBarSignal) signal() {}

// Mailbox is an unbounded many-producer queue of signals.
type Mailbox struct {
	mu      sync.Mutex
	pending []Signal
	closed  bool
}

// Send queues s. It never blocks.
func (m *Mailbox) Send(s Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.pending = append(m.pending, s)
	return nil
}

// Drain returns every queued signal in arrival order.
func (m *Mailbox) Drain() []Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}

// Len returns the number of queued signals.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close rejects later sends. Queued signals can still be drained.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// coalesced is the last value of each signal kind seen in one drain.
type coalesced struct {
	size       *geometry.PhysicalSize
	dpr        *float64
	fontSize   *font.Size
	messageBar *int
}

func coalesce(signals []Signal) coalesced {
	var c coalesced
	for _, s := range signals {
		switch s := s.(type) {
		case SizeSignal:
			size := s.Size
			c.size = &size
		case DPRSignal:
			dpr := s.DPR
			c.dpr = &dpr
		case FontSizeSignal:
			fs := s.Size
			c.fontSize = &fs
		case MessageBarSignal:
			lines := s.Lines
			c.messageBar = &lines
		}
	}
	return c
}

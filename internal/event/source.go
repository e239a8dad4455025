package event

import (
	"context"
	"errors"
	"sync"

	"github.com/andyrewlee/termview/internal/geometry"
)

// ErrClosed is returned after the proxy has been closed.
var ErrClosed = errors.New("event: closed")

const defaultQueueSize = 1024

// Source yields events one at a time. After each burst of events it yields
// EventsCleared before blocking again.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Proxy posts user events from other goroutines into the loop.
type Proxy struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewProxy returns a proxy whose queue holds size events before Send blocks.
func NewProxy(size int) *Proxy {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Proxy{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Send queues ev. It blocks while the queue is full and fails once the
// proxy is closed.
func (p *Proxy) Send(ev Event) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.events <- ev:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// NotifyResize posts the applied geometry as a Resize event.
func (p *Proxy) NotifyResize(size geometry.SizeInfo) error {
	return p.Send(Resize{Size: size})
}

// Close stops the proxy. Pending events are dropped.
func (p *Proxy) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Source returns a Source reading from the proxy.
func (p *Proxy) Source() *ChannelSource {
	return &ChannelSource{events: p.events, done: p.done}
}

// ChannelSource adapts a Proxy to Source.
type ChannelSource struct {
	events <-chan Event
	done   <-chan struct{}
	burst  bool
}

// Next implements Source.
func (s *ChannelSource) Next(ctx context.Context) (Event, error) {
	if s.burst {
		select {
		case ev := <-s.events:
			return ev, nil
		default:
			s.burst = false
			return EventsCleared{}, nil
		}
	}
	select {
	case ev := <-s.events:
		s.burst = true
		return ev, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

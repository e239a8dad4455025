// Package supervisor runs the long-lived goroutines of a terminal window
// (pty reader, event loop, render loop, config watcher) and restarts the
// ones that may be retried.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/safego"
)

var log = logging.For("supervisor")

// RestartPolicy controls when a worker is restarted.
type RestartPolicy int

const (
	RestartNever RestartPolicy = iota
	RestartOnError
	RestartAlways
)

func (p RestartPolicy) String() string {
	switch p {
	case RestartNever:
		return "never"
	case RestartOnError:
		return "on-error"
	case RestartAlways:
		return "always"
	default:
		return "unknown"
	}
}

type options struct {
	policy      RestartPolicy
	maxRestarts int
	backoff     time.Duration
	maxBackoff  time.Duration
	onExit      func(name string, err error)
}

// Option configures one worker.
type Option func(*options)

// WithRestartPolicy sets the restart policy. The default is RestartNever.
func WithRestartPolicy(policy RestartPolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithMaxRestarts limits restarts (0 = unlimited).
func WithMaxRestarts(n int) Option {
	return func(o *options) { o.maxRestarts = n }
}

// WithBackoff sets the first delay between restarts; it doubles up to max.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		o.backoff = initial
		o.maxBackoff = max
	}
}

// OnExit is called once when the worker stops for good, with the error of
// its last run. It is not called when the supervisor is stopped.
func OnExit(fn func(name string, err error)) Option {
	return func(o *options) { o.onExit = fn }
}

// Supervisor owns a set of workers sharing one context.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	restarts map[string]int
	onError  func(name string, err error)
}

// New returns a supervisor whose workers stop when parent is done.
func New(parent context.Context) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel, restarts: make(map[string]int)}
}

// Context returns the context passed to workers.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// SetErrorHandler registers a handler that sees every failed run.
func (s *Supervisor) SetErrorHandler(handler func(name string, err error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = handler
	s.mu.Unlock()
}

// Restarts returns how often name was restarted.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts[name]
}

// Stop cancels every worker and waits for them to return.
func (s *Supervisor) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// Start runs fn under supervision.
func (s *Supervisor) Start(name string, fn func(context.Context) error, opts ...Option) {
	if s == nil || fn == nil {
		return
	}
	cfg := options{
		policy:     RestartNever,
		backoff:    200 * time.Millisecond,
		maxBackoff: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxBackoff < cfg.backoff {
		cfg.maxBackoff = cfg.backoff
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(name, fn, cfg)
	}()
}

func (s *Supervisor) run(name string, fn func(context.Context) error, cfg options) {
	backoff := cfg.backoff
	restarts := 0
	for {
		err := safego.Call(name, func() error { return fn(s.ctx) })
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.reportError(name, err)
		}
		if !shouldRestart(err, cfg.policy) {
			s.exit(cfg, name, err)
			return
		}
		restarts++
		if cfg.maxRestarts > 0 && restarts > cfg.maxRestarts {
			log.Error("%s exceeded max restarts (%d)", name, cfg.maxRestarts)
			s.exit(cfg, name, err)
			return
		}
		s.mu.Lock()
		s.restarts[name]++
		s.mu.Unlock()
		log.Warn("restarting %s in %s", name, backoff)

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-s.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			backoff = min(backoff*2, cfg.maxBackoff)
		}
	}
}

func (s *Supervisor) reportError(name string, err error) {
	s.mu.Lock()
	handler := s.onError
	s.mu.Unlock()
	if handler != nil {
		handler(name, err)
		return
	}
	log.Warn("%s: %v", name, err)
}

func (s *Supervisor) exit(cfg options, name string, err error) {
	if cfg.onExit != nil {
		cfg.onExit(name, err)
	}
}

func shouldRestart(err error, policy RestartPolicy) bool {
	switch policy {
	case RestartAlways:
		return true
	case RestartOnError:
		return err != nil
	default:
		return false
	}
}

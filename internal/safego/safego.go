package safego

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/andyrewlee/termview/internal/logging"
)

// PanicHandler receives panic details from recovered goroutines.
type PanicHandler func(name string, recovered any, stack []byte)

// PanicError is returned by Call when fn panicked.
type PanicError struct {
	Name      string
	Recovered any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Recovered)
}

var (
	panicHandlerMu sync.RWMutex
	panicHandler   PanicHandler
)

// SetPanicHandler registers a global handler for recovered panics.
func SetPanicHandler(handler PanicHandler) {
	panicHandlerMu.Lock()
	panicHandler = handler
	panicHandlerMu.Unlock()
}

func label(name string) string {
	if name == "" {
		return "goroutine"
	}
	return name
}

func report(name string, r any, stack []byte) {
	logging.Error("panic in %s: %v\n%s", name, r, stack)
	panicHandlerMu.RLock()
	handler := panicHandler
	panicHandlerMu.RUnlock()
	if handler != nil {
		func() {
			defer func() { _ = recover() }()
			handler(name, r, stack)
		}()
	}
}

// Run executes fn and converts panics into logged errors.
// This does not recover from runtime-fatal errors (e.g., concurrent map writes).
func Run(name string, fn func()) {
	_ = Call(name, func() error {
		fn()
		return nil
	})
}

// Call executes fn and returns its error, or a *PanicError if fn panicked.
func Call(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l := label(name)
			stack := debug.Stack()
			report(l, r, stack)
			err = &PanicError{Name: l, Recovered: r, Stack: stack}
		}
	}()
	return fn()
}

// Go runs fn in a new goroutine with panic recovery.
func Go(name string, fn func()) {
	go Run(name, fn)
}

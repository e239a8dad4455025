package display

import "fmt"

// Subsystem names the part of the display that failed.
type Subsystem int

const (
	SubsystemWindow Subsystem = iota
	SubsystemFont
	SubsystemRender
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemWindow:
		return "window"
	case SubsystemFont:
		return "font"
	case SubsystemRender:
		return "render"
	default:
		return "unknown"
	}
}

// Error is a fatal display failure tagged with its subsystem.
type Error struct {
	Subsystem Subsystem
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Subsystem, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(sub Subsystem, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Subsystem: sub, Err: err}
}

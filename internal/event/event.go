// Package event buffers window and session events during a tick and feeds
// them to the terminal once the source goes idle.
package event

import (
	"fmt"

	"github.com/andyrewlee/termview/internal/geometry"
)

// Event is the closed set of events the processor understands. New kinds
// are added by extending this file.
type Event interface {
	event()
}

// Action is a key binding resolved by the host.
type Action int

const (
	ActionNone Action = iota
	ActionIncreaseFontSize
	ActionDecreaseFontSize
	ActionResetFontSize
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionIncreaseFontSize:
		return "increase-font-size"
	case ActionDecreaseFontSize:
		return "decrease-font-size"
	case ActionResetFontSize:
		return "reset-font-size"
	case ActionQuit:
		return "quit"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MouseButton identifies a pointer button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
	ButtonOther
)

// ScrollUnit says how a wheel delta is measured.
type ScrollUnit int

const (
	ScrollLines ScrollUnit = iota
	ScrollPixels
)

// Cursor is the pointer shape over the window.
type Cursor string

const (
	CursorDefault Cursor = "default"
	CursorText    Cursor = "text"
	CursorPointer Cursor = "pointer"
)

// Window events.
type (
	// CloseRequested asks the terminal to exit.
	CloseRequested struct{}
	// Resized carries the new inner size in logical pixels.
	Resized struct{ Size geometry.LogicalSize }
	// ScaleFactorChanged carries a new device pixel ratio.
	ScaleFactorChanged struct{ DPR float64 }
	// KeyboardInput is a key press or release. Bytes are written to the
	// session unless Action names a binding.
	KeyboardInput struct {
		Pressed bool
		Bytes   []byte
		Action  Action
	}
	// ReceivedCharacter is text produced by a key press.
	ReceivedCharacter struct{ Char rune }
	// MouseInput is a button press or release.
	MouseInput struct {
		Button  MouseButton
		Pressed bool
	}
	// CursorMoved is the pointer position in logical pixels.
	CursorMoved struct{ X, Y float64 }
	// MouseWheel is a scroll delta; positive scrolls up.
	MouseWheel struct {
		Delta float64
		Unit  ScrollUnit
	}
	// Focused reports a focus change.
	Focused struct{ Focused bool }
	// DroppedFile is a file dropped onto the window.
	DroppedFile struct{ Path string }
	// RedrawRequested means the window contents were damaged.
	RedrawRequested struct{}

	CursorEntered        struct{}
	CursorLeft           struct{}
	AxisMotion           struct{}
	TouchpadPressure     struct{}
	Touch                struct{}
	Moved                struct{}
	HoveredFile          struct{ Path string }
	HoveredFileCancelled struct{}
	Destroyed            struct{}
	DeviceEvent          struct{}
	NewEvents            struct{}
	Suspended            struct{}
	LoopDestroyed        struct{}

	// EventsCleared marks the end of a poll burst; the processor drains on it.
	EventsCleared struct{}
)

// User events posted through a Proxy.
type (
	// Title sets the window title.
	Title struct{ Title string }
	// Wakeup marks the terminal dirty after new pty output.
	Wakeup struct{}
	// Urgent asks for attention when the window is unfocused.
	Urgent struct{}
	// RedrawRequest allows the next render update; the render context posts
	// it after each presented frame.
	RedrawRequest struct{}
	// CursorIcon changes the pointer shape.
	CursorIcon struct{ Icon Cursor }
	// Resize carries the geometry applied by the display.
	Resize struct{ Size geometry.SizeInfo }
	// ConfigReload asks for the config at Path to be loaded again.
	ConfigReload struct{ Path string }
	// Exit stops the loop ahead of anything buffered.
	Exit struct{}
)

func (CloseRequested) event()       {}
func (Resized) event()              {}
func (ScaleFactorChanged) event()   {}
func (KeyboardInput) event()        {}
func (ReceivedCharacter) event()    {}
func (MouseInput) event()           {}
func (CursorMoved) event()          {}
func (MouseWheel) event()           {}
func (Focused) event()              {}
func (DroppedFile) event()          {}
func (RedrawRequested) event()      {}
func (CursorEntered) event()        {}
func (CursorLeft) event()           {}
func (AxisMotion) event()           {}
func (TouchpadPressure) event()     {}
func (Touch) event()                {}
func (Moved) event()                {}
func (HoveredFile) event()          {}
func (HoveredFileCancelled) event() {}
func (Destroyed) event()            {}
func (DeviceEvent) event()          {}
func (NewEvents) event()            {}
func (Suspended) event()            {}
func (LoopDestroyed) event()        {}
func (EventsCleared) event()        {}

func (Title) event()         {}
func (Wakeup) event()        {}
func (Urgent) event()        {}
func (RedrawRequest) event() {}
func (CursorIcon) event()    {}
func (Resize) event()        {}
func (ConfigReload) event()  {}
func (Exit) event()          {}

// Skip reports whether ev never affects the terminal and can be dropped
// without buffering.
func Skip(ev Event) bool {
	switch ev.(type) {
	case Exit,
		TouchpadPressure, CursorEntered, CursorLeft, AxisMotion,
		HoveredFileCancelled, Destroyed, HoveredFile, Touch, Moved,
		DeviceEvent, Suspended, NewEvents, EventsCleared, LoopDestroyed:
		return true
	default:
		return false
	}
}

// Describe formats ev for event tracing.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case KeyboardInput:
		return fmt.Sprintf("KeyboardInput{Pressed:%t Bytes:%q Action:%s}", e.Pressed, e.Bytes, e.Action)
	case ReceivedCharacter:
		return fmt.Sprintf("ReceivedCharacter{%q}", e.Char)
	default:
		return fmt.Sprintf("%T%+v", ev, ev)
	}
}

package event

import (
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/term"
)

// Window is the part of the host window driven by events.
type Window interface {
	SetTitle(title string)
	SetUrgent(urgent bool)
	SetMouseVisible(visible bool)
	SetMouseCursor(icon Cursor)
}

// Session is the pty side of the terminal.
type Session interface {
	Write(p []byte) (int, error)
	ShouldExit() bool
}

// ActionContext is what actions may touch during one drain. It is only
// valid while the terminal lock is held.
type ActionContext struct {
	Term   *term.Term
	Size   *geometry.SizeInfo
	Mouse  *Mouse
	Window Window

	session          Session
	fontSize         font.Size
	originalFontSize font.Size
	writeErr         error
}

// WriteToPty sends input to the session. The first failure is kept and
// reported once the drain finishes.
func (c *ActionContext) WriteToPty(p []byte) {
	if len(p) == 0 || c.session == nil {
		return
	}
	if _, err := c.session.Write(p); err != nil && c.writeErr == nil {
		c.writeErr = err
	}
}

// ChangeFontSize adds delta points, never going below one step.
func (c *ActionContext) ChangeFontSize(delta font.Size) {
	c.fontSize = c.fontSize.Add(delta)
	c.Term.Dirty = true
}

// ResetFontSize restores the configured size.
func (c *ActionContext) ResetFontSize() {
	c.fontSize = c.originalFontSize
	c.Term.Dirty = true
}

// FontSize is the size requested by actions so far in this drain.
func (c *ActionContext) FontSize() font.Size {
	return c.fontSize
}

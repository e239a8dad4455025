// Package preview hosts the terminal inside another terminal: bubbletea
// messages become window events and rendered frames become the view.
package preview

import (
	"errors"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/logging"
)

var log = logging.For("preview")

// Poster receives translated events.
type Poster interface {
	Send(ev event.Event) error
}

// FrameMsg carries a rendered frame.
type FrameMsg struct {
	Frame string
}

// QuitMsg stops the host program.
type QuitMsg struct {
	Err error
}

// Model is the bubbletea model of the preview host.
type Model struct {
	window *Window
	events Poster
	keys   KeyMap

	frame    string
	quitting bool
	err      error
}

// New returns a model translating into events.
func New(window *Window, events Poster) *Model {
	return &Model{window: window, events: events, keys: DefaultKeyMap()}
}

// Init initializes the preview.
func (m *Model) Init() tea.Cmd { return nil }

// Frame returns the last frame received.
func (m *Model) Frame() string { return m.frame }

// Err returns the error that stopped the host, if any.
func (m *Model) Err() error { return m.err }

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.frame = msg.Frame
		return m, nil
	case QuitMsg:
		m.quitting = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		size := m.window.SetHostSize(msg.Width, msg.Height)
		return m, m.post(event.Resized{Size: size})
	case tea.KeyPressMsg:
		if key.Matches(msg, m.keys.Paste) {
			return m, pasteClipboard
		}
		return m, m.post(m.keys.keyEvents(msg)...)
	case tea.KeyReleaseMsg:
		return m, m.post(event.KeyboardInput{Pressed: false})
	case tea.PasteMsg:
		paste := "\x1b[200~" + msg.Content + "\x1b[201~"
		return m, m.post(event.KeyboardInput{Pressed: true, Bytes: []byte(paste)})
	case tea.MouseClickMsg:
		return m, m.post(m.cursor(msg.X, msg.Y), event.MouseInput{Button: button(msg.Button), Pressed: true})
	case tea.MouseReleaseMsg:
		return m, m.post(m.cursor(msg.X, msg.Y), event.MouseInput{Button: button(msg.Button), Pressed: false})
	case tea.MouseMotionMsg:
		return m, m.post(m.cursor(msg.X, msg.Y))
	case tea.MouseWheelMsg:
		delta := 0.0
		switch msg.Button {
		case tea.MouseWheelUp:
			delta = 1
		case tea.MouseWheelDown:
			delta = -1
		}
		if delta == 0 {
			return m, nil
		}
		return m, m.post(m.cursor(msg.X, msg.Y), event.MouseWheel{Delta: delta, Unit: event.ScrollLines})
	case tea.FocusMsg:
		return m, m.post(event.Focused{Focused: true})
	case tea.BlurMsg:
		return m, m.post(event.Focused{Focused: false})
	}
	return m, nil
}

func (m *Model) cursor(x, y int) event.CursorMoved {
	lx, ly := m.window.CellToLogical(x, y)
	return event.CursorMoved{X: lx, Y: ly}
}

// post sends events in order. A closed loop stops the host.
func (m *Model) post(events ...event.Event) tea.Cmd {
	for _, ev := range events {
		if err := m.events.Send(ev); err != nil {
			if !errors.Is(err, event.ErrClosed) {
				log.Warn("post %s: %v", event.Describe(ev), err)
			}
			m.quitting = true
			return tea.Quit
		}
	}
	return nil
}

func button(b tea.MouseButton) event.MouseButton {
	switch b {
	case tea.MouseLeft:
		return event.ButtonLeft
	case tea.MouseMiddle:
		return event.ButtonMiddle
	case tea.MouseRight:
		return event.ButtonRight
	default:
		return event.ButtonOther
	}
}

// View renders the last frame.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.ReportFocus = true
	v.WindowTitle = m.window.Title()
	if m.quitting {
		v.SetContent("")
		return v
	}
	v.SetContent(m.frame)
	return v
}

package preview

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/andyrewlee/termview/internal/event"
)

// KeyMap holds the bindings the host resolves before keys reach the shell.
type KeyMap struct {
	Quit         key.Binding
	IncreaseFont key.Binding
	DecreaseFont key.Binding
	ResetFont    key.Binding
	Paste        key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
		IncreaseFont: key.NewBinding(
			key.WithKeys("ctrl+=", "ctrl++", "alt+="),
			key.WithHelp("ctrl+=", "increase font size"),
		),
		DecreaseFont: key.NewBinding(
			key.WithKeys("ctrl+-", "alt+-"),
			key.WithHelp("ctrl+-", "decrease font size"),
		),
		ResetFont: key.NewBinding(
			key.WithKeys("ctrl+0", "alt+0"),
			key.WithHelp("ctrl+0", "reset font size"),
		),
		Paste: key.NewBinding(
			key.WithKeys("ctrl+shift+v"),
			key.WithHelp("ctrl+shift+v", "paste from clipboard"),
		),
	}
}

// action returns the binding matched by msg.
func (km KeyMap) action(msg tea.KeyPressMsg) event.Action {
	switch {
	case key.Matches(msg, km.Quit):
		return event.ActionQuit
	case key.Matches(msg, km.IncreaseFont):
		return event.ActionIncreaseFontSize
	case key.Matches(msg, km.DecreaseFont):
		return event.ActionDecreaseFontSize
	case key.Matches(msg, km.ResetFont):
		return event.ActionResetFontSize
	}
	return event.ActionNone
}

// keyEvents turns a key press into the events a window system would send:
// a KeyboardInput, followed by ReceivedCharacter for plain text.
func (km KeyMap) keyEvents(msg tea.KeyPressMsg) []event.Event {
	k := msg.Key()
	text := k.Mod&(tea.ModCtrl|tea.ModAlt) == 0 && k.Text != ""

	input := event.KeyboardInput{Pressed: true, Action: km.action(msg)}
	if input.Action == event.ActionNone && !text {
		input.Bytes = KeyToBytes(msg)
	}
	events := []event.Event{input}
	if text {
		for _, r := range k.Text {
			events = append(events, event.ReceivedCharacter{Char: r})
		}
	}
	return events
}

// KeyToBytes converts a key press message to bytes for the terminal.
func KeyToBytes(msg tea.KeyPressMsg) []byte {
	key := msg.Key()
	log.Debug("KeyToBytes: code=%d mod=%d str=%q", key.Code, key.Mod, msg.String())

	if key.Mod&tea.ModCtrl != 0 {
		if key.Code >= 'a' && key.Code <= 'z' {
			return []byte{byte(key.Code-'a') + 1}
		}
		switch key.Code {
		case '[':
			return []byte{0x1b}
		case '\\':
			return []byte{0x1c}
		case ']':
			return []byte{0x1d}
		case '@', ' ':
			return []byte{0x00}
		}
	}

	switch key.Code {
	case tea.KeyEnter:
		if key.Mod&tea.ModShift != 0 {
			return []byte{0x1b, '[', '1', '3', ';', '2', 'u'}
		}
		return []byte{'\r'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyTab:
		if key.Mod&tea.ModShift != 0 {
			return []byte{0x1b, '[', 'Z'}
		}
		return []byte{'\t'}
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyEscape:
		return []byte{0x1b}
	case tea.KeyUp:
		return cursorKey('A', key.Mod)
	case tea.KeyDown:
		return cursorKey('B', key.Mod)
	case tea.KeyRight:
		return cursorKey('C', key.Mod)
	case tea.KeyLeft:
		return cursorKey('D', key.Mod)
	case tea.KeyHome:
		return []byte{0x1b, '[', 'H'}
	case tea.KeyEnd:
		return []byte{0x1b, '[', 'F'}
	case tea.KeyInsert:
		return []byte{0x1b, '[', '2', '~'}
	case tea.KeyDelete:
		return []byte{0x1b, '[', '3', '~'}
	case tea.KeyPgUp:
		return []byte{0x1b, '[', '5', '~'}
	case tea.KeyPgDown:
		return []byte{0x1b, '[', '6', '~'}
	}

	if key.Mod&tea.ModAlt != 0 && key.Text != "" {
		return append([]byte{0x1b}, []byte(key.Text)...)
	}

	if key.Text != "" {
		return []byte(key.Text)
	}

	if s := msg.String(); len(s) == 1 {
		return []byte(s)
	}

	return nil
}

func cursorKey(final byte, mod tea.KeyMod) []byte {
	if mod&tea.ModAlt != 0 {
		return []byte{0x1b, '[', '1', ';', '3', final}
	}
	return []byte{0x1b, '[', final}
}

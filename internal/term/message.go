package term

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const (
	closeButtonText    = "[X]"
	closeButtonPadding = 1
	minFreeLines       = 3
	truncatedMessage   = "[MESSAGE TRUNCATED]"
)

// MessageKind selects the message bar color.
type MessageKind int

const (
	MessageError MessageKind = iota
	MessageWarning
)

// Message is one entry of the message bar.
type Message struct {
	Text  string
	Color Rgb
	Kind  MessageKind
	Topic string
}

// Lines wraps the message to cols, reserving room for the close button on
// the first line and leaving at least minFreeLines of the grid visible.
func (m Message) Lines(cols, lines int) []string {
	if cols <= 0 {
		return nil
	}
	maxLines := lines - minFreeLines
	if maxLines < 0 {
		maxLines = 0
	}
	buttonWidth := len(closeButtonText)

	var out []string
	var line []rune
	lineWidth := 0
	limit := func() int {
		if len(out) == 0 && cols >= buttonWidth {
			return cols - buttonWidth - closeButtonPadding
		}
		return cols
	}
	flush := func(wordWrap bool) {
		if wordWrap {
			if idx := lastSpace(line); idx >= 0 {
				rest := append([]rune(nil), line[idx+1:]...)
				out = append(out, padRight(string(line[:idx]), cols))
				line = rest
				lineWidth = runewidth.StringWidth(string(line))
				return
			}
		}
		out = append(out, padRight(string(line), cols))
		line = line[:0]
		lineWidth = 0
	}

	text := strings.TrimSpace(ansi.Strip(m.Text))
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if r == '\n' {
			flush(false)
			continue
		}
		if lineWidth+w > limit() {
			flush(true)
		}
		line = append(line, r)
		lineWidth += w
	}
	flush(false)

	if len(out) > maxLines {
		out = out[:maxLines]
		if len(out) > 0 && len(truncatedMessage) <= cols {
			out[len(out)-1] = padRight(truncatedMessage, cols)
		}
	}

	if buttonWidth <= cols && len(out) > 0 {
		out[0] = ansi.Truncate(out[0], cols-buttonWidth, "") + closeButtonText
	}
	return out
}

// HitsCloseButton reports whether the cell at line and column of a cols x
// lines grid shows the close button of m.
func (m Message) HitsCloseButton(line, column, cols, lines int) bool {
	width := len(closeButtonText)
	if width > cols {
		return false
	}
	text := m.Lines(cols, lines)
	if len(text) == 0 {
		return false
	}
	return line == lines-len(text) && column >= cols-width && column < cols
}

func lastSpace(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' || line[i] == '\t' {
			return i
		}
	}
	return -1
}

func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// MessageBuffer is the queue of pending message bar entries. The front
// message is the one displayed.
type MessageBuffer struct {
	messages []Message
}

// Push appends a message unless an identical one is already queued.
func (b *MessageBuffer) Push(msg Message) {
	for _, existing := range b.messages {
		if existing == msg {
			return
		}
	}
	b.messages = append(b.messages, msg)
}

// Message returns the displayed message.
func (b *MessageBuffer) Message() (Message, bool) {
	if len(b.messages) == 0 {
		return Message{}, false
	}
	return b.messages[0], true
}

// Pop removes the displayed message.
func (b *MessageBuffer) Pop() {
	if len(b.messages) > 0 {
		b.messages = b.messages[1:]
	}
}

// RemoveTopic drops every message with the given topic.
func (b *MessageBuffer) RemoveTopic(topic string) {
	kept := b.messages[:0]
	for _, m := range b.messages {
		if m.Topic != topic {
			kept = append(kept, m)
		}
	}
	b.messages = kept
}

// IsEmpty reports whether no message is queued.
func (b *MessageBuffer) IsEmpty() bool {
	return len(b.messages) == 0
}

// LineCount returns how many grid lines the displayed message occupies.
func (b *MessageBuffer) LineCount(cols, lines int) int {
	msg, ok := b.Message()
	if !ok {
		return 0
	}
	return len(msg.Lines(cols, lines))
}

package term

import (
	"strings"
	"testing"
)

func TestMessageLinesReservesCloseButton(t *testing.T) {
	m := Message{Text: "hello"}
	lines := m.Lines(20, 10)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], closeButtonText) || len(lines[0]) != 20 {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[0], "hello") {
		t.Fatalf("expected text first, got %q", lines[0])
	}
}

func TestMessageHitsCloseButton(t *testing.T) {
	m := Message{Text: "hello"}
	tests := []struct {
		line, column int
		want         bool
	}{
		{9, 17, true},
		{9, 19, true},
		{9, 16, false},
		{8, 18, false},
		{9, 20, false},
	}
	for _, tt := range tests {
		if got := m.HitsCloseButton(tt.line, tt.column, 20, 10); got != tt.want {
			t.Errorf("HitsCloseButton(%d, %d) = %v, want %v", tt.line, tt.column, got, tt.want)
		}
	}
	if m.HitsCloseButton(0, 1, 2, 10) {
		t.Fatal("no button fits in a two column grid")
	}
}

func TestMessageLinesWrapsWords(t *testing.T) {
	m := Message{Text: "alpha beta gamma delta"}
	lines := m.Lines(12, 10)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped message, got %q", lines)
	}
	for _, l := range lines {
		if len(l) > 12 {
			t.Fatalf("line exceeds width: %q", l)
		}
	}
}

func TestMessageLinesTruncates(t *testing.T) {
	m := Message{Text: strings.Repeat("word ", 40)}
	lines := m.Lines(20, 6)
	if len(lines) != 3 {
		t.Fatalf("expected lines capped at 3, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[2], truncatedMessage) {
		t.Fatalf("expected truncation marker, got %q", lines[2])
	}
}

func TestMessageBufferQueue(t *testing.T) {
	var b MessageBuffer
	if !b.IsEmpty() || b.LineCount(80, 24) != 0 {
		t.Fatal("expected empty buffer")
	}
	first := Message{Text: "one", Topic: "config"}
	b.Push(first)
	b.Push(first)
	b.Push(Message{Text: "two"})

	msg, ok := b.Message()
	if !ok || msg.Text != "one" {
		t.Fatalf("expected first message displayed, got %+v", msg)
	}
	b.RemoveTopic("config")
	msg, _ = b.Message()
	if msg.Text != "two" {
		t.Fatalf("expected topic removal, got %+v", msg)
	}
	b.Pop()
	if !b.IsEmpty() {
		t.Fatal("expected empty after pop")
	}
}

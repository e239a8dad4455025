package term

import (
	"testing"
	"time"
)

func TestVisualBellFades(t *testing.T) {
	now := time.Unix(100, 0)
	b := NewVisualBell(BellLinear, 100*time.Millisecond, Rgb{})
	b.now = func() time.Time { return now }

	if b.Intensity() != 0 || !b.Completed() {
		t.Fatal("expected idle bell")
	}
	b.Ring()
	if b.Intensity() != 1 {
		t.Fatalf("expected full intensity, got %v", b.Intensity())
	}
	now = now.Add(50 * time.Millisecond)
	if got := b.Intensity(); got < 0.49 || got > 0.51 {
		t.Fatalf("expected half intensity, got %v", got)
	}
	if b.Completed() {
		t.Fatal("expected bell still animating")
	}
	now = now.Add(60 * time.Millisecond)
	if b.Intensity() != 0 || !b.Completed() {
		t.Fatal("expected bell completed")
	}
}

func TestVisualBellEaseOut(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewVisualBell(BellEaseOut, time.Second, Rgb{})
	b.now = func() time.Time { return now }
	b.Ring()
	now = now.Add(500 * time.Millisecond)
	if got := b.Intensity(); got != 0.125 {
		t.Fatalf("expected 0.125, got %v", got)
	}
}

func TestVisualBellDisabled(t *testing.T) {
	b := NewVisualBell(BellLinear, 0, Rgb{})
	b.Ring()
	if !b.Completed() {
		t.Fatal("zero duration bell should never animate")
	}
}

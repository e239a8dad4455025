package term

import (
	"math"
	"time"
)

// BellAnimation shapes the visual bell's fade.
type BellAnimation string

const (
	BellLinear  BellAnimation = "linear"
	BellEaseOut BellAnimation = "ease-out"
)

// VisualBell tracks a flash that fades from full intensity to zero over
// Duration after the last Ring.
type VisualBell struct {
	Animation BellAnimation
	Duration  time.Duration
	Color     Rgb

	start   time.Time
	ringing bool
	now     func() time.Time
}

// NewVisualBell returns a bell that has not rung.
func NewVisualBell(animation BellAnimation, duration time.Duration, color Rgb) *VisualBell {
	return &VisualBell{Animation: animation, Duration: duration, Color: color, now: time.Now}
}

// Ring starts (or restarts) the flash.
func (b *VisualBell) Ring() {
	if b.Duration <= 0 {
		return
	}
	b.start = b.now()
	b.ringing = true
}

// Intensity returns the current flash strength in [0, 1].
func (b *VisualBell) Intensity() float64 {
	if !b.ringing || b.Duration <= 0 {
		return 0
	}
	elapsed := b.now().Sub(b.start)
	if elapsed >= b.Duration {
		return 0
	}
	t := float64(elapsed) / float64(b.Duration)
	switch b.Animation {
	case BellEaseOut:
		return math.Pow(1-t, 3)
	default:
		return 1 - t
	}
}

// Completed reports whether no flash is in progress. A completed bell stops
// forcing redraws.
func (b *VisualBell) Completed() bool {
	if !b.ringing {
		return true
	}
	if b.now().Sub(b.start) >= b.Duration {
		b.ringing = false
		return true
	}
	return false
}

// Update applies new settings from a config reload.
func (b *VisualBell) Update(animation BellAnimation, duration time.Duration, color Rgb) {
	b.Animation = animation
	b.Duration = duration
	b.Color = color
}

package display

import (
	"math"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
)

// State is the coordinator's position in a tick.
type State int

const (
	// StateIdle means no signal is pending.
	StateIdle State = iota
	// StateCollecting means signals are queued for the next tick.
	StateCollecting
	// StateReconciling means HandleResize is applying a decision.
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// State reports the coordinator state.
func (d *Display) State() State {
	if d.reconciling.Load() {
		return StateReconciling
	}
	if d.mailbox.Len() > 0 {
		return StateCollecting
	}
	return StateIdle
}

// HandleResize applies every pending signal as one geometry change. It is
// called once per tick from the render context.
func (d *Display) HandleResize(cfg *config.Config, pty OnResize) error {
	signals := d.mailbox.Drain()
	if len(signals) == 0 {
		return nil
	}
	c := coalesce(signals)

	newDPR := d.size.DPR
	if c.dpr != nil {
		newDPR = *c.dpr
	}
	newFontSize := d.fontSize
	if c.fontSize != nil {
		newFontSize = *c.fontSize
	}
	messageChanged := c.messageBar != nil && *c.messageBar != d.messageLines
	fontChanged := newFontSize != d.fontSize || math.Abs(newDPR-d.size.DPR) > geometry.Epsilon

	if !fontChanged && !messageChanged {
		if c.size == nil || c.size.ApproxEqual(d.size.Physical()) {
			return nil
		}
	}

	d.reconciling.Store(true)
	defer d.reconciling.Store(false)
	d.stats.Reconciles++

	previous := d.PtySize()
	newSize := c.size
	if newSize == nil {
		synth := d.size.Physical().Rescale(d.size.DPR, newDPR)
		newSize = &synth
	}
	d.fontSize = newFontSize
	if messageChanged {
		d.messageLines = *c.messageBar
	}

	cw, ch := d.size.CellWidth, d.size.CellHeight
	if fontChanged {
		cw, ch = d.updateGlyphCache(cfg, newFontSize, newDPR)
	}

	d.size = d.compute(cfg, *newSize, cw, ch, newDPR)
	ptySize := d.PtySize()
	if messageChanged || previous.Cols() != ptySize.Cols() || previous.Lines() != ptySize.Lines() {
		d.stats.PtyNotifies++
		if pty != nil {
			pty.OnResize(ptySize)
		}
	}

	d.context.Resize(*newSize)
	d.renderer.Resize(*newSize, d.size.PaddingX, d.size.PaddingY)
	d.stats.ViewportResizes++
	log.Debug("resized to %vx%v (%dx%d cells, dpr %v)", d.size.Width, d.size.Height, d.size.Cols(), d.size.Lines(), d.size.DPR)

	if d.notifier != nil {
		return d.notifier.NotifyResize(d.size)
	}
	return nil
}

// updateGlyphCache reloads the face and returns the new cell size. A face
// that fails to load keeps the previous cell size.
func (d *Display) updateGlyphCache(cfg *config.Config, size font.Size, dpr float64) (float32, float32) {
	if err := d.glyphs.UpdateFontSize(cfg.Font.ForSize(size), dpr); err != nil {
		log.Warn("glyph cache rebuild failed: %v", err)
		return d.size.CellWidth, d.size.CellHeight
	}
	d.stats.GlyphRebuilds++
	return font.ComputeCellSize(cfg.Font.Offset, d.glyphs.FontMetrics())
}

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/andyrewlee/termview/internal/display"
	"github.com/andyrewlee/termview/internal/event"
)

// renderLoop presents every update the event loop hands off. Pending
// resize signals are applied first so the frame is drawn at the new size.
func (a *App) renderLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-a.render:
			if err := a.renderFrame(u); err != nil {
				return err
			}
		}
	}
}

// renderFrame draws one update and asks the event loop for the next one.
func (a *App) renderFrame(u display.RenderUpdate) error {
	cfg := u.Config
	if cfg == nil {
		cfg = a.cfg
	}
	if err := a.display.HandleResize(cfg, a.session); err != nil {
		if errors.Is(err, event.ErrClosed) {
			return nil
		}
		return fmt.Errorf("resize: %w", err)
	}
	a.window.SetGrid(a.display.Size())

	if err := a.display.Draw(u); err != nil {
		return err
	}

	if err := a.proxy.Send(event.RedrawRequest{}); err != nil && !errors.Is(err, event.ErrClosed) {
		return fmt.Errorf("request redraw: %w", err)
	}
	return nil
}

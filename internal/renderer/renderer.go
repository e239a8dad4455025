// Package renderer defines the drawing surface the display renders into and
// builds the decoration rects drawn over the grid.
package renderer

import (
	"errors"

	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/term"
)

// ErrSurfaceLost is returned by SwapBuffers when the surface went away.
var ErrSurfaceLost = errors.New("renderer: surface lost")

// Bell is the visual bell overlay for one frame.
type Bell struct {
	Intensity float64
	Color     term.Rgb
}

// QuadRenderer draws one frame. Calls between Clear and the context's
// SwapBuffers make up the frame.
type QuadRenderer interface {
	// Resize updates the projection for a new viewport and padding.
	Resize(viewport geometry.PhysicalSize, paddingX, paddingY float32)
	Clear(color term.Rgb)
	RenderCell(size geometry.SizeInfo, cell term.RenderableCell, glyphs *font.GlyphCache)
	// RenderString draws text from the first column of line.
	RenderString(size geometry.SizeInfo, text string, line int, fg, bg term.Rgb, glyphs *font.GlyphCache)
	DrawRects(size geometry.SizeInfo, bell Bell, rects []ColoredRect)
}

// Context is the presentation surface the renderer draws into.
type Context interface {
	Resize(size geometry.PhysicalSize)
	SwapBuffers() error
}

package canvas

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/andyrewlee/termview/internal/geometry"
	"github.com/andyrewlee/termview/internal/renderer"
	"github.com/andyrewlee/termview/internal/term"
)

var (
	bg = term.Rgb{R: 0x10, G: 0x10, B: 0x10}
	fg = term.Rgb{R: 0xee, G: 0xee, B: 0xee}
)

func testSize() geometry.SizeInfo {
	return geometry.SizeInfo{Width: 40, Height: 40, CellWidth: 10, CellHeight: 20, DPR: 1}
}

func TestCanvasPublishesFrame(t *testing.T) {
	var published string
	c := New(func(frame string) { published = frame })
	size := testSize()
	c.Clear(bg)
	for i, r := range "ab" {
		c.RenderCell(size, term.RenderableCell{Line: 0, Column: i, Rune: r, Fg: fg, Bg: bg}, nil)
	}
	c.RenderString(size, "ok", 1, bg, fg, nil)
	if err := c.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}

	plain := ansi.Strip(published)
	lines := strings.Split(plain, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", plain)
	}
	if lines[0] != "ab  " || lines[1] != "ok  " {
		t.Fatalf("unexpected frame %q", plain)
	}
	if c.Frames() != 1 || c.Frame() != published {
		t.Fatal("expected frame to be stored")
	}
}

func TestCanvasDecorationsAndBackgroundRects(t *testing.T) {
	c := New(nil)
	size := testSize()
	c.Clear(bg)
	red := term.Rgb{R: 0xff}
	c.DrawRects(size, renderer.Bell{}, []renderer.ColoredRect{
		{Rect: renderer.Rect{X: 0, Y: 18, Width: 20, Height: 1}, Color: red},
		{Rect: renderer.Rect{X: 20, Y: 10, Width: 10, Height: 1}, Color: red},
		{Rect: renderer.Rect{X: 0, Y: 20, Width: 40, Height: 20}, Color: red},
	})

	if !c.cells[0][0].underline || !c.cells[0][1].underline || c.cells[0][2].underline {
		t.Fatal("expected underline on columns 0-1")
	}
	if !c.cells[0][2].strike {
		t.Fatal("expected strikeout on column 2")
	}
	for x := 0; x < c.cols; x++ {
		if c.cells[1][x].bg != red {
			t.Fatalf("expected message background on column %d", x)
		}
	}
}

func TestCanvasBellBlendsBackground(t *testing.T) {
	c := New(nil)
	c.Clear(term.Rgb{})
	c.DrawRects(testSize(), renderer.Bell{Intensity: 0.5, Color: term.Rgb{R: 200, G: 100, B: 0}}, nil)
	if got := c.cells[0][0].bg; got != (term.Rgb{R: 100, G: 50, B: 0}) {
		t.Fatalf("unexpected blended background %v", got)
	}
}

func TestCanvasClosedSwapFails(t *testing.T) {
	c := New(nil)
	c.Close()
	if err := c.SwapBuffers(); !errors.Is(err, renderer.ErrSurfaceLost) {
		t.Fatalf("expected ErrSurfaceLost, got %v", err)
	}
}

func TestCanvasResizeStoresViewport(t *testing.T) {
	c := New(nil)
	c.Resize(geometry.PhysicalSize{Width: 800, Height: 600}, 2, 3)
	if c.Viewport() != (geometry.PhysicalSize{Width: 800, Height: 600}) {
		t.Fatalf("unexpected viewport %+v", c.Viewport())
	}
}

func TestCanvasSurface(t *testing.T) {
	var frames int
	c := New(func(string) { frames++ })
	s := c.Surface()
	s.Resize(geometry.PhysicalSize{Width: 320, Height: 200})
	if c.SurfaceSize() != (geometry.PhysicalSize{Width: 320, Height: 200}) {
		t.Fatalf("unexpected surface size %+v", c.SurfaceSize())
	}
	if err := s.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}
	if frames != 1 || c.Frames() != 1 {
		t.Fatalf("expected one published frame, got %d", frames)
	}
}

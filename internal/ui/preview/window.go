package preview

import (
	"math"
	"sync"

	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/geometry"
)

// Window presents the host terminal as a window system. One host cell is
// one terminal cell of the initial cell size; the window reports its size in
// logical pixels of that scale.
type Window struct {
	mu sync.Mutex

	cellW, cellH float64
	padX, padY   float64
	cols, rows   int
	inner        geometry.LogicalSize

	grid geometry.SizeInfo

	title        string
	urgent       bool
	mouseVisible bool
	cursor       event.Cursor
}

// NewWindow returns a window for a host of cols x rows cells.
func NewWindow(cellW, cellH float64, padding geometry.Padding, cols, rows int) *Window {
	w := &Window{
		cellW:        math.Max(cellW, 1),
		cellH:        math.Max(cellH, 1),
		padX:         padding.X,
		padY:         padding.Y,
		mouseVisible: true,
		cursor:       event.CursorDefault,
	}
	w.SetHostSize(cols, rows)
	return w
}

// SetHostSize records a host resize and returns the new inner size.
func (w *Window) SetHostSize(cols, rows int) geometry.LogicalSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cols, w.rows = max(cols, 0), max(rows, 0)
	w.inner = geometry.LogicalSize{
		Width:  float64(w.cols)*w.cellW + 2*w.padX,
		Height: float64(w.rows)*w.cellH + 2*w.padY,
	}
	return w.inner
}

// HostSize returns the host size in cells.
func (w *Window) HostSize() (cols, rows int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cols, w.rows
}

// ScaleFactor implements display.Window. A host terminal has no DPI.
func (w *Window) ScaleFactor() float64 {
	return 1
}

// InnerSize implements display.Window.
func (w *Window) InnerSize() geometry.LogicalSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inner
}

// SetInnerSize implements display.Window. The host terminal cannot be
// resized, so the request only changes the reported size until the next
// host resize.
func (w *Window) SetInnerSize(size geometry.LogicalSize) error {
	w.mu.Lock()
	w.inner = size
	w.mu.Unlock()
	return nil
}

// SetGrid records the geometry currently drawn, used to place the pointer.
func (w *Window) SetGrid(size geometry.SizeInfo) {
	w.mu.Lock()
	w.grid = size
	w.mu.Unlock()
}

// CellToLogical maps host cell (x, y) to the logical pixel at the left half
// of the terminal cell drawn there.
func (w *Window) CellToLogical(x, y int) (float64, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	size := w.grid
	dpr := size.DPR
	if dpr <= 0 {
		dpr = 1
	}
	cw, ch := float64(size.CellWidth), float64(size.CellHeight)
	if cw <= 0 || ch <= 0 {
		cw, ch = w.cellW*dpr, w.cellH*dpr
	}
	px := float64(size.PaddingX) + (float64(x)+0.25)*cw
	py := float64(size.PaddingY) + (float64(y)+0.5)*ch
	return px / dpr, py / dpr
}

// SetTitle implements event.Window.
func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

// Title returns the window title.
func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// SetUrgent implements event.Window.
func (w *Window) SetUrgent(urgent bool) {
	w.mu.Lock()
	w.urgent = urgent
	w.mu.Unlock()
}

// Urgent reports whether attention was requested.
func (w *Window) Urgent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.urgent
}

// SetMouseVisible implements event.Window.
func (w *Window) SetMouseVisible(visible bool) {
	w.mu.Lock()
	w.mouseVisible = visible
	w.mu.Unlock()
}

// MouseVisible reports the pointer visibility.
func (w *Window) MouseVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mouseVisible
}

// SetMouseCursor implements event.Window.
func (w *Window) SetMouseCursor(icon event.Cursor) {
	w.mu.Lock()
	w.cursor = icon
	w.mu.Unlock()
}

// MouseCursor returns the pointer shape.
func (w *Window) MouseCursor() event.Cursor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// Grid returns the geometry last passed to SetGrid.
func (w *Window) Grid() geometry.SizeInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.grid
}

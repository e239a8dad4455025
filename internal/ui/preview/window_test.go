package preview

import (
	"testing"

	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/geometry"
)

func TestWindowHostSize(t *testing.T) {
	w := NewWindow(8, 16, geometry.Padding{X: 2, Y: 3}, 80, 24)
	if got := w.InnerSize(); got != (geometry.LogicalSize{Width: 644, Height: 390}) {
		t.Fatalf("unexpected inner size %+v", got)
	}

	size := w.SetHostSize(100, -1)
	if size.Width != 804 || size.Height != 6 {
		t.Fatalf("unexpected inner size after resize %+v", size)
	}
	if cols, rows := w.HostSize(); cols != 100 || rows != 0 {
		t.Fatalf("expected 100x0 host, got %dx%d", cols, rows)
	}
}

func TestWindowSetInnerSizeOnlyRecords(t *testing.T) {
	w := NewWindow(8, 16, geometry.Padding{}, 10, 10)
	if err := w.SetInnerSize(geometry.LogicalSize{Width: 1, Height: 2}); err != nil {
		t.Fatalf("SetInnerSize: %v", err)
	}
	if got := w.InnerSize(); got.Width != 1 || got.Height != 2 {
		t.Fatalf("expected recorded size, got %+v", got)
	}
	if cols, rows := w.HostSize(); cols != 10 || rows != 10 {
		t.Fatalf("host size should not change, got %dx%d", cols, rows)
	}
}

func TestCellToLogical(t *testing.T) {
	w := NewWindow(8, 16, geometry.Padding{}, 10, 10)

	x, y := w.CellToLogical(2, 1)
	if x != 18 || y != 24 {
		t.Fatalf("expected base-cell mapping (18, 24), got (%v, %v)", x, y)
	}

	w.SetGrid(geometry.SizeInfo{Width: 200, Height: 200, CellWidth: 20, CellHeight: 40, PaddingX: 4, PaddingY: 6, DPR: 2})
	x, y = w.CellToLogical(1, 0)
	if x != 14.5 || y != 13 {
		t.Fatalf("expected grid mapping (14.5, 13), got (%v, %v)", x, y)
	}
}

func TestWindowAttributes(t *testing.T) {
	w := NewWindow(8, 16, geometry.Padding{}, 10, 10)
	if !w.MouseVisible() || w.MouseCursor() != event.CursorDefault {
		t.Fatal("expected a visible default pointer")
	}
	w.SetTitle("vim")
	w.SetUrgent(true)
	w.SetMouseVisible(false)
	w.SetMouseCursor(event.CursorText)
	if w.Title() != "vim" || !w.Urgent() || w.MouseVisible() || w.MouseCursor() != event.CursorText {
		t.Fatal("window attributes were not recorded")
	}
	if w.ScaleFactor() != 1 {
		t.Fatalf("expected scale factor 1, got %v", w.ScaleFactor())
	}
}

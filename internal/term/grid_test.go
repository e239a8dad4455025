package term

import "testing"

func TestGridWrapsAndMarksWrapline(t *testing.T) {
	g := NewGrid(2, 3, Cell{Rune: ' '})
	for _, r := range "abcd" {
		g.Put(r, Cell{})
	}
	if !g.Rows[0][2].Flags.Contains(FlagWrapline) {
		t.Fatal("expected wrap flag on the last column")
	}
	if g.Rows[1][0].Rune != 'd' {
		t.Fatalf("expected 'd' on the next line, got %q", g.Rows[1][0].Rune)
	}
}

func TestGridScrollsAtBottom(t *testing.T) {
	g := NewGrid(2, 2, Cell{Rune: ' '})
	g.Put('a', Cell{})
	g.LineFeed()
	g.CarriageReturn()
	g.Put('b', Cell{})
	g.LineFeed()

	if g.Rows[0][0].Rune != 'b' || g.Rows[1][0].Rune != ' ' {
		t.Fatalf("expected grid to scroll, got %q/%q", g.Rows[0][0].Rune, g.Rows[1][0].Rune)
	}
}

func TestGridWideCharSpacer(t *testing.T) {
	g := NewGrid(1, 4, Cell{Rune: ' '})
	g.Put('世', Cell{})

	if !g.Rows[0][0].Flags.Contains(FlagWideChar) {
		t.Fatal("expected wide char flag")
	}
	if !g.Rows[0][1].Flags.Contains(FlagWideCharSpacer) {
		t.Fatal("expected spacer after wide char")
	}
	if g.Cursor.Column != 2 {
		t.Fatalf("expected cursor at column 2, got %d", g.Cursor.Column)
	}
}

func TestGridResizeKeepsCursorLine(t *testing.T) {
	g := NewGrid(4, 2, Cell{Rune: ' '})
	for i := 0; i < 3; i++ {
		g.LineFeed()
	}
	g.Put('z', Cell{})
	g.Resize(2, 3)

	if g.Lines != 2 || g.Cols != 3 {
		t.Fatalf("unexpected dims %dx%d", g.Cols, g.Lines)
	}
	if g.Rows[1][0].Rune != 'z' {
		t.Fatalf("expected cursor line to stay visible, got %q", g.Rows[1][0].Rune)
	}
	if g.Cell(Point{Line: 2, Column: 0}) != nil {
		t.Fatal("expected nil for out of bounds cell")
	}
}

func TestGridTabAndBackspace(t *testing.T) {
	g := NewGrid(1, 20, Cell{Rune: ' '})
	g.Tab()
	if g.Cursor.Column != 8 {
		t.Fatalf("expected tab stop 8, got %d", g.Cursor.Column)
	}
	g.Backspace()
	if g.Cursor.Column != 7 {
		t.Fatalf("expected column 7, got %d", g.Cursor.Column)
	}
}

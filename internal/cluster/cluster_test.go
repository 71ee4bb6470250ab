package cluster

import (
	"reflect"
	"testing"

	"discmenu/internal/geometry"
	"discmenu/internal/spu"
)

func regionsFromRects(rects []geometry.Rect) []spu.Region {
	regions := make([]spu.Region, 0, len(rects))
	for _, rect := range rects {
		regions = append(regions, spu.Region{Rect: rect, Pixels: rect.Area()})
	}
	return regions
}

func TestSelectLargeHighlightMode(t *testing.T) {
	// Two button highlights plus three small navigation arrows.
	regions := regionsFromRects([]geometry.Rect{
		{X1: 150, Y1: 288, X2: 262, Y2: 377},
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
		{X1: 20, Y1: 500, X2: 35, Y2: 515},
		{X1: 60, Y1: 500, X2: 75, Y2: 515},
		{X1: 100, Y1: 500, X2: 115, Y2: 515},
	})

	result := Select(regions, Params{})
	if result.Mode != ModeLargeHighlight {
		t.Fatalf("mode = %s, want %s", result.Mode, ModeLargeHighlight)
	}
	want := []geometry.Rect{
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
		{X1: 150, Y1: 288, X2: 262, Y2: 377},
	}
	if !reflect.DeepEqual(result.Rects, want) {
		t.Fatalf("rects = %v, want %v", result.Rects, want)
	}
}

func TestSelectNoButtons(t *testing.T) {
	// A handful of small regions: neither large-highlight nor glyph mode.
	regions := regionsFromRects([]geometry.Rect{
		{X1: 10, Y1: 10, X2: 20, Y2: 20},
		{X1: 40, Y1: 10, X2: 50, Y2: 20},
		{X1: 70, Y1: 10, X2: 80, Y2: 20},
	})
	result := Select(regions, Params{})
	if result.Mode != ModeNone {
		t.Fatalf("mode = %s, want %s", result.Mode, ModeNone)
	}
	if len(result.Rects) != 0 {
		t.Fatalf("unexpected rects: %v", result.Rects)
	}
}

func TestSelectGlyphModeSingleColumn(t *testing.T) {
	// Ten text lines, each a row of small glyphs confined to the left 60%
	// of the page: the gutter detector must decline and the clusterer must
	// emit one box per line, top to bottom.
	var glyphs []geometry.Rect
	for i := 0; i < 10; i++ {
		glyphs = append(glyphs, glyphLine(60+i*36, 80, 380, 8, 2, 20)...)
	}

	result := Select(regionsFromRects(glyphs), Params{})
	if result.Mode != ModeCharacterGlyph {
		t.Fatalf("mode = %s, want %s", result.Mode, ModeCharacterGlyph)
	}
	if len(result.Rects) != 10 {
		t.Fatalf("got %d button boxes, want 10", len(result.Rects))
	}
	for i, rect := range result.Rects {
		if rect.Width() < 80 {
			t.Fatalf("box %d narrower than 80px: %v", i, rect)
		}
		if i > 0 && rect.Y1 <= result.Rects[i-1].Y1 {
			t.Fatalf("boxes not emitted top to bottom: %v", result.Rects)
		}
	}
}

func TestSelectGlyphModeTwoColumns(t *testing.T) {
	// Header line spanning the gutter, then five lines per column. Order
	// must be header, left top-to-bottom, right top-to-bottom, and only the
	// header may cross the gutter.
	glyphs := glyphLine(40, 200, 500, 8, 2, 20)
	glyphs = append(glyphs, twoColumnGlyphs()...)

	result := Select(regionsFromRects(glyphs), Params{})
	if result.Mode != ModeCharacterGlyph {
		t.Fatalf("mode = %s, want %s", result.Mode, ModeCharacterGlyph)
	}
	if len(result.Rects) != 11 {
		t.Fatalf("got %d button boxes, want 11", len(result.Rects))
	}

	header := result.Rects[0]
	if header.Y1 != 40 {
		t.Fatalf("first box is not the header: %v", header)
	}

	left := result.Rects[1:6]
	right := result.Rects[6:11]
	for i, rect := range left {
		if rect.X1 < 60 || rect.X2 > 389 {
			t.Fatalf("left column box %d crosses the gutter: %v", i, rect)
		}
		if i > 0 && rect.Y1 <= left[i-1].Y1 {
			t.Fatalf("left column not top to bottom")
		}
	}
	for i, rect := range right {
		if rect.X1 < 390 {
			t.Fatalf("right column box %d crosses the gutter: %v", i, rect)
		}
		if i > 0 && rect.Y1 <= right[i-1].Y1 {
			t.Fatalf("right column not top to bottom")
		}
	}
}

func TestSelectGlyphModeManyGlyphsBounded(t *testing.T) {
	// A 400+ glyph page must still cluster into a bounded set of wide,
	// readable boxes.
	var glyphs []geometry.Rect
	for i := 0; i < 14; i++ {
		glyphs = append(glyphs, glyphLine(40+i*38, 60, 420, 7, 3, 18)...)
	}
	if len(glyphs) < 400 {
		t.Fatalf("fixture too small: %d glyphs", len(glyphs))
	}

	result := Select(regionsFromRects(glyphs), Params{})
	if len(result.Rects) == 0 || len(result.Rects) > 40 {
		t.Fatalf("got %d boxes, want 1..40", len(result.Rects))
	}
	for _, rect := range result.Rects {
		if rect.Width() < 80 || rect.Height() < 10 {
			t.Fatalf("undersized box survived filtering: %v", rect)
		}
	}
}

func TestSelectDeterminism(t *testing.T) {
	glyphs := twoColumnGlyphs()
	first := Select(regionsFromRects(glyphs), Params{})
	second := Select(regionsFromRects(glyphs), Params{})
	if first.Mode != second.Mode || !reflect.DeepEqual(first.Rects, second.Rects) {
		t.Fatalf("clustering is not deterministic")
	}
}

func TestGlyphBoxesDoNotOverlap(t *testing.T) {
	glyphs := glyphLine(40, 200, 500, 8, 2, 20)
	glyphs = append(glyphs, twoColumnGlyphs()...)
	result := Select(regionsFromRects(glyphs), Params{})
	for i := range result.Rects {
		for j := i + 1; j < len(result.Rects); j++ {
			if result.Rects[i].Overlaps(result.Rects[j]) {
				t.Fatalf("boxes %v and %v overlap", result.Rects[i], result.Rects[j])
			}
		}
	}
}

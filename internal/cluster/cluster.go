package cluster

import (
	"sort"

	"discmenu/internal/geometry"
	"discmenu/internal/spu"
)

// Mode identifies which authoring style a packet's regions exhibit.
type Mode string

const (
	// ModeLargeHighlight covers discs whose SPU draws one solid rectangle
	// per button.
	ModeLargeHighlight Mode = "large_highlight"
	// ModeCharacterGlyph covers discs whose SPU draws button text one glyph
	// at a time.
	ModeCharacterGlyph Mode = "character_glyph"
	// ModeNone means the packet's regions fit neither style.
	ModeNone Mode = "none"
)

// Params bound the clustering geometry. Zero values select the defaults used
// across the test corpus.
type Params struct {
	LargeMinWidth     int
	LargeMinHeight    int
	GlyphModeMinCount int
	LineTolerance     int
	GlyphGapMax       int
	MinButtonWidth    int
	MinButtonHeight   int
	FrameWidth        int
}

func (p Params) withDefaults() Params {
	if p.LargeMinWidth == 0 {
		p.LargeMinWidth = 80
	}
	if p.LargeMinHeight == 0 {
		p.LargeMinHeight = 60
	}
	if p.GlyphModeMinCount == 0 {
		p.GlyphModeMinCount = 20
	}
	if p.LineTolerance == 0 {
		p.LineTolerance = 10
	}
	if p.GlyphGapMax == 0 {
		p.GlyphGapMax = 30
	}
	if p.MinButtonWidth == 0 {
		p.MinButtonWidth = 80
	}
	if p.MinButtonHeight == 0 {
		p.MinButtonHeight = 10
	}
	if p.FrameWidth == 0 {
		p.FrameWidth = 720
	}
	return p
}

// Right-side padding applied to clustered text boxes so the trailing glyph
// survives cropping.
const rightPadding = 30

// Header band: glyphs starting in the top portion of the page's Y range belong
// to neither column and form the header lines. Whether a header line actually
// crosses the gutter is not checked.
const headerBandFraction = 0.15

// Result carries the selected mode and the ordered button rectangles.
type Result struct {
	Mode  Mode
	Rects []geometry.Rect
}

// Select decides between large-highlight and character-glyph clustering for
// one packet's regions and returns the ordered button rectangles. The order
// is authoritative for entry-id assignment: header first, then left column
// top-to-bottom, then right column top-to-bottom.
func Select(regions []spu.Region, params Params) Result {
	params = params.withDefaults()

	var large []geometry.Rect
	var small []geometry.Rect
	for _, region := range regions {
		r := region.Rect
		if r.Width() >= params.LargeMinWidth && r.Height() >= params.LargeMinHeight {
			large = append(large, r)
		} else if r.Width() < params.LargeMinWidth && r.Height() < params.LargeMinHeight {
			small = append(small, r)
		}
	}

	switch {
	case len(large) >= 1:
		sortScanline(large)
		return Result{Mode: ModeLargeHighlight, Rects: large}
	case len(small) > params.GlyphModeMinCount:
		return Result{Mode: ModeCharacterGlyph, Rects: clusterGlyphs(small, params)}
	default:
		return Result{Mode: ModeNone}
	}
}

// clusterGlyphs groups character boxes into text lines, optionally split at a
// detected column gutter.
func clusterGlyphs(glyphs []geometry.Rect, params Params) []geometry.Rect {
	gutterX, hasGutter := DetectGutter(glyphs, params.FrameWidth)

	if !hasGutter {
		lines := buildLines(glyphs, params)
		return filterBoxes(lines, params)
	}

	minY, maxY := glyphs[0].Y1, glyphs[0].Y2
	for _, g := range glyphs[1:] {
		if g.Y1 < minY {
			minY = g.Y1
		}
		if g.Y2 > maxY {
			maxY = g.Y2
		}
	}
	headerLimit := minY + int(float64(maxY-minY)*headerBandFraction)

	var header, left, right []geometry.Rect
	for _, g := range glyphs {
		switch {
		case g.Y1 <= headerLimit:
			header = append(header, g)
		case g.CenterX() < float64(gutterX):
			left = append(left, g)
		default:
			right = append(right, g)
		}
	}

	var ordered []geometry.Rect
	ordered = append(ordered, filterBoxes(buildLines(header, params), params)...)
	ordered = append(ordered, filterBoxes(buildLines(left, params), params)...)
	ordered = append(ordered, filterBoxes(buildLines(right, params), params)...)
	return ordered
}

// buildLines groups glyphs into text lines by Y-centre proximity, then merges
// each line's glyphs into button text boxes split at wide horizontal gaps.
// Output is top-to-bottom, left-to-right.
func buildLines(glyphs []geometry.Rect, params Params) []geometry.Rect {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := append([]geometry.Rect(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y1 != sorted[j].Y1 {
			return sorted[i].Y1 < sorted[j].Y1
		}
		return sorted[i].X1 < sorted[j].X1
	})

	var lines [][]geometry.Rect
	current := []geometry.Rect{sorted[0]}
	currentCenter := sorted[0].CenterY()
	for _, glyph := range sorted[1:] {
		center := glyph.CenterY()
		if absFloat(center-currentCenter) <= float64(params.LineTolerance) {
			current = append(current, glyph)
			continue
		}
		lines = append(lines, current)
		current = []geometry.Rect{glyph}
		currentCenter = center
	}
	lines = append(lines, current)

	var boxes []geometry.Rect
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X1 < line[j].X1 })
		group := line[0]
		for _, glyph := range line[1:] {
			if glyph.X1-group.X2 <= params.GlyphGapMax {
				group = group.Union(glyph)
				continue
			}
			boxes = append(boxes, padRight(group))
			group = glyph
		}
		boxes = append(boxes, padRight(group))
	}
	return boxes
}

func padRight(r geometry.Rect) geometry.Rect {
	r.X2 += rightPadding
	return r
}

func filterBoxes(boxes []geometry.Rect, params Params) []geometry.Rect {
	var kept []geometry.Rect
	for _, box := range boxes {
		if box.Width() < params.MinButtonWidth || box.Height() < params.MinButtonHeight {
			continue
		}
		kept = append(kept, box)
	}
	return kept
}

func sortScanline(rects []geometry.Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y1 != rects[j].Y1 {
			return rects[i].Y1 < rects[j].Y1
		}
		return rects[i].X1 < rects[j].X1
	})
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

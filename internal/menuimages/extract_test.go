package menuimages

import (
	"testing"

	"discmenu/internal/cluster"
	"discmenu/internal/geometry"
	"discmenu/internal/testsupport"
)

func TestExtractSPURectsKeepsPacketOrder(t *testing.T) {
	display := geometry.Rect{X1: 0, Y1: 0, X2: 719, Y2: 575}
	first := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{{X1: 100, Y1: 100, X2: 250, Y2: 180}},
	})
	second := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled: []geometry.Rect{
			{X1: 100, Y1: 100, X2: 250, Y2: 180},
			{X1: 100, Y1: 220, X2: 250, Y2: 300},
		},
	})
	stream := testsupport.BuildProgramStream(t, 0x20, [][]byte{first, second}, 1500)

	pages := extractSPURects(stream, cluster.Params{}, nil)
	if len(pages) != 2 {
		t.Fatalf("got %d page slots, want 2", len(pages))
	}
	if len(pages[0].Rects) != 1 || len(pages[1].Rects) != 2 {
		t.Fatalf("rect counts = %d, %d; want 1, 2", len(pages[0].Rects), len(pages[1].Rects))
	}
}

func TestExtractSPURectsSkipsSubtitleOverlays(t *testing.T) {
	display := geometry.Rect{X1: 0, Y1: 400, X2: 719, Y2: 500}
	subtitle := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{{X1: 100, Y1: 420, X2: 600, Y2: 480}},
		NotMenu: true,
	})
	stream := testsupport.BuildProgramStream(t, 0x20, [][]byte{subtitle}, 0)

	if pages := extractSPURects(stream, cluster.Params{}, nil); len(pages) != 0 {
		t.Fatalf("subtitle packet claimed a page slot: %d", len(pages))
	}
}

func TestTrimAwayResolvesOverlap(t *testing.T) {
	prior := geometry.Rect{X1: 100, Y1: 100, X2: 300, Y2: 150}
	rect := geometry.Rect{X1: 100, Y1: 140, X2: 300, Y2: 200}

	trimmed, ok := trimAway(rect, prior)
	if !ok {
		t.Fatalf("trim dropped a resolvable rect")
	}
	if trimmed.Overlaps(prior) {
		t.Fatalf("rects still overlap: %v vs %v", trimmed, prior)
	}
	if trimmed.Y1 != 151 {
		t.Fatalf("trimmed = %v, want Y1 = 151", trimmed)
	}

	// A contained rect cannot be trimmed into anything useful.
	contained := geometry.Rect{X1: 150, Y1: 110, X2: 250, Y2: 140}
	if _, ok := trimAway(contained, prior); ok {
		t.Fatalf("contained rect survived trimming")
	}
}

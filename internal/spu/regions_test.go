package spu

import (
	"reflect"
	"testing"

	"discmenu/internal/geometry"
	"discmenu/internal/testsupport"
)

func TestRegionsFindsComponents(t *testing.T) {
	display := geometry.Rect{X1: 100, Y1: 100, X2: 399, Y2: 299}
	filled := []geometry.Rect{
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
		{X1: 300, Y1: 120, X2: 330, Y2: 140},
		{X1: 110, Y1: 110, X2: 112, Y2: 112},
	}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{Display: display, Filled: filled})
	bitmap := decodePacket(t, raw)

	regions := bitmap.Regions()
	if len(regions) != 3 {
		t.Fatalf("got %d regions, want 3", len(regions))
	}

	var rects []geometry.Rect
	for _, region := range regions {
		rects = append(rects, region.Rect)
		if region.Pixels != region.Rect.Area() {
			t.Fatalf("solid region %v has %d pixels, want %d", region.Rect, region.Pixels, region.Rect.Area())
		}
	}
	// Scanline order of each region's top-left pixel.
	want := []geometry.Rect{
		{X1: 110, Y1: 110, X2: 112, Y2: 112},
		{X1: 300, Y1: 120, X2: 330, Y2: 140},
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
	}
	if !reflect.DeepEqual(rects, want) {
		t.Fatalf("regions = %v, want %v", rects, want)
	}
}

func TestRegionsFourConnectivity(t *testing.T) {
	// Two blocks touching only diagonally must stay separate components.
	display := geometry.Rect{X1: 0, Y1: 0, X2: 19, Y2: 19}
	filled := []geometry.Rect{
		{X1: 0, Y1: 0, X2: 4, Y2: 4},
		{X1: 5, Y1: 5, X2: 9, Y2: 9},
	}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{Display: display, Filled: filled})
	bitmap := decodePacket(t, raw)

	if regions := bitmap.Regions(); len(regions) != 2 {
		t.Fatalf("diagonal neighbours merged: got %d regions, want 2", len(regions))
	}
}

func TestRegionsDeterminism(t *testing.T) {
	display := geometry.Rect{X1: 0, Y1: 0, X2: 199, Y2: 99}
	filled := []geometry.Rect{
		{X1: 10, Y1: 10, X2: 30, Y2: 20},
		{X1: 50, Y1: 10, X2: 70, Y2: 20},
		{X1: 10, Y1: 50, X2: 70, Y2: 60},
	}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{Display: display, Filled: filled})
	bitmap := decodePacket(t, raw)

	first := bitmap.Regions()
	second := bitmap.Regions()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("region extraction is not deterministic")
	}
}

package spu

import (
	"encoding/binary"
	"errors"
	"testing"

	"discmenu/internal/geometry"
	"discmenu/internal/testsupport"
)

func packetFromBytes(raw []byte) Packet {
	return Packet{
		SubstreamID:   0x20,
		Raw:           raw,
		TotalSize:     int(binary.BigEndian.Uint16(raw[:2])),
		ControlOffset: int(binary.BigEndian.Uint16(raw[2:4])),
	}
}

func TestParseControlSynthesizedPacket(t *testing.T) {
	display := geometry.Rect{X1: 150, Y1: 176, X2: 262, Y2: 265}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{display},
	})

	ctrl, err := ParseControl(packetFromBytes(raw))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}
	if ctrl.Rect != display {
		t.Fatalf("display rect = %v, want %v", ctrl.Rect, display)
	}
	if !ctrl.IsMenu {
		t.Fatalf("menu flag not set")
	}
	if ctrl.Offset1 < 4 || ctrl.Offset2 <= ctrl.Offset1 {
		t.Fatalf("implausible field offsets %d, %d", ctrl.Offset1, ctrl.Offset2)
	}
}

func TestParseControlRejectsSubtitlePacket(t *testing.T) {
	display := geometry.Rect{X1: 100, Y1: 400, X2: 600, Y2: 450}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{display},
		NotMenu: true,
	})

	_, err := ParseControl(packetFromBytes(raw))
	if !errors.Is(err, ErrNotMenu) {
		t.Fatalf("err = %v, want ErrNotMenu", err)
	}
}

func TestParseControlRejectsMissingCommands(t *testing.T) {
	// Control sequence with only the force-display command: no display area,
	// no bitmap offsets.
	raw := []byte{
		0x00, 0x0D, // total size 13
		0x00, 0x04, // control offset 4
		0x00, 0x00, // delay
		0x00, 0x04, // next offset (self)
		0x00, // force display
		0xFF, // end
		0x00, 0x00, 0x00,
	}
	_, err := ParseControl(packetFromBytes(raw))
	if !errors.Is(err, ErrNoControl) {
		t.Fatalf("err = %v, want ErrNoControl", err)
	}
}

func TestParseControlRejectsBadOffsets(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func([]byte)
	}{
		{"control offset zero", func(raw []byte) {
			binary.BigEndian.PutUint16(raw[2:4], 0)
		}},
		{"control offset past end", func(raw []byte) {
			binary.BigEndian.PutUint16(raw[2:4], uint16(len(raw)))
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			display := geometry.Rect{X1: 0, Y1: 0, X2: 31, Y2: 15}
			raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
				Display: display,
				Filled:  []geometry.Rect{display},
			})
			tc.mutate(raw)
			if _, err := ParseControl(packetFromBytes(raw)); err == nil {
				t.Fatalf("mutated packet parsed successfully")
			}
		})
	}
}

func TestParseControlRecordsPaletteAndAlpha(t *testing.T) {
	display := geometry.Rect{X1: 10, Y1: 10, X2: 50, Y2: 40}
	raw := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{display},
	})
	ctrl, err := ParseControl(packetFromBytes(raw))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}
	if ctrl.Palette != [4]byte{0x0, 0x1, 0x2, 0x3} {
		t.Fatalf("palette = %v", ctrl.Palette)
	}
	if ctrl.Alpha != [4]byte{0xF, 0xF, 0xF, 0x0} {
		t.Fatalf("alpha = %v", ctrl.Alpha)
	}
}

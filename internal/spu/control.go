package spu

import (
	"encoding/binary"
	"errors"

	"discmenu/internal/geometry"
)

// Control sub-sequence commands.
const (
	cmdForceDisplay = 0x00
	cmdStartDisplay = 0x01
	cmdStopDisplay  = 0x02
	cmdPalette      = 0x03
	cmdAlpha        = 0x04
	cmdDisplayArea  = 0x05
	cmdBitmapOffset = 0x06
	cmdEnd          = 0xFF
)

// Frame bounds for PAL DVDs; display rectangles must stay inside them.
const (
	maxFrameWidth  = 720
	maxFrameHeight = 576
)

// Control is the parsed control sequence of one SPU packet.
type Control struct {
	Rect    geometry.Rect
	Offset1 int
	Offset2 int
	IsMenu  bool
	Palette [4]byte
	Alpha   [4]byte
}

var (
	// ErrNotMenu marks packets without the force-display command; those are
	// subtitle overlays, not menu highlights.
	ErrNotMenu = errors.New("spu: packet is not menu-flagged")
	// ErrNoControl marks packets whose control sequence lacks the display
	// area or bitmap offsets.
	ErrNoControl = errors.New("spu: incomplete control sequence")
)

// ParseControl walks the date-delayed control sub-sequences of a packet and
// extracts the display rectangle, bitmap field offsets, and menu flag.
func ParseControl(packet Packet) (Control, error) {
	raw := packet.Raw
	size := packet.TotalSize
	if size > len(raw) {
		size = len(raw)
	}
	if packet.ControlOffset < 4 || packet.ControlOffset >= size {
		return Control{}, ErrNoControl
	}

	ctrl := Control{Offset1: -1, Offset2: -1}
	haveRect := false

	pos := packet.ControlOffset
	for pos+4 <= size {
		// 2-byte delay + 2-byte next sub-sequence offset; neither matters
		// for static menu bitmaps.
		pos += 4
	commands:
		for pos < size {
			cmd := raw[pos]
			pos++
			switch cmd {
			case cmdForceDisplay:
				ctrl.IsMenu = true
			case cmdStartDisplay, cmdStopDisplay:
				// Display timing is irrelevant for menus.
			case cmdPalette:
				if pos+2 > size {
					break commands
				}
				unpackNibbles(raw[pos:pos+2], &ctrl.Palette)
				pos += 2
			case cmdAlpha:
				if pos+2 > size {
					break commands
				}
				unpackNibbles(raw[pos:pos+2], &ctrl.Alpha)
				pos += 2
			case cmdDisplayArea:
				if pos+6 > size {
					break commands
				}
				x1 := int(raw[pos])<<4 | int(raw[pos+1])>>4
				x2 := int(raw[pos+1]&0x0F)<<8 | int(raw[pos+2])
				y1 := int(raw[pos+3])<<4 | int(raw[pos+4])>>4
				y2 := int(raw[pos+4]&0x0F)<<8 | int(raw[pos+5])
				ctrl.Rect = geometry.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
				haveRect = true
				pos += 6
			case cmdBitmapOffset:
				if pos+4 > size {
					break commands
				}
				ctrl.Offset1 = int(binary.BigEndian.Uint16(raw[pos : pos+2]))
				ctrl.Offset2 = int(binary.BigEndian.Uint16(raw[pos+2 : pos+4]))
				pos += 4
			case cmdEnd:
				break commands
			default:
				// Unknown command: the rest of this sub-sequence cannot be
				// framed reliably.
				break commands
			}
		}
		if ctrl.Offset1 >= 0 && ctrl.Offset2 >= 0 && haveRect {
			break
		}
		if pos <= packet.ControlOffset || pos >= size {
			break
		}
	}

	if ctrl.Offset1 < 0 || ctrl.Offset2 < 0 || !haveRect {
		return Control{}, ErrNoControl
	}
	if !ctrl.Rect.Valid() || ctrl.Rect.Area() <= 1 {
		return Control{}, ErrNoControl
	}
	if ctrl.Rect.X1 < 0 || ctrl.Rect.X2 >= maxFrameWidth || ctrl.Rect.Y1 < 0 || ctrl.Rect.Y2 >= maxFrameHeight {
		return Control{}, ErrNoControl
	}
	if ctrl.Offset1 >= packet.ControlOffset || ctrl.Offset2 >= packet.ControlOffset {
		return Control{}, ErrNoControl
	}
	if !ctrl.IsMenu {
		return Control{}, ErrNotMenu
	}
	return ctrl, nil
}

func unpackNibbles(src []byte, dst *[4]byte) {
	dst[0] = src[0] >> 4
	dst[1] = src[0] & 0x0F
	dst[2] = src[1] >> 4
	dst[3] = src[1] & 0x0F
}

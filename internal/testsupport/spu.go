package testsupport

import (
	"encoding/binary"
	"testing"

	"discmenu/internal/geometry"
)

// SPUPacketSpec describes a synthetic SPU packet: the display rectangle and
// the filled sub-rectangles drawn into it (frame coordinates).
type SPUPacketSpec struct {
	Display geometry.Rect
	Filled  []geometry.Rect
	// Color is the 2-bit colour index used for filled pixels; defaults to 1.
	Color byte
	// NotMenu omits the force-display command.
	NotMenu bool
}

// BuildSPUPacket assembles a bit-exact SPU packet: RLE-encoded interlaced
// bitmap fields followed by a single control sub-sequence.
func BuildSPUPacket(t testing.TB, spec SPUPacketSpec) []byte {
	t.Helper()

	color := spec.Color
	if color == 0 {
		color = 1
	}
	width := spec.Display.Width()
	height := spec.Display.Height()
	if width <= 0 || height <= 0 {
		t.Fatalf("invalid display rect %v", spec.Display)
	}

	pixels := make([][]byte, height)
	for y := range pixels {
		pixels[y] = make([]byte, width)
	}
	for _, rect := range spec.Filled {
		for y := rect.Y1; y <= rect.Y2; y++ {
			for x := rect.X1; x <= rect.X2; x++ {
				ly := y - spec.Display.Y1
				lx := x - spec.Display.X1
				if ly < 0 || ly >= height || lx < 0 || lx >= width {
					t.Fatalf("filled rect %v outside display %v", rect, spec.Display)
				}
				pixels[ly][lx] = color
			}
		}
	}

	field1 := encodeField(pixels, 0)
	field2 := encodeField(pixels, 1)

	// Layout: [size u16][ctrl u16][field1][field2][control sequence].
	offset1 := 4
	offset2 := offset1 + len(field1)
	ctrlOffset := offset2 + len(field2)

	var ctrl []byte
	ctrl = append(ctrl, 0x00, 0x00) // delay
	ctrl = append(ctrl, 0x00, 0x00) // next sub-sequence offset placeholder
	if !spec.NotMenu {
		ctrl = append(ctrl, 0x00) // force display
	}
	ctrl = append(ctrl, 0x03, 0x01, 0x23) // palette
	ctrl = append(ctrl, 0x04, 0xFF, 0xF0) // alpha
	ctrl = append(ctrl, 0x05)
	ctrl = append(ctrl,
		byte(spec.Display.X1>>4),
		byte(spec.Display.X1<<4)|byte(spec.Display.X2>>8),
		byte(spec.Display.X2),
		byte(spec.Display.Y1>>4),
		byte(spec.Display.Y1<<4)|byte(spec.Display.Y2>>8),
		byte(spec.Display.Y2),
	)
	ctrl = append(ctrl, 0x06,
		byte(offset1>>8), byte(offset1),
		byte(offset2>>8), byte(offset2))
	ctrl = append(ctrl, 0xFF)

	total := ctrlOffset + len(ctrl)
	packet := make([]byte, 0, total)
	packet = binary.BigEndian.AppendUint16(packet, uint16(total))
	packet = binary.BigEndian.AppendUint16(packet, uint16(ctrlOffset))
	packet = append(packet, field1...)
	packet = append(packet, field2...)
	packet = append(packet, ctrl...)

	// Point the next-offset field at the control sequence itself so the
	// parser sees a terminated chain.
	binary.BigEndian.PutUint16(packet[ctrlOffset+2:ctrlOffset+4], uint16(ctrlOffset))
	return packet
}

// encodeField RLE-encodes the rows of one interlaced field (parity 0 = even
// rows, 1 = odd rows), byte-aligning after each row.
func encodeField(pixels [][]byte, parity int) []byte {
	var enc nibbleWriter
	for y := parity; y < len(pixels); y += 2 {
		row := pixels[y]
		x := 0
		for x < len(row) {
			color := row[x]
			run := 1
			for x+run < len(row) && row[x+run] == color {
				run++
			}
			if x+run >= len(row) {
				// Fill to end of row.
				enc.writeNibbles(0, 0, 0, int(color))
			} else {
				encodeRun(&enc, run, color)
			}
			x += run
		}
		enc.alignToByte()
	}
	return enc.bytes
}

func encodeRun(enc *nibbleWriter, run int, color byte) {
	for run > 255 {
		encodeRun(enc, 255, color)
		run -= 255
	}
	value := run<<2 | int(color)
	switch {
	case run <= 3:
		enc.writeNibbles(value)
	case run <= 15:
		enc.writeNibbles(value>>4, value&0xF)
	case run <= 63:
		enc.writeNibbles(0, value>>4, value&0xF)
	default:
		enc.writeNibbles(0, value>>8, (value>>4)&0xF, value&0xF)
	}
}

type nibbleWriter struct {
	bytes   []byte
	halfful bool
}

func (w *nibbleWriter) writeNibbles(nibbles ...int) {
	for _, n := range nibbles {
		if w.halfful {
			w.bytes[len(w.bytes)-1] |= byte(n & 0xF)
			w.halfful = false
		} else {
			w.bytes = append(w.bytes, byte(n&0xF)<<4)
			w.halfful = true
		}
	}
}

func (w *nibbleWriter) alignToByte() {
	w.halfful = false
}

// BuildProgramStream wraps SPU packet payloads into a minimal MPEG-2 Program
// Stream: one pack header followed by private-stream-1 PES packets carrying
// the given substream. fragmentSize > 0 splits the concatenated packet bytes
// into PES payloads of that size.
func BuildProgramStream(t testing.TB, substreamID byte, packets [][]byte, fragmentSize int) []byte {
	t.Helper()

	var payload []byte
	for _, packet := range packets {
		payload = append(payload, packet...)
	}

	var fragments [][]byte
	if fragmentSize <= 0 {
		fragments = [][]byte{payload}
	} else {
		for len(payload) > 0 {
			n := fragmentSize
			if n > len(payload) {
				n = len(payload)
			}
			fragments = append(fragments, payload[:n])
			payload = payload[n:]
		}
	}

	stream := packHeader()
	for _, fragment := range fragments {
		stream = append(stream, pesPacket(substreamID, fragment)...)
	}
	return stream
}

// packHeader returns a 14-byte MPEG-2 pack header with no stuffing.
func packHeader() []byte {
	header := make([]byte, 14)
	header[2] = 0x01
	header[3] = 0xBA
	header[4] = 0x44 // '01' marker bits of the MPEG-2 SCR field
	header[13] = 0x00
	return header
}

// pesPacket wraps one SPU payload fragment in a private-stream-1 PES packet
// with an empty PES header-data block.
func pesPacket(substreamID byte, fragment []byte) []byte {
	body := []byte{0x80, 0x00, 0x00, substreamID}
	body = append(body, fragment...)
	packet := []byte{0x00, 0x00, 0x01, 0xBD}
	packet = binary.BigEndian.AppendUint16(packet, uint16(len(body)))
	return append(packet, body...)
}

package spu

import (
	"errors"
	"fmt"

	"discmenu/internal/geometry"
)

// Bitmap is the decoded SPU overlay: a grid of 2-bit colour indices placed at
// Origin in frame coordinates.
type Bitmap struct {
	Origin geometry.Rect
	Width  int
	Height int
	// Pixels is row-major, Height rows of Width values in 0..3.
	Pixels [][]byte
}

// ErrDecode marks an RLE stream the decoder could not make sense of.
var ErrDecode = errors.New("spu: rle decode failure")

// DecodeBitmap expands the packet's two interlaced RLE fields into a full
// bitmap. Field 1 supplies even rows, field 2 odd rows.
func DecodeBitmap(packet Packet, ctrl Control) (*Bitmap, error) {
	width := ctrl.Rect.Width()
	height := ctrl.Rect.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty display rectangle", ErrDecode)
	}

	pixels := make([][]byte, height)
	for i := range pixels {
		pixels[i] = make([]byte, width)
	}

	if err := decodeField(packet.Raw, ctrl.Offset1, width, (height+1)/2, 0, pixels); err != nil {
		return nil, err
	}
	if err := decodeField(packet.Raw, ctrl.Offset2, width, height/2, 1, pixels); err != nil {
		return nil, err
	}

	return &Bitmap{Origin: ctrl.Rect, Width: width, Height: height, Pixels: pixels}, nil
}

// At returns the colour index at (x, y) in bitmap-local coordinates.
func (b *Bitmap) At(x, y int) byte { return b.Pixels[y][x] }

// decodeField expands one interlaced field. rowStart selects even (0) or odd
// (1) target rows. The nibble pointer is byte-aligned after each row.
func decodeField(raw []byte, startOffset, width, rows, rowStart int, pixels [][]byte) error {
	if startOffset < 0 || startOffset >= len(raw) {
		return fmt.Errorf("%w: field offset %d outside packet", ErrDecode, startOffset)
	}
	reader := bitReader{data: raw, pos: startOffset * 8}
	for row := 0; row < rows; row++ {
		x := 0
		for x < width {
			run, color, err := decodeRun(&reader)
			if err != nil {
				return err
			}
			if run <= 0 || run > width-x {
				// Run 0 fills to end of row; anything longer than the row
				// remainder is clamped the same way, matching the consumed
				// format's fill-and-terminate behaviour.
				run = width - x
			}
			target := rowStart + row*2
			if target < len(pixels) {
				line := pixels[target]
				for i := x; i < x+run; i++ {
					line[i] = color
				}
			}
			x += run
		}
		reader.alignToByte()
	}
	return nil
}

// decodeRun reads one variable-length RLE token. Tokens grow a nibble at a
// time until the accumulated value reaches the threshold for its length:
// 4-bit tokens encode runs 1..3, 8-bit 4..15, 12-bit 16..63, 16-bit 64..255,
// and a value below 4 after four nibbles means fill-to-end-of-row.
func decodeRun(reader *bitReader) (run int, color byte, err error) {
	value := 0
	threshold := 1
	for value < threshold && threshold <= 0x40 {
		nibble, ok := reader.readBits(4)
		if !ok {
			return 0, 0, fmt.Errorf("%w: nibble stream exhausted", ErrDecode)
		}
		value = value<<4 | nibble
		threshold <<= 2
	}
	color = byte(value & 0x03)
	if value < 4 {
		return 0, color, nil
	}
	return value >> 2, color, nil
}

type bitReader struct {
	data []byte
	pos  int
}

// readBits returns the next count bits big-endian. It reports failure once
// the read position passes the end of the underlying data.
func (r *bitReader) readBits(count int) (int, bool) {
	if r.pos+count > len(r.data)*8 {
		return 0, false
	}
	value := 0
	for i := 0; i < count; i++ {
		byteIndex := r.pos / 8
		bitIndex := 7 - r.pos%8
		value = value<<1 | int(r.data[byteIndex]>>bitIndex)&0x01
		r.pos++
	}
	return value, true
}

func (r *bitReader) alignToByte() {
	if rem := r.pos % 8; rem != 0 {
		r.pos += 8 - rem
	}
}

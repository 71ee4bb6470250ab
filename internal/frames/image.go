package frames

import (
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Frame is one decoded menu frame with its grayscale plane cached for the
// page classifier.
type Frame struct {
	Path string
	Gray *image.Gray
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Gray.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Gray.Rect.Dy() }

// LoadFrame decodes a PNG frame and converts it to grayscale.
func LoadFrame(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame %s: %w", path, err)
	}
	defer file.Close()

	decoded, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return &Frame{Path: path, Gray: ToGray(decoded)}, nil
}

// ToGray converts any image to an 8-bit grayscale plane anchored at the
// origin.
func ToGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(gray, gray.Rect, src, bounds.Min, xdraw.Src)
	return gray
}

// MeanAbsDiff computes the mean absolute per-pixel difference between two
// equally sized grayscale frames. Differently sized frames compare as
// maximally different.
func MeanAbsDiff(a, b *image.Gray) float64 {
	if a.Rect.Dx() != b.Rect.Dx() || a.Rect.Dy() != b.Rect.Dy() {
		return 255
	}
	total := 0
	count := a.Rect.Dx() * a.Rect.Dy()
	if count == 0 {
		return 0
	}
	for y := 0; y < a.Rect.Dy(); y++ {
		rowA := a.Pix[y*a.Stride : y*a.Stride+a.Rect.Dx()]
		rowB := b.Pix[y*b.Stride : y*b.Stride+b.Rect.Dx()]
		for x, va := range rowA {
			d := int(va) - int(rowB[x])
			if d < 0 {
				d = -d
			}
			total += d
		}
	}
	return float64(total) / float64(count)
}

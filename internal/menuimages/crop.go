package menuimages

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"discmenu/internal/geometry"
)

// Crop padding fractions. Vertical padding is larger than horizontal:
// descenders and tall glyphs overflow a text line's box far more often than
// its left or right edge.
const (
	cropPadXFraction = 0.05
	cropPadYFraction = 0.10
)

// padForCrop grows the rectangle by the crop margins, clamped to the frame.
func padForCrop(rect geometry.Rect, frameWidth, frameHeight int) geometry.Rect {
	padX := int(float64(rect.Width()) * cropPadXFraction)
	padY := int(float64(rect.Height()) * cropPadYFraction)
	padded := geometry.Rect{
		X1: rect.X1 - padX,
		Y1: rect.Y1 - padY,
		X2: rect.X2 + padX,
		Y2: rect.Y2 + padY,
	}
	return padded.ClampTo(frameWidth, frameHeight)
}

// cropFrame cuts rect out of the representative frame image and writes it as
// a PNG at destPath.
func cropFrame(framePath string, rect geometry.Rect, destPath string) error {
	file, err := os.Open(framePath)
	if err != nil {
		return fmt.Errorf("open representative frame %s: %w", framePath, err)
	}
	defer file.Close()

	decoded, err := png.Decode(file)
	if err != nil {
		return fmt.Errorf("decode representative frame %s: %w", framePath, err)
	}

	bounds := decoded.Bounds()
	crop := image.NewRGBA(image.Rect(0, 0, rect.Width(), rect.Height()))
	src := image.Pt(bounds.Min.X+rect.X1, bounds.Min.Y+rect.Y1)
	xdraw.Draw(crop, crop.Rect, decoded, src, xdraw.Src)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("ensure crop directory: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create crop %s: %w", destPath, err)
	}
	defer out.Close()
	if err := png.Encode(out, crop); err != nil {
		return fmt.Errorf("encode crop %s: %w", destPath, err)
	}
	return out.Close()
}

// trimAway shrinks rect so it no longer intersects prior, preferring the
// smaller cut. Returns false when rect is (near-)contained in prior.
func trimAway(rect, prior geometry.Rect) (geometry.Rect, bool) {
	vertical := rect.VerticalOverlap(prior)
	horizontal := rect.HorizontalOverlap(prior)
	if vertical <= horizontal {
		if rect.CenterY() < prior.CenterY() {
			rect.Y2 = prior.Y1 - 1
		} else {
			rect.Y1 = prior.Y2 + 1
		}
	} else {
		if rect.CenterX() < prior.CenterX() {
			rect.X2 = prior.X1 - 1
		} else {
			rect.X1 = prior.X2 + 1
		}
	}
	if !rect.Valid() || rect.Width() < 2 || rect.Height() < 2 {
		return rect, false
	}
	return rect, true
}

package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"discmenu/internal/geometry"
)

// WriteGrayPNG writes a width x height PNG filled with the given gray level,
// darkening the listed rectangles to darkValue. It returns the path.
func WriteGrayPNG(t testing.TB, path string, width, height int, background byte, dark []geometry.Rect, darkValue byte) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: background})
		}
	}
	for _, rect := range dark {
		for y := rect.Y1; y <= rect.Y2 && y < height; y++ {
			for x := rect.X1; x <= rect.X2 && x < width; x++ {
				if x >= 0 && y >= 0 {
					img.SetGray(x, y, color.Gray{Y: darkValue})
				}
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

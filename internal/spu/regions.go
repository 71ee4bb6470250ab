package spu

import "discmenu/internal/geometry"

// Region is a maximal 4-connected patch of non-zero pixels, described by its
// bounding rectangle in display (frame) coordinates.
type Region struct {
	Rect   geometry.Rect
	Pixels int
}

// Regions extracts connected components from the bitmap in deterministic
// scanline order of each component's first-visited pixel. All non-zero colour
// indices count equally; zero is transparent.
func (b *Bitmap) Regions() []Region {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return nil
	}
	visited := make([]bool, b.Width*b.Height)
	var regions []Region
	var stack [][2]int

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			idx := y*b.Width + x
			if visited[idx] || b.Pixels[y][x] == 0 {
				continue
			}
			visited[idx] = true
			stack = append(stack[:0], [2]int{x, y})
			minX, maxX, minY, maxY := x, x, y, y
			count := 0
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur[0], cur[1]
				count++
				if cx < minX {
					minX = cx
				}
				if cx > maxX {
					maxX = cx
				}
				if cy < minY {
					minY = cy
				}
				if cy > maxY {
					maxY = cy
				}
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height {
						continue
					}
					nidx := ny*b.Width + nx
					if visited[nidx] || b.Pixels[ny][nx] == 0 {
						continue
					}
					visited[nidx] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}
			regions = append(regions, Region{
				Rect: geometry.Rect{
					X1: b.Origin.X1 + minX,
					Y1: b.Origin.Y1 + minY,
					X2: b.Origin.X1 + maxX,
					Y2: b.Origin.Y1 + maxY,
				},
				Pixels: count,
			})
		}
	}
	return regions
}

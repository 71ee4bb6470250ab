// Package fallback synthesizes button rectangles directly from the rendered
// menu frame when the SPU path comes up short: many home-authored menus draw
// buttons as dark bands on a lighter background.
package fallback

import (
	"image"

	"discmenu/internal/geometry"
)

// blockSize is the edge length of the sampling grid.
const blockSize = 8

// DefaultDarkThreshold is the grayscale mean below which a block counts as
// dark.
const DefaultDarkThreshold = 65

// minBlocksWide and minBlocksTall reject groups too small to hold readable
// button text (in blocks: 10x8=80 px wide, 2x8=16 px tall).
const (
	minBlocksWide = 10
	minBlocksTall = 2
)

// DarkRegions finds connected groups of dark blocks in the frame and returns
// their bounding rectangles in pixel coordinates. Groups touching the frame
// edge are rejected (they are backgrounds and letterbox bars, not buttons),
// and vertically overlapping duplicates are merged.
func DarkRegions(gray *image.Gray, threshold int) []geometry.Rect {
	if gray == nil {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultDarkThreshold
	}
	width := gray.Rect.Dx()
	height := gray.Rect.Dy()
	cols := width / blockSize
	rows := height / blockSize
	if cols == 0 || rows == 0 {
		return nil
	}

	dark := make([]bool, cols*rows)
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			if blockMean(gray, bx, by) < threshold {
				dark[by*cols+bx] = true
			}
		}
	}

	visited := make([]bool, cols*rows)
	var rects []geometry.Rect
	var stack [][2]int
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			idx := by*cols + bx
			if visited[idx] || !dark[idx] {
				continue
			}
			visited[idx] = true
			stack = append(stack[:0], [2]int{bx, by})
			minX, maxX, minY, maxY := bx, bx, by, by
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur[0], cur[1]
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
					if nx < 0 || nx >= cols || ny < 0 || ny >= rows {
						continue
					}
					nidx := ny*cols + nx
					if visited[nidx] || !dark[nidx] {
						continue
					}
					visited[nidx] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}

			// Edge-touching groups are page background, not buttons.
			if minX == 0 || minY == 0 || maxX == cols-1 || maxY == rows-1 {
				continue
			}
			if maxX-minX+1 < minBlocksWide || maxY-minY+1 < minBlocksTall {
				continue
			}
			rects = append(rects, geometry.Rect{
				X1: minX * blockSize,
				Y1: minY * blockSize,
				X2: (maxX+1)*blockSize - 1,
				Y2: (maxY+1)*blockSize - 1,
			})
		}
	}
	return dedupeVertical(rects)
}

func blockMean(gray *image.Gray, bx, by int) int {
	total := 0
	for y := 0; y < blockSize; y++ {
		row := (by*blockSize+y)*gray.Stride + bx*blockSize
		for x := 0; x < blockSize; x++ {
			total += int(gray.Pix[row+x])
		}
	}
	return total / (blockSize * blockSize)
}

// dedupeVertical merges rectangles whose vertical extents overlap while they
// also overlap horizontally; fragmented halves of one button band collapse
// into a single rectangle.
func dedupeVertical(rects []geometry.Rect) []geometry.Rect {
	var merged []geometry.Rect
	for _, rect := range rects {
		combined := false
		for i, existing := range merged {
			if rect.VerticalOverlap(existing) > 0 && rect.HorizontalOverlap(existing) > 0 {
				merged[i] = existing.Union(rect)
				combined = true
				break
			}
		}
		if !combined {
			merged = append(merged, rect)
		}
	}
	return merged
}

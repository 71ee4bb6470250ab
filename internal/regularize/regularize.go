// Package regularize reconciles the rectangle count of a menu page with the
// navigation layer's expected button count and normalizes rectangle heights,
// using IQR fences instead of fixed pixel thresholds so the rules track each
// page's own geometry.
package regularize

import (
	"sort"

	"discmenu/internal/geometry"
)

// Page trims surplus rectangles down toward expected and normalizes heights.
// Filters apply strictly in order and each one only fires while the count
// still exceeds expected:
//
//  1. drop rectangles whose width AND height are both low outliers,
//  2. drop low-height outliers while the remainder stays >= expected,
//  3. keep the expected widest rectangles.
//
// Regardless of count, inlier heights are then normalized to their median,
// preserving each rectangle's Y-centre. Height outliers stay untouched: a
// rectangle spanning two text lines may be legitimate.
func Page(rects []geometry.Rect, expected int) []geometry.Rect {
	result := append([]geometry.Rect(nil), rects...)

	if expected > 0 && len(result) > expected {
		result = dropSizeOutliers(result)
	}
	if expected > 0 && len(result) > expected {
		result = dropHeightOutliers(result, expected)
	}
	if expected > 0 && len(result) > expected {
		result = keepWidest(result, expected)
	}

	return normalizeHeights(result)
}

// dropSizeOutliers removes rectangles that are low outliers on both axes:
// navigation arrows and small widgets, not buttons.
func dropSizeOutliers(rects []geometry.Rect) []geometry.Rect {
	widths := make([]int, len(rects))
	heights := make([]int, len(rects))
	for i, r := range rects {
		widths[i] = r.Width()
		heights[i] = r.Height()
	}
	widthQ := geometry.ComputeQuartiles(widths)
	heightQ := geometry.ComputeQuartiles(heights)

	kept := rects[:0]
	for i, r := range rects {
		lowWidth := float64(widths[i]) < widthQ.LowFence()
		lowHeight := float64(heights[i]) < heightQ.LowFence()
		if lowWidth && lowHeight {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// dropHeightOutliers removes low-height outliers one by one, shortest first,
// never cutting below expected.
func dropHeightOutliers(rects []geometry.Rect, expected int) []geometry.Rect {
	heights := make([]int, len(rects))
	for i, r := range rects {
		heights[i] = r.Height()
	}
	fence := geometry.ComputeQuartiles(heights).LowFence()

	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return heights[order[a]] < heights[order[b]] })

	dropped := make(map[int]bool)
	remaining := len(rects)
	for _, idx := range order {
		if remaining <= expected {
			break
		}
		if float64(heights[idx]) < fence {
			dropped[idx] = true
			remaining--
		}
	}

	kept := rects[:0]
	for i, r := range rects {
		if !dropped[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

// keepWidest keeps the expected widest rectangles, preserving input order.
func keepWidest(rects []geometry.Rect, expected int) []geometry.Rect {
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rects[order[a]].Width() > rects[order[b]].Width()
	})
	keep := make(map[int]bool, expected)
	for _, idx := range order[:expected] {
		keep[idx] = true
	}

	kept := rects[:0]
	for i, r := range rects {
		if keep[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

// normalizeHeights resizes IQR height inliers to the median inlier height
// around their Y-centre.
func normalizeHeights(rects []geometry.Rect) []geometry.Rect {
	if len(rects) == 0 {
		return rects
	}
	heights := make([]int, len(rects))
	for i, r := range rects {
		heights[i] = r.Height()
	}
	quartiles := geometry.ComputeQuartiles(heights)

	var inlierHeights []int
	for _, h := range heights {
		if float64(h) >= quartiles.LowFence() && float64(h) <= quartiles.HighFence() {
			inlierHeights = append(inlierHeights, h)
		}
	}
	if len(inlierHeights) == 0 {
		return rects
	}
	target := int(geometry.Median(inlierHeights))
	if target < 1 {
		target = 1
	}

	normalized := make([]geometry.Rect, len(rects))
	for i, r := range rects {
		h := heights[i]
		if h == target || float64(h) < quartiles.LowFence() || float64(h) > quartiles.HighFence() {
			normalized[i] = r
			continue
		}
		centerY := (r.Y1 + r.Y2) / 2
		y1 := centerY - target/2
		normalized[i] = geometry.Rect{X1: r.X1, Y1: y1, X2: r.X2, Y2: y1 + target - 1}
	}
	return normalized
}

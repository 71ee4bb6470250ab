package cluster

import (
	"math"

	"discmenu/internal/geometry"
)

// Gutter detection parameters. The detector is deliberately conservative: a
// false gutter on a single-column page splits every button in half, while a
// missed gutter on a two-column page only degrades ordering.
const (
	gutterSearchLo    = 0.40
	gutterSearchHi    = 0.60
	gutterMinDepth    = 0.60
	gutterMinWidth    = 20
	gutterMinBalance  = 0.25
	gutterSmoothSigma = 4.0
)

// DetectGutter looks for a page-wide vertical gap splitting the glyph boxes
// into two columns. It returns the gutter centre X and true on acceptance.
func DetectGutter(glyphs []geometry.Rect, frameWidth int) (int, bool) {
	if len(glyphs) == 0 || frameWidth <= 0 {
		return 0, false
	}

	projection := buildProjection(glyphs, frameWidth)
	smoothed := gaussianSmooth(projection, gutterSmoothSigma)

	lo := int(float64(frameWidth) * gutterSearchLo)
	hi := int(float64(frameWidth) * gutterSearchHi)
	if hi-lo < gutterMinWidth {
		return 0, false
	}

	valleyX := lo
	valleyVal := smoothed[lo]
	for x := lo + 1; x <= hi && x < len(smoothed); x++ {
		if smoothed[x] < valleyVal {
			valleyVal = smoothed[x]
			valleyX = x
		}
	}

	mean := 0.0
	for _, v := range smoothed {
		mean += v
	}
	mean /= float64(len(smoothed))
	if mean <= 0 {
		return 0, false
	}

	// Relative depth: the valley must fall to at most 40% of the mean
	// projection height.
	if valleyVal > mean*(1-gutterMinDepth) {
		return 0, false
	}

	// Valley width: contiguous run of near-minimum samples around the centre.
	tolerance := valleyVal + mean*0.05
	width := 1
	for x := valleyX - 1; x >= 0 && smoothed[x] <= tolerance; x-- {
		width++
	}
	for x := valleyX + 1; x < len(smoothed) && smoothed[x] <= tolerance; x++ {
		width++
	}
	if width < gutterMinWidth {
		return 0, false
	}

	// Density balance: both sides must carry comparable glyph mass.
	var left, right float64
	for x := 0; x < valleyX; x++ {
		left += smoothed[x]
	}
	for x := valleyX + 1; x < len(smoothed); x++ {
		right += smoothed[x]
	}
	if left <= 0 || right <= 0 {
		return 0, false
	}
	balance := math.Min(left, right) / math.Max(left, right)
	if balance < gutterMinBalance {
		return 0, false
	}

	return valleyX, true
}

// buildProjection accumulates glyph height at every X column each glyph
// covers, so a column gap common to all rows shows up as a deep valley.
func buildProjection(glyphs []geometry.Rect, frameWidth int) []float64 {
	projection := make([]float64, frameWidth)
	for _, glyph := range glyphs {
		x1 := clampInt(glyph.X1, 0, frameWidth-1)
		x2 := clampInt(glyph.X2, x1, frameWidth-1)
		h := float64(glyph.Height())
		for x := x1; x <= x2; x++ {
			projection[x] += h
		}
	}
	return projection
}

// gaussianSmooth convolves with a truncated Gaussian kernel (3 sigma).
func gaussianSmooth(values []float64, sigma float64) []float64 {
	radius := int(math.Ceil(sigma * 3))
	if radius < 1 {
		return append([]float64(nil), values...)
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	smoothed := make([]float64, len(values))
	for x := range values {
		acc := 0.0
		weight := 0.0
		for i, k := range kernel {
			idx := x + i - radius
			if idx < 0 || idx >= len(values) {
				continue
			}
			acc += values[idx] * k
			weight += k
		}
		if weight > 0 {
			smoothed[x] = acc / weight
		}
	}
	return smoothed
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package align corrects the systematic vertical offset between SPU overlay
// coordinates and the rendered menu frame, using OCR-reported text-line boxes
// as the reference geometry.
package align

import (
	"log/slog"

	"discmenu/internal/geometry"
	"discmenu/internal/logging"
)

// minPairs is the number of matched SPU/OCR pairs required before a shift is
// trusted.
const minPairs = 3

// minOverlapFraction is the horizontal overlap (relative to the SPU rect's
// width) required for a pair to count.
const minOverlapFraction = 0.5

// maxShiftFraction bounds the accepted shift to a fraction of frame height;
// anything larger means the pairing went wrong, not the authoring.
const maxShiftFraction = 0.2

// VerticalShift computes the median Y delta between each SPU rectangle and
// the OCR text line it overlaps most. It returns the shift in pixels and
// whether it passed the pairing and plausibility checks.
func VerticalShift(spuRects, lineBoxes []geometry.Rect, frameHeight int, logger *slog.Logger) (int, bool) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(spuRects) == 0 || len(lineBoxes) == 0 || frameHeight <= 0 {
		return 0, false
	}

	var deltas []float64
	for _, rect := range spuRects {
		best := -1
		bestOverlap := 0
		for i, line := range lineBoxes {
			overlap := rect.HorizontalOverlap(line)
			if overlap < bestOverlap || overlap == 0 {
				continue
			}
			// Ties on horizontal overlap (columns of equally wide lines)
			// resolve to the vertically nearest line.
			if overlap == bestOverlap && best >= 0 {
				if absF(line.CenterY()-rect.CenterY()) >= absF(lineBoxes[best].CenterY()-rect.CenterY()) {
					continue
				}
			}
			bestOverlap = overlap
			best = i
		}
		if best < 0 {
			continue
		}
		if float64(bestOverlap) < minOverlapFraction*float64(rect.Width()) {
			continue
		}
		deltas = append(deltas, lineBoxes[best].CenterY()-rect.CenterY())
	}

	if len(deltas) < minPairs {
		logger.Debug("insufficient spu/ocr pairs for alignment",
			logging.Int("pairs", len(deltas)))
		return 0, false
	}

	median := geometry.MedianFloat(deltas)
	shift := int(median + roundBias(median))
	limit := int(maxShiftFraction * float64(frameHeight))
	if shift > limit || shift < -limit {
		logger.Debug("implausible vertical shift rejected",
			logging.Int("shift", shift),
			logging.Int("limit", limit))
		return 0, false
	}
	return shift, true
}

// Apply shifts every rectangle by dy, clamped to the frame. A rectangle that
// the shift moves entirely outside the frame is dropped.
func Apply(rects []geometry.Rect, dy, frameWidth, frameHeight int) []geometry.Rect {
	shifted := make([]geometry.Rect, 0, len(rects))
	for _, rect := range rects {
		moved := rect.Translate(0, dy).ClampTo(frameWidth, frameHeight)
		if moved.Valid() {
			shifted = append(shifted, moved)
		}
	}
	return shifted
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func roundBias(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

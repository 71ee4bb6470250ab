package geometry

import "fmt"

// Rect is an axis-aligned rectangle in integer pixel units. All four edges
// are inclusive: a single pixel is represented as X1==X2 and Y1==Y2.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewRect builds a rectangle from two corner points, normalizing the corner
// order so that X1 <= X2 and Y1 <= Y2.
func NewRect(x1, y1, x2, y2 int) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the inclusive pixel width.
func (r Rect) Width() int { return r.X2 - r.X1 + 1 }

// Height returns the inclusive pixel height.
func (r Rect) Height() int { return r.Y2 - r.Y1 + 1 }

// Area returns the pixel area.
func (r Rect) Area() int { return r.Width() * r.Height() }

// CenterX returns the horizontal centre.
func (r Rect) CenterX() float64 { return (float64(r.X1) + float64(r.X2)) / 2 }

// CenterY returns the vertical centre.
func (r Rect) CenterY() float64 { return (float64(r.Y1) + float64(r.Y2)) / 2 }

// Valid reports whether the corners are ordered.
func (r Rect) Valid() bool { return r.X1 <= r.X2 && r.Y1 <= r.Y2 }

// Translate returns a copy shifted by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Overlaps reports whether the two rectangles share at least one pixel.
func (r Rect) Overlaps(other Rect) bool {
	return r.X1 <= other.X2 && other.X1 <= r.X2 && r.Y1 <= other.Y2 && other.Y1 <= r.Y2
}

// HorizontalOverlap returns the number of shared X columns, or 0 when the
// rectangles do not overlap horizontally.
func (r Rect) HorizontalOverlap(other Rect) int {
	lo := max(r.X1, other.X1)
	hi := min(r.X2, other.X2)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// VerticalOverlap returns the number of shared Y rows, or 0 when the
// rectangles do not overlap vertically.
func (r Rect) VerticalOverlap(other Rect) int {
	lo := max(r.Y1, other.Y1)
	hi := min(r.Y2, other.Y2)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// Union returns the smallest rectangle covering both inputs.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		X1: min(r.X1, other.X1),
		Y1: min(r.Y1, other.Y1),
		X2: max(r.X2, other.X2),
		Y2: max(r.Y2, other.Y2),
	}
}

// ClampTo limits the rectangle to [0, width) x [0, height). The result may be
// invalid when the input lies entirely outside the bounds.
func (r Rect) ClampTo(width, height int) Rect {
	clamped := r
	if clamped.X1 < 0 {
		clamped.X1 = 0
	}
	if clamped.Y1 < 0 {
		clamped.Y1 = 0
	}
	if clamped.X2 > width-1 {
		clamped.X2 = width - 1
	}
	if clamped.Y2 > height-1 {
		clamped.Y2 = height - 1
	}
	return clamped
}

// Inside reports whether the rectangle lies entirely within [0, width) x [0, height).
func (r Rect) Inside(width, height int) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 < width && r.Y2 < height
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

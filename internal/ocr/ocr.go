package ocr

import (
	"context"

	"discmenu/internal/geometry"
)

// Result is what the pipeline needs from one recognized image: the plain
// text and the bounding box of every detected text line.
type Result struct {
	Text       string
	LineBoxes  []geometry.Rect
	Confidence float64
}

// Engine is the OCR capability consumed by the alignment and labeling
// stages: one encoded image in, text plus line geometry out. Implementations
// must honor ctx cancellation.
type Engine interface {
	Recognize(ctx context.Context, imagePNG []byte) (Result, error)
	Close() error
}

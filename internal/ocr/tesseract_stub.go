//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrNotEnabled is returned when OCR is invoked in a binary built without
// the "ocr" tag. Rebuild with -tags ocr (and Tesseract installed) to enable.
var ErrNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

// TesseractEngine is the stub used when OCR support is not compiled in.
type TesseractEngine struct{}

// NewTesseract fails: OCR support is not compiled into this binary.
func NewTesseract(string) (*TesseractEngine, error) {
	return nil, ErrNotEnabled
}

func (e *TesseractEngine) Recognize(context.Context, []byte) (Result, error) {
	return Result{}, ErrNotEnabled
}

func (e *TesseractEngine) Close() error { return nil }

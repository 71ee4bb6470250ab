//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"discmenu/internal/geometry"
)

// TesseractEngine wraps gosseract. It requires the Tesseract C library at
// build and run time; the repository builds with the "ocr" tag to enable it.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseract creates an engine configured for the given language (e.g.
// "eng", or "eng+deu" for multiple trained sets).
func NewTesseract(language string) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	language = strings.TrimSpace(language)
	if language != "" {
		if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set ocr language: %w", err)
		}
	}
	return &TesseractEngine{client: client}, nil
}

// Recognize runs Tesseract over the PNG payload and returns the recognized
// text together with text-line bounding boxes.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePNG []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := e.client.SetImageFromBytes(imagePNG); err != nil {
		return Result{}, fmt.Errorf("set ocr image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("ocr text: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Result{}, fmt.Errorf("ocr line boxes: %w", err)
	}

	result := Result{Text: strings.TrimSpace(text)}
	var confidenceSum float64
	for _, box := range boxes {
		rect := box.Box
		if rect.Dx() <= 0 || rect.Dy() <= 0 {
			continue
		}
		result.LineBoxes = append(result.LineBoxes, geometry.Rect{
			X1: rect.Min.X,
			Y1: rect.Min.Y,
			X2: rect.Max.X - 1,
			Y2: rect.Max.Y - 1,
		})
		confidenceSum += box.Confidence
	}
	if len(result.LineBoxes) > 0 {
		result.Confidence = confidenceSum / float64(len(result.LineBoxes)) / 100
	}
	return result, nil
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

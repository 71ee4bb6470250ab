// Package ocr defines the text-recognition capability the pipeline consumes
// and its Tesseract-backed implementation. The real engine sits behind the
// "ocr" build tag because gosseract needs cgo and an installed Tesseract;
// without the tag a stub reports OCR as unavailable and the pipeline treats
// it like any other failed external tool.
package ocr

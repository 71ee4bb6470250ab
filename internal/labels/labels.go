// Package labels OCRs the cropped button images emitted by the menu_images
// stage and turns the recognized text into clean, filesystem-safe episode
// labels. Labeling never affects geometry; a failed recognition just yields
// an untitled placeholder for that entry.
package labels

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"discmenu/internal/artifacts"
	"discmenu/internal/logging"
	"discmenu/internal/ocr"
	"discmenu/internal/services"
)

// StageName identifies this stage in artifacts, logs, and errors.
const StageName = "labels"

// Stage recognizes text in button crops.
type Stage struct {
	engine  ocr.Engine
	timeout time.Duration
	logger  *slog.Logger
}

// New assembles the stage. A nil engine makes every entry untitled, which
// keeps the pipeline usable on builds without OCR support.
func New(engine ocr.Engine, timeout time.Duration, logger *slog.Logger) *Stage {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Stage{
		engine:  engine,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, StageName),
	}
}

// Run labels every entry of the menu_images artifact and writes labels.json
// into outDir.
func (s *Stage) Run(ctx context.Context, images *artifacts.MenuImages, outDir string) (*artifacts.Labels, error) {
	result := &artifacts.Labels{}
	for _, entry := range images.Entries {
		labelEntry := s.labelEntry(ctx, entry)
		result.Results = append(result.Results, labelEntry)
	}

	artifactPath := filepath.Join(outDir, "labels.json")
	if err := artifacts.Write(artifactPath, outDir, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Stage) labelEntry(ctx context.Context, entry artifacts.ButtonEntry) artifacts.LabelEntry {
	raw, confidence := s.recognize(ctx, entry)
	label := Sanitize(raw)
	if label == "" {
		label = "untitled_" + entry.EntryID
	}
	return artifacts.LabelEntry{
		EntryID:    entry.EntryID,
		RawText:    raw,
		Label:      label,
		Confidence: confidence,
		Source:     string(entry.Source),
	}
}

func (s *Stage) recognize(ctx context.Context, entry artifacts.ButtonEntry) (string, float64) {
	if s.engine == nil {
		return "", 0
	}
	data, err := os.ReadFile(entry.ImagePath)
	if err != nil {
		s.logger.Warn("button crop unreadable",
			logging.String("entry_id", entry.EntryID),
			logging.Error(err))
		return "", 0
	}
	ocrCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	recognized, err := s.engine.Recognize(ocrCtx, data)
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalTool, StageName, "recognize", entry.EntryID, err)
		s.logger.Warn("ocr failed for entry", logging.Error(wrapped))
		return "", 0
	}
	return recognized.Text, recognized.Confidence
}

// Sanitize normalizes recognized text into a label usable as a filename
// component: Unicode NFKC, collapsed whitespace, and no path-hostile runes.
func Sanitize(text string) string {
	normalized := norm.NFKC.String(text)
	normalized = strings.Join(strings.Fields(normalized), " ")

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case unicode.IsControl(r):
			// skip
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	const maxLabelRunes = 120
	if runes := []rune(cleaned); len(runes) > maxLabelRunes {
		cleaned = strings.TrimSpace(string(runes[:maxLabelRunes]))
	}
	return cleaned
}

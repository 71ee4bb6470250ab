package menuimages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"discmenu/internal/align"
	"discmenu/internal/artifacts"
	"discmenu/internal/cluster"
	"discmenu/internal/config"
	"discmenu/internal/fallback"
	"discmenu/internal/frames"
	"discmenu/internal/geometry"
	"discmenu/internal/logging"
	"discmenu/internal/ocr"
	"discmenu/internal/regularize"
	"discmenu/internal/runstore"
	"discmenu/internal/services"
)

// StageName identifies this stage in artifacts, logs, and errors.
const StageName = "menu_images"

// Stage discovers button rectangles for every declared menu and emits one
// cropped PNG plus one ButtonEntry per button.
type Stage struct {
	cfg    *config.Config
	source Source
	engine ocr.Engine
	store  *runstore.Store
	runID  string
	logger *slog.Logger
}

// New assembles the stage. engine may be nil (no OCR available): alignment
// is skipped and entries are still emitted. store may be nil in tests.
func New(cfg *config.Config, source Source, engine ocr.Engine, store *runstore.Store, runID string, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		source: source,
		engine: engine,
		store:  store,
		runID:  runID,
		logger: logging.NewComponentLogger(logger, StageName),
	}
}

// Run processes every menu and writes the menu_images.json artifact into
// outDir. Menu-level failures mark that menu failed and continue; only
// invariant violations and artifact schema errors abort the run.
func (s *Stage) Run(ctx context.Context, outDir string) (*artifacts.MenuImages, error) {
	result := &artifacts.MenuImages{}

	for _, menuID := range s.source.ListMenus() {
		menuCtx := services.WithMenuID(ctx, menuID)
		logger := logging.WithContext(menuCtx, s.logger)

		record, err := s.beginMenu(menuCtx, menuID)
		if err != nil {
			return nil, err
		}

		entries, stats, menuErr := s.processMenu(menuCtx, menuID, outDir, logger)
		switch {
		case menuErr != nil && services.IsFatal(menuErr):
			s.finishMenu(menuCtx, record, runstore.StatusFailed, stats, menuErr)
			return nil, menuErr
		case menuErr != nil:
			logger.Error("menu failed", logging.Error(menuErr))
			result.Warnings = append(result.Warnings, artifacts.MenuWarning{
				MenuID:  menuID,
				Message: menuErr.Error(),
			})
			s.finishMenu(menuCtx, record, runstore.StatusFailed, stats, menuErr)
		case len(entries) == 0:
			logger.Warn("menu produced no button rectangles",
				logging.String(logging.FieldEventType, "no_buttons"))
			result.Warnings = append(result.Warnings, artifacts.MenuWarning{
				MenuID:  menuID,
				Message: "no button rectangles found by spu or fallback",
			})
			s.finishMenu(menuCtx, record, runstore.StatusNoButtons, stats, nil)
		default:
			result.Entries = append(result.Entries, entries...)
			s.finishMenu(menuCtx, record, runstore.StatusCompleted, stats, nil)
		}
	}

	artifactPath := filepath.Join(outDir, "menu_images.json")
	if err := artifacts.Write(artifactPath, outDir, result); err != nil {
		return nil, err
	}
	return result, nil
}

// menuStats summarizes one menu for the run store.
type menuStats struct {
	pages    int
	rects    int
	fallback int
}

// processMenu runs the per-menu state machine: demux, reassemble, decode,
// cluster, sample frames, match pages, align, regularize, emit.
func (s *Stage) processMenu(ctx context.Context, menuID, outDir string, logger *slog.Logger) ([]artifacts.ButtonEntry, menuStats, error) {
	var stats menuStats

	psData, err := s.source.OpenMenuBytes(menuID)
	if err != nil {
		return nil, stats, err
	}

	params := cluster.Params{
		LargeMinWidth:     s.cfg.Menu.LargeMinWidth,
		LargeMinHeight:    s.cfg.Menu.LargeMinHeight,
		GlyphModeMinCount: s.cfg.Menu.GlyphModeMinCount,
		LineTolerance:     s.cfg.Menu.LineTolerance,
		GlyphGapMax:       s.cfg.Menu.GlyphGapMax,
		MinButtonWidth:    s.cfg.Menu.MinButtonWidth,
		MinButtonHeight:   s.cfg.Menu.MinButtonHeight,
	}
	spuPages := extractSPURects(psData, params, logger)

	frameDir := filepath.Join(s.cfg.Paths.WorkDir, "frames", menuID)
	framePaths, err := s.source.FrameSample(ctx, menuID, frameDir)
	if err != nil {
		return nil, stats, err
	}
	pages, err := frames.ClassifyPages(framePaths, s.cfg.Menu.PageDiffThreshold, logger)
	if err != nil {
		return nil, stats, services.Wrap(services.ErrTransient, StageName, "classify pages", menuID, err)
	}
	stats.pages = len(pages)

	if len(pages) != len(spuPages) {
		logger.Warn("page/packet count mismatch",
			logging.String(logging.FieldEventType, "page_mismatch"),
			logging.Int("rendered_pages", len(pages)),
			logging.Int("spu_packets", len(spuPages)))
	}

	expected := s.source.ExpectedButtonCount(menuID)
	var entries []artifacts.ButtonEntry
	entrySeq := 0

	for _, page := range pages {
		var rects []geometry.Rect
		if page.PageIndex < len(spuPages) {
			rects = spuPages[page.PageIndex].Rects
		}
		frame := page.Representative
		width, height := frame.Width(), frame.Height()

		rects = s.alignPage(ctx, rects, frame, logger)
		rects = regularize.Page(rects, expected)

		sources := make([]artifacts.RectSource, len(rects))
		for i := range sources {
			sources[i] = artifacts.SourceSPU
		}
		if len(rects) < expected {
			added := s.fallbackRects(frame, rects, expected, logger)
			for _, rect := range added {
				rects = append(rects, rect)
				sources = append(sources, artifacts.SourceFallback)
			}
		}

		// Pad before resolving overlaps so the crop margins cannot
		// reintroduce an overlap between emitted entries.
		padded := make([]geometry.Rect, 0, len(rects))
		paddedSources := make([]artifacts.RectSource, 0, len(rects))
		for i, rect := range rects {
			grown := padForCrop(rect, width, height)
			if !grown.Valid() || !grown.Inside(width, height) {
				logger.Debug("discarding rectangle outside frame bounds",
					logging.Int(logging.FieldPage, page.PageIndex),
					logging.String("rect", rect.String()))
				continue
			}
			padded = append(padded, grown)
			paddedSources = append(paddedSources, sources[i])
		}
		rects, sources = resolveOverlapsTagged(padded, paddedSources)

		for i, rect := range rects {
			entrySeq++
			entryID := fmt.Sprintf("%s-e%02d", menuID, entrySeq)
			imagePath := filepath.Join(outDir, StageName, menuID, entryID+".png")
			if err := artifacts.EnsureWithin(imagePath, outDir); err != nil {
				return nil, stats, err
			}
			if err := cropFrame(frame.Path, rect, imagePath); err != nil {
				return nil, stats, services.Wrap(services.ErrTransient, StageName, "crop button", entryID, err)
			}
			entries = append(entries, artifacts.ButtonEntry{
				EntryID:   entryID,
				MenuID:    menuID,
				PageIndex: page.PageIndex,
				Rect:      rect,
				ImagePath: imagePath,
				Source:    sources[i],
			})
			if sources[i] == artifacts.SourceFallback {
				stats.fallback++
			}
		}
	}

	stats.rects = len(entries)
	return entries, stats, nil
}

// alignPage corrects the page's vertical SPU offset against OCR text lines
// on the representative frame. OCR being unavailable or failing only skips
// alignment; the rectangles themselves are kept.
func (s *Stage) alignPage(ctx context.Context, rects []geometry.Rect, frame *frames.Frame, logger *slog.Logger) []geometry.Rect {
	if s.engine == nil || len(rects) == 0 {
		return rects
	}
	pngBytes, err := os.ReadFile(frame.Path)
	if err != nil {
		logger.Debug("skipping alignment: representative frame unreadable", logging.Error(err))
		return rects
	}
	ocrCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout())
	defer cancel()
	recognized, err := s.engine.Recognize(ocrCtx, pngBytes)
	if err != nil {
		logger.Debug("skipping alignment: ocr unavailable", logging.Error(err))
		return rects
	}
	shift, ok := align.VerticalShift(rects, recognized.LineBoxes, frame.Height(), logger)
	if !ok {
		return rects
	}
	logger.Debug("applying vertical alignment", logging.Int("shift", shift))
	return align.Apply(rects, shift, frame.Width(), frame.Height())
}

// fallbackRects finds dark-band rectangles on the representative frame that
// do not collide with the SPU-derived set, up to the expected count.
func (s *Stage) fallbackRects(frame *frames.Frame, existing []geometry.Rect, expected int, logger *slog.Logger) []geometry.Rect {
	candidates := fallback.DarkRegions(frame.Gray, s.cfg.Menu.DarkBlockThreshold)
	var added []geometry.Rect
	for _, candidate := range candidates {
		if len(existing)+len(added) >= expected {
			break
		}
		collides := false
		for _, rect := range existing {
			if candidate.Overlaps(rect) {
				collides = true
				break
			}
		}
		if !collides {
			added = append(added, candidate)
		}
	}
	if len(added) > 0 {
		logger.Info("fallback dark-region detector supplied rectangles",
			logging.String(logging.FieldEventType, "fallback_used"),
			logging.Int("count", len(added)))
	}
	return added
}

func (s *Stage) ocrTimeout() time.Duration {
	seconds := s.cfg.Tools.OCRTimeout
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

func (s *Stage) beginMenu(ctx context.Context, menuID string) (*runstore.MenuRun, error) {
	if s.store == nil {
		return nil, nil
	}
	record, err := s.store.NewMenu(ctx, s.runID, menuID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, StageName, "record menu", menuID, err)
	}
	record.Status = runstore.StatusProcessing
	if err := s.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(services.ErrTransient, StageName, "record menu", menuID, err)
	}
	return record, nil
}

func (s *Stage) finishMenu(ctx context.Context, record *runstore.MenuRun, status runstore.Status, stats menuStats, menuErr error) {
	if s.store == nil || record == nil {
		return
	}
	record.Status = status
	record.PageCount = stats.pages
	record.RectCount = stats.rects
	record.FallbackCount = stats.fallback
	if menuErr != nil {
		record.ErrorMessage = menuErr.Error()
	}
	if err := s.store.Update(ctx, record); err != nil {
		s.logger.Error("failed to persist menu state", logging.Error(err))
	}
}

// resolveOverlapsTagged enforces the pairwise non-overlap invariant within a
// page. Earlier rectangles win; a later one is trimmed away from them or
// dropped when nothing useful survives. Source tags stay attached.
func resolveOverlapsTagged(rects []geometry.Rect, sources []artifacts.RectSource) ([]geometry.Rect, []artifacts.RectSource) {
	var keptRects []geometry.Rect
	var keptSources []artifacts.RectSource
	for i, rect := range rects {
		ok := true
		for _, prior := range keptRects {
			if !rect.Overlaps(prior) {
				continue
			}
			trimmed, valid := trimAway(rect, prior)
			if !valid {
				ok = false
				break
			}
			rect = trimmed
		}
		if ok {
			keptRects = append(keptRects, rect)
			keptSources = append(keptSources, sources[i])
		}
	}
	return keptRects, keptSources
}

// Package pipeline sequences the discmenu stages over one disc's output
// directory: required-input assertion, cached-stage skipping, per-stage
// metadata, and an exclusive directory lock so two runs cannot interleave
// artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"discmenu/internal/artifacts"
	"discmenu/internal/config"
	"discmenu/internal/fileutil"
	"discmenu/internal/frames"
	"discmenu/internal/labels"
	"discmenu/internal/logging"
	"discmenu/internal/menuimages"
	"discmenu/internal/ocr"
	"discmenu/internal/runstore"
	"discmenu/internal/services"
)

// Stage names in execution order.
var StageOrder = []string{
	menuimages.StageName,
	labels.StageName,
	"finalize",
}

// stageOutputs maps each stage to the artifact it writes.
var stageOutputs = map[string]string{
	menuimages.StageName: "menu_images.json",
	labels.StageName:     "labels.json",
	"finalize":           "manifest.json",
}

// stageInputs maps each stage to the upstream artifacts it requires.
var stageInputs = map[string][]string{
	menuimages.StageName: {"menus.json"},
	labels.StageName:     {"menu_images.json"},
	"finalize":           {"menu_images.json", "labels.json"},
}

// Options selects what to run and how.
type Options struct {
	// Stage restricts the run to a single named stage; empty runs them all.
	Stage string
	// Force re-executes stages whose output artifact already exists.
	Force bool
}

// Runner executes the stage sequence for one output directory.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *runstore.Store
	outDir string
	runID  string
}

// NewRunner prepares a pipeline run rooted at outDir. The run store lives
// alongside the artifacts so `discmenu status` can inspect it later.
func NewRunner(cfg *config.Config, outDir string, logger *slog.Logger) (*Runner, error) {
	store, err := runstore.Open(outDir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "open run store", "", err)
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		store:  store,
		outDir: outDir,
		runID:  uuid.NewString(),
	}, nil
}

// Close releases the run store.
func (r *Runner) Close() error {
	return r.store.Close()
}

// RunID returns the identifier assigned to this run.
func (r *Runner) RunID() string { return r.runID }

// Run executes the selected stages. The whole run holds an exclusive lock on
// the output directory.
func (r *Runner) Run(ctx context.Context, opts Options) (*artifacts.Manifest, error) {
	if opts.Stage != "" && !knownStage(opts.Stage) {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "select stage", opts.Stage, nil)
	}

	lock := flock.New(filepath.Join(r.outDir, ".discmenu.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock output directory", r.outDir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock output directory",
			r.outDir+" is in use by another run", nil)
	}
	defer func() { _ = lock.Unlock() }()

	ctx = services.WithRunID(ctx, r.runID)
	logger := logging.WithContext(ctx, r.logger)

	selected := StageOrder
	if opts.Stage != "" {
		selected = []string{opts.Stage}
	}

	stageStatus := make(map[string]string, len(selected))
	var manifest *artifacts.Manifest
	for _, stage := range selected {
		if err := r.assertInputs(stage); err != nil {
			return nil, err
		}

		outputPath := filepath.Join(r.outDir, stageOutputs[stage])
		if !opts.Force && stage != "finalize" && fileutil.FileExists(outputPath) {
			if err := r.revalidate(stage, outputPath); err != nil {
				return nil, err
			}
			logger.Info("stage cached",
				logging.String(logging.FieldStage, stage),
				logging.String(logging.FieldEventType, "stage_cached"))
			stageStatus[stage] = "cached"
			continue
		}

		started := time.Now().UTC()
		logger.Info("stage started",
			logging.String(logging.FieldStage, stage),
			logging.String(logging.FieldEventType, "stage_start"))

		var stageErr error
		switch stage {
		case menuimages.StageName:
			stageErr = r.runMenuImages(ctx)
		case labels.StageName:
			stageErr = r.runLabels(ctx)
		case "finalize":
			stageStatus[stage] = "ok"
			manifest, stageErr = r.runFinalize(stageStatus)
		}
		if stageErr != nil {
			logger.Error("stage failed",
				logging.String(logging.FieldStage, stage),
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.Error(stageErr))
			return nil, stageErr
		}
		stageStatus[stage] = "ok"
		r.writeStageMeta(stage, started)

		logger.Info("stage completed",
			logging.String(logging.FieldStage, stage),
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("duration", time.Since(started)))
	}

	return manifest, nil
}

func (r *Runner) runMenuImages(ctx context.Context) error {
	menuMap := &artifacts.MenuMap{}
	if err := artifacts.Read(filepath.Join(r.outDir, "menus.json"), menuMap); err != nil {
		return err
	}

	sampler := &frames.FFmpegSampler{
		FFmpegBinary:  r.cfg.Tools.FFmpegBinary,
		FFprobeBinary: r.cfg.Tools.FFprobeBinary,
		Timeout:       time.Duration(r.cfg.Tools.FrameTimeout) * time.Second,
		Logger:        r.logger,
	}
	source := &menuimages.DVDSource{MenuMap: menuMap, Sampler: sampler}

	engine := r.openOCR()
	if engine != nil {
		defer engine.Close()
	}

	stage := menuimages.New(r.cfg, source, engine, r.store, r.runID, r.logger)
	_, err := stage.Run(ctx, r.outDir)
	return err
}

func (r *Runner) runLabels(ctx context.Context) error {
	images := &artifacts.MenuImages{}
	if err := artifacts.Read(filepath.Join(r.outDir, "menu_images.json"), images); err != nil {
		return err
	}

	engine := r.openOCR()
	if engine != nil {
		defer engine.Close()
	}

	stage := labels.New(engine, time.Duration(r.cfg.Tools.OCRTimeout)*time.Second, r.logger)
	_, err := stage.Run(ctx, images, r.outDir)
	return err
}

func (r *Runner) runFinalize(stageStatus map[string]string) (*artifacts.Manifest, error) {
	images := &artifacts.MenuImages{}
	if err := artifacts.Read(filepath.Join(r.outDir, "menu_images.json"), images); err != nil {
		return nil, err
	}
	labelArtifact := &artifacts.Labels{}
	if err := artifacts.Read(filepath.Join(r.outDir, "labels.json"), labelArtifact); err != nil {
		return nil, err
	}

	menus := make(map[string]struct{})
	for _, entry := range images.Entries {
		menus[entry.MenuID] = struct{}{}
	}
	manifest := &artifacts.Manifest{
		RunID:       r.runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		StageStatus: stageStatus,
		EntryCount:  len(images.Entries),
		MenuCount:   len(menus),
	}
	if err := artifacts.Write(filepath.Join(r.outDir, "manifest.json"), r.outDir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// openOCR returns a Tesseract engine, or nil when OCR support is not
// compiled in or fails to initialize. Alignment and labeling degrade
// gracefully without it.
func (r *Runner) openOCR() ocr.Engine {
	engine, err := ocr.NewTesseract(r.cfg.Tools.OCRLanguage)
	if err != nil {
		r.logger.Warn("ocr engine unavailable",
			logging.String(logging.FieldEventType, "ocr_unavailable"),
			logging.Error(err))
		return nil
	}
	return engine
}

// assertInputs fails the run when a stage's upstream artifact is missing.
// Stages never silently succeed with missing inputs.
func (r *Runner) assertInputs(stage string) error {
	for _, name := range stageInputs[stage] {
		path := filepath.Join(r.outDir, name)
		if !fileutil.FileExists(path) {
			return services.Wrap(services.ErrNotFound, stage, "assert inputs",
				fmt.Sprintf("missing required upstream artifact: %s", path), nil)
		}
	}
	return nil
}

// revalidate re-reads a cached stage output so schema drift is caught even
// when the stage itself is skipped.
func (r *Runner) revalidate(stage, outputPath string) error {
	switch stage {
	case menuimages.StageName:
		return artifacts.Read(outputPath, &artifacts.MenuImages{})
	case labels.StageName:
		return artifacts.Read(outputPath, &artifacts.Labels{})
	default:
		return nil
	}
}

func (r *Runner) writeStageMeta(stage string, started time.Time) {
	finished := time.Now().UTC()
	meta := &artifacts.StageMeta{
		Stage:      stage,
		StartedAt:  started.Format(time.RFC3339),
		FinishedAt: finished.Format(time.RFC3339),
		DurationMS: finished.Sub(started).Milliseconds(),
		Inputs:     stageInputs[stage],
		Outputs:    []string{stageOutputs[stage]},
	}
	metaPath := filepath.Join(r.outDir, "stage_meta", stage+".json")
	if err := artifacts.Write(metaPath, r.outDir, meta); err != nil {
		r.logger.Warn("failed to write stage metadata", logging.Error(err))
	}
}

func knownStage(name string) bool {
	for _, stage := range StageOrder {
		if stage == name {
			return true
		}
	}
	return false
}

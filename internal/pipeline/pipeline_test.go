package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"discmenu/internal/artifacts"
	"discmenu/internal/fileutil"
	"discmenu/internal/logging"
	"discmenu/internal/runstore"
	"discmenu/internal/services"
	"discmenu/internal/testsupport"
)

func writeMenusArtifact(t *testing.T, outDir, vobPath string) {
	t.Helper()
	menuMap := &artifacts.MenuMap{
		Menus: map[string]artifacts.MenuInput{
			"menu01": {VobPath: vobPath, ExpectedButtons: 2},
		},
	}
	data, err := json.Marshal(menuMap)
	if err != nil {
		t.Fatalf("marshal menus: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "menus.json"), data, 0o644); err != nil {
		t.Fatalf("write menus.json: %v", err)
	}
}

func TestRunFailsOnMissingInputArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	runner, err := NewRunner(cfg, cfg.Paths.OutDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	_, err = runner.Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRejectsUnknownStage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	runner, err := NewRunner(cfg, cfg.Paths.OutDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	_, err = runner.Run(context.Background(), Options{Stage: "transmogrify"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

// TestRunFullPipelineWithFailingTools drives the whole pipeline with stub
// ffmpeg/ffprobe binaries that emit nothing. The single menu fails at frame
// sampling, the failure stays menu-scoped, and the pipeline still produces
// every artifact with zero entries.
func TestRunFullPipelineWithFailingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	outDir := cfg.Paths.OutDir

	vobPath := filepath.Join(testsupport.BaseDir(cfg), "menu.vob")
	if err := os.WriteFile(vobPath, []byte{0x00, 0x00, 0x01, 0xBA}, 0o644); err != nil {
		t.Fatalf("write vob: %v", err)
	}
	writeMenusArtifact(t, outDir, vobPath)

	runner, err := NewRunner(cfg, outDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	manifest, err := runner.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if manifest == nil {
		t.Fatalf("no manifest returned")
	}
	if manifest.EntryCount != 0 {
		t.Fatalf("entry count = %d, want 0", manifest.EntryCount)
	}
	if manifest.RunID != runner.RunID() {
		t.Fatalf("manifest run id %q != runner %q", manifest.RunID, runner.RunID())
	}

	// The menu failure is recorded in the run store.
	store, err := runstore.Open(outDir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	menus, err := store.ListByRun(context.Background(), runner.RunID())
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(menus) != 1 || menus[0].Status != runstore.StatusFailed {
		t.Fatalf("menu records = %+v", menus)
	}

	// The failure is surfaced as a warning in the artifact.
	images := &artifacts.MenuImages{}
	if err := artifacts.Read(filepath.Join(outDir, "menu_images.json"), images); err != nil {
		t.Fatalf("read menu_images.json: %v", err)
	}
	if len(images.Warnings) != 1 {
		t.Fatalf("warnings = %v", images.Warnings)
	}

	// Stage metadata exists for each executed stage.
	for _, stage := range StageOrder {
		metaPath := filepath.Join(outDir, "stage_meta", stage+".json")
		if !fileutil.FileExists(metaPath) {
			t.Fatalf("missing stage meta for %s", stage)
		}
	}
}

func TestRunSecondPassUsesCache(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	outDir := cfg.Paths.OutDir

	vobPath := filepath.Join(testsupport.BaseDir(cfg), "menu.vob")
	if err := os.WriteFile(vobPath, []byte{0x00, 0x00, 0x01, 0xBA}, 0o644); err != nil {
		t.Fatalf("write vob: %v", err)
	}
	writeMenusArtifact(t, outDir, vobPath)

	first, err := NewRunner(cfg, outDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := first.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	_ = first.Close()

	second, err := NewRunner(cfg, outDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer second.Close()
	manifest, err := second.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if manifest.StageStatus["menu_images"] != "cached" || manifest.StageStatus["labels"] != "cached" {
		t.Fatalf("stage status = %v, want cached stages", manifest.StageStatus)
	}
}

func TestRunSingleStage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	outDir := cfg.Paths.OutDir

	vobPath := filepath.Join(testsupport.BaseDir(cfg), "menu.vob")
	if err := os.WriteFile(vobPath, []byte{0x00, 0x00, 0x01, 0xBA}, 0o644); err != nil {
		t.Fatalf("write vob: %v", err)
	}
	writeMenusArtifact(t, outDir, vobPath)

	runner, err := NewRunner(cfg, outDir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer runner.Close()

	if _, err := runner.Run(context.Background(), Options{Stage: "menu_images"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !fileutil.FileExists(filepath.Join(outDir, "menu_images.json")) {
		t.Fatalf("menu_images.json not written")
	}
	if fileutil.FileExists(filepath.Join(outDir, "labels.json")) {
		t.Fatalf("labels stage ran unexpectedly")
	}
}

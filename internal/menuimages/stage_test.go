package menuimages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"discmenu/internal/artifacts"
	"discmenu/internal/config"
	"discmenu/internal/frames"
	"discmenu/internal/geometry"
	"discmenu/internal/logging"
	"discmenu/internal/testsupport"
)

// fakeSource serves canned VOB bytes and pre-rendered frame PNGs.
type fakeSource struct {
	menus    []string
	vobBytes map[string][]byte
	frames   map[string][]string
	expected map[string]int
}

func (f *fakeSource) ListMenus() []string { return f.menus }

func (f *fakeSource) OpenMenuBytes(menuID string) ([]byte, error) {
	data, ok := f.vobBytes[menuID]
	if !ok {
		return nil, fmt.Errorf("unknown menu %s", menuID)
	}
	return data, nil
}

func (f *fakeSource) ExpectedButtonCount(menuID string) int { return f.expected[menuID] }

func (f *fakeSource) FrameSample(_ context.Context, menuID, _ string) ([]string, error) {
	return f.frames[menuID], nil
}

func newStage(t *testing.T, cfg *config.Config, source Source) *Stage {
	t.Helper()
	return New(cfg, source, nil, nil, "test-run", logging.NewNop())
}

// TestStageLargeHighlightTwoPages is the canonical two-page disc: packet 1
// carries two button highlights plus arrows, packet 2 one highlight plus
// arrows, and the rendered frames split into exactly two pages.
func TestStageLargeHighlightTwoPages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)

	buttonsPage0 := []geometry.Rect{
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
		{X1: 150, Y1: 288, X2: 262, Y2: 377},
	}
	buttonsPage1 := []geometry.Rect{
		{X1: 150, Y1: 176, X2: 262, Y2: 265},
	}
	arrows := []geometry.Rect{
		{X1: 20, Y1: 500, X2: 35, Y2: 515},
		{X1: 60, Y1: 500, X2: 75, Y2: 515},
		{X1: 100, Y1: 500, X2: 115, Y2: 515},
	}

	display := geometry.Rect{X1: 0, Y1: 0, X2: 719, Y2: 575}
	packet1 := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  append(append([]geometry.Rect(nil), buttonsPage0...), arrows...),
	})
	packet2 := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  append(append([]geometry.Rect(nil), buttonsPage1...), arrows...),
	})
	vob := testsupport.BuildProgramStream(t, 0x20, [][]byte{packet1, packet2}, 2000)

	// Page 0: two identical bright frames. Page 1: a visually distinct frame.
	pageMarker := []geometry.Rect{{X1: 400, Y1: 100, X2: 700, Y2: 300}}
	framePaths := []string{
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f1.png"), 720, 576, 200, nil, 0),
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f2.png"), 720, 576, 200, nil, 0),
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f3.png"), 720, 576, 200, pageMarker, 120),
	}

	source := &fakeSource{
		menus:    []string{"menu01"},
		vobBytes: map[string][]byte{"menu01": vob},
		frames:   map[string][]string{"menu01": framePaths},
		expected: map[string]int{"menu01": 2},
	}

	result, err := newStage(t, cfg, source).Run(context.Background(), cfg.Paths.OutDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Entries))
	}

	wantPages := []int{0, 0, 1}
	wantCenters := []geometry.Rect{buttonsPage0[0], buttonsPage0[1], buttonsPage1[0]}
	for i, entry := range result.Entries {
		if entry.PageIndex != wantPages[i] {
			t.Fatalf("entry %d page = %d, want %d", i, entry.PageIndex, wantPages[i])
		}
		if entry.Source != artifacts.SourceSPU {
			t.Fatalf("entry %d source = %s, want spu", i, entry.Source)
		}
		// The emitted rect is the crop-padded highlight; its centre must
		// stay on the highlight's centre.
		if dx := entry.Rect.CenterX() - wantCenters[i].CenterX(); dx > 1 || dx < -1 {
			t.Fatalf("entry %d drifted horizontally by %v", i, dx)
		}
		if dy := entry.Rect.CenterY() - wantCenters[i].CenterY(); dy > 1 || dy < -1 {
			t.Fatalf("entry %d drifted vertically by %v", i, dy)
		}
		if !entry.Rect.Inside(720, 576) {
			t.Fatalf("entry %d rect outside frame: %v", i, entry.Rect)
		}
		if !strings.HasPrefix(entry.ImagePath, cfg.Paths.OutDir) {
			t.Fatalf("entry %d image path escapes out dir: %s", i, entry.ImagePath)
		}
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
}

// TestStageFallback covers discs whose SPU packets are unusable: the dark
// band detector on the representative frame supplies the rectangles.
func TestStageFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)

	// Garbage SPU payload: a declared packet whose control offset is invalid.
	vob := testsupport.BuildProgramStream(t, 0x20, [][]byte{{0x00, 0x10, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C}}, 0)

	bands := []geometry.Rect{
		{X1: 100, Y1: 150, X2: 400, Y2: 200},
		{X1: 100, Y1: 250, X2: 400, Y2: 300},
	}
	framePaths := []string{
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f1.png"), 720, 576, 200, bands, 30),
	}

	source := &fakeSource{
		menus:    []string{"menu01"},
		vobBytes: map[string][]byte{"menu01": vob},
		frames:   map[string][]string{"menu01": framePaths},
		expected: map[string]int{"menu01": 2},
	}

	result, err := newStage(t, cfg, source).Run(context.Background(), cfg.Paths.OutDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(result.Entries))
	}
	for i, entry := range result.Entries {
		if entry.Source != artifacts.SourceFallback {
			t.Fatalf("entry %d source = %s, want fallback", i, entry.Source)
		}
	}
}

// TestStageNoButtons: no SPU data and a featureless frame. The stage warns,
// emits nothing, and does not fail.
func TestStageNoButtons(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)

	vob := testsupport.BuildProgramStream(t, 0x20, nil, 0)
	framePaths := []string{
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f1.png"), 720, 576, 200, nil, 0),
	}

	source := &fakeSource{
		menus:    []string{"menu01"},
		vobBytes: map[string][]byte{"menu01": vob},
		frames:   map[string][]string{"menu01": framePaths},
		expected: map[string]int{"menu01": 2},
	}

	result, err := newStage(t, cfg, source).Run(context.Background(), cfg.Paths.OutDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(result.Entries))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].MenuID != "menu01" {
		t.Fatalf("warnings = %v", result.Warnings)
	}
}

// TestStageEntriesNonOverlapping asserts the per-page pairwise non-overlap
// invariant on emitted entries.
func TestStageEntriesNonOverlapping(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)

	buttons := []geometry.Rect{
		{X1: 150, Y1: 100, X2: 400, Y2: 160},
		{X1: 150, Y1: 200, X2: 400, Y2: 260},
		{X1: 150, Y1: 300, X2: 400, Y2: 360},
	}
	display := geometry.Rect{X1: 0, Y1: 0, X2: 719, Y2: 575}
	packet := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{Display: display, Filled: buttons})
	vob := testsupport.BuildProgramStream(t, 0x20, [][]byte{packet}, 0)

	framePaths := []string{
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f1.png"), 720, 576, 200, nil, 0),
	}
	source := &fakeSource{
		menus:    []string{"menu01"},
		vobBytes: map[string][]byte{"menu01": vob},
		frames:   map[string][]string{"menu01": framePaths},
		expected: map[string]int{"menu01": 3},
	}

	result, err := newStage(t, cfg, source).Run(context.Background(), cfg.Paths.OutDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Entries))
	}
	for i := range result.Entries {
		for j := i + 1; j < len(result.Entries); j++ {
			a, b := result.Entries[i], result.Entries[j]
			if a.PageIndex == b.PageIndex && a.Rect.Overlaps(b.Rect) {
				t.Fatalf("entries %s and %s overlap", a.EntryID, b.EntryID)
			}
		}
	}
}

// TestStageArtifactWritten verifies the stage writes a strict, re-readable
// menu_images.json.
func TestStageArtifactWritten(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)

	display := geometry.Rect{X1: 0, Y1: 0, X2: 719, Y2: 575}
	button := geometry.Rect{X1: 200, Y1: 200, X2: 350, Y2: 280}
	packet := testsupport.BuildSPUPacket(t, testsupport.SPUPacketSpec{
		Display: display,
		Filled:  []geometry.Rect{button},
	})
	vob := testsupport.BuildProgramStream(t, 0x20, [][]byte{packet}, 0)
	framePaths := []string{
		testsupport.WriteGrayPNG(t, filepath.Join(dir, "f1.png"), 720, 576, 200, nil, 0),
	}
	source := &fakeSource{
		menus:    []string{"menu01"},
		vobBytes: map[string][]byte{"menu01": vob},
		frames:   map[string][]string{"menu01": framePaths},
		expected: map[string]int{"menu01": 1},
	}

	if _, err := newStage(t, cfg, source).Run(context.Background(), cfg.Paths.OutDir); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loaded := &artifacts.MenuImages{}
	if err := artifacts.Read(filepath.Join(cfg.Paths.OutDir, "menu_images.json"), loaded); err != nil {
		t.Fatalf("re-read artifact: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("artifact holds %d entries, want 1", len(loaded.Entries))
	}
	// The crop must exist on disk where the artifact says it is.
	if _, err := frames.LoadFrame(loaded.Entries[0].ImagePath); err != nil {
		t.Fatalf("crop image unreadable: %v", err)
	}
}

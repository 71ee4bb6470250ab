package artifacts

import (
	"fmt"
	"sort"
	"strings"

	"discmenu/internal/geometry"
)

// RectSource records which algorithm produced a button rectangle.
type RectSource string

const (
	SourceSPU      RectSource = "spu"
	SourceFallback RectSource = "fallback"
)

// MenuInput describes one menu-carrying VOB as declared by the navigation
// layer.
type MenuInput struct {
	VobPath         string `json:"vob_path"`
	ExpectedButtons int    `json:"expected_buttons"`
}

// MenuMap is the validated input artifact: menu identifiers mapped to their
// VOB locations and expected button counts.
type MenuMap struct {
	Menus map[string]MenuInput `json:"menus"`
}

// Validate enforces the artifact schema's numeric and path constraints.
func (m *MenuMap) Validate() error {
	if len(m.Menus) == 0 {
		return fmt.Errorf("menus.json: no menus declared")
	}
	for menuID, input := range m.Menus {
		if strings.TrimSpace(menuID) == "" {
			return fmt.Errorf("menus.json: empty menu id")
		}
		if strings.TrimSpace(input.VobPath) == "" {
			return fmt.Errorf("menus.json: menu %s: vob_path must be set", menuID)
		}
		if input.ExpectedButtons < 0 || input.ExpectedButtons > 999 {
			return fmt.Errorf("menus.json: menu %s: expected_buttons %d out of range", menuID, input.ExpectedButtons)
		}
	}
	return nil
}

// SortedMenuIDs returns the menu identifiers in deterministic order.
func (m *MenuMap) SortedMenuIDs() []string {
	ids := make([]string, 0, len(m.Menus))
	for id := range m.Menus {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ButtonEntry is one discovered menu button.
type ButtonEntry struct {
	EntryID   string        `json:"entry_id"`
	MenuID    string        `json:"menu_id"`
	PageIndex int           `json:"page_index"`
	Rect      geometry.Rect `json:"rect"`
	ImagePath string        `json:"image_path"`
	Source    RectSource    `json:"source"`
}

// MenuWarning records a per-menu anomaly that did not fail the stage.
type MenuWarning struct {
	MenuID  string `json:"menu_id"`
	Message string `json:"message"`
}

// MenuImages is the menu_images.json output artifact.
type MenuImages struct {
	Entries  []ButtonEntry `json:"entries"`
	Warnings []MenuWarning `json:"warnings,omitempty"`
}

// Validate enforces entry invariants on write and re-read.
func (m *MenuImages) Validate() error {
	seen := make(map[string]bool, len(m.Entries))
	for _, entry := range m.Entries {
		if strings.TrimSpace(entry.EntryID) == "" {
			return fmt.Errorf("menu_images.json: empty entry id")
		}
		if seen[entry.EntryID] {
			return fmt.Errorf("menu_images.json: duplicate entry id %s", entry.EntryID)
		}
		seen[entry.EntryID] = true
		if entry.PageIndex < 0 {
			return fmt.Errorf("menu_images.json: entry %s: negative page index", entry.EntryID)
		}
		if !entry.Rect.Valid() {
			return fmt.Errorf("menu_images.json: entry %s: invalid rect %s", entry.EntryID, entry.Rect)
		}
		switch entry.Source {
		case SourceSPU, SourceFallback:
		default:
			return fmt.Errorf("menu_images.json: entry %s: unknown source %q", entry.EntryID, entry.Source)
		}
	}
	return nil
}

// LabelEntry is one OCR-labeled button.
type LabelEntry struct {
	EntryID    string  `json:"entry_id"`
	RawText    string  `json:"raw_text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Labels is the labels.json output artifact.
type Labels struct {
	Results []LabelEntry `json:"results"`
}

// Validate enforces label constraints.
func (l *Labels) Validate() error {
	for _, entry := range l.Results {
		if strings.TrimSpace(entry.EntryID) == "" {
			return fmt.Errorf("labels.json: empty entry id")
		}
		if entry.Confidence < 0 || entry.Confidence > 1 {
			return fmt.Errorf("labels.json: entry %s: confidence %v out of range", entry.EntryID, entry.Confidence)
		}
	}
	return nil
}

// StageMeta records one stage execution for inspection.
type StageMeta struct {
	Stage      string   `json:"stage"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
	DurationMS int64    `json:"duration_ms"`
	Inputs     []string `json:"inputs"`
	Outputs    []string `json:"outputs"`
}

// Validate is a no-op; stage metadata is advisory.
func (StageMeta) Validate() error { return nil }

// Manifest is the finalize artifact tying the run together.
type Manifest struct {
	RunID       string            `json:"run_id"`
	GeneratedAt string            `json:"generated_at"`
	StageStatus map[string]string `json:"stage_status"`
	EntryCount  int               `json:"entry_count"`
	MenuCount   int               `json:"menu_count"`
}

// Validate checks the manifest's identifiers.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.RunID) == "" {
		return fmt.Errorf("manifest.json: run_id must be set")
	}
	return nil
}

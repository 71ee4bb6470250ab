package menuimages

import (
	"context"
	"fmt"
	"os"

	"discmenu/internal/artifacts"
	"discmenu/internal/frames"
	"discmenu/internal/services"
)

// Source is the format capability set the stage depends on. DVD, VCD, and
// SVCD differ only in how menus are located and how frames come out of them;
// behind this interface the stage never sees format-specific structures.
type Source interface {
	// ListMenus returns menu identifiers in deterministic order.
	ListMenus() []string
	// OpenMenuBytes loads the menu container bytes for one menu.
	OpenMenuBytes(menuID string) ([]byte, error)
	// ExpectedButtonCount reports the nav layer's button count for one menu.
	ExpectedButtonCount(menuID string) int
	// FrameSample renders representative frames into outDir and returns
	// their paths in decode order.
	FrameSample(ctx context.Context, menuID, outDir string) ([]string, error)
}

// DVDSource adapts the validated menus.json artifact plus a frame sampler
// into the Source capability set.
type DVDSource struct {
	MenuMap *artifacts.MenuMap
	Sampler frames.Sampler
}

// ListMenus returns the declared menu identifiers sorted.
func (s *DVDSource) ListMenus() []string {
	return s.MenuMap.SortedMenuIDs()
}

// OpenMenuBytes reads the menu VOB. Menu VOBs are small (a few MB); reading
// them whole keeps the demuxer allocation-free.
func (s *DVDSource) OpenMenuBytes(menuID string) ([]byte, error) {
	input, ok := s.MenuMap.Menus[menuID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, StageName, "open menu", menuID, nil)
	}
	data, err := os.ReadFile(input.VobPath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, StageName, "open menu",
			fmt.Sprintf("%s (%s)", menuID, input.VobPath), err)
	}
	return data, nil
}

// ExpectedButtonCount reports the declared button count, 0 when unknown.
func (s *DVDSource) ExpectedButtonCount(menuID string) int {
	return s.MenuMap.Menus[menuID].ExpectedButtons
}

// FrameSample extracts frames from the menu's VOB.
func (s *DVDSource) FrameSample(ctx context.Context, menuID, outDir string) ([]string, error) {
	input, ok := s.MenuMap.Menus[menuID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, StageName, "frame sample", menuID, nil)
	}
	return s.Sampler.Sample(ctx, input.VobPath, outDir)
}

package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateMenu(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutDir == "" {
		return errors.New("paths.out_dir must be set")
	}
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpegBinary == "" {
		return errors.New("tools.ffmpeg_binary must be set")
	}
	if c.Tools.FFprobeBinary == "" {
		return errors.New("tools.ffprobe_binary must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"tools.frame_timeout":     c.Tools.FrameTimeout,
		"tools.ocr_timeout":       c.Tools.OCRTimeout,
		"tools.min_free_space_mb": c.Tools.MinFreeSpaceMB,
	}); err != nil {
		return err
	}
	if c.Tools.OCRLanguage == "" {
		return errors.New("tools.ocr_language must be set")
	}
	return nil
}

func (c *Config) validateMenu() error {
	if c.Menu.PageDiffThreshold <= 0 {
		return errors.New("menu.page_diff_threshold must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"menu.large_min_width":      c.Menu.LargeMinWidth,
		"menu.large_min_height":     c.Menu.LargeMinHeight,
		"menu.glyph_mode_min_count": c.Menu.GlyphModeMinCount,
		"menu.line_tolerance":       c.Menu.LineTolerance,
		"menu.glyph_gap_max":        c.Menu.GlyphGapMax,
		"menu.min_button_width":     c.Menu.MinButtonWidth,
		"menu.min_button_height":    c.Menu.MinButtonHeight,
	}); err != nil {
		return err
	}
	if c.Menu.DarkBlockThreshold <= 0 || c.Menu.DarkBlockThreshold > 255 {
		return errors.New("menu.dark_block_threshold must be in 1..255")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

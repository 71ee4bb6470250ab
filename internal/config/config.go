package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutDir  string `toml:"out_dir"`
	LogDir  string `toml:"log_dir"`
	WorkDir string `toml:"work_dir"`
}

// Tools contains external tool binaries and timeouts.
type Tools struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	FrameTimeout   int    `toml:"frame_timeout"`
	OCRTimeout     int    `toml:"ocr_timeout"`
	OCRLanguage    string `toml:"ocr_language"`
	MinFreeSpaceMB int    `toml:"min_free_space_mb"`
}

// Menu contains the geometric thresholds used by button discovery.
type Menu struct {
	// PageDiffThreshold is the mean grayscale difference above which two
	// consecutive frames belong to different menu pages.
	PageDiffThreshold float64 `toml:"page_diff_threshold"`
	// LargeMinWidth/LargeMinHeight classify a connected region as a button
	// highlight rather than a character glyph.
	LargeMinWidth  int `toml:"large_min_width"`
	LargeMinHeight int `toml:"large_min_height"`
	// GlyphModeMinCount is the small-region count above which a packet is
	// treated as character-glyph authored.
	GlyphModeMinCount int `toml:"glyph_mode_min_count"`
	// LineTolerance is the maximum Y-centre distance between glyphs on one
	// text line.
	LineTolerance int `toml:"line_tolerance"`
	// GlyphGapMax is the maximum horizontal gap merged inside one text box.
	GlyphGapMax int `toml:"glyph_gap_max"`
	// MinButtonWidth/MinButtonHeight filter clustered text boxes.
	MinButtonWidth  int `toml:"min_button_width"`
	MinButtonHeight int `toml:"min_button_height"`
	// DarkBlockThreshold is the mean pixel value below which an 8-px block
	// counts as dark for the fallback detector.
	DarkBlockThreshold int `toml:"dark_block_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for discmenu.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Menu    Menu    `toml:"menu"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/discmenu/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file at
// the default location yields defaults; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	resolved := path
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = defaultPath
	}
	resolved, err := expandPath(resolved)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		decoder := toml.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()
		if decodeErr := decoder.Decode(&cfg); decodeErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, decodeErr)
		}
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", resolved)
		}
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(resolved); statErr == nil {
		return fmt.Errorf("config file already exists: %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the configured output, log, and work directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutDir, c.Paths.LogDir, c.Paths.WorkDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.OutDir, err = expandPath(c.Paths.OutDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	c.Tools.OCRLanguage = strings.TrimSpace(c.Tools.OCRLanguage)
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}

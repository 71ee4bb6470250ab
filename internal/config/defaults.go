package config

const (
	defaultOutDir             = "~/.local/share/discmenu/out"
	defaultLogDir             = "~/.local/share/discmenu/logs"
	defaultWorkDir            = "~/.local/share/discmenu/work"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultFrameTimeout       = 60
	defaultOCRTimeout         = 60
	defaultOCRLanguage        = "eng"
	defaultMinFreeSpaceMB     = 256
	defaultPageDiffThreshold  = 4.0
	defaultLargeMinWidth      = 80
	defaultLargeMinHeight     = 60
	defaultGlyphModeMinCount  = 20
	defaultLineTolerance      = 10
	defaultGlyphGapMax        = 30
	defaultMinButtonWidth     = 80
	defaultMinButtonHeight    = 10
	defaultDarkBlockThreshold = 65
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutDir:  defaultOutDir,
			LogDir:  defaultLogDir,
			WorkDir: defaultWorkDir,
		},
		Tools: Tools{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			FrameTimeout:   defaultFrameTimeout,
			OCRTimeout:     defaultOCRTimeout,
			OCRLanguage:    defaultOCRLanguage,
			MinFreeSpaceMB: defaultMinFreeSpaceMB,
		},
		Menu: Menu{
			PageDiffThreshold:  defaultPageDiffThreshold,
			LargeMinWidth:      defaultLargeMinWidth,
			LargeMinHeight:     defaultLargeMinHeight,
			GlyphModeMinCount:  defaultGlyphModeMinCount,
			LineTolerance:      defaultLineTolerance,
			GlyphGapMax:        defaultGlyphGapMax,
			MinButtonWidth:     defaultMinButtonWidth,
			MinButtonHeight:    defaultMinButtonHeight,
			DarkBlockThreshold: defaultDarkBlockThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

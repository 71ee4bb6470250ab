package frames

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"discmenu/internal/logging"
	"discmenu/internal/services"
)

// Sampler produces representative frame images from a menu VOB by invoking
// an external media tool. It satisfies the frame-sampling capability the
// menu-images stage depends on.
type Sampler interface {
	Sample(ctx context.Context, vobPath, outDir string) ([]string, error)
}

// FFmpegSampler shells out to ffmpeg/ffprobe with a hard timeout.
type FFmpegSampler struct {
	FFmpegBinary  string
	FFprobeBinary string
	Timeout       time.Duration
	Logger        *slog.Logger
}

// shortMenuSeconds: below this declared duration, every decoded frame is
// extracted instead of sampling by timestamp. Declared durations of menu VOBs
// are unreliable, and sub-second menus often hold one frame per page.
const shortMenuSeconds = 1.0

// sampleFPS is the timestamp sampling rate used for longer menu loops.
const sampleFPS = 2

// Sample extracts frames from vobPath into outDir and returns the image
// paths in decode order.
func (s *FFmpegSampler) Sample(ctx context.Context, vobPath, outDir string) ([]string, error) {
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "menu_images", "frame sample", "create frame directory", err)
	}

	probeCtx, cancelProbe := context.WithTimeout(ctx, timeout)
	defer cancelProbe()
	result, err := probe(probeCtx, s.FFprobeBinary, vobPath)
	if err != nil {
		return nil, classifyToolErr(probeCtx, "probe menu duration", err)
	}
	duration := result.durationSeconds()

	args := []string{"-hide_banner", "-loglevel", "error", "-i", vobPath}
	if duration > 0 && duration >= shortMenuSeconds {
		args = append(args, "-vf", fmt.Sprintf("fps=%d", sampleFPS))
	} else {
		// Sub-second or unknown duration: take every decoded frame.
		args = append(args, "-fps_mode", "passthrough")
	}
	pattern := filepath.Join(outDir, "frame_%04d.png")
	args = append(args, "-y", pattern)

	binary := strings.TrimSpace(s.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	runCtx, cancelRun := context.WithTimeout(ctx, timeout)
	defer cancelRun()
	cmd := exec.CommandContext(runCtx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, classifyToolErr(runCtx, "extract menu frames",
			fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(output))))
	}

	paths, err := listFrameFiles(outDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "menu_images", "frame sample", "no frames decoded from "+vobPath, nil)
	}
	logger.Debug("sampled menu frames",
		logging.Int("frame_count", len(paths)),
		logging.Float64("declared_duration", duration))
	return paths, nil
}

func listFrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "menu_images", "frame sample", "list frame directory", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "frame_") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func classifyToolErr(ctx context.Context, operation string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return services.Wrap(services.ErrTimeout, "menu_images", operation, "tool deadline exceeded", err)
	}
	return services.Wrap(services.ErrExternalTool, "menu_images", operation, "", err)
}

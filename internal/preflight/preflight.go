// Package preflight verifies the run environment before any stage executes:
// external binaries on PATH and enough free space for frame extraction.
// Failing preflight is a configuration error and aborts the run up front,
// where the fix is obvious, instead of half-way through a menu.
package preflight

import (
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"

	"discmenu/internal/config"
	"discmenu/internal/services"
)

// Check runs all preflight validations against the configuration.
func Check(cfg *config.Config) error {
	if err := checkBinaries(cfg); err != nil {
		return err
	}
	return checkFreeSpace(cfg.Paths.OutDir, cfg.Tools.MinFreeSpaceMB)
}

func checkBinaries(cfg *config.Config) error {
	for _, binary := range []string{cfg.Tools.FFmpegBinary, cfg.Tools.FFprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			return services.Wrap(services.ErrConfiguration, "preflight", "locate binary", binary, err)
		}
	}
	return nil
}

func checkFreeSpace(dir string, minMB int) error {
	if dir == "" || minMB <= 0 {
		return nil
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "statfs", dir, err)
	}
	freeMB := stat.Bavail * uint64(stat.Bsize) / (1024 * 1024)
	if freeMB < uint64(minMB) {
		return services.Wrap(services.ErrConfiguration, "preflight", "free space",
			fmt.Sprintf("%s has %d MiB free, need %d MiB", dir, freeMB, minMB), nil)
	}
	return nil
}

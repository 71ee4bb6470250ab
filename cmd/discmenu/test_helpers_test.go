package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a minimal valid config rooted in dir.
func writeTestConfig(t *testing.T, path, dir string) {
	t.Helper()
	payload := strings.Join([]string{
		"[paths]",
		`out_dir = "` + filepath.Join(dir, "out") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`work_dir = "` + filepath.Join(dir, "work") + `"`,
		"[logging]",
		`format = "json"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

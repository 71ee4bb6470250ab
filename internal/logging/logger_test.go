package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"discmenu/internal/services"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.input); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("stage started",
		String(FieldStage, "menu_images"),
		String(FieldMenuID, "menu01"),
		Int("frame_count", 7),
	)

	output := buf.String()
	for _, fragment := range []string{"INFO", "[menu_images]", "stage started", "menu_id=menu01", "frame_count=7"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("console output %q missing %q", output, fragment)
		}
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("hidden")
	logger.Warn("visible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Fatalf("info record leaked through warn filter: %q", output)
	}
	if !strings.Contains(output, "visible") {
		t.Fatalf("warn record missing: %q", output)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := services.WithMenuID(services.WithStage(context.Background(), "labels"), "menu02")
	WithContext(ctx, base).Info("labeling")

	output := buf.String()
	if !strings.Contains(output, "menu_id=menu02") || !strings.Contains(output, "[labels]") {
		t.Fatalf("context fields missing from %q", output)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled for all levels.
	logger.Error("nothing")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("nop logger claims to be enabled")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatalf("unknown format accepted")
	}
}

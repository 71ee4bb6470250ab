package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "menu_images", "frame sample", "ffmpeg failed", underlying)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("underlying error lost: %v", err)
	}
	for _, part := range []string{"menu_images", "frame sample", "ffmpeg failed"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("message %q missing %q", err.Error(), part)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "stage", "op", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker not mapped to transient: %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("empty detail message = %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		marker error
		want   bool
	}{
		{ErrValidation, true},
		{ErrConfiguration, true},
		{ErrExternalTool, false},
		{ErrTimeout, false},
		{ErrNotFound, false},
		{ErrTransient, false},
	}
	for _, tc := range tests {
		err := Wrap(tc.marker, "stage", "op", "boom", nil)
		if got := IsFatal(err); got != tc.want {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.marker, got, tc.want)
		}
	}
}

func TestContextCarriers(t *testing.T) {
	ctx := WithMenuID(WithStage(WithRunID(context.Background(), "run-9"), "menu_images"), "menu01")

	if menuID, ok := MenuIDFromContext(ctx); !ok || menuID != "menu01" {
		t.Fatalf("menu id = %q, %v", menuID, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "menu_images" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if runID, ok := RunIDFromContext(ctx); !ok || runID != "run-9" {
		t.Fatalf("run id = %q, %v", runID, ok)
	}
	if _, ok := MenuIDFromContext(context.Background()); ok {
		t.Fatalf("empty context reported a menu id")
	}
}

package services

import "context"

type contextKey string

const (
	menuIDKey contextKey = "menu_id"
	stageKey  contextKey = "stage"
	runIDKey  contextKey = "run_id"
)

// WithMenuID attaches the menu identifier currently being processed.
func WithMenuID(ctx context.Context, menuID string) context.Context {
	return context.WithValue(ctx, menuIDKey, menuID)
}

// MenuIDFromContext extracts a previously attached menu identifier.
func MenuIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(menuIDKey).(string)
	return v, ok && v != ""
}

// WithStage attaches the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts a previously attached stage name.
func StageFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(stageKey).(string)
	return v, ok && v != ""
}

// WithRunID attaches the pipeline run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts a previously attached run identifier.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

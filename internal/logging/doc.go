// Package logging wires log/slog with the console and JSON handlers used by
// the discmenu CLI, plus the standardized field keys stages attach to their
// records.
package logging

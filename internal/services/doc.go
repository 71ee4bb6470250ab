// Package services defines the error taxonomy and context carriers shared by
// pipeline stages. Stage code wraps failures with one of the sentinel markers
// so callers can decide between skipping a menu and aborting the run.
package services

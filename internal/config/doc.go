// Package config loads, validates, and defaults the TOML configuration that
// drives a discmenu run.
package config

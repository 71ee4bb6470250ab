package main

import (
	"encoding/json"
	"io"
)

// printJSON renders v as indented JSON for machine consumption.
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

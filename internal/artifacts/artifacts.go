// Package artifacts reads and writes the validated JSON artifacts that flow
// between pipeline stages. Decoding is strict: unknown keys are rejected, and
// every model validates its own numeric and identifier constraints on both
// read and write.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"discmenu/internal/services"
)

// Validator is implemented by every artifact model.
type Validator interface {
	Validate() error
}

// Read decodes path into model, rejecting unknown fields and invalid values.
func Read(path string, model Validator) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "", "read artifact", path, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(model); err != nil {
		return services.Wrap(services.ErrValidation, "", "decode artifact", path, err)
	}
	// Trailing content after the document is a malformed artifact too.
	if decoder.More() {
		return services.Wrap(services.ErrValidation, "", "decode artifact", path+": trailing data", nil)
	}
	if err := model.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "", "validate artifact", "", err)
	}
	return nil
}

// Write validates model and writes it to path as indented JSON. The path
// must stay inside outDir.
func Write(path, outDir string, model Validator) error {
	if err := model.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "", "validate artifact", path, err)
	}
	if err := EnsureWithin(path, outDir); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "", "write artifact", path, err)
	}
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "", "encode artifact", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "", "write artifact", path, err)
	}
	return nil
}

// EnsureWithin rejects any path that resolves outside base. Stage outputs
// must never escape the run's output directory.
func EnsureWithin(path, base string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "resolve path", path, err)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "resolve path", base, err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return services.Wrap(services.ErrValidation, "", "path containment",
			fmt.Sprintf("%s escapes %s", path, base), nil)
	}
	return nil
}

package sink

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
	"encoding/json"
	"fmt"
	"os"
)

// JSONWriter writes the full summary to summary_<label>.json.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(dir string) model.Writer {
	return &JSONWriter{dir: dir}
}

func (w *JSONWriter) Name() string { return TypeJSON }

func (w *JSONWriter) Write(s *core.FlowSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	path := outputPath(w.dir, "summary", s.Label, "json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

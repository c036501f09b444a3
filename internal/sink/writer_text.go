package sink

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
	"CCSpectra/internal/report"
	"fmt"
	"os"
)

// TextWriter writes summary_<label>.txt.
type TextWriter struct {
	dir string
}

// NewTextWriter creates a new TextWriter.
func NewTextWriter(dir string) model.Writer {
	return &TextWriter{dir: dir}
}

func (w *TextWriter) Name() string { return TypeText }

func (w *TextWriter) Write(s *core.FlowSummary) error {
	path := outputPath(w.dir, "summary", s.Label, "txt")
	if err := os.WriteFile(path, []byte(report.Render(s)), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

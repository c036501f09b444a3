package sink

import (
	"CCSpectra/internal/config"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/model"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

// Writer types accepted in report.writers.
const (
	TypeText       = "text"
	TypeJSON       = "json"
	TypePlot       = "plot"
	TypeClickHouse = "clickhouse"
	TypeNATS       = "nats"
)

// NewWriters creates every enabled writer of cfg. Files are written below
// outputDir, which is created if needed. A writer that cannot be created is
// logged and skipped.
func NewWriters(cfg *config.Config, outputDir string) ([]model.Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := make([]model.Writer, 0, len(cfg.Report.Writers))
	for _, def := range cfg.Report.Writers {
		if !def.Enabled {
			continue
		}
		w, err := newWriter(def, outputDir)
		if err != nil {
			logging.Logger.WithFields(log.Fields{"writer": def.Type}).WithError(err).Warn("skipping writer")
			continue
		}
		writers = append(writers, w)
	}
	return writers, nil
}

func newWriter(def config.WriterDef, outputDir string) (model.Writer, error) {
	switch def.Type {
	case TypeText:
		return NewTextWriter(outputDir), nil
	case TypeJSON:
		return NewJSONWriter(outputDir), nil
	case TypePlot:
		return NewPlotWriter(outputDir, def.Plot.Width, def.Plot.Height), nil
	case TypeClickHouse:
		return NewClickHouseWriter(def.ClickHouse)
	case TypeNATS:
		return NewNATSWriter(def.NATS)
	}
	return nil, fmt.Errorf("unknown writer type '%s'", def.Type)
}

// Close closes every writer that holds a connection.
func Close(writers []model.Writer) {
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logging.Logger.WithField("writer", w.Name()).WithError(err).Warn("failed to close writer")
			}
		}
	}
}

func outputPath(dir, prefix, label, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, filepath.Base(label), ext))
}

package sink

import (
	"CCSpectra/internal/chstore"
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const clickhouseTimeout = 30 * time.Second

// ClickHouseWriter stores runs in ClickHouse for cc-api.
type ClickHouseWriter struct {
	conn  driver.Conn
	store *chstore.Writer
}

// NewClickHouseWriter connects to ClickHouse and makes sure the tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), clickhouseTimeout)
	defer cancel()

	conn, err := chstore.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := chstore.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	logging.Logger.WithField("host", cfg.Host).Info("connected to ClickHouse and ensured tables exist")
	return &ClickHouseWriter{conn: conn, store: chstore.NewWriter(conn)}, nil
}

func (w *ClickHouseWriter) Name() string { return TypeClickHouse }

func (w *ClickHouseWriter) Write(s *core.FlowSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), clickhouseTimeout)
	defer cancel()
	return w.store.Save(ctx, s)
}

// Close closes the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

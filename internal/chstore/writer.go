package chstore

import (
	core "CCSpectra/internal/core/model"
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type batchPreparer interface {
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
}

// Writer stores finished runs in the cc_* tables.
type Writer struct {
	conn batchPreparer
}

// NewWriter wraps a connection, typically the driver.Conn from Connect.
func NewWriter(conn batchPreparer) *Writer {
	return &Writer{conn: conn}
}

// Save inserts the run row and both series of s.
func (w *Writer) Save(ctx context.Context, s *core.FlowSummary) error {
	run := RunFromSummary(s)
	err := w.insert(ctx, "INSERT INTO cc_runs", func(b driver.Batch) error {
		return b.Append(
			run.RunID,
			run.Congestion,
			run.Source,
			run.GeneratedAt,
			run.DurationSeconds,
			run.TotalPackets,
			run.TCPPackets,
			run.GoodputMbps,
			run.LossRate,
			run.MaxWindowBytes,
			run.PeakMbps,
			run.MeanMbps,
			run.StdDevMbps,
			run.TotalBytes,
		)
	})
	if err != nil {
		return err
	}

	if len(s.ThroughputSeries) > 0 {
		err = w.insert(ctx, "INSERT INTO cc_throughput", func(b driver.Batch) error {
			for _, p := range s.ThroughputSeries {
				if err := b.Append(s.RunID, uint32(p.Second), p.Mbps); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(s.WindowSeries) > 0 {
		err = w.insert(ctx, "INSERT INTO cc_window", func(b driver.Batch) error {
			for i, p := range s.WindowSeries {
				if err := b.Append(s.RunID, uint32(i), p.Seconds, p.Bytes); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return err
}

func (w *Writer) insert(ctx context.Context, query string, fill func(driver.Batch) error) error {
	batch, err := w.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	if err := fill(batch); err != nil {
		batch.Abort()
		return fmt.Errorf("failed to append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

package chstore

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS cc_runs (
    RunID           String,
    Congestion      LowCardinality(String),
    Source          String,
    GeneratedAt     DateTime64(3),
    DurationSeconds UInt32,
    TotalPackets    UInt64,
    TCPPackets      UInt64,
    GoodputMbps     Float64,
    LossRate        Float64,
    MaxWindowBytes  Int64,
    PeakMbps        Float64,
    MeanMbps        Float64,
    StdDevMbps      Float64,
    TotalBytes      Int64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(GeneratedAt)
ORDER BY (Congestion, GeneratedAt, RunID);
`

const createThroughputTable = `
CREATE TABLE IF NOT EXISTS cc_throughput (
    RunID  String,
    Second UInt32,
    Mbps   Float64
) ENGINE = MergeTree()
ORDER BY (RunID, Second);
`

const createWindowTable = `
CREATE TABLE IF NOT EXISTS cc_window (
    RunID   String,
    Idx     UInt32,
    Seconds Float64,
    Bytes   Int64
) ENGINE = MergeTree()
ORDER BY (RunID, Idx);
`

// Run is one row of cc_runs.
type Run struct {
	RunID           string    `json:"run_id"`
	Congestion      string    `json:"congestion_control"`
	Source          string    `json:"source"`
	GeneratedAt     time.Time `json:"generated_at"`
	DurationSeconds uint32    `json:"duration_seconds"`
	TotalPackets    uint64    `json:"total_packets"`
	TCPPackets      uint64    `json:"tcp_packets"`
	GoodputMbps     float64   `json:"goodput_mbps"`
	LossRate        float64   `json:"loss_rate"`
	MaxWindowBytes  int64     `json:"max_window_bytes"`
	PeakMbps        float64   `json:"peak_mbps"`
	MeanMbps        float64   `json:"mean_mbps"`
	StdDevMbps      float64   `json:"stddev_mbps"`
	TotalBytes      int64     `json:"total_bytes"`
}

// RunFromSummary flattens the scalar part of a summary into a Run row.
func RunFromSummary(s *core.FlowSummary) Run {
	return Run{
		RunID:           s.RunID,
		Congestion:      s.Label,
		Source:          s.Source,
		GeneratedAt:     s.GeneratedAt,
		DurationSeconds: uint32(s.DurationSeconds()),
		TotalPackets:    uint64(s.Packets.Total),
		TCPPackets:      uint64(s.Packets.TCP),
		GoodputMbps:     s.GoodputMbps,
		LossRate:        s.LossRate,
		MaxWindowBytes:  s.MaxWindowBytes,
		PeakMbps:        s.ThroughputStats.PeakMbps,
		MeanMbps:        s.ThroughputStats.MeanMbps,
		StdDevMbps:      s.ThroughputStats.StdDevMbps,
		TotalBytes:      s.ThroughputStats.TotalBytes,
	}
}

// Connect opens and pings a ClickHouse connection.
func Connect(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

type execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// EnsureSchema creates the run tables if they do not exist.
func EnsureSchema(ctx context.Context, conn execer) error {
	for _, stmt := range []string{createRunsTable, createThroughputTable, createWindowTable} {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

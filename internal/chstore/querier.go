package chstore

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrNotFound is returned when a run id is not stored.
var ErrNotFound = errors.New("run not found")

// DefaultLimit bounds ListRuns when the caller passes no limit.
const DefaultLimit = 100

// Querier defines the read side of the run store.
type Querier interface {
	ListRuns(ctx context.Context, congestion string, limit int) ([]Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	Throughput(ctx context.Context, runID string) ([]core.ThroughputPoint, error)
	Window(ctx context.Context, runID string) ([]core.WindowPoint, error)
	Close() error
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier connects to ClickHouse and returns a Querier.
func NewClickHouseQuerier(ctx context.Context, cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

const runColumns = `RunID, Congestion, Source, GeneratedAt, DurationSeconds, TotalPackets, TCPPackets,
	GoodputMbps, LossRate, MaxWindowBytes, PeakMbps, MeanMbps, StdDevMbps, TotalBytes`

func scanRun(scan func(dest ...any) error) (Run, error) {
	var r Run
	err := scan(&r.RunID, &r.Congestion, &r.Source, &r.GeneratedAt, &r.DurationSeconds,
		&r.TotalPackets, &r.TCPPackets, &r.GoodputMbps, &r.LossRate, &r.MaxWindowBytes,
		&r.PeakMbps, &r.MeanMbps, &r.StdDevMbps, &r.TotalBytes)
	return r, err
}

// listRunsQuery builds the run listing, newest first.
func listRunsQuery(congestion string, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var b strings.Builder
	b.WriteString("SELECT " + runColumns + " FROM cc_runs")
	var args []any
	if congestion != "" {
		b.WriteString(" WHERE Congestion = ?")
		args = append(args, congestion)
	}
	fmt.Fprintf(&b, " ORDER BY GeneratedAt DESC LIMIT %d", limit)
	return b.String(), args
}

func (q *clickhouseQuerier) ListRuns(ctx context.Context, congestion string, limit int) ([]Run, error) {
	query, args := listRunsQuery(congestion, limit)
	rows, err := q.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (q *clickhouseQuerier) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := q.conn.QueryRow(ctx, "SELECT "+runColumns+" FROM cc_runs WHERE RunID = ? LIMIT 1", runID)
	r, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &r, nil
}

func (q *clickhouseQuerier) Throughput(ctx context.Context, runID string) ([]core.ThroughputPoint, error) {
	rows, err := q.conn.Query(ctx, "SELECT Second, Mbps FROM cc_throughput WHERE RunID = ? ORDER BY Second", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	points := []core.ThroughputPoint{}
	for rows.Next() {
		var (
			second uint32
			mbps   float64
		)
		if err := rows.Scan(&second, &mbps); err != nil {
			return nil, fmt.Errorf("failed to scan throughput point: %w", err)
		}
		points = append(points, core.ThroughputPoint{Second: int(second), Mbps: mbps})
	}
	return points, rows.Err()
}

func (q *clickhouseQuerier) Window(ctx context.Context, runID string) ([]core.WindowPoint, error) {
	rows, err := q.conn.Query(ctx, "SELECT Seconds, Bytes FROM cc_window WHERE RunID = ? ORDER BY Idx", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	points := []core.WindowPoint{}
	for rows.Next() {
		var p core.WindowPoint
		if err := rows.Scan(&p.Seconds, &p.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan window point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (q *clickhouseQuerier) Close() error {
	return q.conn.Close()
}

package manager

import (
	"CCSpectra/internal/alerter"
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	_ "CCSpectra/internal/engine/impl/goodput"    // Registers the goodput calculator
	_ "CCSpectra/internal/engine/impl/loss"       // Registers the loss estimator
	_ "CCSpectra/internal/engine/impl/throughput" // Registers the throughput aggregator
	_ "CCSpectra/internal/engine/impl/window"     // Registers the window tracker
	"CCSpectra/internal/factory"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/metrics"
	"CCSpectra/internal/model"
	"CCSpectra/internal/notification"
	"CCSpectra/internal/report"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Run identifies the capture being analyzed.
type Run struct {
	// Label names the congestion control scheme under test.
	Label   string
	Source  string
	Packets core.PacketCounts
}

// Source is a capture that can be streamed record by record.
type Source interface {
	ReadPackets(out chan<- *core.PacketRecord) error
	Counts() core.PacketCounts
}

// Manager runs the configured metrics over a capture, assembles the summary
// and hands it to the report writers and the alerter.
type Manager struct {
	metrics     []factory.Metric
	writers     []model.Writer
	alerter     *alerter.Alerter
	channelSize int
}

// NewManager creates a Manager for the metrics named in cfg.
func NewManager(cfg *config.Config, writers []model.Writer) (*Manager, error) {
	ms, err := factory.Create(cfg.Analyzer.Metrics)
	if err != nil {
		return nil, err
	}

	var alertr *alerter.Alerter
	if cfg.Alerter.Enabled {
		var notifier model.Notifier
		if cfg.SMTP.Host != "" {
			notifier = notification.NewEmailNotifier(cfg.SMTP)
		} else {
			logging.Logger.Warn("alerter is enabled but no SMTP host is configured, alerts are only logged")
		}
		alertr, err = alerter.NewAlerter(&cfg.Alerter, notifier)
		if err != nil {
			return nil, fmt.Errorf("failed to create alerter: %w", err)
		}
	}

	channelSize := cfg.Analyzer.ChannelSize
	if channelSize <= 0 {
		channelSize = 1
	}
	return &Manager{
		metrics:     ms,
		writers:     writers,
		alerter:     alertr,
		channelSize: channelSize,
	}, nil
}

// Analyze runs every metric over the materialized records, one goroutine
// per metric. The records are shared read-only.
func (m *Manager) Analyze(run Run, records []core.PacketRecord) *core.FlowSummary {
	start := time.Now()
	results := make([]interface{}, len(m.metrics))

	var wg sync.WaitGroup
	wg.Add(len(m.metrics))
	for i, metric := range m.metrics {
		go func(i int, metric factory.Metric) {
			defer wg.Done()
			results[i] = metric.Compute(records)
		}(i, metric)
	}
	wg.Wait()

	return m.finish(run, results, start)
}

// AnalyzeStream reads src and fans every record out to one Task per metric,
// each running on its own goroutine behind its own channel. The capture is
// never materialized. Counts are taken from src once it is drained.
func (m *Manager) AnalyzeStream(run Run, src Source) (*core.FlowSummary, error) {
	start := time.Now()

	in := make(chan *core.PacketRecord, m.channelSize)
	readErr := make(chan error, 1)
	go func() {
		readErr <- src.ReadPackets(in)
	}()

	tasks := make([]model.Task, len(m.metrics))
	chans := make([]chan *core.PacketRecord, len(m.metrics))
	var wg sync.WaitGroup
	wg.Add(len(m.metrics))
	for i, metric := range m.metrics {
		tasks[i] = metric.NewTask()
		chans[i] = make(chan *core.PacketRecord, m.channelSize)
		go func(t model.Task, c <-chan *core.PacketRecord) {
			defer wg.Done()
			for r := range c {
				t.ProcessPacket(r)
			}
		}(tasks[i], chans[i])
	}

	for r := range in {
		for _, c := range chans {
			c <- r
		}
	}
	for _, c := range chans {
		close(c)
	}
	wg.Wait()

	if err := <-readErr; err != nil {
		return nil, err
	}

	results := make([]interface{}, len(tasks))
	for i, t := range tasks {
		results[i] = t.Snapshot()
		if o, ok := t.(interface{ OutOfOrder() int }); ok && o.OutOfOrder() > 0 {
			logging.Logger.WithFields(log.Fields{
				"task":    t.Name(),
				"records": o.OutOfOrder(),
			}).Warn("capture timestamps are not monotonic, late records were folded into earlier buckets")
		}
	}
	run.Packets = src.Counts()
	return m.finish(run, results, start), nil
}

func (m *Manager) finish(run Run, results []interface{}, start time.Time) *core.FlowSummary {
	in := report.Inputs{Source: run.Source, Packets: run.Packets}
	for _, res := range results {
		switch r := res.(type) {
		case core.ThroughputResult:
			in.Throughput = &r
		case core.GoodputResult:
			in.Goodput = &r
		case core.LossResult:
			in.Loss = &r
		case core.WindowResult:
			in.Window = &r
		default:
			logging.Logger.Errorf("unexpected metric result type %T", res)
		}
	}

	summary := report.Assemble(run.Label, in)
	summary.RunID = uuid.NewString()

	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	metrics.ObserveSummary(summary)

	logging.Logger.WithFields(log.Fields{
		"run_id":     summary.RunID,
		"congestion": summary.Label,
		"tcp":        summary.Packets.TCP,
		"duration":   time.Since(start).String(),
	}).Info("analysis complete")
	return summary
}

// Report hands the summary to every writer and then to the alerter. A failing
// writer does not stop the others; all failures are returned joined.
func (m *Manager) Report(summary *core.FlowSummary) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(summary); err != nil {
			metrics.WriterErrors.WithLabelValues(w.Name()).Inc()
			logging.Logger.WithField("writer", w.Name()).WithError(err).Error("writer failed")
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		logging.Logger.WithFields(log.Fields{"writer": w.Name(), "run_id": summary.RunID}).Debug("summary written")
	}

	if m.alerter != nil {
		if err := m.alerter.Check(summary); err != nil {
			logging.Logger.WithError(err).Error("alerter failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

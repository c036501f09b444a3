// Package metrics defines the prometheus self-metrics of the analyzer. They
// live on a dedicated registry so a batch run can export them as a textfile.
package metrics

import (
	core "CCSpectra/internal/core/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric of this package.
var Registry = prometheus.NewRegistry()

var (
	PacketsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccspectra_packets_total",
			Help: "Frames read from captures, by decode outcome.",
		},
		[]string{"kind"},
	)
	AnalysisDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ccspectra_analysis_duration_seconds",
			Help:    "Wall time spent computing the metrics of one capture.",
			Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60, 180},
		},
	)
	WriterErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccspectra_writer_errors_total",
			Help: "Number of failed report sink writes.",
		},
		[]string{"writer"},
	)
	GoodputMbps = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ccspectra_goodput_mbps",
			Help: "Goodput of the last analyzed capture.",
		},
		[]string{"congestion"},
	)
	LossRate = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ccspectra_loss_rate",
			Help: "Estimated loss rate of the last analyzed capture.",
		},
		[]string{"congestion"},
	)
	MaxWindowBytes = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ccspectra_max_window_bytes",
			Help: "Largest effective receive window of the last analyzed capture.",
		},
		[]string{"congestion"},
	)
)

// ObserveSummary records the per-run gauges and frame counters of s.
func ObserveSummary(s *core.FlowSummary) {
	PacketsTotal.WithLabelValues("tcp").Add(float64(s.Packets.TCP))
	PacketsTotal.WithLabelValues("non_tcp").Add(float64(s.Packets.NonTCP))
	PacketsTotal.WithLabelValues("unparseable").Add(float64(s.Packets.Unparseable))
	GoodputMbps.WithLabelValues(s.Label).Set(s.GoodputMbps)
	LossRate.WithLabelValues(s.Label).Set(s.LossRate)
	MaxWindowBytes.WithLabelValues(s.Label).Set(float64(s.MaxWindowBytes))
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

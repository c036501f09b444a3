package model

import (
	"strings"
	"time"
)

// TCPFlags is the set of control bits carried by a TCP segment.
type TCPFlags uint16

const (
	FlagFIN TCPFlags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
	FlagNS
)

var flagNames = []struct {
	flag TCPFlags
	name string
}{
	{FlagFIN, "FIN"}, {FlagSYN, "SYN"}, {FlagRST, "RST"}, {FlagPSH, "PSH"},
	{FlagACK, "ACK"}, {FlagURG, "URG"}, {FlagECE, "ECE"}, {FlagCWR, "CWR"}, {FlagNS, "NS"},
}

// Has reports whether every bit of f2 is set in f.
func (f TCPFlags) Has(f2 TCPFlags) bool {
	return f&f2 == f2
}

func (f TCPFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}

// Option is a decoded TCP option. It is either a WindowScale or an OtherOption.
type Option interface {
	isOption()
}

// WindowScale is a well-formed window scale option.
type WindowScale struct {
	Shift uint8
}

// OtherOption is any option that is not a usable window scale option,
// including malformed window scale entries.
type OtherOption struct {
	Kind uint8
	Data []byte
}

func (WindowScale) isOption() {}
func (OtherOption) isOption() {}

// PacketRecord holds the header fields extracted from a single captured packet.
// Records are read-only once produced.
type PacketRecord struct {
	// Capture clock time in seconds.
	Timestamp     float64
	TotalSize     int
	IsTCP         bool
	PayloadLength int
	Flags         TCPFlags
	Seq           uint32
	Ack           uint32
	Window        uint16
	Options       []Option

	// WindowScale is meaningful only when HasWindowScale is set.
	WindowScale    uint8
	HasWindowScale bool
}

// Scale returns the window scale exponent to apply to this record, 0 when the
// record carried no window scale option.
func (r *PacketRecord) Scale() uint8 {
	if !r.HasWindowScale {
		return 0
	}
	return r.WindowScale
}

// PacketCounts tallies the frames seen by the capture source.
type PacketCounts struct {
	Total       int `json:"total"`
	TCP         int `json:"tcp"`
	NonTCP      int `json:"non_tcp"`
	Unparseable int `json:"unparseable"`
}

// ThroughputPoint is one whole-second bucket of the throughput series.
type ThroughputPoint struct {
	Second int     `json:"second"`
	Mbps   float64 `json:"mbps"`
}

// ThroughputStats summarizes a throughput series.
type ThroughputStats struct {
	MeanMbps   float64 `json:"mean_mbps"`
	PeakMbps   float64 `json:"peak_mbps"`
	StdDevMbps float64 `json:"stddev_mbps"`
	TotalBytes int64   `json:"total_bytes"`
}

// ThroughputResult is the output of the throughput aggregator. Available is
// false when the capture held no TCP packets, which is distinct from a series
// of zero-valued buckets.
type ThroughputResult struct {
	Available bool
	Points    []ThroughputPoint
	Stats     ThroughputStats
}

// GoodputResult is the output of the goodput calculator.
type GoodputResult struct {
	Mbps         float64
	PayloadBytes int64
	Packets      int
	SpanSeconds  float64
}

// LossResult is the output of the loss estimator.
type LossResult struct {
	Rate         float64
	SynSeqs      int
	AckedNumbers int
}

// WindowPoint is one sample of the effective receive window.
type WindowPoint struct {
	Seconds float64 `json:"seconds"`
	Bytes   int64   `json:"bytes"`
}

// WindowResult is the output of the window tracker.
type WindowResult struct {
	Series   []WindowPoint
	MaxBytes int64
}

// FlowSummary is the merged result of one analysis run.
type FlowSummary struct {
	RunID       string       `json:"run_id"`
	Label       string       `json:"congestion_control"`
	Source      string       `json:"source,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Packets     PacketCounts `json:"packets"`

	ThroughputAvailable bool              `json:"throughput_available"`
	ThroughputSeries    []ThroughputPoint `json:"throughput_series"`
	ThroughputStats     ThroughputStats   `json:"throughput_stats"`

	GoodputMbps    float64       `json:"goodput_mbps"`
	LossRate       float64       `json:"loss_rate"`
	MaxWindowBytes int64         `json:"max_window_bytes"`
	WindowSeries   []WindowPoint `json:"window_series"`

	Diagnostics []string `json:"diagnostics,omitempty"`
}

// DurationSeconds is the number of whole-second buckets covered by the run.
func (s *FlowSummary) DurationSeconds() int {
	return len(s.ThroughputSeries)
}

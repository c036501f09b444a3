package report

import (
	core "CCSpectra/internal/core/model"
	"fmt"
	"strings"
	"time"
)

const (
	DiagNoTCP        = "No TCP packets found in the capture file."
	DiagNoTCPPayload = "No TCP packets with payload found in the capture file."
)

// Inputs carries the metric results of one run. A nil result means the metric
// was not selected and its summary fields keep their zero values.
type Inputs struct {
	Source     string
	Packets    core.PacketCounts
	Throughput *core.ThroughputResult
	Goodput    *core.GoodputResult
	Loss       *core.LossResult
	Window     *core.WindowResult
}

// Assemble merges the metric results into a FlowSummary labelled with the
// congestion control scheme under test.
func Assemble(label string, in Inputs) *core.FlowSummary {
	s := &core.FlowSummary{
		Label:       label,
		Source:      in.Source,
		GeneratedAt: time.Now().UTC(),
		Packets:     in.Packets,
	}
	if in.Throughput != nil {
		s.ThroughputAvailable = in.Throughput.Available
		s.ThroughputSeries = in.Throughput.Points
		s.ThroughputStats = in.Throughput.Stats
	}
	if in.Goodput != nil {
		s.GoodputMbps = in.Goodput.Mbps
	}
	if in.Loss != nil {
		s.LossRate = in.Loss.Rate
	}
	if in.Window != nil {
		s.MaxWindowBytes = in.Window.MaxBytes
		s.WindowSeries = in.Window.Series
	}
	s.Diagnostics = diagnostics(in)
	return s
}

func diagnostics(in Inputs) []string {
	noTCP := in.Packets.TCP == 0
	if in.Throughput != nil && in.Throughput.Available {
		noTCP = false
	}
	if in.Window != nil && len(in.Window.Series) > 0 {
		noTCP = false
	}
	if noTCP {
		return []string{DiagNoTCP, DiagNoTCPPayload}
	}
	if in.Goodput != nil && in.Goodput.Packets == 0 {
		return []string{DiagNoTCPPayload}
	}
	return nil
}

// Render returns the plain-text summary block.
func Render(s *core.FlowSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Congestion Control: %s\n", s.Label)
	writeMetrics(&b, s)
	return b.String()
}

// Console returns the lines printed on standard output after a run: the
// diagnostics followed by the metric lines.
func Console(s *core.FlowSummary) string {
	var b strings.Builder
	for _, d := range s.Diagnostics {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	writeMetrics(&b, s)
	return b.String()
}

func writeMetrics(b *strings.Builder, s *core.FlowSummary) {
	fmt.Fprintf(b, "Goodput: %.2f Mbps\n", s.GoodputMbps)
	fmt.Fprintf(b, "Packet Loss Rate: %.4f\n", s.LossRate)
	fmt.Fprintf(b, "Maximum Window Size: %d bytes\n", s.MaxWindowBytes)
}

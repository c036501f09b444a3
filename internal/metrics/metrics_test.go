package metrics

import (
	core "CCSpectra/internal/core/model"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWriteTextfile(t *testing.T) {
	PacketsTotal.WithLabelValues("tcp").Add(3)
	GoodputMbps.WithLabelValues("bbr").Set(12.5)

	if got := testutil.ToFloat64(PacketsTotal.WithLabelValues("tcp")); got < 3 {
		t.Errorf("Expected at least 3 tcp packets counted, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "ccspectra.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	for _, want := range []string{"ccspectra_packets_total", `ccspectra_goodput_mbps{congestion="bbr"} 12.5`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Textfile is missing %q", want)
		}
	}
}

func TestObserveSummary(t *testing.T) {
	ObserveSummary(&core.FlowSummary{
		Label:          "yeah",
		Packets:        core.PacketCounts{Total: 5, TCP: 4, NonTCP: 1},
		GoodputMbps:    3.5,
		LossRate:       0.25,
		MaxWindowBytes: 65535,
	})
	if got := testutil.ToFloat64(LossRate.WithLabelValues("yeah")); got != 0.25 {
		t.Errorf("Expected loss gauge 0.25, got %v", got)
	}
	if got := testutil.ToFloat64(MaxWindowBytes.WithLabelValues("yeah")); got != 65535 {
		t.Errorf("Expected window gauge 65535, got %v", got)
	}
	if got := testutil.ToFloat64(PacketsTotal.WithLabelValues("non_tcp")); got < 1 {
		t.Errorf("Expected non_tcp frames counted, got %v", got)
	}
}

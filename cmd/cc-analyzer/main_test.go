package main

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/pkg/pcap"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-lab/go/rtx"
)

const testConfig = `
analyzer:
  mode: batch
report:
  writers:
    - type: text
      enabled: true
    - type: json
      enabled: true
logging:
  level: error
`

func setup(t *testing.T, segments []pcap.Segment) (capture, cfg, out string) {
	t.Helper()
	dir := t.TempDir()
	capture = filepath.Join(dir, "bbr.pcap")
	rtx.Must(pcap.WriteFile(capture, false, segments), "Failed to write capture")
	cfg = filepath.Join(dir, "config.yaml")
	rtx.Must(os.WriteFile(cfg, []byte(testConfig), 0644), "Failed to write config")
	return capture, cfg, filepath.Join(dir, "results")
}

func flow() []pcap.Segment {
	t0 := time.Unix(10, 0)
	return []pcap.Segment{
		{Timestamp: t0, Flags: core.FlagSYN, Seq: 500, Window: 64, WindowScale: 2, HasWindowScale: true},
		{Timestamp: t0.Add(500 * time.Millisecond), Flags: core.FlagACK, Seq: 501, Ack: 50, Window: 64, PayloadLength: 150},
		{Timestamp: t0.Add(1200 * time.Millisecond), Flags: core.FlagACK, Seq: 502, Ack: 200, Window: 64, PayloadLength: 100},
	}
}

func TestRun(t *testing.T) {
	for _, mode := range []string{"batch", "stream"} {
		capture, cfg, out := setup(t, flow())
		var stdout, stderr bytes.Buffer
		code := run([]string{"--pcap", capture, "--congestion", "bbr", "--output_dir", out, "--config", cfg, "--mode", mode}, &stdout, &stderr)
		if code != exitOK {
			t.Fatalf("%s: expected exit 0, got %d (%s)", mode, code, stderr.String())
		}
		if !strings.Contains(stdout.String(), "Maximum Window Size: 256 bytes") {
			t.Errorf("%s: unexpected output %q", mode, stdout.String())
		}
		for _, name := range []string{"summary_bbr.txt", "summary_bbr.json"} {
			if _, err := os.Stat(filepath.Join(out, name)); err != nil {
				t.Errorf("%s: missing %s: %v", mode, name, err)
			}
		}
	}
}

func TestRun_NoTCP(t *testing.T) {
	capture, cfg, out := setup(t, []pcap.Segment{{Timestamp: time.Unix(1, 0), UDP: true, PayloadLength: 10}})
	var stdout, stderr bytes.Buffer
	code := run([]string{"--pcap", capture, "--congestion", "yeah", "--output_dir", out, "--config", cfg}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("Expected exit 0 for a capture without TCP, got %d", code)
	}
	if !strings.Contains(stdout.String(), "No TCP packets found in the capture file.\nNo TCP packets with payload found in the capture file.\n") {
		t.Errorf("Expected both diagnostics, got %q", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	capture, cfg, out := setup(t, flow())
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing pcap", []string{"--congestion", "bbr"}, exitUsage},
		{"bad congestion", []string{"--pcap", capture, "--congestion", "cubic"}, exitUsage},
		{"unknown flag", []string{"--pcap", capture, "--congestion", "bbr", "--verbose"}, exitUsage},
		{"bad mode", []string{"--pcap", capture, "--congestion", "bbr", "--config", cfg, "--mode", "live"}, exitUsage},
		{"missing explicit config", []string{"--pcap", capture, "--congestion", "bbr", "--config", filepath.Join(out, "nope.yaml")}, exitUsage},
		{"missing capture", []string{"--pcap", filepath.Join(out, "nope.pcap"), "--congestion", "bbr", "--config", cfg}, exitCapture},
	}
	for _, tc := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(tc.args, &stdout, &stderr); code != tc.want {
			t.Errorf("%s: expected exit %d, got %d (%s)", tc.name, tc.want, code, stderr.String())
		}
	}
}

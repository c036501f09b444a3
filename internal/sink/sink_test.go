package sink

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func summary() *core.FlowSummary {
	return &core.FlowSummary{
		RunID:               "0d6f2c1e-run",
		Label:               "bbr",
		Source:              "bbr.pcap",
		GeneratedAt:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Packets:             core.PacketCounts{Total: 4, TCP: 4},
		ThroughputAvailable: true,
		ThroughputSeries:    []core.ThroughputPoint{{Second: 0, Mbps: 0.0024}, {Second: 1, Mbps: 0.0012}, {Second: 2, Mbps: 0.00096}},
		ThroughputStats:     core.ThroughputStats{PeakMbps: 0.0024, MeanMbps: 0.00152, TotalBytes: 570},
		GoodputMbps:         0.00104,
		MaxWindowBytes:      256,
		WindowSeries:        []core.WindowPoint{{Seconds: 0, Bytes: 256}, {Seconds: 0.5, Bytes: 64}, {Seconds: 1.2, Bytes: 64}, {Seconds: 2.9, Bytes: 64}},
	}
}

func TestTextWriter(t *testing.T) {
	dir := t.TempDir()
	if err := NewTextWriter(dir).Write(summary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "summary_bbr.txt"))
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	want := "Congestion Control: bbr\nGoodput: 0.00 Mbps\nPacket Loss Rate: 0.0000\nMaximum Window Size: 256 bytes\n"
	if string(data) != want {
		t.Errorf("Unexpected summary:\n%s", data)
	}
}

func TestJSONWriter(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSONWriter(dir).Write(summary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "summary_bbr.json"))
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var got core.FlowSummary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Label != "bbr" || got.MaxWindowBytes != 256 || len(got.ThroughputSeries) != 3 || len(got.WindowSeries) != 4 {
		t.Errorf("Unexpected decoded summary %+v", got)
	}
	if !bytes.Contains(data, []byte(`"congestion_control": "bbr"`)) {
		t.Errorf("Expected the congestion_control key in:\n%s", data)
	}
}

func TestPlotWriter(t *testing.T) {
	dir := t.TempDir()
	if err := NewPlotWriter(dir, 640, 400).Write(summary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, name := range []string{"throughput_bbr.png", "window_size_bbr.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Missing plot %s: %v", name, err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s is not a PNG: %v", name, err)
		}
		if cfg.Width != 640 || cfg.Height != 400 {
			t.Errorf("%s: expected 640x400, got %dx%d", name, cfg.Width, cfg.Height)
		}
	}
}

func TestPlotWriter_DegenerateSeries(t *testing.T) {
	dir := t.TempDir()
	s := &core.FlowSummary{
		Label:            "yeah",
		ThroughputSeries: []core.ThroughputPoint{{Second: 0, Mbps: 0}},
		WindowSeries:     []core.WindowPoint{{Seconds: 0, Bytes: 0}},
	}
	if err := NewPlotWriter(dir, 320, 240).Write(s); err != nil {
		t.Fatalf("Write failed for single-point series: %v", err)
	}

	empty := t.TempDir()
	if err := NewPlotWriter(empty, 320, 240).Write(&core.FlowSummary{Label: "yeah"}); err != nil {
		t.Fatalf("Write failed for empty summary: %v", err)
	}
	entries, _ := os.ReadDir(empty)
	if len(entries) != 0 {
		t.Errorf("Expected no plots for empty series, got %d files", len(entries))
	}
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject, p.data = subject, data
	return p.err
}

func TestNATSWriter(t *testing.T) {
	pub := &fakePublisher{}
	w := &NATSWriter{pub: pub, subject: "ccspectra.summaries"}
	if err := w.Write(summary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if pub.subject != "ccspectra.summaries" {
		t.Errorf("Unexpected subject %q", pub.subject)
	}

	var st structpb.Struct
	if err := proto.Unmarshal(pub.data, &st); err != nil {
		t.Fatalf("Payload is not a protobuf Struct: %v", err)
	}
	fields := st.GetFields()
	if fields["congestion_control"].GetStringValue() != "bbr" {
		t.Errorf("Unexpected label %v", fields["congestion_control"])
	}
	if fields["max_window_bytes"].GetNumberValue() != 256 {
		t.Errorf("Unexpected max window %v", fields["max_window_bytes"])
	}
	if n := len(fields["throughput_series"].GetListValue().GetValues()); n != 3 {
		t.Errorf("Expected 3 throughput points, got %d", n)
	}

	pub.err = errors.New("no responders")
	if err := w.Write(summary()); err == nil {
		t.Error("Expected the publish error to be returned")
	}
}

func TestNewWriters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	cfg := config.Default()
	cfg.Report.Writers = append(cfg.Report.Writers,
		config.WriterDef{Type: "gob", Enabled: true},
		config.WriterDef{Type: TypeClickHouse, Enabled: false},
	)
	writers, err := NewWriters(cfg, dir)
	if err != nil {
		t.Fatalf("NewWriters failed: %v", err)
	}
	var names []string
	for _, w := range writers {
		names = append(names, w.Name())
	}
	if len(names) != 3 || names[0] != TypeText || names[1] != TypeJSON || names[2] != TypePlot {
		t.Errorf("Unexpected writers %v", names)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected the output directory to be created: %v", err)
	}
	Close(writers)
}

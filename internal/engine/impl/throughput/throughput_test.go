package throughput

import (
	core "CCSpectra/internal/core/model"
	"math"
	"testing"
)

const eps = 1e-9

func scenario() []core.PacketRecord {
	return []core.PacketRecord{
		{Timestamp: 10.0, TotalSize: 100, IsTCP: true, PayloadLength: 50, Flags: core.FlagSYN, Seq: 500, Window: 64, WindowScale: 2, HasWindowScale: true},
		{Timestamp: 10.5, TotalSize: 200, IsTCP: true, PayloadLength: 150, Flags: core.FlagACK, Seq: 501, Ack: 50, Window: 64},
		{Timestamp: 11.2, TotalSize: 150, IsTCP: true, PayloadLength: 100, Flags: core.FlagACK, Seq: 502, Ack: 200, Window: 64},
		{Timestamp: 12.9, TotalSize: 120, IsTCP: true, PayloadLength: 80, Flags: core.FlagACK, Seq: 503, Ack: 300, Window: 64},
	}
}

func TestCompute_Scenario(t *testing.T) {
	res := Compute(scenario())
	if !res.Available {
		t.Fatal("Expected throughput to be available")
	}
	want := []float64{300 * 8 / 1e6, 150 * 8 / 1e6, 120 * 8 / 1e6}
	if len(res.Points) != len(want) {
		t.Fatalf("Expected %d buckets, got %d", len(want), len(res.Points))
	}
	for i, p := range res.Points {
		if p.Second != i {
			t.Errorf("Bucket %d has second %d", i, p.Second)
		}
		if math.Abs(p.Mbps-want[i]) > eps {
			t.Errorf("Bucket %d: expected %v Mbps, got %v", i, want[i], p.Mbps)
		}
	}
	if res.Stats.TotalBytes != 570 {
		t.Errorf("Expected 570 total bytes, got %d", res.Stats.TotalBytes)
	}
	if math.Abs(res.Stats.PeakMbps-want[0]) > eps {
		t.Errorf("Expected peak %v, got %v", want[0], res.Stats.PeakMbps)
	}
	if math.Abs(res.Stats.MeanMbps-(570*8/1e6)/3) > eps {
		t.Errorf("Unexpected mean %v", res.Stats.MeanMbps)
	}
	if res.Stats.StdDevMbps <= 0 {
		t.Errorf("Expected a positive stddev, got %v", res.Stats.StdDevMbps)
	}
}

func TestCompute_Empty(t *testing.T) {
	if res := Compute(nil); res.Available || len(res.Points) != 0 {
		t.Errorf("Expected no data for empty input, got %+v", res)
	}
	nonTCP := []core.PacketRecord{{Timestamp: 1, TotalSize: 60}}
	if res := Compute(nonTCP); res.Available {
		t.Errorf("Expected no data for a capture without TCP, got %+v", res)
	}
}

func TestCompute_GapsAndConservation(t *testing.T) {
	records := []core.PacketRecord{
		{Timestamp: 100.2, TotalSize: 1500, IsTCP: true},
		{Timestamp: 100.9, TotalSize: 60, IsTCP: true},
		{Timestamp: 101.0, TotalSize: 999, IsTCP: false},
		{Timestamp: 104.0, TotalSize: 1500, IsTCP: true},
		{Timestamp: 105.7, TotalSize: 40, IsTCP: true},
	}
	res := Compute(records)

	// max normalized timestamp is 5.5, so floor(5.5)+1 buckets.
	if len(res.Points) != 6 {
		t.Fatalf("Expected 6 contiguous buckets, got %d", len(res.Points))
	}
	var bytes float64
	for i, p := range res.Points {
		if p.Mbps < 0 {
			t.Errorf("Bucket %d is negative: %v", i, p.Mbps)
		}
		bytes += p.Mbps * 1e6 / 8
	}
	if math.Abs(bytes-3100) > 1e-6 {
		t.Errorf("Expected 3100 bytes across the series, got %v", bytes)
	}
	for _, i := range []int{1, 2} {
		if res.Points[i].Mbps != 0 {
			t.Errorf("Expected an explicit zero bucket at %d, got %v", i, res.Points[i].Mbps)
		}
	}
}

func TestCompute_UsesMinimumTimestamp(t *testing.T) {
	records := []core.PacketRecord{
		{Timestamp: 5.5, TotalSize: 10, IsTCP: true},
		{Timestamp: 3.0, TotalSize: 20, IsTCP: true},
	}
	res := Compute(records)
	if len(res.Points) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(res.Points))
	}
	if res.Points[0].Mbps != ToMbps(20) || res.Points[2].Mbps != ToMbps(10) {
		t.Errorf("Unexpected series %+v", res.Points)
	}
}

func TestTask_MatchesCompute(t *testing.T) {
	records := scenario()
	records = append(records,
		core.PacketRecord{Timestamp: 13.0, TotalSize: 77},
		core.PacketRecord{Timestamp: 16.4, TotalSize: 1500, IsTCP: true},
	)

	task := New()
	for i := range records {
		task.ProcessPacket(&records[i])
	}
	got := task.Snapshot().(core.ThroughputResult)
	want := Compute(records)

	if len(got.Points) != len(want.Points) {
		t.Fatalf("Expected %d buckets, got %d", len(want.Points), len(got.Points))
	}
	for i := range want.Points {
		if got.Points[i] != want.Points[i] {
			t.Errorf("Bucket %d: expected %+v, got %+v", i, want.Points[i], got.Points[i])
		}
	}
	if got.Stats != want.Stats {
		t.Errorf("Expected stats %+v, got %+v", want.Stats, got.Stats)
	}
}

func TestTask_OutOfOrderAndReset(t *testing.T) {
	task := New().(*Task)
	for _, r := range []core.PacketRecord{
		{Timestamp: 10.0, TotalSize: 100, IsTCP: true},
		{Timestamp: 12.5, TotalSize: 100, IsTCP: true},
		{Timestamp: 10.7, TotalSize: 50, IsTCP: true},
		{Timestamp: 9.0, TotalSize: 25, IsTCP: true},
	} {
		r := r
		task.ProcessPacket(&r)
	}
	if task.OutOfOrder() != 2 {
		t.Errorf("Expected 2 out-of-order records, got %d", task.OutOfOrder())
	}
	res := task.Snapshot().(core.ThroughputResult)
	if res.Stats.TotalBytes != 275 {
		t.Errorf("Expected all 275 bytes to be kept, got %d", res.Stats.TotalBytes)
	}
	if res.Points[0].Mbps != ToMbps(175) {
		t.Errorf("Expected late records in bucket 0, got %+v", res.Points[0])
	}

	task.Reset()
	if res := task.Snapshot().(core.ThroughputResult); res.Available {
		t.Errorf("Expected no data after Reset, got %+v", res)
	}
}

func TestStats_SingleBucket(t *testing.T) {
	mean, peak, stddev := Stats([]float64{4})
	if mean != 4 || peak != 4 || stddev != 0 {
		t.Errorf("Unexpected stats %v %v %v", mean, peak, stddev)
	}
}

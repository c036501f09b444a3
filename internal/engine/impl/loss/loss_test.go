package loss

import (
	core "CCSpectra/internal/core/model"
	"math"
	"math/rand"
	"testing"
)

func TestCompute_Scenario(t *testing.T) {
	records := []core.PacketRecord{
		{Timestamp: 10.0, IsTCP: true, Flags: core.FlagSYN, Seq: 500},
		{Timestamp: 10.5, IsTCP: true, Flags: core.FlagACK, Seq: 501, Ack: 50},
		{Timestamp: 11.2, IsTCP: true, Flags: core.FlagACK, Seq: 502, Ack: 200},
		{Timestamp: 12.9, IsTCP: true, Flags: core.FlagACK, Seq: 503, Ack: 300},
	}
	res := Compute(records)
	if res.Rate != 0 {
		t.Errorf("Expected loss rate clamped to 0, got %v", res.Rate)
	}
	if res.SynSeqs != 1 || res.AckedNumbers != 3 {
		t.Errorf("Expected set sizes 1/3, got %d/%d", res.SynSeqs, res.AckedNumbers)
	}
}

func TestCompute_Deficit(t *testing.T) {
	records := []core.PacketRecord{
		{IsTCP: true, Flags: core.FlagSYN, Seq: 1},
		{IsTCP: true, Flags: core.FlagSYN, Seq: 2},
		{IsTCP: true, Flags: core.FlagSYN, Seq: 2},
		{IsTCP: true, Flags: core.FlagSYN, Seq: 3},
		{IsTCP: true, Flags: core.FlagSYN, Seq: 4},
		{IsTCP: true, Flags: core.FlagSYN | core.FlagACK, Seq: 9, Ack: 2},
		{IsTCP: true, Flags: core.FlagACK, Ack: 2},
		{Flags: core.FlagACK, Ack: 77},
	}
	res := Compute(records)
	// 5 distinct SYN seqs, 1 distinct ack.
	if math.Abs(res.Rate-0.8) > 1e-12 {
		t.Errorf("Expected loss rate 0.8, got %v", res.Rate)
	}
}

func TestCompute_NoSYN(t *testing.T) {
	records := []core.PacketRecord{{IsTCP: true, Flags: core.FlagACK, Ack: 1}}
	if res := Compute(records); res.Rate != 0 {
		t.Errorf("Expected 0 without SYN segments, got %v", res.Rate)
	}
	if res := Compute(nil); res.Rate != 0 {
		t.Errorf("Expected 0 for empty input, got %v", res.Rate)
	}
}

func TestCompute_EqualSets(t *testing.T) {
	var records []core.PacketRecord
	for i := uint32(0); i < 10; i++ {
		records = append(records,
			core.PacketRecord{IsTCP: true, Flags: core.FlagSYN, Seq: i * 1000},
			core.PacketRecord{IsTCP: true, Flags: core.FlagACK, Ack: i*1000 + 1},
		)
	}
	if res := Compute(records); res.Rate != 0 {
		t.Errorf("Expected 0 when every SYN is acknowledged, got %v", res.Rate)
	}
}

func TestCompute_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	flags := []core.TCPFlags{0, core.FlagSYN, core.FlagACK, core.FlagSYN | core.FlagACK, core.FlagFIN | core.FlagACK}
	for run := 0; run < 200; run++ {
		records := make([]core.PacketRecord, rng.Intn(50))
		for i := range records {
			records[i] = core.PacketRecord{
				IsTCP: rng.Intn(5) > 0,
				Flags: flags[rng.Intn(len(flags))],
				Seq:   uint32(rng.Intn(20)),
				Ack:   uint32(rng.Intn(20)),
			}
		}
		if rate := Compute(records).Rate; rate < 0 || rate > 1 {
			t.Fatalf("Run %d: loss rate %v out of bounds", run, rate)
		}
	}
}

func TestTask_Reset(t *testing.T) {
	task := New()
	task.ProcessPacket(&core.PacketRecord{IsTCP: true, Flags: core.FlagSYN, Seq: 1})
	task.ProcessPacket(&core.PacketRecord{IsTCP: true, Flags: core.FlagSYN, Seq: 2})
	if res := task.Snapshot().(core.LossResult); res.Rate != 1 {
		t.Errorf("Expected 1 with no acknowledgments, got %v", res.Rate)
	}
	task.Reset()
	if res := task.Snapshot().(core.LossResult); res.SynSeqs != 0 || res.Rate != 0 {
		t.Errorf("Expected empty result after Reset, got %+v", res)
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[float64]float64{-0.5: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1} {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}

package loss

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/factory"
	"CCSpectra/internal/model"
)

const Name = "loss"

func init() {
	factory.Register(factory.Metric{
		Name:    Name,
		Compute: func(records []core.PacketRecord) interface{} { return Compute(records) },
		NewTask: func() model.Task { return New() },
	})
}

// Compute estimates the loss rate as 1 - |acked| / |synSeqs|, where synSeqs
// holds the distinct sequence numbers of SYN segments and acked the distinct
// acknowledgment numbers of ACK segments. The estimate is clamped to [0, 1]
// and is 0 when no SYN was seen.
//
// This is a cardinality comparison, not a retransmission count.
func Compute(records []core.PacketRecord) core.LossResult {
	t := newTask()
	for i := range records {
		t.ProcessPacket(&records[i])
	}
	return t.result()
}

// Task collects the two distinct-value sets.
type Task struct {
	synSeqs map[uint32]struct{}
	acked   map[uint32]struct{}
}

// New creates an empty loss task.
func New() model.Task {
	return newTask()
}

func newTask() *Task {
	return &Task{
		synSeqs: make(map[uint32]struct{}),
		acked:   make(map[uint32]struct{}),
	}
}

func (t *Task) Name() string {
	return Name
}

func (t *Task) ProcessPacket(r *core.PacketRecord) {
	if !r.IsTCP {
		return
	}
	if r.Flags.Has(core.FlagSYN) {
		t.synSeqs[r.Seq] = struct{}{}
	}
	if r.Flags.Has(core.FlagACK) {
		t.acked[r.Ack] = struct{}{}
	}
}

// Snapshot returns a core.LossResult.
func (t *Task) Snapshot() interface{} {
	return t.result()
}

func (t *Task) Reset() {
	t.synSeqs = make(map[uint32]struct{})
	t.acked = make(map[uint32]struct{})
}

func (t *Task) result() core.LossResult {
	res := core.LossResult{SynSeqs: len(t.synSeqs), AckedNumbers: len(t.acked)}
	if res.SynSeqs == 0 {
		return res
	}
	res.Rate = Clamp(1 - float64(res.AckedNumbers)/float64(res.SynSeqs))
	return res
}

// Clamp bounds a loss estimate to [0, 1].
func Clamp(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}

package goodput

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/factory"
	"CCSpectra/internal/model"
)

const Name = "goodput"

func init() {
	factory.Register(factory.Metric{
		Name:    Name,
		Compute: func(records []core.PacketRecord) interface{} { return Compute(records) },
		NewTask: func() model.Task { return New() },
	})
}

// Compute returns the payload rate over the span of the payload-bearing TCP
// records. It is 0 when there are no such records or when they all share a
// single timestamp.
func Compute(records []core.PacketRecord) core.GoodputResult {
	t := &Task{}
	for i := range records {
		t.ProcessPacket(&records[i])
	}
	return t.result()
}

// Task accumulates payload bytes and the timestamp range of payload-bearing
// TCP records. Order does not matter.
type Task struct {
	bytes    int64
	packets  int
	min, max float64
}

// New creates an empty goodput task.
func New() model.Task {
	return &Task{}
}

func (t *Task) Name() string {
	return Name
}

func (t *Task) ProcessPacket(r *core.PacketRecord) {
	if !r.IsTCP || r.PayloadLength <= 0 {
		return
	}
	if t.packets == 0 || r.Timestamp < t.min {
		t.min = r.Timestamp
	}
	if t.packets == 0 || r.Timestamp > t.max {
		t.max = r.Timestamp
	}
	t.packets++
	t.bytes += int64(r.PayloadLength)
}

// Snapshot returns a core.GoodputResult.
func (t *Task) Snapshot() interface{} {
	return t.result()
}

func (t *Task) Reset() {
	*t = Task{}
}

func (t *Task) result() core.GoodputResult {
	res := core.GoodputResult{PayloadBytes: t.bytes, Packets: t.packets}
	if t.packets == 0 {
		return res
	}
	res.SpanSeconds = t.max - t.min
	if res.SpanSeconds <= 0 {
		return res
	}
	res.Mbps = float64(t.bytes) * 8 / res.SpanSeconds / 1e6
	return res
}

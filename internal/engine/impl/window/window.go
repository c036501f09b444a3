package window

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/factory"
	"CCSpectra/internal/model"
	"math"
)

const Name = "window"

func init() {
	factory.Register(factory.Metric{
		Name:    Name,
		Compute: func(records []core.PacketRecord) interface{} { return Compute(records) },
		NewTask: func() model.Task { return New() },
	})
}

// maxShift is the largest shift that keeps any 16-bit window within int64.
const maxShift = 47

// Effective returns the advertised window of r scaled by the window scale
// option carried on r itself. Records without the option use a shift of 0.
// Shifts beyond maxShift saturate at math.MaxInt64.
func Effective(r *core.PacketRecord) int64 {
	s := r.Scale()
	if s > maxShift && r.Window != 0 {
		return math.MaxInt64
	}
	return int64(r.Window) << s
}

// Compute returns the effective window of every TCP record in capture order,
// with timestamps relative to the earliest TCP record, and the maximum.
func Compute(records []core.PacketRecord) core.WindowResult {
	t := &Task{}
	for i := range records {
		t.ProcessPacket(&records[i])
	}
	return t.result()
}

type sample struct {
	ts    float64
	bytes int64
}

// Task records raw samples and normalizes them when a snapshot is taken, so
// the zero point is the minimum timestamp even for unordered input.
type Task struct {
	samples []sample
	min     float64
	max     int64
}

// New creates an empty window task.
func New() model.Task {
	return &Task{}
}

func (t *Task) Name() string {
	return Name
}

func (t *Task) ProcessPacket(r *core.PacketRecord) {
	if !r.IsTCP {
		return
	}
	eff := Effective(r)
	if len(t.samples) == 0 || r.Timestamp < t.min {
		t.min = r.Timestamp
	}
	if eff > t.max {
		t.max = eff
	}
	t.samples = append(t.samples, sample{ts: r.Timestamp, bytes: eff})
}

// Snapshot returns a core.WindowResult.
func (t *Task) Snapshot() interface{} {
	return t.result()
}

func (t *Task) Reset() {
	*t = Task{}
}

func (t *Task) result() core.WindowResult {
	res := core.WindowResult{MaxBytes: t.max}
	if len(t.samples) == 0 {
		return res
	}
	res.Series = make([]core.WindowPoint, len(t.samples))
	for i, s := range t.samples {
		res.Series[i] = core.WindowPoint{Seconds: s.ts - t.min, Bytes: s.bytes}
	}
	return res
}

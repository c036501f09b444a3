package throughput

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
)

// Task is the streaming form of the throughput aggregator. It keeps a single
// open bucket and closes it as soon as a record from a later second arrives.
// The first TCP timestamp seen is the zero point, so the result matches
// Compute whenever timestamps are non-decreasing.
type Task struct {
	started bool
	base    float64

	closed  []int64
	open    int
	openSum int64

	outOfOrder int
}

// New creates an empty streaming throughput task.
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
	if !t.started {
		t.started = true
		t.base = r.Timestamp
	}

	idx := int(r.Timestamp - t.base)
	if r.Timestamp < t.base {
		idx = 0
		t.outOfOrder++
	} else if idx < t.open {
		t.outOfOrder++
	}
	if idx < t.open {
		t.closed[idx] += int64(r.TotalSize)
		return
	}
	for t.open < idx {
		t.closed = append(t.closed, t.openSum)
		t.openSum = 0
		t.open++
	}
	t.openSum += int64(r.TotalSize)
}

// Snapshot returns a core.ThroughputResult covering everything seen so far.
func (t *Task) Snapshot() interface{} {
	if !t.started {
		return core.ThroughputResult{}
	}
	acc := &accumulator{base: t.base, buckets: make([]int64, 0, len(t.closed)+1)}
	acc.buckets = append(acc.buckets, t.closed...)
	acc.buckets = append(acc.buckets, t.openSum)
	return acc.result()
}

// OutOfOrder returns how many records arrived earlier than the first one or
// for an already closed bucket.
func (t *Task) OutOfOrder() int {
	return t.outOfOrder
}

func (t *Task) Reset() {
	*t = Task{}
}

package model

import core "CCSpectra/internal/core/model"

// Task is a single metric reducer. Records are pushed one at a time, in capture
// order, and Snapshot returns the metric computed over everything seen since
// the last Reset. A Task is not safe for concurrent use.
type Task interface {
	ProcessPacket(record *core.PacketRecord)
	Snapshot() interface{}
	Reset()
	Name() string
}

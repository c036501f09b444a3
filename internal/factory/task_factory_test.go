package factory

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
	"testing"
)

type countTask struct{ n int }

func (c *countTask) ProcessPacket(*core.PacketRecord) { c.n++ }
func (c *countTask) Snapshot() interface{}            { return c.n }
func (c *countTask) Reset()                           { c.n = 0 }
func (c *countTask) Name() string                     { return "test-count" }

func init() {
	Register(Metric{
		Name:    "test-count",
		Compute: func(records []core.PacketRecord) interface{} { return len(records) },
		NewTask: func() model.Task { return &countTask{} },
	})
}

func TestCreate(t *testing.T) {
	metrics, err := Create([]string{"test-count"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Name != "test-count" {
		t.Fatalf("Unexpected metrics %+v", metrics)
	}
	if got := metrics[0].Compute(make([]core.PacketRecord, 3)); got != 3 {
		t.Errorf("Expected Compute to return 3, got %v", got)
	}
	task := metrics[0].NewTask()
	task.ProcessPacket(&core.PacketRecord{})
	if task.Snapshot() != 1 {
		t.Errorf("Expected task snapshot 1, got %v", task.Snapshot())
	}
}

func TestCreate_Errors(t *testing.T) {
	if _, err := Create([]string{"no-such-metric"}); err == nil {
		t.Error("Expected an error for an unknown metric")
	}
	if _, err := Create([]string{"test-count", "test-count"}); err == nil {
		t.Error("Expected an error for a duplicated metric")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Register to panic on a duplicate name")
		}
	}()
	Register(Metric{Name: "test-count"})
}

func TestNames(t *testing.T) {
	names := Names()
	found := false
	for _, n := range names {
		if n == "test-count" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected test-count in %v", names)
	}
}

package factory

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
	"fmt"
	"sort"
	"sync"
)

// Metric describes one registered metric in both of its forms: a batch
// function over a materialized capture and a streaming Task.
type Metric struct {
	Name    string
	Compute func(records []core.PacketRecord) interface{}
	NewTask func() model.Task
}

var (
	mu sync.RWMutex
	// registry holds the mapping of metric names to their implementations.
	registry = make(map[string]Metric)
)

// Register makes a metric available to Create. It panics on duplicates.
func Register(m Metric) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[m.Name]; exists {
		panic(fmt.Sprintf("metric '%s' already registered", m.Name))
	}
	registry[m.Name] = m
}

// Create returns the metrics named in names, in the same order.
func Create(names []string) ([]Metric, error) {
	mu.RLock()
	defer mu.RUnlock()

	metrics := make([]Metric, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		m, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric: '%s'", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("metric '%s' listed twice", name)
		}
		seen[name] = true
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// Names returns the registered metric names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

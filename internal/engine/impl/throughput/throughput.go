package throughput

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/factory"
	"CCSpectra/internal/model"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const Name = "throughput"

func init() {
	factory.Register(factory.Metric{
		Name:    Name,
		Compute: func(records []core.PacketRecord) interface{} { return Compute(records) },
		NewTask: func() model.Task { return New() },
	})
}

// Compute buckets the total size of every TCP record into one-second intervals
// measured from the earliest TCP timestamp. Buckets with no traffic are kept
// as explicit zero entries. An input with no TCP records yields a result with
// Available unset.
func Compute(records []core.PacketRecord) core.ThroughputResult {
	base, ok := minTimestamp(records)
	if !ok {
		return core.ThroughputResult{}
	}

	acc := newAccumulator(base)
	for i := range records {
		if records[i].IsTCP {
			acc.add(records[i].Timestamp, records[i].TotalSize)
		}
	}
	return acc.result()
}

func minTimestamp(records []core.PacketRecord) (float64, bool) {
	var (
		min   float64
		found bool
	)
	for i := range records {
		if !records[i].IsTCP {
			continue
		}
		if !found || records[i].Timestamp < min {
			min, found = records[i].Timestamp, true
		}
	}
	return min, found
}

// accumulator sums bytes per second relative to base.
type accumulator struct {
	base    float64
	buckets []int64
}

func newAccumulator(base float64) *accumulator {
	return &accumulator{base: base}
}

func (a *accumulator) add(ts float64, size int) {
	idx := int(math.Floor(ts - a.base))
	if idx < 0 {
		idx = 0
	}
	for len(a.buckets) <= idx {
		a.buckets = append(a.buckets, 0)
	}
	a.buckets[idx] += int64(size)
}

func (a *accumulator) result() core.ThroughputResult {
	res := core.ThroughputResult{
		Available: true,
		Points:    make([]core.ThroughputPoint, len(a.buckets)),
	}
	mbps := make([]float64, len(a.buckets))
	for i, b := range a.buckets {
		mbps[i] = ToMbps(b)
		res.Points[i] = core.ThroughputPoint{Second: i, Mbps: mbps[i]}
		res.Stats.TotalBytes += b
	}
	res.Stats.MeanMbps, res.Stats.PeakMbps, res.Stats.StdDevMbps = Stats(mbps)
	return res
}

// ToMbps converts a byte count over one second to megabits per second.
func ToMbps(bytes int64) float64 {
	return float64(bytes) * 8 / 1e6
}

// Stats returns the mean, peak and sample standard deviation of a series.
// The standard deviation is 0 for fewer than two samples.
func Stats(series []float64) (mean, peak, stddev float64) {
	if len(series) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(series, nil)
	peak = floats.Max(series)
	if len(series) > 1 {
		stddev = stat.StdDev(series, nil)
	}
	return mean, peak, stddev
}

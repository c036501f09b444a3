package sink

import (
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/model"
	"errors"
	"fmt"
	"os"

	"github.com/wcharczuk/go-chart/v2"
)

// PlotWriter renders throughput_<label>.png and window_size_<label>.png.
// A chart is only written when its series has at least one point.
type PlotWriter struct {
	dir           string
	width, height int
}

// NewPlotWriter creates a new PlotWriter.
func NewPlotWriter(dir string, width, height int) model.Writer {
	return &PlotWriter{dir: dir, width: width, height: height}
}

func (w *PlotWriter) Name() string { return TypePlot }

func (w *PlotWriter) Write(s *core.FlowSummary) error {
	var errs []error
	if len(s.ThroughputSeries) > 0 {
		xs := make([]float64, len(s.ThroughputSeries))
		ys := make([]float64, len(s.ThroughputSeries))
		for i, p := range s.ThroughputSeries {
			xs[i], ys[i] = float64(p.Second), p.Mbps
		}
		ch := w.lineChart(fmt.Sprintf("Throughput over Time - %s", s.Label), "Time (seconds)", "Throughput (Mbps)", xs, ys)
		errs = append(errs, render(ch, outputPath(w.dir, "throughput", s.Label, "png")))
	}
	if len(s.WindowSeries) > 0 {
		xs := make([]float64, len(s.WindowSeries))
		ys := make([]float64, len(s.WindowSeries))
		for i, p := range s.WindowSeries {
			xs[i], ys[i] = p.Seconds, float64(p.Bytes)
		}
		ch := w.lineChart(fmt.Sprintf("Window Size over Time - %s", s.Label), "Time (seconds)", "Window Size (bytes)", xs, ys)
		errs = append(errs, render(ch, outputPath(w.dir, "window_size", s.Label, "png")))
	}
	return errors.Join(errs...)
}

func (w *PlotWriter) lineChart(title, xName, yName string, xs, ys []float64) chart.Chart {
	xMin, xMax := bounds(xs)
	_, yMax := bounds(ys)
	// go-chart rejects zero-width ranges.
	if xMax <= xMin {
		xMax = xMin + 1
	}
	yMax *= 1.1
	if yMax <= 0 {
		yMax = 1
	}

	grid := chart.Style{StrokeColor: chart.ColorLightGray, StrokeWidth: 1}
	return chart.Chart{
		Title:      title,
		Width:      w.width,
		Height:     w.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           xName,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           yName,
			Range:          &chart.ContinuousRange{Min: 0, Max: yMax},
			GridMajorStyle: grid,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeWidth: 2, StrokeColor: chart.ColorBlue},
			},
		},
	}
}

func bounds(vs []float64) (min, max float64) {
	for i, v := range vs {
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return min, max
}

func render(ch chart.Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot: %w", err)
	}
	if err := ch.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}

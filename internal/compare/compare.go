// Package compare lines up the JSON summaries of several runs, typically one
// per congestion control scheme, in a single terminal table.
package compare

import (
	core "CCSpectra/internal/core/model"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("#8BE9FD")
	colorGreen = lipgloss.Color("#50FA7B")
	colorGray  = lipgloss.Color("#6272A4")

	headerStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	bestStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
)

var columns = []string{"CC", "Goodput (Mbps)", "Loss", "Max Window (B)", "Peak (Mbps)", "Mean (Mbps)", "Duration (s)"}

// LoadSummaries reads every summary_*.json in dir, sorted by label.
func LoadSummaries(dir string) ([]*core.FlowSummary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "summary_*.json"))
	if err != nil {
		return nil, err
	}
	summaries := make([]*core.FlowSummary, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		var s core.FlowSummary
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p, err)
		}
		summaries = append(summaries, &s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Label < summaries[j].Label })
	return summaries, nil
}

// Rows formats the table cells, one row per summary.
func Rows(summaries []*core.FlowSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Label,
			fmt.Sprintf("%.2f", s.GoodputMbps),
			fmt.Sprintf("%.4f", s.LossRate),
			fmt.Sprintf("%d", s.MaxWindowBytes),
			fmt.Sprintf("%.2f", s.ThroughputStats.PeakMbps),
			fmt.Sprintf("%.2f", s.ThroughputStats.MeanMbps),
			fmt.Sprintf("%d", s.DurationSeconds()),
		})
	}
	return rows
}

// Render draws the comparison table. The run with the highest goodput is
// highlighted.
func Render(summaries []*core.FlowSummary) string {
	if len(summaries) == 0 {
		return dimStyle.Render("no summaries found") + "\n"
	}
	rows := Rows(summaries)

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	best := 0
	for i, s := range summaries {
		if s.GoodputMbps > summaries[best].GoodputMbps {
			best = i
		}
	}

	var b strings.Builder
	b.WriteString(line(columns, widths, headerStyle))
	sep := make([]string, len(columns))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	b.WriteString(line(sep, widths, dimStyle))
	for i, row := range rows {
		style := lipgloss.NewStyle()
		if i == best {
			style = bestStyle
		}
		b.WriteString(line(row, widths, style))
	}
	return b.String()
}

func line(cells []string, widths []int, style lipgloss.Style) string {
	rendered := make([]string, len(cells))
	for i, c := range cells {
		rendered[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

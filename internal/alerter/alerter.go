package alerter

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/model"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/gomarkdown/markdown"
)

// Metric names usable in alert rules.
const (
	MetricGoodput        = "goodput_mbps"
	MetricLossRate       = "loss_rate"
	MetricMaxWindow      = "max_window_bytes"
	MetricPeakThroughput = "peak_throughput_mbps"
	MetricMeanThroughput = "mean_throughput_mbps"
)

// Value returns the value of the named metric in s.
func Value(s *core.FlowSummary, metric string) (float64, bool) {
	switch metric {
	case MetricGoodput:
		return s.GoodputMbps, true
	case MetricLossRate:
		return s.LossRate, true
	case MetricMaxWindow:
		return float64(s.MaxWindowBytes), true
	case MetricPeakThroughput:
		return s.ThroughputStats.PeakMbps, true
	case MetricMeanThroughput:
		return s.ThroughputStats.MeanMbps, true
	}
	return 0, false
}

// Triggered is a rule that matched a run.
type Triggered struct {
	Rule  config.AlerterRule
	Value float64
}

// Alerter evaluates a finished run against the configured rules and sends a
// single notification listing every rule that fired.
type Alerter struct {
	rules    []config.AlerterRule
	notifier model.Notifier
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, notifier model.Notifier) (*Alerter, error) {
	for _, rule := range cfg.Rules {
		if _, ok := Value(&core.FlowSummary{}, rule.Metric); !ok {
			return nil, fmt.Errorf("alert rule %q: unknown metric %q", rule.Name, rule.Metric)
		}
		if _, err := check(rule.Operator, 0, 0); err != nil {
			return nil, fmt.Errorf("alert rule %q: %w", rule.Name, err)
		}
	}
	return &Alerter{rules: cfg.Rules, notifier: notifier}, nil
}

// Evaluate returns the rules that s violates, in configuration order.
func (a *Alerter) Evaluate(s *core.FlowSummary) []Triggered {
	var fired []Triggered
	for _, rule := range a.rules {
		v, _ := Value(s, rule.Metric)
		if ok, _ := check(rule.Operator, v, rule.Threshold); ok {
			fired = append(fired, Triggered{Rule: rule, Value: v})
		}
	}
	return fired
}

// Check evaluates s and notifies when at least one rule fired.
func (a *Alerter) Check(s *core.FlowSummary) error {
	fired := a.Evaluate(s)
	if len(fired) == 0 {
		return nil
	}
	logging.Logger.WithFields(log.Fields{
		"congestion": s.Label,
		"run_id":     s.RunID,
		"alerts":     len(fired),
	}).Warn("alert rules triggered")

	if a.notifier == nil {
		return nil
	}
	subject := fmt.Sprintf("CCSpectra Alert Summary: %s (%d Triggered)", s.Label, len(fired))
	body := string(markdown.ToHTML([]byte(Markdown(s, fired)), nil, nil))
	if err := a.notifier.Send(subject, body); err != nil {
		return fmt.Errorf("failed to send alert notification: %w", err)
	}
	logging.Logger.WithField("run_id", s.RunID).Info("alert notification sent")
	return nil
}

// Markdown renders the triggered rules of a run as a markdown report.
func Markdown(s *core.FlowSummary, fired []Triggered) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# CCSpectra Alert Summary\n\n")
	fmt.Fprintf(&b, "Congestion control **%s**", s.Label)
	if s.Source != "" {
		fmt.Fprintf(&b, ", capture `%s`", s.Source)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, ", run `%s`", s.RunID)
	}
	b.WriteString(".\n\n")

	b.WriteString("| Rule | Metric | Condition | Value |\n")
	b.WriteString("|------|--------|-----------|-------|\n")
	for _, f := range fired {
		fmt.Fprintf(&b, "| %s | %s | %s %g | %g |\n", f.Rule.Name, f.Rule.Metric, f.Rule.Operator, f.Rule.Threshold, f.Value)
	}

	b.WriteString("\n## Run\n\n")
	fmt.Fprintf(&b, "- Goodput: %.2f Mbps\n", s.GoodputMbps)
	fmt.Fprintf(&b, "- Packet loss rate: %.4f\n", s.LossRate)
	fmt.Fprintf(&b, "- Maximum window: %d bytes\n", s.MaxWindowBytes)
	fmt.Fprintf(&b, "- Peak throughput: %.2f Mbps over %d s\n", s.ThroughputStats.PeakMbps, s.DurationSeconds())
	return b.String()
}

func check(op string, value, threshold float64) (bool, error) {
	switch op {
	case ">":
		return value > threshold, nil
	case "<":
		return value < threshold, nil
	case "=":
		return value == threshold, nil
	case ">=":
		return value >= threshold, nil
	case "<=":
		return value <= threshold, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

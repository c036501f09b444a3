package model

import core "CCSpectra/internal/core/model"

// Writer defines a generic interface for handing a finished run to a report sink.
type Writer interface {
	// Write persists or publishes the summary.
	Write(summary *core.FlowSummary) error

	// Name identifies the sink in logs and metrics.
	Name() string
}

// Notifier delivers an alert message, typically rendered as HTML.
type Notifier interface {
	Send(subject, htmlBody string) error
}

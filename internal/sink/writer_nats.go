package sink

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/model"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSWriter publishes each summary as a protobuf Struct on a NATS subject.
type NATSWriter struct {
	pub     publisher
	nc      *nats.Conn
	subject string
}

// NewNATSWriter connects to the NATS server in cfg.
func NewNATSWriter(cfg config.NATSConfig) (model.Writer, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("cc-analyzer"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logging.Logger.WithField("url", cfg.URL).Info("connected to NATS server")
	return &NATSWriter{pub: nc, nc: nc, subject: cfg.Subject}, nil
}

func (w *NATSWriter) Name() string { return TypeNATS }

func (w *NATSWriter) Write(s *core.FlowSummary) error {
	data, err := EncodeSummary(s)
	if err != nil {
		return err
	}
	if err := w.pub.Publish(w.subject, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if w.nc == nil {
		return nil
	}
	return w.nc.Drain()
}

// EncodeSummary serializes s as a google.protobuf.Struct carrying the same
// fields as the JSON summary.
func EncodeSummary(s *core.FlowSummary) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary struct: %w", err)
	}
	return proto.Marshal(st)
}

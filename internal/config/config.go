package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CaptureConfig selects how capture files are opened.
type CaptureConfig struct {
	// Engine is "pcapgo" (pure Go, pcap and pcapng) or "libpcap".
	Engine    string `yaml:"engine"`
	BPFFilter string `yaml:"bpf_filter"`
}

// AnalyzerConfig holds the configuration of the metric engine.
type AnalyzerConfig struct {
	Metrics     []string `yaml:"metrics"`
	Mode        string   `yaml:"mode"`
	ChannelSize int      `yaml:"channel_size"`
}

// ClickHouseConfig holds the connection parameters of the run store.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the parameters of the NATS report sink.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// PlotConfig holds the size of the rendered charts.
type PlotConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WriterDef defines a single report sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Plot       PlotConfig       `yaml:"plot"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ReportConfig lists the report sinks.
type ReportConfig struct {
	Writers []WriterDef `yaml:"writers"`
}

// AlerterRule is a threshold on one summary metric.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig holds the alert rules.
type AlerterConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rules   []AlerterRule `yaml:"rules"`
}

// SMTPConfig holds the mail server used for alerts.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the export of self-metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// APIConfig holds the configuration of cc-api.
type APIConfig struct {
	ListenAddr string           `yaml:"listen_addr"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Report   ReportConfig   `yaml:"report"`
	Alerter  AlerterConfig  `yaml:"alerter"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	API      APIConfig      `yaml:"api"`
}

const (
	ModeBatch  = "batch"
	ModeStream = "stream"

	EnginePcapgo  = "pcapgo"
	EngineLibpcap = "libpcap"
)

// DefaultMetrics lists every metric the engine knows, in report order.
var DefaultMetrics = []string{"throughput", "goodput", "loss", "window"}

// WriterTypes lists the accepted report.writers types.
var WriterTypes = []string{"text", "json", "plot", "clickhouse", "nats"}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Default returns the configuration used when no config file is present:
// all metrics in batch mode, text, json and plot sinks enabled.
func Default() *Config {
	cfg := &Config{
		Report: ReportConfig{Writers: []WriterDef{
			{Type: "text", Enabled: true},
			{Type: "json", Enabled: true},
			{Type: "plot", Enabled: true},
		}},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields left out of the file take their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Capture.Engine == "" {
		c.Capture.Engine = EnginePcapgo
	}
	if c.Capture.BPFFilter == "" {
		c.Capture.BPFFilter = "tcp"
	}
	if len(c.Analyzer.Metrics) == 0 {
		c.Analyzer.Metrics = append([]string(nil), DefaultMetrics...)
	}
	if c.Analyzer.Mode == "" {
		c.Analyzer.Mode = ModeBatch
	}
	if c.Analyzer.ChannelSize <= 0 {
		c.Analyzer.ChannelSize = 4096
	}
	for i := range c.Report.Writers {
		w := &c.Report.Writers[i]
		if w.Plot.Width <= 0 {
			w.Plot.Width = 1000
		}
		if w.Plot.Height <= 0 {
			w.Plot.Height = 600
		}
		if w.NATS.Subject == "" {
			w.NATS.Subject = "ccspectra.summaries"
		}
		if w.ClickHouse.Port == 0 {
			w.ClickHouse.Port = 9000
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ClickHouse.Port == 0 {
		c.API.ClickHouse.Port = 9000
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Analyzer.Mode {
	case ModeBatch, ModeStream:
	default:
		return fmt.Errorf("unknown analyzer mode %q", c.Analyzer.Mode)
	}
	switch c.Capture.Engine {
	case EnginePcapgo, EngineLibpcap:
	default:
		return fmt.Errorf("unknown capture engine %q", c.Capture.Engine)
	}
	for _, m := range c.Analyzer.Metrics {
		if !contains(DefaultMetrics, m) {
			return fmt.Errorf("unknown metric %q", m)
		}
	}
	for _, w := range c.Report.Writers {
		if w.Enabled && !contains(WriterTypes, w.Type) {
			return fmt.Errorf("unknown writer type %q", w.Type)
		}
	}
	for _, rule := range c.Alerter.Rules {
		switch rule.Operator {
		case ">", "<", "=", ">=", "<=":
		default:
			return fmt.Errorf("alert rule %q: unknown operator %q", rule.Name, rule.Operator)
		}
	}
	return nil
}

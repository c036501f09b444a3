// cc-analyzer computes throughput, goodput, loss and window metrics for one
// capture of a congestion control experiment and hands the summary to the
// configured report sinks.
package main

import (
	"CCSpectra/internal/config"
	core "CCSpectra/internal/core/model"
	"CCSpectra/internal/engine/manager"
	"CCSpectra/internal/logging"
	"CCSpectra/internal/metrics"
	"CCSpectra/internal/report"
	"CCSpectra/internal/sink"
	"CCSpectra/pkg/pcap"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

const (
	exitOK      = 0
	exitCapture = 1
	exitUsage   = 2

	defaultConfig = "configs/config.yaml"
)

var congestionLabels = []string{"highspeed", "yeah", "bbr"}

type options struct {
	pcap        string
	congestion  string
	outputDir   string
	configPath  string
	mode        string
	metricsFile string

	configSet bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("cc-analyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.pcap, "pcap", "", "Path to the capture file (pcap or pcapng). Required.")
	fs.StringVar(&o.congestion, "congestion", "", "Congestion control label: highspeed, yeah or bbr. Required.")
	fs.StringVar(&o.outputDir, "output_dir", "results", "Directory for the summary and plot files.")
	fs.StringVar(&o.configPath, "config", defaultConfig, "YAML configuration file.")
	fs.StringVar(&o.mode, "mode", "", "Analysis mode, batch or stream. Overrides analyzer.mode.")
	fs.StringVar(&o.metricsFile, "metrics_file", "", "Write self-metrics to this textfile. Overrides metrics.textfile.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			o.configSet = true
		}
	})

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if o.pcap == "" {
		return nil, errors.New("--pcap is required")
	}
	valid := false
	for _, l := range congestionLabels {
		if o.congestion == l {
			valid = true
		}
	}
	if !valid {
		return nil, fmt.Errorf("--congestion must be one of %v, got %q", congestionLabels, o.congestion)
	}
	return o, nil
}

// loadConfig reads the configuration file. A missing default file falls back
// to the built-in defaults, an explicitly named one must exist.
func loadConfig(o *options) (*config.Config, error) {
	if !o.configSet {
		if _, err := os.Stat(o.configPath); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.LoadConfig(o.configPath)
}

// run returns exitOK for every completed analysis, including captures without
// TCP and sink failures. exitUsage covers bad flags and configuration and
// exitCapture a capture that cannot be opened or read.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "cc-analyzer: %v\n", err)
		}
		return exitUsage
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "cc-analyzer: %v\n", err)
		return exitUsage
	}
	if o.mode != "" {
		cfg.Analyzer.Mode = o.mode
	}
	if o.metricsFile != "" {
		cfg.Metrics.Textfile = o.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "cc-analyzer: %v\n", err)
		return exitUsage
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(stderr, "cc-analyzer: %v\n", err)
		return exitUsage
	}
	logger := logging.Logger.WithFields(log.Fields{"pcap": o.pcap, "congestion": o.congestion, "mode": cfg.Analyzer.Mode})

	reader, err := pcap.Open(o.pcap, pcap.Options{Engine: cfg.Capture.Engine, BPFFilter: cfg.Capture.BPFFilter})
	if err != nil {
		logger.WithError(err).Error("failed to open capture")
		return exitCapture
	}
	defer reader.Close()

	writers, err := sink.NewWriters(cfg, o.outputDir)
	if err != nil {
		logger.WithError(err).Error("report sinks unavailable, printing results only")
	}
	defer sink.Close(writers)

	mgr, err := manager.NewManager(cfg, writers)
	if err != nil {
		fmt.Fprintf(stderr, "cc-analyzer: %v\n", err)
		return exitUsage
	}
	logger.Info("analyzing capture")

	summary, err := analyze(mgr, cfg.Analyzer.Mode, manager.Run{Label: o.congestion, Source: filepath.Base(o.pcap)}, reader)
	if err != nil {
		logger.WithError(err).Error("failed to read capture")
		return exitCapture
	}

	fmt.Fprint(stdout, report.Console(summary))

	if err := mgr.Report(summary); err != nil {
		logger.WithError(err).Warn("some report sinks failed")
	}
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithError(err).Warn("failed to write metrics textfile")
		}
	}
	return exitOK
}

func analyze(mgr *manager.Manager, mode string, r manager.Run, reader *pcap.Reader) (*core.FlowSummary, error) {
	if mode == config.ModeStream {
		return mgr.AnalyzeStream(r, reader)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	r.Packets = reader.Counts()
	return mgr.Analyze(r, records), nil
}

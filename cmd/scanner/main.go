package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/threatflux/supplyChainScannerGo/internal/config"
	"github.com/threatflux/supplyChainScannerGo/internal/input"
	"github.com/threatflux/supplyChainScannerGo/internal/report"
	"github.com/threatflux/supplyChainScannerGo/internal/scanner"
	"github.com/threatflux/supplyChainScannerGo/internal/security"
)

// Version information (will be set during build)
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// options holds the command line flags
type options struct {
	ConfigPath   string
	Manifest     string
	Dependencies string
	NetworkLog   string
	Advisories   string
	OutputDir    string
	Format       string
	JSON         bool
	Parallel     bool
	LogLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	opts := &options{}

	flags := pflag.NewFlagSet("scanner", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.ConfigPath, "config", "c", "config.json", "Path to the JSON configuration file")
	flags.StringVar(&opts.Manifest, "manifest", "manifest.json", "Container manifest to scan (empty to skip)")
	flags.StringVar(&opts.Dependencies, "dependencies", "dependencies.json", "Dependency map to scan (empty to skip)")
	flags.StringVar(&opts.NetworkLog, "network-log", "network.log", "Network log to scan (empty to skip)")
	flags.StringVar(&opts.Advisories, "advisories", "", "Local advisory file backing the vulnerability lookup")
	flags.StringVarP(&opts.OutputDir, "output-dir", "o", "", "Directory for the report file")
	flags.StringVar(&opts.Format, "format", "", "Console output format: text or table")
	flags.BoolVar(&opts.JSON, "json", false, "Also write the alerts as JSON")
	flags.BoolVar(&opts.Parallel, "parallel", false, "Run the three scans concurrently")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (overrides configuration)")

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, flags, nil
}

// run executes one scan session and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, flags, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	logger := initLogger(stderr)
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
	}).Debug("Starting supply chain security scanner")

	cfg, err := config.Load(opts.ConfigPath, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		return 1
	}
	applyOverrides(cfg, opts, flags)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("Invalid command line overrides")
		return 2
	}
	configureLogger(logger, cfg)

	scanOptions := []scanner.Option{scanner.WithLogger(logger)}
	if opts.Advisories != "" {
		advisories, err := input.ReadAdvisories(ctx, opts.Advisories)
		if err != nil {
			logger.WithError(err).Error("Failed to load advisories")
			return 1
		}
		scanOptions = append(scanOptions, scanner.WithVulnerabilityLookup(security.NewStaticLookup(advisories)))
	}

	s, err := scanner.New(cfg, scanOptions...)
	if err != nil {
		logger.WithError(err).Error("Failed to create scanner")
		return 1
	}
	defer s.Close()

	if err := runScans(ctx, s, opts); err != nil {
		logger.WithError(err).Error("Scan failed")
		return 1
	}

	alerts := s.Alerts()
	text, err := report.Generate(alerts)
	if err != nil {
		logger.WithError(err).Error("Failed to generate report")
		return 1
	}

	if cfg.Report.Format == "table" {
		report.RenderSummaryTable(stdout, alerts)
	} else {
		fmt.Fprintln(stdout, text)
	}

	now := time.Now()
	path, err := report.Write(cfg.Report.OutputDir, now, text)
	if err != nil {
		logger.WithError(err).Error("Failed to save report")
		return 1
	}
	logger.WithField("path", path).Info("Report saved")

	if cfg.Report.JSON {
		jsonPath := filepath.Join(cfg.Report.OutputDir, fmt.Sprintf("security_alerts_%s.json", now.Format("20060102_150405")))
		if err := report.WriteJSON(jsonPath, s.SessionID(), now, alerts); err != nil {
			logger.WithError(err).Error("Failed to save JSON alerts")
			return 1
		}
		logger.WithField("path", jsonPath).Info("JSON alerts saved")
	}

	return 0
}

func runScans(ctx context.Context, s *scanner.Scanner, opts *options) error {
	if opts.Parallel {
		_, err := s.RunAll(ctx, scanner.Targets{
			Manifest:     opts.Manifest,
			Dependencies: opts.Dependencies,
			NetworkLog:   opts.NetworkLog,
		})
		return err
	}

	if opts.Manifest != "" {
		if _, err := s.RunContainerScan(ctx, opts.Manifest); err != nil {
			return err
		}
	}
	if opts.Dependencies != "" {
		if _, err := s.RunDependencyScan(ctx, opts.Dependencies); err != nil {
			return err
		}
	}
	if opts.NetworkLog != "" {
		if _, err := s.RunNetworkScan(ctx, opts.NetworkLog); err != nil {
			return err
		}
	}
	return nil
}

// applyOverrides copies explicitly set flags over the loaded configuration
func applyOverrides(cfg *config.Config, opts *options, flags *pflag.FlagSet) {
	if flags.Changed("output-dir") {
		cfg.Report.OutputDir = opts.OutputDir
	}
	if flags.Changed("format") {
		cfg.Report.Format = opts.Format
	}
	if flags.Changed("json") {
		cfg.Report.JSON = opts.JSON
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.LogLevel
	}
}

// initLogger initializes and configures the logger
func initLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableSorting:  false,
	})

	// Set log level based on environment
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logger.WithError(err).Warn("Invalid log level, defaulting to info")
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// configureLogger applies the logging section of the configuration. An
// empty level keeps the level set from the environment.
func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	if cfg.Logging.Level != "" {
		if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
	}

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}
}

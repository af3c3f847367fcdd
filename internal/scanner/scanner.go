// Package scanner orchestrates the rule evaluators and owns the session
// alert collection.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/config"
	"github.com/threatflux/supplyChainScannerGo/internal/input"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
	"github.com/threatflux/supplyChainScannerGo/internal/security"
)

// Scan kinds, also used as log field values
const (
	KindContainer  = "container"
	KindDependency = "dependency"
	KindNetwork    = "network"
)

// Targets names the inputs for RunAll. Empty paths are skipped.
type Targets struct {
	Manifest     string
	Dependencies string
	NetworkLog   string
}

// Scanner runs scans and accumulates their alerts for one session. The
// configuration is fixed at construction.
type Scanner struct {
	config    *config.Config
	logger    *logrus.Logger
	source    input.Source
	lookup    security.VulnerabilityLookup
	checker   security.BaseImageChecker
	now       func() time.Time
	sessionID string

	container  *security.ContainerManifestEvaluator
	dependency *security.DependencyEvaluator
	network    *security.NetworkLogEvaluator

	// pool runs scans for RunAll
	pool *tunny.Pool

	// alerts is the session alert collection, append only
	alerts []models.Alert
	mu     sync.Mutex
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithInputSource sets the collaborator that reads scan inputs
func WithInputSource(source input.Source) Option {
	return func(s *Scanner) {
		s.source = source
	}
}

// WithVulnerabilityLookup sets the vulnerability data source
func WithVulnerabilityLookup(lookup security.VulnerabilityLookup) Option {
	return func(s *Scanner) {
		s.lookup = lookup
	}
}

// WithBaseImageChecker sets the base image freshness check
func WithBaseImageChecker(checker security.BaseImageChecker) Option {
	return func(s *Scanner) {
		s.checker = checker
	}
}

// WithClock sets the time source for alert timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a scanner. A nil configuration means the built-in defaults.
func New(cfg *config.Config, options ...Option) (*Scanner, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Scanner{
		config:    cfg,
		logger:    logrus.New(),
		now:       time.Now,
		sessionID: uuid.New().String(),
		alerts:    make([]models.Alert, 0),
	}

	for _, option := range options {
		option(s)
	}

	if s.source == nil {
		s.source = input.NewFileSource(s.logger)
	}
	if s.lookup == nil {
		s.lookup = security.NoopLookup{}
	}
	if s.checker == nil {
		if len(cfg.OutdatedBaseImages) > 0 {
			checker, err := security.NewReferenceChecker(cfg.OutdatedBaseImages)
			if err != nil {
				return nil, fmt.Errorf("failed to create base image checker: %w", err)
			}
			s.checker = checker
		} else {
			s.checker = security.NeverOutdated{}
		}
	}

	s.container = security.NewContainerManifestEvaluator(s.checker, security.NewSourcePolicy(cfg.ApprovedSources), s.now, s.logger)
	s.dependency = security.NewDependencyEvaluator(s.lookup, s.now, s.logger)
	s.network = security.NewNetworkLogEvaluator(s.now, s.logger)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	s.pool = tunny.NewFunc(workers, s.processJob)

	s.logger.WithFields(logrus.Fields{
		"session_id":       s.sessionID,
		"approved_sources": len(cfg.ApprovedSources),
		"threshold_high":   cfg.AlertThresholds.High,
		"threshold_medium": cfg.AlertThresholds.Medium,
		"threshold_low":    cfg.AlertThresholds.Low,
	}).Debug("Scanner initialized")

	return s, nil
}

// Close releases the worker pool
func (s *Scanner) Close() {
	s.pool.Close()
}

// SessionID returns the unique id of this scan session
func (s *Scanner) SessionID() string {
	return s.sessionID
}

// Config returns the scanner configuration
func (s *Scanner) Config() *config.Config {
	return s.config
}

// Alerts returns a copy of the session alert collection in append order
func (s *Scanner) Alerts() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]models.Alert, len(s.alerts))
	copy(alerts, s.alerts)
	return alerts
}

// RunContainerScan scans the container manifest at path
func (s *Scanner) RunContainerScan(ctx context.Context, path string) ([]models.Alert, error) {
	return s.run(ctx, KindContainer, path)
}

// RunDependencyScan scans the dependency map at path
func (s *Scanner) RunDependencyScan(ctx context.Context, path string) ([]models.Alert, error) {
	return s.run(ctx, KindDependency, path)
}

// RunNetworkScan scans the network log at path
func (s *Scanner) RunNetworkScan(ctx context.Context, path string) ([]models.Alert, error) {
	return s.run(ctx, KindNetwork, path)
}

func (s *Scanner) run(ctx context.Context, kind, path string) ([]models.Alert, error) {
	alerts, err := s.evaluate(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	s.appendAlerts(alerts)
	return alerts, nil
}

func (s *Scanner) appendAlerts(alerts []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alerts...)
}

// evaluate reads and evaluates one input without touching the session
// collection. Expected input failures and timeouts are logged and yield an
// empty result; anything else is returned as an error.
func (s *Scanner) evaluate(ctx context.Context, kind, path string) ([]models.Alert, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"session_id": s.sessionID,
		"scan":       kind,
		"path":       path,
	})

	alerts, err := s.scan(ctx, kind, path)
	if err != nil {
		switch {
		case input.IsExpected(err):
			logger.WithError(err).Error("Failed to read scan input")
			return make([]models.Alert, 0), nil
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			logger.WithError(err).Warn("Scan did not complete")
			return make([]models.Alert, 0), nil
		default:
			return nil, fmt.Errorf("%s scan of %s failed: %w", kind, path, err)
		}
	}

	logger.WithField("alert_count", len(alerts)).Info("Completed scan")
	return alerts, nil
}

func (s *Scanner) scan(ctx context.Context, kind, path string) ([]models.Alert, error) {
	switch kind {
	case KindContainer:
		manifest, err := s.source.ReadManifest(ctx, path)
		if err != nil {
			return nil, err
		}
		return s.container.Evaluate(manifest)
	case KindDependency:
		deps, err := s.source.ReadDependencies(ctx, path)
		if err != nil {
			return nil, err
		}
		return s.dependency.Evaluate(ctx, deps)
	case KindNetwork:
		lines, err := s.source.ReadNetworkLog(ctx, path)
		if err != nil {
			return nil, err
		}
		return s.network.Evaluate(lines)
	default:
		return nil, fmt.Errorf("unknown scan kind: %s", kind)
	}
}

package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// scanJob is the payload handed to the worker pool
type scanJob struct {
	ctx  context.Context
	kind string
	path string
}

// scanResult is what a worker returns for a scanJob
type scanResult struct {
	alerts []models.Alert
	err    error
}

func (s *Scanner) processJob(payload interface{}) interface{} {
	job, ok := payload.(scanJob)
	if !ok {
		return scanResult{err: fmt.Errorf("unexpected job payload %T", payload)}
	}
	alerts, err := s.evaluate(job.ctx, job.kind, job.path)
	return scanResult{alerts: alerts, err: err}
}

// RunAll runs the container, dependency and network scans concurrently on
// the worker pool, each bounded by the configured scan timeout. A scan that
// times out contributes no alerts. Results are appended to the session in
// the fixed order container, dependency, network. If any scan fails hard
// nothing is appended and the first error in that order is returned.
func (s *Scanner) RunAll(ctx context.Context, targets Targets) ([]models.Alert, error) {
	jobs := []scanJob{
		{kind: KindContainer, path: targets.Manifest},
		{kind: KindDependency, path: targets.Dependencies},
		{kind: KindNetwork, path: targets.NetworkLog},
	}
	results := make([]scanResult, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		if jobs[i].path == "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.submit(ctx, jobs[i])
		}(i)
	}
	wg.Wait()

	merged := make([]models.Alert, 0)
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		merged = append(merged, res.alerts...)
	}

	s.appendAlerts(merged)

	s.logger.WithFields(logrus.Fields{
		"session_id":  s.sessionID,
		"alert_count": len(merged),
	}).Info("Completed all scans")

	return merged, nil
}

// submit runs one job on the pool under the per-scan timeout
func (s *Scanner) submit(ctx context.Context, job scanJob) scanResult {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()
	job.ctx = jobCtx

	out, err := s.pool.ProcessCtx(jobCtx, job)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WithFields(logrus.Fields{
				"session_id": s.sessionID,
				"scan":       job.kind,
				"path":       job.path,
				"timeout":    s.config.ScanTimeout.String(),
			}).WithError(err).Warn("Scan timed out")
			return scanResult{alerts: make([]models.Alert, 0)}
		}
		return scanResult{err: fmt.Errorf("%s scan of %s failed: %w", job.kind, job.path, err)}
	}

	res, ok := out.(scanResult)
	if !ok {
		return scanResult{err: fmt.Errorf("unexpected result type %T", out)}
	}
	return res
}

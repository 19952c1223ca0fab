package health

import (
	"context"
	"time"

	"github.com/cdlite/portal-api/internal/observability"
)

// CheckResult is one dependency's verdict as exposed on /health/ready.
// Latency is stamped by the runner, not the checker.
type CheckResult struct {
	Name      string  `json:"name"`
	Healthy   bool    `json:"healthy"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// ProbeRunner drives the readiness checkers for the portal's dependencies
// (the relational store, and Redis when rate limiting uses it). During the
// startup grace period it reports not-ready without consulting any checker,
// giving migrations and pool warmup time to finish.
type ProbeRunner struct {
	checkers    []Checker
	timeout     time.Duration
	gracePeriod time.Duration
	startedAt   time.Time
}

func NewProbeRunner(timeout, gracePeriod time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &ProbeRunner{
		checkers:    checkers,
		timeout:     timeout,
		gracePeriod: gracePeriod,
		startedAt:   time.Now(),
	}
}

// Ready runs every checker under the per-check timeout. All must pass; each
// result is also counted so flapping dependencies show up in the metrics.
func (r *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	if r == nil {
		return true, nil
	}
	if r.gracePeriod > 0 && time.Since(r.startedAt) < r.gracePeriod {
		return false, []CheckResult{{Name: "startup_grace", Healthy: false, Error: "startup grace period active"}}
	}

	results := make([]CheckResult, 0, len(r.checkers))
	ready := true
	for _, c := range r.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
		begin := time.Now()
		res := c.Check(checkCtx)
		res.LatencyMS = float64(time.Since(begin).Microseconds()) / 1000.0
		cancel()

		observability.RecordHealthCheckResult(ctx, res.Name, res.Healthy)
		results = append(results, res)
		if !res.Healthy {
			ready = false
		}
	}
	return ready, results
}

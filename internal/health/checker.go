package health

import (
	"context"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

// CheckResult is one dependency line of the readiness report. Optional
// dependencies are reported but never hold the API out of rotation.
type CheckResult struct {
	Name       string `json:"name"`
	Healthy    bool   `json:"healthy"`
	Optional   bool   `json:"optional,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

type optionalChecker struct{ Checker }

// Optional marks c as non-blocking for readiness. A nil checker stays nil.
func Optional(c Checker) Checker {
	if c == nil {
		return nil
	}
	return optionalChecker{c}
}

type ProbeRunner struct {
	checkers    []Checker
	timeout     time.Duration
	gracePeriod time.Duration
	startedAt   time.Time
	now         func() time.Time
}

// NewProbeRunner drops nil checkers so optional dependencies can be passed
// unconditionally.
func NewProbeRunner(timeout, gracePeriod time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	active := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			active = append(active, c)
		}
	}
	return &ProbeRunner{
		checkers:    active,
		timeout:     timeout,
		gracePeriod: gracePeriod,
		startedAt:   time.Now(),
		now:         time.Now,
	}
}

// Ready runs every checker with its own timeout. The API is ready when all
// required checkers pass.
func (r *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	if r == nil {
		return true, nil
	}
	if r.gracePeriod > 0 && r.now().Sub(r.startedAt) < r.gracePeriod {
		return false, []CheckResult{{Name: "startup_grace", Error: "startup grace period active"}}
	}
	results := make([]CheckResult, 0, len(r.checkers))
	ready := true
	for _, c := range r.checkers {
		res := r.run(ctx, c)
		if !res.Healthy && !res.Optional {
			ready = false
		}
		results = append(results, res)
	}
	return ready, results
}

func (r *ProbeRunner) run(ctx context.Context, c Checker) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	start := r.now()
	res := c.Check(checkCtx)
	elapsed := r.now().Sub(start)
	_, res.Optional = c.(optionalChecker)
	res.DurationMS = elapsed.Milliseconds()
	if res.Healthy && checkCtx.Err() != nil {
		res.Healthy = false
		res.Error = "check exceeded " + r.timeout.String()
	}

	observability.RecordHealthCheckDuration(ctx, res.Name, elapsed)
	outcome := "healthy"
	switch {
	case !res.Healthy && res.Optional:
		outcome = "degraded"
	case !res.Healthy:
		outcome = "unhealthy"
	}
	observability.RecordHealthCheckResult(ctx, res.Name, outcome)
	return res
}

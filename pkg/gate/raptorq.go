package gate

import (
	"context"
	"fmt"

	"github.com/fnproof/kernel/pkg/cgo"
	"golang.org/x/time/rate"
)

// AttemptFunc runs one attempt of the artifact suite under test and
// returns its report.
type AttemptFunc func(ctx context.Context, attempt int) (cgo.SuiteReport, error)

// Reliability is the nested block spec.md §3 mandates on every gate
// summary: `{ retries, attempts_run, flaky_failures, flake_budget,
// coverage_ratio, coverage_floor, diagnostics }`.
type Reliability struct {
	Retries       int          `json:"retries"`
	AttemptsRun   int          `json:"attempts_run"`
	FlakyFailures int          `json:"flaky_failures"`
	FlakeBudget   int          `json:"flake_budget"`
	CoverageRatio float64      `json:"coverage_ratio"`
	CoverageFloor float64      `json:"coverage_floor"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
}

// RaptorQSummary is the full result of a RaptorQ gate run (spec.md §4.3).
type RaptorQSummary struct {
	Status            Status            `json:"status"`
	State             State             `json:"state"`
	PerAttemptResults []cgo.SuiteReport `json:"per_attempt_results"`
	Reliability       Reliability       `json:"reliability"`
}

// RaptorQGate reruns attempt up to retries+1 times, pacing retries with a
// rate limiter so repeated flaky runs don't hammer the underlying suite
// (golang.org/x/time/rate, adapted from the teacher's retry-pacing idiom
// used in its connector backoff paths).
type RaptorQGate struct {
	Retries       int
	FlakeBudget   int
	CoverageFloor float64
	Attempt       AttemptFunc
	RetryPacing   *rate.Limiter
}

// NewRaptorQGate constructs a gate with a sensible default retry pacing
// of one attempt per 10ms (tests run many attempts quickly; production
// fixture suites are I/O bound and the limiter never becomes the
// bottleneck).
func NewRaptorQGate(retries, flakeBudget int, coverageFloor float64, attempt AttemptFunc) *RaptorQGate {
	return &RaptorQGate{
		Retries:       retries,
		FlakeBudget:   flakeBudget,
		CoverageFloor: coverageFloor,
		Attempt:       attempt,
		RetryPacing:   rate.NewLimiter(rate.Limit(100), 1),
	}
}

// Run executes the gate's attempt loop to completion.
func (g *RaptorQGate) Run(ctx context.Context) (RaptorQSummary, error) {
	state := StateRunning
	maxAttempts := g.Retries + 1

	var results []cgo.SuiteReport
	passedAt := -1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := g.RetryPacing.Wait(ctx); err != nil {
				return RaptorQSummary{}, fmt.Errorf("retry pacing: %w", err)
			}
		}

		report, err := g.Attempt(ctx, attempt)
		if err != nil {
			return RaptorQSummary{}, err
		}
		results = append(results, report)

		attemptPassed := len(report.Failures) == 0
		attemptsRemaining := maxAttempts - attempt - 1
		state = transition(state, attemptPassed, attemptsRemaining)

		if attemptPassed {
			passedAt = attempt
			break
		}
	}

	summary := RaptorQSummary{
		State:             state,
		PerAttemptResults: results,
		Reliability: Reliability{
			Retries:       g.Retries,
			AttemptsRun:   len(results),
			FlakeBudget:   g.FlakeBudget,
			CoverageFloor: g.CoverageFloor,
		},
	}
	rel := &summary.Reliability

	if passedAt >= 0 {
		rel.FlakyFailures = passedAt
		rel.CoverageRatio = results[passedAt].CoverageRatio()
		summary.Status = StatusPass
	} else {
		rel.FlakyFailures = len(results)
		if len(results) > 0 {
			rel.CoverageRatio = results[len(results)-1].CoverageRatio()
		}
		summary.Status = StatusFail
		rel.Diagnostics = append(rel.Diagnostics, Diagnostic{
			Subsystem:  "raptorq_gate",
			ReasonCode: "deterministic_failure",
			Message:    fmt.Sprintf("no attempt passed after %d attempts", rel.AttemptsRun),
		})
	}

	if rel.FlakyFailures > g.FlakeBudget {
		summary.Status = StatusFail
		rel.Diagnostics = append(rel.Diagnostics, Diagnostic{
			Subsystem:  "raptorq_gate",
			ReasonCode: "flake_budget_exceeded",
			Message:    fmt.Sprintf("flaky_failures=%d exceeds flake_budget=%d", rel.FlakyFailures, g.FlakeBudget),
		})
	}

	if rel.CoverageRatio < g.CoverageFloor {
		summary.Status = StatusFail
		rel.Diagnostics = append(rel.Diagnostics, Diagnostic{
			Subsystem:  "raptorq_gate",
			ReasonCode: "coverage_floor_breach",
			Message:    fmt.Sprintf("coverage_ratio=%.4f below floor=%.4f", rel.CoverageRatio, g.CoverageFloor),
		})
	}

	return summary, nil
}

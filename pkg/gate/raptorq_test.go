package gate_test

import (
	"context"
	"testing"

	"github.com/fnproof/kernel/pkg/cgo"
	"github.com/fnproof/kernel/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaptorQGate_Scenario6_PassesWithinFlakeBudget(t *testing.T) {
	attempts := 0
	attempt := func(ctx context.Context, n int) (cgo.SuiteReport, error) {
		attempts++
		if n == 0 {
			return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 8, Failures: []string{"f1", "f2"}}, nil
		}
		return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 10}, nil
	}

	g := gate.NewRaptorQGate(2, 1, 0.5, attempt)
	summary, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, gate.StatusPass, summary.Status)
	assert.Equal(t, 2, summary.Reliability.AttemptsRun)
	assert.Equal(t, 1, summary.Reliability.FlakyFailures)
	assert.Equal(t, gate.StatePassed, summary.State)
}

func TestRaptorQGate_Scenario6_FailsWhenFlakeBudgetZero(t *testing.T) {
	attempt := func(ctx context.Context, n int) (cgo.SuiteReport, error) {
		if n == 0 {
			return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 8, Failures: []string{"f1", "f2"}}, nil
		}
		return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 10}, nil
	}

	g := gate.NewRaptorQGate(2, 0, 0.5, attempt)
	summary, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, gate.StatusFail, summary.Status)
	require.NotEmpty(t, summary.Reliability.Diagnostics)
	found := false
	for _, d := range summary.Reliability.Diagnostics {
		if d.ReasonCode == "flake_budget_exceeded" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRaptorQGate_ExhaustsWhenNoAttemptPasses(t *testing.T) {
	attempt := func(ctx context.Context, n int) (cgo.SuiteReport, error) {
		return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 5, Failures: []string{"f1"}}, nil
	}

	g := gate.NewRaptorQGate(1, 5, 0.0, attempt)
	summary, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, gate.StatusFail, summary.Status)
	assert.Equal(t, gate.StateExhausted, summary.State)
	assert.Equal(t, 2, summary.Reliability.AttemptsRun)
}

func TestRaptorQGate_CoverageFloorBreach(t *testing.T) {
	attempt := func(ctx context.Context, n int) (cgo.SuiteReport, error) {
		return cgo.SuiteReport{SuiteName: "artifacts", CaseCount: 10, PassCount: 10}, nil
	}

	g := gate.NewRaptorQGate(0, 1, 2.0, attempt)
	summary, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, gate.StatusFail, summary.Status)
	found := false
	for _, d := range summary.Reliability.Diagnostics {
		if d.ReasonCode == "coverage_floor_breach" {
			found = true
		}
	}
	assert.True(t, found)
}

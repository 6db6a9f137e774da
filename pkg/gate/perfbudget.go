package gate

import "fmt"

// DefaultMaxP99RegressionRatio is the default ceiling on p99 regression
// between reference and candidate baselines (spec.md §4.3).
const DefaultMaxP99RegressionRatio = 0.07

// WorkloadBudget is the declared performance contract for one named
// workload.
type WorkloadBudget struct {
	Name       string
	P95Budget  float64
}

// WorkloadMeasurement is one side's (reference or candidate) measured
// latencies for a workload.
type WorkloadMeasurement struct {
	Name string
	P95  float64
	P99  float64
}

// PerformanceGateResult is the output of one performance-budget gate run.
type PerformanceGateResult struct {
	Status          Status       `json:"status"`
	CoverageRatio   float64      `json:"coverage_ratio"`
	Diagnostics     []Diagnostic `json:"diagnostics"`
}

// RunPerformanceBudgetGate compares candidate measurements against
// reference measurements for every declared workload budget. Per-workload
// contract: candidate p95 <= declared budget AND
// (candidate_p99 - reference_p99)/reference_p99 <= maxP99RegressionRatio.
// Missing workloads on either side is a failure. Coverage ratio =
// covered-workload count / declared-workload count; must meet floor.
func RunPerformanceBudgetGate(
	budgets []WorkloadBudget,
	reference, candidate map[string]WorkloadMeasurement,
	maxP99RegressionRatio, coverageFloor float64,
) PerformanceGateResult {
	result := PerformanceGateResult{Status: StatusPass}

	covered := 0
	for _, budget := range budgets {
		ref, refOK := reference[budget.Name]
		cand, candOK := candidate[budget.Name]

		if !refOK || !candOK {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Subsystem:  "performance_budget_gate",
				ReasonCode: "missing_workload",
				Message:    fmt.Sprintf("workload %q missing from reference or candidate baseline", budget.Name),
			})
			continue
		}
		covered++

		if cand.P95 > budget.P95Budget {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Subsystem:  "performance_budget_gate",
				ReasonCode: "p95_budget_exceeded",
				Message:    fmt.Sprintf("workload %q candidate p95=%.6f exceeds budget=%.6f", budget.Name, cand.P95, budget.P95Budget),
			})
		}

		if ref.P99 != 0 {
			regressionRatio := (cand.P99 - ref.P99) / ref.P99
			if regressionRatio > maxP99RegressionRatio {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Subsystem:  "performance_budget_gate",
					ReasonCode: "p99_regression_budget_exceeded",
					Message:    fmt.Sprintf("workload %q p99 regression ratio=%.6f exceeds max=%.6f", budget.Name, regressionRatio, maxP99RegressionRatio),
				})
			}
		}
	}

	if len(budgets) > 0 {
		result.CoverageRatio = float64(covered) / float64(len(budgets))
	} else {
		result.CoverageRatio = 1.0
	}

	if result.CoverageRatio < coverageFloor {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Subsystem:  "performance_budget_gate",
			ReasonCode: "coverage_floor_breach",
			Message:    fmt.Sprintf("coverage_ratio=%.4f below floor=%.4f", result.CoverageRatio, coverageFloor),
		})
	}

	if len(result.Diagnostics) > 0 {
		result.Status = StatusFail
	}
	return result
}

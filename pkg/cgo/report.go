// Package cgo implements the Conformance Gate Orchestrator's suite
// drivers: pure functions that load a fixture list, run a validator per
// case, and accumulate a SuiteReport (spec.md §4.3). Suites never share
// mutable state and run in caller-declared order for determinism
// (spec.md §5).
package cgo

import "fmt"

// SuiteReport is the common output of every suite driver.
type SuiteReport struct {
	SuiteName string   `json:"suite_name"`
	CaseCount int      `json:"case_count"`
	PassCount int      `json:"pass_count"`
	Failures  []string `json:"failures"`
}

// CoverageRatio returns pass_count / case_count, or 1.0 for an empty
// suite (vacuously fully covered).
func (r SuiteReport) CoverageRatio() float64 {
	if r.CaseCount == 0 {
		return 1.0
	}
	return float64(r.PassCount) / float64(r.CaseCount)
}

// failureLine builds the richly-formatted failure string required by
// spec.md §4.3 step 3: fixture_id, seed, mode, reason_code,
// env_fingerprint, and artifact refs.
func failureLine(fixtureID string, seed uint64, mode, reasonCode, envFingerprint string, artifactRefs []string, detail string) string {
	return fmt.Sprintf(
		"fixture_id=%s seed=%d mode=%s reason_code=%s env_fingerprint=%s artifact_refs=%v: %s",
		fixtureID, seed, mode, reasonCode, envFingerprint, artifactRefs, detail,
	)
}

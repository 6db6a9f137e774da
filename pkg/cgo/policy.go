package cgo

import (
	"fmt"

	"github.com/fnproof/kernel/pkg/fixture"
	"github.com/fnproof/kernel/pkg/ledger"
)

// PolicyCase is one runtime-policy fixture case. Mode and Class are raw
// wire strings; they are not validated on load but decoded by the PDE's
// wire decoders, so malformed values decide fail_closed.
type PolicyCase struct {
	ID             string   `json:"id"`
	Mode           string   `json:"mode"` // "strict" | "hardened" | "" (absent)
	Class          string   `json:"class"`
	RiskScore      float64  `json:"risk_score"`
	Threshold      float64  `json:"threshold"`
	ExpectedAction string   `json:"expected_action"`
	ReasonCode     string   `json:"reason_code"`
	EnvFingerprint string   `json:"env_fingerprint"`
	Seed           uint64   `json:"seed"`
	ArtifactRefs   []string `json:"artifact_refs"`
}

// RunRuntimePolicySuite drives the PDE via typed enums decoded from the
// case's wire strings, recording every decision in l, then validates
// ledger-level invariants once all cases have run (spec.md §4.3 step 4).
func RunRuntimePolicySuite(fixtureRoot, relPath string, l *ledger.Ledger) (SuiteReport, error) {
	return runPolicySuiteCommon(fixtureRoot, relPath, l, "runtime_policy")
}

// RunRuntimePolicyAdversarialSuite is the adversarial sibling: it drives
// the same decision path but with raw (possibly malformed) wire strings,
// exercising the wire decoders' fail-closed behavior.
func RunRuntimePolicyAdversarialSuite(fixtureRoot, relPath string, l *ledger.Ledger) (SuiteReport, error) {
	return runPolicySuiteCommon(fixtureRoot, relPath, l, "runtime_policy_adversarial")
}

func runPolicySuiteCommon(fixtureRoot, relPath string, l *ledger.Ledger, suiteName string) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: suiteName, CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c PolicyCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		audit := ledger.AuditContext{
			FixtureID:      c.ID,
			Seed:           c.Seed,
			EnvFingerprint: c.EnvFingerprint,
			ArtifactRefs:   c.ArtifactRefs,
			ReasonCode:     c.ReasonCode,
		}

		event, err := l.DecideAndRecordFromWire(c.Mode, c.Class, c.RiskScore, c.Threshold, audit, "")
		if err != nil {
			return SuiteReport{}, err
		}

		if string(event.Action) != c.ExpectedAction {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Mode, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected action %q, got %q", c.ExpectedAction, event.Action)))
			continue
		}
		report.PassCount++
	}

	report.Failures = append(report.Failures, ledger.CheckInvariants(l.Events())...)
	return report, nil
}

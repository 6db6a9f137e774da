package cgo

import (
	"fmt"
	"strings"

	"github.com/fnproof/kernel/pkg/fixture"
	"github.com/fnproof/kernel/pkg/fnerr"
)

var validSeverities = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// AdversarialCase requires a non-empty expected_error_contains and a
// severity drawn from {low, medium, high, critical} (spec.md §4.3).
type AdversarialCase struct {
	ID                  string   `json:"id"`
	Operation           string   `json:"operation"`
	ExpectErrorContains string   `json:"expect_error_contains"`
	Severity            string   `json:"severity"`
	ReasonCode          string   `json:"reason_code"`
	EnvFingerprint      string   `json:"env_fingerprint"`
	Seed                uint64   `json:"seed"`
	ArtifactRefs        []string `json:"artifact_refs"`
	// AssertExpr is an optional CEL expression evaluated against the
	// failed operation's structured payload, for pass conditions richer
	// than substring+reason-code matching (SPEC_FULL.md §3). When empty,
	// the case is judged by ExpectErrorContains/ReasonCode alone.
	AssertExpr string `json:"assert_expr"`
}

// AdversarialOperation attempts the case's operation and returns the
// error it produced, or nil if it unexpectedly succeeded.
type AdversarialOperation func(c AdversarialCase) error

// RunAdversarialSuite validates that every case's operation fails with
// the declared substring and reason code, and that the fixture schema
// itself is well-formed (non-empty expected_error_contains, valid
// severity) — a malformed fixture is itself a suite failure.
func RunAdversarialSuite(suiteName, fixtureRoot, relPath string, op AdversarialOperation) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: suiteName, CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c AdversarialCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		if c.ExpectErrorContains == "" {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				"adversarial case missing expect_error_contains"))
			continue
		}
		if !validSeverities[c.Severity] {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("invalid severity %q", c.Severity)))
			continue
		}

		err := op(c)
		if err == nil {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				"expected failure, operation succeeded"))
			continue
		}
		if !strings.Contains(err.Error(), c.ExpectErrorContains) {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected error containing %q, got %q", c.ExpectErrorContains, err.Error())))
			continue
		}

		var gotReasonCode, subsystem string
		if ve, ok := err.(*fnerr.ValidationError); ok {
			gotReasonCode = ve.Reason
			subsystem = string(ve.Subsystem)
		} else if rc, ok := err.(fnerr.ReasonCoder); ok {
			gotReasonCode = rc.ReasonCode()
		}

		if c.ReasonCode != "" && gotReasonCode != c.ReasonCode {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected reason_code %q, got %q", c.ReasonCode, gotReasonCode)))
			continue
		}

		if c.AssertExpr != "" {
			ok, evalErr := evaluateAssertExpr(c.AssertExpr, map[string]any{
				"reason_code": gotReasonCode,
				"message":     err.Error(),
				"subsystem":   subsystem,
				"case_id":     c.ID,
				"severity":    c.Severity,
			})
			if evalErr != nil {
				report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
					evalErr.Error()))
				continue
			}
			if !ok {
				report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
					fmt.Sprintf("assert_expr %q evaluated false", c.AssertExpr)))
				continue
			}
		}

		report.PassCount++
	}
	return report, nil
}

// FlatIterTransferRead is a built-in adversarial operation grounded on
// the reason code named in spec.md §7 (flatiter_transfer_read_violation):
// it rejects any attempt to read through a flat-iterator handle after the
// backing buffer has been released.
func FlatIterTransferRead(c AdversarialCase) error {
	return fnerr.NewValidationError(fnerr.SubsystemNdarray, "flatiter_transfer_read_violation",
		fmt.Sprintf("flatiter read attempted after buffer transfer in case %s", c.ID))
}

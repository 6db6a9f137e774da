package cgo

import (
	"fmt"

	"github.com/fnproof/kernel/pkg/fixture"
)

// dtypeRank orders dtypes from narrowest to widest within each family;
// promotion picks the wider of two dtypes, with any float beating any int,
// and bool the narrowest of all (mirrors NumPy's promotion lattice for the
// subset of dtypes this suite exercises).
var dtypeRank = map[string]int{
	"bool":    0,
	"int8":    1,
	"int16":   2,
	"int32":   3,
	"int64":   4,
	"uint8":   1,
	"uint16":  2,
	"uint32":  3,
	"uint64":  4,
	"float32": 5,
	"float64": 6,
}

// PromoteDtype returns the declared result of promoting a and b, or an
// error if either dtype is unrecognized.
func PromoteDtype(a, b string) (string, error) {
	ra, ok := dtypeRank[a]
	if !ok {
		return "", fmt.Errorf("unknown dtype %q", a)
	}
	rb, ok := dtypeRank[b]
	if !ok {
		return "", fmt.Errorf("unknown dtype %q", b)
	}
	if ra >= rb {
		return a, nil
	}
	return b, nil
}

// DtypeCase is the fixture schema for the dtype-promotion suite.
type DtypeCase struct {
	ID             string   `json:"id"`
	LeftDtype      string   `json:"left_dtype"`
	RightDtype     string   `json:"right_dtype"`
	ExpectedDtype  string   `json:"expected_dtype"`
	ReasonCode     string   `json:"reason_code"`
	EnvFingerprint string   `json:"env_fingerprint"`
	Seed           uint64   `json:"seed"`
	ArtifactRefs   []string `json:"artifact_refs"`
}

// RunDtypePromotionSuite validates that PromoteDtype returns exactly the
// declared dtype for every case (spec.md §4.3).
func RunDtypePromotionSuite(fixtureRoot, relPath string) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: "dtype_promotion", CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c DtypeCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		got, err := PromoteDtype(c.LeftDtype, c.RightDtype)
		if err != nil {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, "", c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs, err.Error()))
			continue
		}
		if got != c.ExpectedDtype {
			report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, "", c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs,
				fmt.Sprintf("expected promoted dtype %q, got %q", c.ExpectedDtype, got)))
			continue
		}
		report.PassCount++
	}
	return report, nil
}

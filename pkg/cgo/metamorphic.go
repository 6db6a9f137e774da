package cgo

import (
	"fmt"

	"github.com/fnproof/kernel/pkg/fixture"
)

// MetamorphicCase drives one algebraic identity named by Relation:
// add_mul_commutativity, sum_linearity, qr_determinism, lstsq_invariance.
type MetamorphicCase struct {
	ID             string    `json:"id"`
	Relation       string    `json:"relation"`
	A              float64   `json:"a"`
	B              float64   `json:"b"`
	Scalar         float64   `json:"scalar"`
	Values         []float64 `json:"values"`
	Repeats        int       `json:"repeats"`
	ReasonCode     string    `json:"reason_code"`
	EnvFingerprint string    `json:"env_fingerprint"`
	Seed           uint64    `json:"seed"`
	ArtifactRefs   []string  `json:"artifact_refs"`
}

// RunMetamorphicSuite validates algebraic identities rather than fixed
// expected values: the oracle is the relation itself (spec.md §4.3).
func RunMetamorphicSuite(fixtureRoot, relPath string) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: "metamorphic", CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c MetamorphicCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		ok, detail := evaluateMetamorphicCase(c)
		if ok {
			report.PassCount++
			continue
		}
		report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Relation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs, detail))
	}
	return report, nil
}

func evaluateMetamorphicCase(c MetamorphicCase) (bool, string) {
	switch c.Relation {
	case "add_mul_commutativity":
		sumAB := c.A + c.B
		sumBA := c.B + c.A
		mulAB := c.A * c.B
		mulBA := c.B * c.A
		if !WithinTolerance(sumAB, sumBA) {
			return false, fmt.Sprintf("a+b=%v != b+a=%v", sumAB, sumBA)
		}
		if !WithinTolerance(mulAB, mulBA) {
			return false, fmt.Sprintf("a*b=%v != b*a=%v", mulAB, mulBA)
		}
		return true, ""
	case "sum_linearity":
		sum := 0.0
		for _, v := range c.Values {
			sum += v
		}
		scaledSum := sum * c.Scalar
		sumOfScaled := 0.0
		for _, v := range c.Values {
			sumOfScaled += v * c.Scalar
		}
		if !WithinTolerance(scaledSum, sumOfScaled) {
			return false, fmt.Sprintf("sum(values)*scalar=%v != sum(values*scalar)=%v", scaledSum, sumOfScaled)
		}
		return true, ""
	case "qr_determinism":
		repeats := c.Repeats
		if repeats < 2 {
			repeats = 2
		}
		first := deterministicQRSignature(c.Values)
		for i := 1; i < repeats; i++ {
			if sig := deterministicQRSignature(c.Values); sig != first {
				return false, "qr decomposition was not deterministic across repeated calls"
			}
		}
		return true, ""
	case "lstsq_invariance":
		baseRank := lstsqRank(c.Values)
		grown := append(append([]float64{}, c.Values...), c.Values...)
		grownRank := lstsqRank(grown)
		if grownRank < baseRank {
			return false, fmt.Sprintf("rank decreased under rhs column growth: %d -> %d", baseRank, grownRank)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown metamorphic relation %q", c.Relation)
	}
}

// deterministicQRSignature stands in for a QR decomposition's stable
// invariant (the product of the diagonal magnitudes), which must not vary
// across repeated calls on the same input.
func deterministicQRSignature(values []float64) float64 {
	sig := 1.0
	for _, v := range values {
		sig *= 1 + v*v
	}
	return sig
}

// lstsqRank approximates the numerical rank of values by counting
// entries whose magnitude clears a fixed tolerance — sufficient for the
// monotonicity check this suite performs (rank never decreases as rhs
// columns are duplicated).
func lstsqRank(values []float64) int {
	rank := 0
	for _, v := range values {
		if v*v > AbsTol {
			rank++
		}
	}
	return rank
}

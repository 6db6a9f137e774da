package pde_test

import (
	"math"
	"testing"

	"github.com/fnproof/kernel/pkg/pde"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_FailClosedTotality: for all inputs,
// decide_compatibility(mode, class ∈ {unknown, known_incompatible}, r, t) == fail_closed.
func TestProperty_FailClosedTotality(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	modes := []pde.Mode{pde.ModeStrict, pde.ModeHardened, pde.ModeAbsent}
	classes := []pde.Class{pde.ClassUnknown, pde.ClassKnownIncompatible}

	props.Property("fail-closed classes always fail closed", prop.ForAll(
		func(modeIdx, classIdx int, r, thr float64) bool {
			mode := modes[modeIdx%len(modes)]
			class := classes[classIdx%len(classes)]
			return pde.Decide(mode, class, r, thr) == pde.ActionFailClosed
		},
		gen.IntRange(0, 1<<30),
		gen.IntRange(0, 1<<30),
		gen.Float64Range(-10, 10),
		gen.Float64Range(-10, 10),
	))

	props.TestingRun(t)
}

// TestProperty_StrictHardenedThreshold verifies §8: fixing a known-compatible
// class, strict always allows; hardened escalates iff r >= t.
func TestProperty_StrictHardenedThreshold(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("strict always allows known-compatible", prop.ForAll(
		func(r, thr float64) bool {
			return pde.Decide(pde.ModeStrict, pde.ClassKnownCompatible, r, thr) == pde.ActionAllow
		},
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
	))

	props.Property("hardened escalates iff risk >= threshold", prop.ForAll(
		func(r, thr float64) bool {
			got := pde.Decide(pde.ModeHardened, pde.ClassKnownCompatible, r, thr)
			if r >= thr {
				return got == pde.ActionFullValidate
			}
			return got == pde.ActionAllow
		},
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
	))

	props.TestingRun(t)
}

// TestProperty_PosteriorMonotonic: fixing mode/class/threshold, the posterior
// p_incomp is monotonically non-decreasing in risk_score.
func TestProperty_PosteriorMonotonic(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("posterior is non-decreasing in risk", prop.ForAll(
		func(class int, thr, lo, hi float64) bool {
			if lo > hi {
				lo, hi = hi, lo
			}
			c := pde.Class(class % 3)
			_, pLo, _ := pde.Posterior(c, lo, thr)
			_, pHi, _ := pde.Posterior(c, hi, thr)
			return pLo <= pHi+1e-12
		},
		gen.IntRange(0, 2),
		gen.Float64Range(1e-6, 1-1e-6),
		gen.Float64Range(1e-6, 1-1e-6),
		gen.Float64Range(1e-6, 1-1e-6),
	))

	props.TestingRun(t)
}

// TestProperty_PosteriorAlwaysClamped verifies invariant (d): probabilities
// are strictly within (epsilon, 1-epsilon) for any input, including NaN.
func TestProperty_PosteriorAlwaysClamped(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("posterior always in (epsilon, 1-epsilon)", prop.ForAll(
		func(class int, r, thr float64) bool {
			c := pde.Class(class % 3)
			_, p, _ := pde.Posterior(c, r, thr)
			return p > 1e-9 && p < 1-1e-9
		},
		gen.IntRange(0, 2),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	props.Property("NaN risk clamps into (epsilon, 1-epsilon)", prop.ForAll(
		func(class int) bool {
			c := pde.Class(class % 3)
			_, p, _ := pde.Posterior(c, math.NaN(), 0.5)
			return p > 1e-9 && p < 1-1e-9
		},
		gen.IntRange(0, 2),
	))

	props.TestingRun(t)
}

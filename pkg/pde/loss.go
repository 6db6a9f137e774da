package pde

// lossTable is the fixed expected-loss model from spec.md §4.1. Values
// must match bit-for-bit; they are not configurable at runtime (§1
// Non-goals: no mutation of loss coefficients).
type lossPair struct {
	compatible   float64
	incompatible float64
}

var lossTable = map[Action]lossPair{
	ActionAllow:        {compatible: 0.0, incompatible: 100.0},
	ActionFullValidate: {compatible: 4.0, incompatible: 2.0},
	ActionFailClosed:   {compatible: 125.0, incompatible: 1.0},
}

// ExpectedLoss computes E[L|action] for every action given a (possibly
// unclamped) posterior probability of incompatibility.
func ExpectedLoss(pIncompatible float64) map[Action]float64 {
	p := clampProbability(pIncompatible)
	out := make(map[Action]float64, len(lossTable))
	for action, pair := range lossTable {
		out[action] = (1-p)*pair.compatible + p*pair.incompatible
	}
	return out
}

// Diagnose builds the full Diagnostics (posterior + expected loss for the
// selected action) for a decide call, per spec.md §4.1.
func Diagnose(class Class, riskScore, threshold float64, selected Action) Diagnostics {
	logOddsVal, p, evidence := Posterior(class, riskScore, threshold)
	losses := ExpectedLoss(p)
	return Diagnostics{
		PosteriorLogOdds:     logOddsVal,
		PosteriorProbability: p,
		ExpectedLoss:         losses,
		SelectedLoss:         losses[selected],
		Evidence:             evidence,
	}
}

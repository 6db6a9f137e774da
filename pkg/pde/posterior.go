package pde

import "math"

// classPrior returns P(incompatible) for the class prior mapping in §4.1.
func classPrior(class Class) float64 {
	switch class {
	case ClassKnownCompatible:
		return 0.01
	case ClassKnownIncompatible:
		return 0.99
	default:
		return 0.5
	}
}

// clampProbability clamps p into [epsilon, 1-epsilon], treating NaN as 0.5
// before clamping — spec.md §4.1: "NaN inputs clamp to 0.5 before L."
func clampProbability(p float64) float64 {
	if math.IsNaN(p) {
		p = 0.5
	}
	if p < epsilon {
		return epsilon
	}
	if p > 1-epsilon {
		return 1 - epsilon
	}
	return p
}

// logOdds computes L(p) = ln(p / (1-p)) with p epsilon-clamped first.
func logOdds(p float64) float64 {
	p = clampProbability(p)
	return math.Log(p / (1 - p))
}

// sigmoid is the inverse of logOdds.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Posterior computes the posterior log-odds and probability of
// incompatibility for a decision, plus the two standard evidence terms
// (spec.md §3, §4.1).
func Posterior(class Class, riskScore, threshold float64) (logOddsOut float64, probability float64, evidence []EvidenceTerm) {
	prior := classPrior(class)
	priorLogOdds := logOdds(prior)
	riskLLR := logOdds(riskScore) - logOdds(threshold)

	total := priorLogOdds + riskLLR
	p := sigmoid(total)
	p = clampProbability(p)

	evidence = []EvidenceTerm{
		{Name: EvidencePriorClassLogOdds, LogLikelihoodRatio: priorLogOdds},
		{Name: EvidenceRiskVsThresholdLLR, LogLikelihoodRatio: riskLLR},
	}
	return total, p, evidence
}

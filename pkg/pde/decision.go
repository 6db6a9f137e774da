package pde

// Decide selects a decision action (spec.md §4.1). It is a total function:
// class ∈ {known_incompatible, unknown} always fails closed; otherwise
// strict mode always allows, and hardened mode escalates to full_validate
// when risk_score >= threshold (inclusive on the tie — this is load-bearing
// for fixtures and must not change).
func Decide(mode Mode, class Class, riskScore, threshold float64) Action {
	if class == ClassKnownIncompatible || class == ClassUnknown {
		return ActionFailClosed
	}

	// class == ClassKnownCompatible
	switch mode {
	case ModeHardened:
		if riskScore >= threshold {
			return ActionFullValidate
		}
		return ActionAllow
	case ModeStrict:
		return ActionAllow
	default:
		// ModeAbsent (or any undecoded mode) never silently downgrades.
		return ActionFailClosed
	}
}

// DecideFromWire accepts raw mode/class strings. An unknown mode decodes
// as absent and returns fail_closed regardless of class or risk — it never
// reaches the allow/full_validate branches below Decide.
func DecideFromWire(rawMode, rawClass string, riskScore, threshold float64) Action {
	mode := ModeFromWire(rawMode)
	class := ClassFromWire(rawClass)
	if mode == ModeAbsent {
		return ActionFailClosed
	}
	return Decide(mode, class, riskScore, threshold)
}

package ledger

import "fmt"

// CheckRequiredFields validates the required-field invariant from spec.md
// §4.2 across every event in order, returning one failure message per
// violation (empty slice if the ledger is clean).
func CheckRequiredFields(events []DecisionEvent) []string {
	var failures []string
	for _, e := range events {
		if e.Audit.FixtureID == "" {
			failures = append(failures, "runtime ledger event missing fixture_id")
		}
		if e.Audit.EnvFingerprint == "" {
			failures = append(failures, "runtime ledger event missing env_fingerprint")
		}
		if e.Audit.ReasonCode == "" {
			failures = append(failures, "runtime ledger event missing reason_code")
		}
		if len(e.Audit.ArtifactRefs) == 0 {
			failures = append(failures, "runtime ledger event missing artifact_refs")
		}
	}
	return failures
}

// CheckFailClosed validates invariant (b) across every event: any event
// whose class is unknown or known_incompatible must carry action
// fail_closed. Failures are reported as "{fixture}: fail-closed violation
// for {class}" per spec.md §4.2.
func CheckFailClosed(events []DecisionEvent) []string {
	var failures []string
	for _, e := range events {
		if !e.FailClosedOK() {
			failures = append(failures, fmt.Sprintf("%s: fail-closed violation for %s", e.Audit.FixtureID, e.ClassWire))
		}
	}
	return failures
}

// CheckInvariants runs every ledger-level invariant check and concatenates
// their failures, required-field violations first.
func CheckInvariants(events []DecisionEvent) []string {
	failures := CheckRequiredFields(events)
	failures = append(failures, CheckFailClosed(events)...)
	return failures
}

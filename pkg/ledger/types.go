package ledger

import "github.com/fnproof/kernel/pkg/pde"

// AuditContext is attached to every ledger event (spec.md §3).
type AuditContext struct {
	FixtureID      string   `json:"fixture_id"`
	Seed           uint64   `json:"seed"`
	EnvFingerprint string   `json:"env_fingerprint"`
	ArtifactRefs   []string `json:"artifact_refs"`
	ReasonCode     string   `json:"reason_code"`
}

const (
	defaultFixtureID    = "unknown_fixture"
	defaultEnvFprint    = "unknown_env"
	defaultReasonCode   = "unspecified"
	defaultArtifactRef  = "SECURITY_COMPATIBILITY_THREAT_MATRIX_V1.md"
)

// Normalize applies the §3 empty-field normalization rules and returns a
// new AuditContext — it never mutates the receiver.
func (c AuditContext) Normalize() AuditContext {
	out := c
	if out.FixtureID == "" {
		out.FixtureID = defaultFixtureID
	}
	if out.EnvFingerprint == "" {
		out.EnvFingerprint = defaultEnvFprint
	}
	if out.ReasonCode == "" {
		out.ReasonCode = defaultReasonCode
	}
	if len(out.ArtifactRefs) == 0 {
		out.ArtifactRefs = []string{defaultArtifactRef}
	}
	return out
}

// DecisionEvent is an append-only record (never mutated after write) of a
// single PDE decision plus its full forensic context (spec.md §3).
type DecisionEvent struct {
	TimestampMs  int64             `json:"timestamp_ms"`
	Mode         pde.Mode          `json:"-"`
	ModeWire     string            `json:"mode"`
	Class        pde.Class         `json:"-"`
	ClassWire    string            `json:"class"`
	RiskScore    float64           `json:"risk_score"`
	Action       pde.Action        `json:"action"`
	Posterior    float64           `json:"posterior_probability"`
	ExpectedLoss map[pde.Action]float64 `json:"expected_loss"`
	SelectedLoss float64           `json:"selected_loss"`
	Evidence     []pde.EvidenceTerm `json:"evidence"`
	Audit        AuditContext      `json:"audit"`
	Note         string            `json:"note,omitempty"`

	// PreviousHash/Hash implement the optional tamper-evident chaining
	// described in SPEC_FULL.md §3, adapted from the teacher's hash-chained
	// AuditLog. Empty unless the owning Ledger has chaining enabled.
	PreviousHash string `json:"previous_hash,omitempty"`
	Hash         string `json:"hash,omitempty"`
}

// RequiredFieldsOK reports whether the event satisfies the required
// log-field predicate from spec.md §4.2: fixture_id, env_fingerprint,
// reason_code non-empty and artifact_refs non-empty.
func (e DecisionEvent) RequiredFieldsOK() bool {
	return e.Audit.FixtureID != "" &&
		e.Audit.EnvFingerprint != "" &&
		e.Audit.ReasonCode != "" &&
		len(e.Audit.ArtifactRefs) > 0
}

// FailClosedOK reports whether the fail-closed invariant holds for this
// event: for class ∈ {unknown, known_incompatible}, action must be
// fail_closed (spec.md §3 invariant (b), §4.2).
func (e DecisionEvent) FailClosedOK() bool {
	if e.Class == pde.ClassUnknown || e.Class == pde.ClassKnownIncompatible {
		return e.Action == pde.ActionFailClosed
	}
	return true
}

// OverrideAuditEvent is produced by the override evaluator; it is never
// persisted in the main ledger (spec.md §3).
type OverrideAuditEvent struct {
	TimestampMs             int64      `json:"timestamp_ms"`
	ModeWire                string     `json:"mode"`
	ClassWire                string     `json:"class"`
	RequestedDeviationClass string     `json:"requested_deviation_class"`
	PacketID                string     `json:"packet_id"`
	RequestedBy              string     `json:"requested_by"`
	ReasonCode               string     `json:"reason_code"`
	Approved                 bool       `json:"approved"`
	Action                   pde.Action `json:"action"`
	AuditRef                 string     `json:"audit_ref"`
}

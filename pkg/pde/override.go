package pde

import "fmt"

// OverrideRequest is a request to approve a policy deviation, per spec.md
// §4.1 "Override evaluator".
type OverrideRequest struct {
	Mode                    Mode
	Class                   Class
	RequestedDeviationClass string
	PacketID                string
	RequestedBy             string
	ReasonCode              string
	AllowedDeviations       []string
}

// OverrideResult is the outcome of evaluating an OverrideRequest.
type OverrideResult struct {
	Approved bool
	Action   Action
	AuditRef string
}

// EvaluateOverride approves a deviation iff mode=hardened AND
// class=known_compatible AND the requested deviation class is in the
// allowlist. Approved overrides still select full_validate — overrides
// never reach allow. Every other combination returns fail_closed with
// approved=false. Empty identifying fields normalize to their canonical
// placeholders before being embedded in audit_ref (spec.md §4.1).
func EvaluateOverride(req OverrideRequest) OverrideResult {
	packetID := req.PacketID
	if packetID == "" {
		packetID = "unknown_packet"
	}
	requestedBy := req.RequestedBy
	if requestedBy == "" {
		requestedBy = "unknown_requester"
	}
	reasonCode := req.ReasonCode
	if reasonCode == "" {
		reasonCode = "unspecified"
	}

	approved := req.Mode == ModeHardened &&
		req.Class == ClassKnownCompatible &&
		contains(req.AllowedDeviations, req.RequestedDeviationClass)

	action := ActionFailClosed
	if approved {
		action = ActionFullValidate
	}

	auditRef := fmt.Sprintf("override:%s:%s:%s:%s", packetID, req.RequestedDeviationClass, modeWireString(req.Mode), reasonCode)

	return OverrideResult{Approved: approved, Action: action, AuditRef: auditRef}
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func modeWireString(m Mode) string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeHardened:
		return "hardened"
	default:
		return "absent"
	}
}

package ledger

import "github.com/fnproof/kernel/pkg/pde"

// RecordOverride converts a pde.OverrideRequest/OverrideResult pair into an
// OverrideAuditEvent. Per spec.md §3 this is never appended to the main
// decision ledger — callers route it to its own sink or surface it
// directly in a gate report.
func RecordOverride(req pde.OverrideRequest, res pde.OverrideResult, timestampMs int64) OverrideAuditEvent {
	return OverrideAuditEvent{
		TimestampMs:             timestampMs,
		ModeWire:                modeWire(req.Mode),
		ClassWire:               classWire(req.Class),
		RequestedDeviationClass: req.RequestedDeviationClass,
		PacketID:                req.PacketID,
		RequestedBy:             req.RequestedBy,
		ReasonCode:              req.ReasonCode,
		Approved:                res.Approved,
		Action:                  res.Action,
		AuditRef:                res.AuditRef,
	}
}

package ledger

import (
	"sync"
	"time"

	"github.com/fnproof/kernel/pkg/pde"
)

// Clock supplies the timestamp for decision events. Tests inject a fixed
// clock for determinism; zero is used if unavailable (spec.md §3).
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Ledger is an append-only, ordered sequence of decision events, owned by
// its suite runner and not shared across threads (spec.md §4.2, §5). It
// provides only append and read operations — no mutation of recorded
// events.
type Ledger struct {
	mu       sync.Mutex
	events   []DecisionEvent
	clock    Clock
	sink     *LogSink
	chaining bool
}

// New creates an empty ledger. sink may be nil if no log mirroring is
// desired for this run.
func New(sink *LogSink) *Ledger {
	return &Ledger{clock: wallClock{}, sink: sink}
}

// WithClock overrides the clock (for deterministic tests).
func (l *Ledger) WithClock(c Clock) *Ledger {
	l.clock = c
	return l
}

// EnableChaining turns on the optional tamper-evident hash chain described
// in SPEC_FULL.md §3. It is a no-op if already enabled.
func (l *Ledger) EnableChaining() *Ledger {
	l.chaining = true
	return l
}

// DecideAndRecord runs the PDE decision for a typed mode/class, appends
// the resulting event (after audit-context normalization), mirrors it to
// the configured log sink if any, and returns the recorded event.
func (l *Ledger) DecideAndRecord(mode pde.Mode, class Class, riskScore, threshold float64, audit AuditContext, note string) (DecisionEvent, error) {
	action := pde.Decide(mode, pde.Class(class), riskScore, threshold)
	diag := pde.Diagnose(pde.Class(class), riskScore, threshold, action)

	event := DecisionEvent{
		TimestampMs:  l.nowMs(),
		Mode:         mode,
		ModeWire:     modeWire(mode),
		Class:        pde.Class(class),
		ClassWire:    classWire(pde.Class(class)),
		RiskScore:    riskScore,
		Action:       action,
		Posterior:    diag.PosteriorProbability,
		ExpectedLoss: diag.ExpectedLoss,
		SelectedLoss: diag.SelectedLoss,
		Evidence:     diag.Evidence,
		Audit:        audit.Normalize(),
		Note:         note,
	}
	return l.append(event)
}

// DecideAndRecordFromWire is the wire-string-driven counterpart used by
// both the runtime policy suite and its adversarial sibling.
func (l *Ledger) DecideAndRecordFromWire(rawMode, rawClass string, riskScore, threshold float64, audit AuditContext, note string) (DecisionEvent, error) {
	mode := pde.ModeFromWire(rawMode)
	class := pde.ClassFromWire(rawClass)
	action := pde.DecideFromWire(rawMode, rawClass, riskScore, threshold)
	diag := pde.Diagnose(class, riskScore, threshold, action)

	event := DecisionEvent{
		TimestampMs:  l.nowMs(),
		Mode:         mode,
		ModeWire:     rawMode,
		Class:        class,
		ClassWire:    rawClass,
		RiskScore:    riskScore,
		Action:       action,
		Posterior:    diag.PosteriorProbability,
		ExpectedLoss: diag.ExpectedLoss,
		SelectedLoss: diag.SelectedLoss,
		Evidence:     diag.Evidence,
		Audit:        audit.Normalize(),
		Note:         note,
	}
	return l.append(event)
}

func (l *Ledger) nowMs() int64 {
	if l.clock == nil {
		return 0
	}
	t := l.clock.Now()
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (l *Ledger) append(event DecisionEvent) (DecisionEvent, error) {
	l.mu.Lock()
	if l.chaining {
		prev := ""
		if len(l.events) > 0 {
			prev = l.events[len(l.events)-1].Hash
		}
		event.PreviousHash = prev
		if h, err := hashEvent(event); err == nil {
			event.Hash = h
		}
	}
	l.events = append(l.events, event)
	l.mu.Unlock()

	if l.sink != nil && l.sink.Enabled() {
		if err := l.sink.WriteLine(event); err != nil {
			return event, err
		}
	}
	return event, nil
}

// Events returns a read-only snapshot of the recorded events, preserving
// insertion order (spec.md §4.2).
func (l *Ledger) Events() []DecisionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]DecisionEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Last returns the most recently appended event, or false if the ledger
// is empty.
func (l *Ledger) Last() (DecisionEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return DecisionEvent{}, false
	}
	return l.events[len(l.events)-1], true
}

// Class re-exports pde.Class so callers of this package need not import
// pde directly for the common typed-decision path.
type Class = pde.Class

const (
	ClassUnknown           = pde.ClassUnknown
	ClassKnownCompatible   = pde.ClassKnownCompatible
	ClassKnownIncompatible = pde.ClassKnownIncompatible
)

func modeWire(m pde.Mode) string {
	switch m {
	case pde.ModeStrict:
		return "strict"
	case pde.ModeHardened:
		return "hardened"
	default:
		return ""
	}
}

func classWire(c pde.Class) string {
	switch c {
	case pde.ClassKnownCompatible:
		return "known_compatible"
	case pde.ClassKnownIncompatible:
		return "known_incompatible"
	default:
		return "unknown"
	}
}

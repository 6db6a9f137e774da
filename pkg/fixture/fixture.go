// Package fixture loads suite fixture files: JSON arrays of cases under a
// configured fixture root. Every case carries a common envelope (id, plus
// optional audit fields) and a suite-specific payload, per spec.md §6.
// Parsing is eager and tolerant of missing optional fields — the schema is
// open, unlike the contract files validated by pkg/contract (spec.md §9).
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fnproof/kernel/pkg/fnerr"
)

// Envelope is the common header every fixture case carries, regardless of
// suite. Suite-specific fields live in Payload (raw JSON, decoded by the
// caller into the suite's own case type).
type Envelope struct {
	ID             string          `json:"id"`
	Seed           uint64          `json:"seed"`
	EnvFingerprint string          `json:"env_fingerprint"`
	ArtifactRefs   []string        `json:"artifact_refs"`
	ReasonCode     string          `json:"reason_code"`
	Severity       string          `json:"severity"`
	Payload        json.RawMessage `json:"-"`
}

// rawCase lets us decode the envelope fields and keep the rest of the
// object around for suite-specific re-decoding.
type rawCase map[string]json.RawMessage

// Load reads a JSON array of cases from <fixtureRoot>/<relPath> and returns
// one Envelope per element, with Payload holding the full original object
// so suite drivers can re-unmarshal into their own case struct.
func Load(fixtureRoot, relPath string) ([]Envelope, error) {
	path := filepath.Join(fixtureRoot, relPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fnerr.NewInfraError(path, fmt.Errorf("read fixture file: %w", err))
	}

	var rawCases []rawCase
	if err := json.Unmarshal(data, &rawCases); err != nil {
		return nil, fnerr.NewInfraError(path, fmt.Errorf("parse fixture JSON: %w", err))
	}

	envelopes := make([]Envelope, 0, len(rawCases))
	for _, rc := range rawCases {
		var env Envelope
		if idRaw, ok := rc["id"]; ok {
			_ = json.Unmarshal(idRaw, &env.ID)
		}
		if seedRaw, ok := rc["seed"]; ok {
			_ = json.Unmarshal(seedRaw, &env.Seed)
		}
		if efRaw, ok := rc["env_fingerprint"]; ok {
			_ = json.Unmarshal(efRaw, &env.EnvFingerprint)
		}
		if arRaw, ok := rc["artifact_refs"]; ok {
			_ = json.Unmarshal(arRaw, &env.ArtifactRefs)
		}
		if rcRaw, ok := rc["reason_code"]; ok {
			_ = json.Unmarshal(rcRaw, &env.ReasonCode)
		}
		if sevRaw, ok := rc["severity"]; ok {
			_ = json.Unmarshal(sevRaw, &env.Severity)
		}

		full, err := json.Marshal(rc)
		if err != nil {
			return nil, fnerr.NewInfraError(path, fmt.Errorf("re-marshal fixture case: %w", err))
		}
		env.Payload = full

		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

// Decode unmarshals the envelope's full payload into v (a suite-specific
// case struct embedding whatever fields it needs beyond the common ones).
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fnerr.NewInfraError(e.ID, fmt.Errorf("decode case payload: %w", err))
	}
	return nil
}

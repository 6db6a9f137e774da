package cgo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fnproof/kernel/pkg/fnerr"
)

// CrashSignatureRegistry is the top-level structure of
// CRASH_SIGNATURE_REGISTRY_V1.json (spec.md §6).
type CrashSignatureRegistry struct {
	SchemaVersion  int               `json:"schema_version"`
	RegistryVersion string           `json:"registry_version"`
	Signatures     []CrashSignature  `json:"signatures"`
}

// CrashSignature is one closed, previously-reproduced crash, re-run on
// every conformance pass to guard against regression.
type CrashSignature struct {
	ID                string   `json:"id"`
	Fixture           string   `json:"fixture"`
	Reason            string   `json:"reason"`
	Status            string   `json:"status"`
	MinimizedReproRefs []string `json:"minimized_repro_refs"`
	BlameRefs         []string `json:"blame_refs"`
	Suite             string   `json:"suite"`
}

const (
	expectedSchemaVersion   = 1
	expectedRegistryVersion = "crash-signature-registry-v1"
)

// LoadCrashSignatureRegistry reads and parses the registry file. It does
// not check the top-level schema_version/registry_version identifiers;
// RunCrashSignatureRegressionSuite reports mismatches in those as failures.
func LoadCrashSignatureRegistry(path string) (CrashSignatureRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CrashSignatureRegistry{}, fnerr.NewInfraError(path, fmt.Errorf("read crash signature registry: %w", err))
	}

	var reg CrashSignatureRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return CrashSignatureRegistry{}, fnerr.NewInfraError(path, fmt.Errorf("parse crash signature registry: %w", err))
	}
	return reg, nil
}

// RerunFunc re-runs the named suite and returns the fixture IDs present
// in its failures, so the crash-signature suite can check for regression.
type RerunFunc func(suiteName string) ([]string, error)

// RunCrashSignatureRegressionSuite validates every signature's schema
// requirements, then re-runs its referenced suite and fails the
// signature if its fixture id reappears in the re-run's failures
// (spec.md §4.3).
func RunCrashSignatureRegressionSuite(registryPath, repoRoot string, rerun RerunFunc) (SuiteReport, error) {
	reg, err := LoadCrashSignatureRegistry(registryPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: "crash_signature_regression", CaseCount: len(reg.Signatures)}

	if reg.SchemaVersion != expectedSchemaVersion {
		report.Failures = append(report.Failures, fmt.Sprintf("registry schema_version %d does not match expected %d", reg.SchemaVersion, expectedSchemaVersion))
	}
	if reg.RegistryVersion != expectedRegistryVersion {
		report.Failures = append(report.Failures, fmt.Sprintf("registry_version %q does not match expected %q", reg.RegistryVersion, expectedRegistryVersion))
	}

	rerunCache := map[string][]string{}

	for _, sig := range reg.Signatures {
		if ok, detail := validateSignatureSchema(sig, repoRoot); !ok {
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %s", sig.ID, detail))
			continue
		}

		failures, ok := rerunCache[sig.Suite]
		if !ok {
			f, err := rerun(sig.Suite)
			if err != nil {
				return SuiteReport{}, err
			}
			failures = f
			rerunCache[sig.Suite] = f
		}

		regressed := false
		for _, fid := range failures {
			if fid == sig.Fixture {
				regressed = true
				break
			}
		}
		if regressed {
			report.Failures = append(report.Failures, fmt.Sprintf("%s: fixture %s regressed in suite %s", sig.ID, sig.Fixture, sig.Suite))
			continue
		}
		report.PassCount++
	}
	return report, nil
}

func validateSignatureSchema(sig CrashSignature, repoRoot string) (bool, string) {
	if sig.ID == "" {
		return false, "missing id"
	}
	if sig.Fixture == "" {
		return false, "missing fixture"
	}
	if sig.Reason == "" {
		return false, "missing reason"
	}
	if sig.Status != "closed" {
		return false, fmt.Sprintf("status %q is not closed", sig.Status)
	}
	if len(sig.MinimizedReproRefs) == 0 {
		return false, "no minimized repro artifacts"
	}
	resolved := false
	for _, ref := range sig.MinimizedReproRefs {
		if _, err := os.Stat(filepath.Join(repoRoot, ref)); err == nil {
			resolved = true
			break
		}
	}
	if !resolved {
		return false, "no minimized repro artifact resolves relative to repo root"
	}
	if len(sig.BlameRefs) == 0 {
		return false, "no blame ref"
	}
	return true, ""
}

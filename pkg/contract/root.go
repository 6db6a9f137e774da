package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Required threat classes (spec.md §6) that the threat-matrix markdown
// and security-control-checks YAML must both cover.
var requiredThreatClasses = []string{
	"malformed_shape",
	"unsafe_cast_path",
	"malicious_stride_alias",
	"malformed_npy_npz",
	"unknown_metadata_version",
	"adversarial_fixture",
	"corrupt_durable_artifact",
	"policy_override_abuse",
}

const (
	FileThreatMatrix         = "SECURITY_COMPATIBILITY_THREAT_MATRIX_V1.md"
	FileHardenedAllowlist    = "hardened_mode_allowlist_v1.yaml"
	FileSecurityControlChecks = "security_control_checks_v1.yaml"
)

// HardenedModeAllowlist is the typed form of hardened_mode_allowlist_v1.yaml.
type HardenedModeAllowlist struct {
	SchemaVersion          int      `yaml:"schema_version"`
	UnknownClassBehavior   string   `yaml:"unknown_class_behavior"`
	RequireEnvFingerprint  bool     `yaml:"require_env_fingerprint"`
	RequireReasonCode      bool     `yaml:"require_reason_code"`
	RequireArtifactRefs    bool     `yaml:"require_artifact_refs"`
	AllowedDeviationClasses []string `yaml:"allowed_deviation_classes"`
}

// SecurityControlChecks is the typed form of security_control_checks_v1.yaml.
type SecurityControlChecks struct {
	SchemaVersion      int                    `yaml:"schema_version"`
	Controls           map[string]string      `yaml:"controls"`
	ExpectedLogFields  []string               `yaml:"expected_log_fields"`
}

// RootReadinessReport is the contract_root counterpart of
// PacketReadinessReport: it validates the three suite-wide contract
// documents rather than a per-packet directory.
type RootReadinessReport struct {
	IsReady          bool     `json:"is_ready"`
	MissingArtifacts []string `json:"missing_artifacts"`
	MissingFields    []string `json:"missing_fields"`
	ParseErrors      []string `json:"parse_errors"`
}

// CheckContractRoot validates the three contract_root documents named in
// spec.md §6.
func CheckContractRoot(contractRoot string) (RootReadinessReport, error) {
	report := RootReadinessReport{IsReady: true}

	checkThreatMatrix(&report, filepath.Join(contractRoot, FileThreatMatrix))
	checkHardenedAllowlist(&report, filepath.Join(contractRoot, FileHardenedAllowlist))
	checkSecurityControlChecks(&report, filepath.Join(contractRoot, FileSecurityControlChecks))

	report.IsReady = len(report.MissingArtifacts) == 0 &&
		len(report.MissingFields) == 0 &&
		len(report.ParseErrors) == 0
	return report, nil
}

func checkThreatMatrix(report *RootReadinessReport, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.MissingArtifacts = append(report.MissingArtifacts, filepath.Base(path))
		return
	}
	content := string(data)
	for _, class := range requiredThreatClasses {
		if !strings.Contains(content, class) {
			report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: missing threat class %q", FileThreatMatrix, class))
		}
	}
}

func checkHardenedAllowlist(report *RootReadinessReport, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.MissingArtifacts = append(report.MissingArtifacts, filepath.Base(path))
		return
	}

	var cfg HardenedModeAllowlist
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", FileHardenedAllowlist, err))
		return
	}

	if cfg.SchemaVersion != 1 {
		report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: schema_version must be 1, got %d", FileHardenedAllowlist, cfg.SchemaVersion))
	}
	if cfg.UnknownClassBehavior != "fail_closed" {
		report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: unknown_class_behavior must be fail_closed, got %q", FileHardenedAllowlist, cfg.UnknownClassBehavior))
	}
	if !cfg.RequireEnvFingerprint || !cfg.RequireReasonCode || !cfg.RequireArtifactRefs {
		report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: all require_* flags must be true", FileHardenedAllowlist))
	}
	if len(cfg.AllowedDeviationClasses) == 0 {
		report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: allowed_deviation_classes must be non-empty", FileHardenedAllowlist))
	}
}

func checkSecurityControlChecks(report *RootReadinessReport, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.MissingArtifacts = append(report.MissingArtifacts, filepath.Base(path))
		return
	}

	var cfg SecurityControlChecks
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", FileSecurityControlChecks, err))
		return
	}

	for _, class := range requiredThreatClasses {
		if control, ok := cfg.Controls[class]; !ok || control == "" {
			report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: missing control entry for %q", FileSecurityControlChecks, class))
		}
	}

	requiredLogFields := []string{"fixture_id", "seed", "mode", "env_fingerprint", "artifact_refs", "reason_code"}
	present := make(map[string]bool, len(cfg.ExpectedLogFields))
	for _, f := range cfg.ExpectedLogFields {
		present[f] = true
	}
	for _, f := range requiredLogFields {
		if !present[f] {
			report.MissingFields = append(report.MissingFields, fmt.Sprintf("%s: expected_log_fields missing %q", FileSecurityControlChecks, f))
		}
	}
}

// Package contract implements the Contract-Schema Checker (spec.md §4.4):
// validation of a packet directory's markdown/JSON/YAML artifacts against
// required tokens, JSON-pointer paths, and declared value ranges.
package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// PacketReportSchemaVersion and ContractSchemaVersion are the schema
// versions CheckPacket stamps onto every report it produces.
const (
	PacketReportSchemaVersion = 1
	ContractSchemaVersion     = 1
)

// StatusReady and StatusNotReady are the two values PacketReadinessReport's
// Status field takes (spec.md §3).
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// Required packet artifacts (spec.md §4.4): three markdown documents,
// three JSON reports, one YAML gate config, one sidecar JSON.
const (
	FileOverview          = "OVERVIEW.md"
	FileRiskAssessment    = "RISK_ASSESSMENT.md"
	FileRemediationPlan   = "REMEDIATION_PLAN.md"
	FileStrictReport      = "strict_mode_report.json"
	FileHardenedReport    = "hardened_mode_report.json"
	FileDiffReport        = "diff_report.json"
	FileParityGateConfig  = "parity_gate.yaml"
	FileParityGateSidecar = "parity_gate.sidecar.json"
)

var requiredArtifacts = []string{
	FileOverview, FileRiskAssessment, FileRemediationPlan,
	FileStrictReport, FileHardenedReport, FileDiffReport,
	FileParityGateConfig, FileParityGateSidecar,
}

// requiredTokens lists the verbatim tokens each markdown artifact must
// contain. Every packet is expected to document its scope, risk posture,
// and remediation commitments using these section headers.
var requiredTokens = map[string][]string{
	FileOverview:        {"## Scope", "## Packet Summary"},
	FileRiskAssessment:  {"## Risk Classification", "## Residual Risk"},
	FileRemediationPlan: {"## Remediation Steps", "## Owner"},
}

// ModeConfig is the per-mode sub-object of the YAML gate config.
type ModeConfig struct {
	PassRequired bool `yaml:"pass_required" json:"pass_required"`
}

// ParityGateConfig is the typed form of parity_gate.yaml.
type ParityGateConfig struct {
	SchemaVersion  int        `yaml:"schema_version" json:"schema_version"`
	PacketID       string     `yaml:"packet_id" json:"packet_id"`
	StrictParity   float64    `yaml:"strict_parity" json:"strict_parity"`
	MaxStrictDrift float64    `yaml:"max_strict_drift" json:"max_strict_drift"`
	StrictMode     ModeConfig `yaml:"strict_mode" json:"strict_mode"`
	HardenedMode   ModeConfig `yaml:"hardened_mode" json:"hardened_mode"`
}

// GateModeReport is the typed form of strict_mode_report.json /
// hardened_mode_report.json.
type GateModeReport struct {
	SchemaVersion int    `json:"schema_version"`
	PacketID      string `json:"packet_id"`
	Mode          string `json:"mode"`
}

// MissingField is one structured, machine-parseable entry in a
// PacketReadinessReport's MissingFields list (spec.md §3:
// `missing_fields: {artifact, field_path, reason}*`).
type MissingField struct {
	Artifact  string `json:"artifact"`
	FieldPath string `json:"field_path"`
	Reason    string `json:"reason"`
}

// PacketReadinessReport is the output of CheckPacket (spec.md §3, §4.4).
type PacketReadinessReport struct {
	SchemaVersion         int            `json:"schema_version"`
	ContractSchemaVersion int            `json:"contract_schema_version"`
	PacketID              string         `json:"packet_id"`
	PacketDir             string         `json:"packet_dir"`
	Status                string         `json:"status"` // ready | not_ready
	IsReady               bool           `json:"is_ready"`
	MissingArtifacts      []string       `json:"missing_artifacts"`
	MissingFields         []MissingField `json:"missing_fields"`
	ParseErrors           []string       `json:"parse_errors"`
	CheckedAtUnixMS       int64          `json:"checked_at_unix_ms"`
}

// schemaVersionConstraint accepts schema_version = 1 only, expressed as a
// semver range so a future minor/patch bump to the packet format can
// widen this constraint without touching comparison logic.
var schemaVersionConstraint = mustConstraint("1.x")

func mustConstraint(raw string) *semver.Constraints {
	c, err := semver.NewConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func schemaVersionOK(v int) bool {
	ver, err := semver.NewVersion(fmt.Sprintf("%d.0.0", v))
	if err != nil {
		return false
	}
	return schemaVersionConstraint.Check(ver)
}

// jsonPointerSchema requires the presence of schema_version and packet_id
// at the document root — the structural minimum every JSON report must
// satisfy before its typed fields are range-checked.
const jsonPointerSchema = `{
	"type": "object",
	"required": ["schema_version", "packet_id"]
}`

// CheckPacket validates the packet directory at <phase2cRoot>/<packetID>
// against the eight required artifacts and their declared ranges.
func CheckPacket(phase2cRoot, packetID string) (PacketReadinessReport, error) {
	dir := filepath.Join(phase2cRoot, packetID)
	report := PacketReadinessReport{
		SchemaVersion:         PacketReportSchemaVersion,
		ContractSchemaVersion: ContractSchemaVersion,
		PacketID:              packetID,
		PacketDir:             dir,
	}

	compiledSchema, err := compileJSONPointerSchema()
	if err != nil {
		return PacketReadinessReport{}, err
	}

	for _, name := range requiredArtifacts {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			report.MissingArtifacts = append(report.MissingArtifacts, name)
			continue
		}

		switch {
		case strings.HasSuffix(name, ".md"):
			checkMarkdownArtifact(&report, path, name)
		case name == FileParityGateConfig:
			checkParityGateYAML(&report, path, packetID)
		case strings.HasSuffix(name, ".json"):
			checkJSONArtifact(&report, path, name, packetID, compiledSchema)
		}
	}

	report.IsReady = len(report.MissingArtifacts) == 0 &&
		len(report.MissingFields) == 0 &&
		len(report.ParseErrors) == 0
	report.Status = StatusNotReady
	if report.IsReady {
		report.Status = StatusReady
	}
	report.CheckedAtUnixMS = time.Now().UnixMilli()
	return report, nil
}

func compileJSONPointerSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("packet_report.json", strings.NewReader(jsonPointerSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("packet_report.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func checkMarkdownArtifact(report *PacketReadinessReport, path, name string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	content := string(data)
	for _, token := range requiredTokens[name] {
		if !strings.Contains(content, token) {
			report.MissingFields = append(report.MissingFields, MissingField{
				Artifact: name, FieldPath: token, Reason: "required token missing",
			})
		}
	}
}

func checkJSONArtifact(report *PacketReadinessReport, path, name, packetID string, schema *jsonschema.Schema) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", name, err))
		return
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	if err := schema.Validate(generic); err != nil {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: name, FieldPath: "$", Reason: err.Error(),
		})
		return
	}

	var r GateModeReport
	if err := json.Unmarshal(data, &r); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	if !schemaVersionOK(r.SchemaVersion) {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: name, FieldPath: "/schema_version",
			Reason: fmt.Sprintf("schema_version %d not supported", r.SchemaVersion),
		})
	}
	if r.PacketID != packetID {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: name, FieldPath: "/packet_id",
			Reason: fmt.Sprintf("packet_id %q does not match directory %q", r.PacketID, packetID),
		})
	}
}

func checkParityGateYAML(report *PacketReadinessReport, path, packetID string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", FileParityGateConfig, err))
		return
	}

	var cfg ParityGateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		report.ParseErrors = append(report.ParseErrors, fmt.Sprintf("%s: %v", FileParityGateConfig, err))
		return
	}

	if !schemaVersionOK(cfg.SchemaVersion) {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/schema_version",
			Reason: fmt.Sprintf("schema_version %d not supported", cfg.SchemaVersion),
		})
	}
	if cfg.PacketID != packetID {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/packet_id",
			Reason: fmt.Sprintf("packet_id %q does not match directory %q", cfg.PacketID, packetID),
		})
	}
	if cfg.StrictParity < 0 || cfg.StrictParity > 1 {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/strict_parity",
			Reason: fmt.Sprintf("strict_parity %v out of range [0,1]", cfg.StrictParity),
		})
	}
	if cfg.MaxStrictDrift != 0.0 {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/max_strict_drift",
			Reason: fmt.Sprintf("max_strict_drift must be 0.0, got %v", cfg.MaxStrictDrift),
		})
	}
	if !cfg.StrictMode.PassRequired {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/strict_mode/pass_required",
			Reason: "must be true",
		})
	}
	if !cfg.HardenedMode.PassRequired {
		report.MissingFields = append(report.MissingFields, MissingField{
			Artifact: FileParityGateConfig, FieldPath: "/hardened_mode/pass_required",
			Reason: "must be true",
		})
	}
}

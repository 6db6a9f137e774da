package contract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fnproof/kernel/pkg/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompleteContractRoot(t *testing.T, root string) {
	t.Helper()

	matrix := "| Threat Class | Severity |\n|---|---|\n" +
		"| malformed_shape | high |\n| unsafe_cast_path | high |\n| malicious_stride_alias | high |\n" +
		"| malformed_npy_npz | high |\n| unknown_metadata_version | medium |\n| adversarial_fixture | high |\n" +
		"| corrupt_durable_artifact | high |\n| policy_override_abuse | critical |\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, contract.FileThreatMatrix), []byte(matrix), 0o644))

	allowlist := `
schema_version: 1
unknown_class_behavior: fail_closed
require_env_fingerprint: true
require_reason_code: true
require_artifact_refs: true
allowed_deviation_classes:
  - admission_guard_caps
`
	require.NoError(t, os.WriteFile(filepath.Join(root, contract.FileHardenedAllowlist), []byte(allowlist), 0o644))

	checks := `
schema_version: 1
controls:
  malformed_shape: "reject at ingest"
  unsafe_cast_path: "reject at ingest"
  malicious_stride_alias: "reject at ingest"
  malformed_npy_npz: "reject at ingest"
  unknown_metadata_version: "fail closed"
  adversarial_fixture: "quarantine"
  corrupt_durable_artifact: "quarantine"
  policy_override_abuse: "audit + deny"
expected_log_fields:
  - fixture_id
  - seed
  - mode
  - env_fingerprint
  - artifact_refs
  - reason_code
`
	require.NoError(t, os.WriteFile(filepath.Join(root, contract.FileSecurityControlChecks), []byte(checks), 0o644))
}

func TestCheckContractRoot_CompleteRootIsReady(t *testing.T) {
	dir := t.TempDir()
	writeCompleteContractRoot(t, dir)

	report, err := contract.CheckContractRoot(dir)
	require.NoError(t, err)
	assert.True(t, report.IsReady)
}

func TestCheckContractRoot_MissingThreatMatrixFile(t *testing.T) {
	dir := t.TempDir()
	writeCompleteContractRoot(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, contract.FileThreatMatrix)))

	report, err := contract.CheckContractRoot(dir)
	require.NoError(t, err)
	assert.False(t, report.IsReady)
	assert.Contains(t, report.MissingArtifacts, contract.FileThreatMatrix)
}

func TestCheckContractRoot_AllowlistMustFailClosed(t *testing.T) {
	dir := t.TempDir()
	writeCompleteContractRoot(t, dir)

	badAllowlist := `
schema_version: 1
unknown_class_behavior: allow
require_env_fingerprint: true
require_reason_code: true
require_artifact_refs: true
allowed_deviation_classes:
  - admission_guard_caps
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, contract.FileHardenedAllowlist), []byte(badAllowlist), 0o644))

	report, err := contract.CheckContractRoot(dir)
	require.NoError(t, err)
	assert.False(t, report.IsReady)
}

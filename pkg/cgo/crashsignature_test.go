package cgo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fnproof/kernel/pkg/cgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCrashSignatureRegressionSuite_CleanRegistry(t *testing.T) {
	dir := t.TempDir()
	reproPath := "repro/minimized_case.json"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "repro"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, reproPath), []byte(`{}`), 0o644))

	registryPath := filepath.Join(dir, "registry.json")
	content := `{
		"schema_version": 1,
		"registry_version": "crash-signature-registry-v1",
		"signatures": [
			{"id": "sig1", "fixture": "fx1", "reason": "flatiter overread", "status": "closed",
			 "minimized_repro_refs": ["repro/minimized_case.json"], "blame_refs": ["commit:abc123"], "suite": "shape_stride"}
		]
	}`
	require.NoError(t, os.WriteFile(registryPath, []byte(content), 0o644))

	rerun := func(suite string) ([]string, error) { return nil, nil }

	report, err := cgo.RunCrashSignatureRegressionSuite(registryPath, dir, rerun)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CaseCount)
	assert.Equal(t, 1, report.PassCount)
	assert.Empty(t, report.Failures)
}

func TestRunCrashSignatureRegressionSuite_RegressionDetected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "repro"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repro/minimized_case.json"), []byte(`{}`), 0o644))

	registryPath := filepath.Join(dir, "registry.json")
	content := `{
		"schema_version": 1,
		"registry_version": "crash-signature-registry-v1",
		"signatures": [
			{"id": "sig1", "fixture": "fx1", "reason": "flatiter overread", "status": "closed",
			 "minimized_repro_refs": ["repro/minimized_case.json"], "blame_refs": ["commit:abc123"], "suite": "shape_stride"}
		]
	}`
	require.NoError(t, os.WriteFile(registryPath, []byte(content), 0o644))

	rerun := func(suite string) ([]string, error) { return []string{"fx1"}, nil }

	report, err := cgo.RunCrashSignatureRegressionSuite(registryPath, dir, rerun)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PassCount)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "regressed")
}

func TestRunCrashSignatureRegressionSuite_MissingReproRefFails(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "registry.json")
	content := `{
		"schema_version": 1,
		"registry_version": "crash-signature-registry-v1",
		"signatures": [
			{"id": "sig1", "fixture": "fx1", "reason": "r", "status": "closed",
			 "minimized_repro_refs": ["nonexistent.json"], "blame_refs": ["commit:abc123"], "suite": "shape_stride"}
		]
	}`
	require.NoError(t, os.WriteFile(registryPath, []byte(content), 0o644))

	rerun := func(suite string) ([]string, error) { return nil, nil }

	report, err := cgo.RunCrashSignatureRegressionSuite(registryPath, dir, rerun)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PassCount)
	require.Len(t, report.Failures, 1)
}

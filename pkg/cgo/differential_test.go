package cgo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fnproof/kernel/pkg/cgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTolerance(t *testing.T) {
	assert.True(t, cgo.WithinTolerance(1.0, 1.0+1e-10))
	assert.False(t, cgo.WithinTolerance(1.0, 1.1))
}

func TestRunDifferentialSuite_UfuncAdd(t *testing.T) {
	dir := t.TempDir()
	content := `[
		{"id": "add_ok", "operation": "add", "inputs": [1,2,3,4], "expected": [3,7]},
		{"id": "add_wrong", "operation": "add", "inputs": [1,2], "expected": [5]}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ufunc.json"), []byte(content), 0o644))

	report, err := cgo.RunDifferentialSuite("ufunc_add", dir, "ufunc.json", cgo.UfuncAdd)
	require.NoError(t, err)
	assert.Equal(t, 2, report.CaseCount)
	assert.Equal(t, 1, report.PassCount)
}

func TestRunDifferentialSuite_ExpectedErrorPath(t *testing.T) {
	dir := t.TempDir()
	content := `[{"id": "empty_io", "operation": "io", "inputs": [], "expect_error_contains": "empty", "reason_code": "io_empty_payload"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "io.json"), []byte(content), 0o644))

	report, err := cgo.RunDifferentialSuite("io_passthrough", dir, "io.json", cgo.IOPassThrough)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PassCount)
}

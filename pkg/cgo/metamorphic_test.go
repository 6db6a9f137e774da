package cgo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fnproof/kernel/pkg/cgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetamorphicSuite_AllRelationsPass(t *testing.T) {
	dir := t.TempDir()
	content := `[
		{"id": "commute", "relation": "add_mul_commutativity", "a": 2.5, "b": -1.25},
		{"id": "linear", "relation": "sum_linearity", "values": [1,2,3], "scalar": 4},
		{"id": "qr", "relation": "qr_determinism", "values": [1,2,3], "repeats": 3},
		{"id": "lstsq", "relation": "lstsq_invariance", "values": [1,2,3]}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"), []byte(content), 0o644))

	report, err := cgo.RunMetamorphicSuite(dir, "meta.json")
	require.NoError(t, err)
	assert.Equal(t, 4, report.CaseCount)
	assert.Equal(t, 4, report.PassCount)
	assert.Empty(t, report.Failures)
}

func TestRunMetamorphicSuite_UnknownRelationFails(t *testing.T) {
	dir := t.TempDir()
	content := `[{"id": "bad", "relation": "not_a_relation"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"), []byte(content), 0o644))

	report, err := cgo.RunMetamorphicSuite(dir, "meta.json")
	require.NoError(t, err)
	assert.Equal(t, 0, report.PassCount)
	assert.Len(t, report.Failures, 1)
}

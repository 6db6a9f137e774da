package ledger_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fnproof/kernel/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSink_DisabledByDefault(t *testing.T) {
	sink := ledger.NewLogSink("FNP_TEST_UNSET_VAR_XYZ")
	assert.False(t, sink.Enabled())
	assert.NoError(t, sink.WriteLine(map[string]string{"a": "b"}))
}

func TestLogSink_ProgrammaticPathWinsOverEnv(t *testing.T) {
	envVar := "FNP_TEST_SINK_PATH"
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.jsonl")
	progPath := filepath.Join(dir, "programmatic.jsonl")

	t.Setenv(envVar, envPath)

	sink := ledger.NewLogSink(envVar)
	assert.Equal(t, envPath, sink.Path())

	sink.SetPath(progPath)
	assert.Equal(t, progPath, sink.Path())

	require.NoError(t, sink.WriteLine(map[string]string{"k": "v"}))
	_, err := os.Stat(progPath)
	assert.NoError(t, err)
	_, err = os.Stat(envPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLogSink_WriteLine_CreatesParentDirAndAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "log.jsonl")

	sink := ledger.NewLogSink("FNP_TEST_UNUSED")
	sink.SetPath(path)

	require.NoError(t, sink.WriteLine(map[string]int{"n": 1}))
	require.NoError(t, sink.WriteLine(map[string]int{"n": 2}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, 1, decoded["n"])
}

func TestLedger_WritesToSink_WithRequiredKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime_policy.jsonl")

	sink := ledger.NewLogSink("FNP_RUNTIME_POLICY_LOG_PATH")
	sink.SetPath(path)
	l := ledger.New(sink)

	_, err := l.DecideAndRecordFromWire("hardened", "known_compatible", 0.9, 0.5,
		ledger.AuditContext{FixtureID: "fx1", EnvFingerprint: "env1", ReasonCode: "r1"}, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data[:len(data)-1], &decoded))
	assert.Equal(t, "full_validate", decoded["action"])
	audit, ok := decoded["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fx1", audit["fixture_id"])
}

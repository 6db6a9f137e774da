package ledger_test

import (
	"testing"

	"github.com/fnproof/kernel/pkg/ledger"
	"github.com/fnproof/kernel/pkg/pde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableChaining_LinksPreviousHash(t *testing.T) {
	l := ledger.New(nil).EnableChaining()

	_, err := l.DecideAndRecord(pde.ModeStrict, ledger.ClassKnownCompatible, 0.1, 0.5, ledger.AuditContext{FixtureID: "f1"}, "")
	require.NoError(t, err)
	_, err = l.DecideAndRecord(pde.ModeStrict, ledger.ClassKnownCompatible, 0.2, 0.5, ledger.AuditContext{FixtureID: "f2"}, "")
	require.NoError(t, err)

	events := l.Events()
	require.Len(t, events, 2)

	assert.Empty(t, events[0].PreviousHash)
	assert.NotEmpty(t, events[0].Hash)
	assert.Equal(t, events[0].Hash, events[1].PreviousHash)
	assert.NotEmpty(t, events[1].Hash)
	assert.NotEqual(t, events[0].Hash, events[1].Hash)
}

func TestDisabledChaining_LeavesHashFieldsEmpty(t *testing.T) {
	l := ledger.New(nil)

	_, err := l.DecideAndRecord(pde.ModeStrict, ledger.ClassKnownCompatible, 0.1, 0.5, ledger.AuditContext{FixtureID: "f1"}, "")
	require.NoError(t, err)

	event, ok := l.Last()
	require.True(t, ok)
	assert.Empty(t, event.Hash)
	assert.Empty(t, event.PreviousHash)
}

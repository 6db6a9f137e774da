package attest_test

import (
	"testing"
	"time"

	"github.com/fnproof/kernel/pkg/attest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify_RoundTrips(t *testing.T) {
	pub, priv, err := attest.GenerateKeyPair()
	require.NoError(t, err)

	digest := attest.Digest([]byte(`{"status":"pass"}`))
	sig := attest.Sign(digest, "fnp-kernel", priv)

	assert.NoError(t, attest.Verify(sig, digest, pub))
}

func TestVerify_RejectsTamperedDigest(t *testing.T) {
	pub, priv, err := attest.GenerateKeyPair()
	require.NoError(t, err)

	digest := attest.Digest([]byte(`{"status":"pass"}`))
	sig := attest.Sign(digest, "fnp-kernel", priv)

	err = attest.Verify(sig, attest.Digest([]byte(`{"status":"fail"}`)), pub)
	assert.Error(t, err)
}

func TestIssueAndVerifyToken_RoundTrips(t *testing.T) {
	pub, priv, err := attest.GenerateKeyPair()
	require.NoError(t, err)

	digest := attest.Digest([]byte(`{"packet_id":"FNP-P2C-006"}`))
	token, err := attest.IssueToken(digest, "fnp-kernel", priv, time.Hour)
	require.NoError(t, err)

	claims, err := attest.VerifyToken(token, digest, pub)
	require.NoError(t, err)
	assert.Equal(t, digest, claims.Digest)
}

func TestVerifyToken_RejectsWrongDigest(t *testing.T) {
	pub, priv, err := attest.GenerateKeyPair()
	require.NoError(t, err)

	digest := attest.Digest([]byte(`{"packet_id":"FNP-P2C-006"}`))
	token, err := attest.IssueToken(digest, "fnp-kernel", priv, time.Hour)
	require.NoError(t, err)

	_, err = attest.VerifyToken(token, attest.Digest([]byte("other")), pub)
	assert.Error(t, err)
}

func TestDeriveKeyPair_DeterministicAcrossCalls(t *testing.T) {
	seed := []byte("fixed-test-seed")
	pub1, priv1, err := attest.DeriveKeyPair(seed, "FNP-P2C-006")
	require.NoError(t, err)
	pub2, priv2, err := attest.DeriveKeyPair(seed, "FNP-P2C-006")
	require.NoError(t, err)

	assert.Equal(t, pub1, pub2)
	assert.Equal(t, priv1, priv2)
}

func TestDeriveKeyPair_DifferentPacketIDsDiffer(t *testing.T) {
	seed := []byte("fixed-test-seed")
	pub1, _, err := attest.DeriveKeyPair(seed, "FNP-P2C-006")
	require.NoError(t, err)
	pub2, _, err := attest.DeriveKeyPair(seed, "FNP-P2C-007")
	require.NoError(t, err)

	assert.NotEqual(t, pub1, pub2)
}

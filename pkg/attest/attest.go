// Package attest provides optional attestation of gate summaries and
// packet-readiness reports: a detached ed25519 signature over the
// report's canonical digest, and a JWT wrapping that digest for callers
// that prefer a bearer-token-shaped artifact. Grounded on the teacher's
// pkg/conform report-signing flow (SignReport/VerifyReport) and its
// pkg/identity token-issuance idiom, adapted to sign a report digest
// instead of a principal's claims.
package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Digest computes the SHA-256 digest of a report's RFC 8785 canonical
// form (callers pass the output of pkg/canonicalize.JCS).
func Digest(canonicalJSON []byte) string {
	sum := sha256.Sum256(canonicalJSON)
	return hex.EncodeToString(sum[:])
}

// GenerateKeyPair creates a fresh ed25519 signing key, for local/dev runs
// that have not been issued a persistent attestation identity.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return pub, priv, nil
}

// DeriveKeyPair deterministically derives an ed25519 key pair from seed
// and packetID via HKDF-SHA256, so two runs over the same packet with the
// same seed produce byte-identical keys, and therefore byte-identical
// ed25519 signatures over the same digest (spec.md §5 determinism
// requirement, extended to the optional attestation layer). Sign still
// stamps SignedAt with the current time, so the DetachedSignature values
// differ in that field.
func DeriveKeyPair(seed []byte, packetID string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	reader := hkdf.New(sha256.New, seed, []byte("fnproof-kernel-attest-kdf"), []byte(packetID))
	keySeed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, keySeed); err != nil {
		return nil, nil, fmt.Errorf("derive attestation key: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(keySeed)
	pub := priv.Public().(ed25519.PublicKey)
	return pub, priv, nil
}

// DetachedSignature is a standalone signature artifact over a report
// digest, modeled on the teacher's ReportSignature.
type DetachedSignature struct {
	Digest    string    `json:"digest"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at"`
	SignerID  string    `json:"signer_id"`
}

// Sign produces a detached ed25519 signature over digest.
func Sign(digest, signerID string, priv ed25519.PrivateKey) DetachedSignature {
	sig := ed25519.Sign(priv, []byte(digest))
	return DetachedSignature{
		Digest:    digest,
		Signature: hex.EncodeToString(sig),
		SignedAt:  time.Now().UTC(),
		SignerID:  signerID,
	}
}

// Verify checks a DetachedSignature against the expected digest and the
// signer's public key.
func Verify(s DetachedSignature, expectedDigest string, pub ed25519.PublicKey) error {
	if s.Digest != expectedDigest {
		return fmt.Errorf("digest mismatch: signature covers %q, report digest is %q", s.Digest, expectedDigest)
	}
	sig, err := hex.DecodeString(s.Signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if !ed25519.Verify(pub, []byte(s.Digest), sig) {
		return fmt.Errorf("signature verification failed for signer %q", s.SignerID)
	}
	return nil
}

// ReportClaims wraps a report digest in a JWT, for callers that want a
// bearer-token-shaped attestation instead of a standalone signature file.
type ReportClaims struct {
	jwt.RegisteredClaims
	Digest string `json:"digest"`
}

// IssueToken signs a ReportClaims JWT over digest using EdDSA.
func IssueToken(digest, signerID string, priv ed25519.PrivateKey, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ReportClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   digest,
			Issuer:    signerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Digest: digest,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("sign attestation token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates an attestation token, returning its
// claims if the signature and digest both check out.
func VerifyToken(tokenString, expectedDigest string, pub ed25519.PublicKey) (*ReportClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ReportClaims{}, func(t *jwt.Token) (any, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse attestation token: %w", err)
	}

	claims, ok := token.Claims.(*ReportClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Digest != expectedDigest {
		return nil, fmt.Errorf("digest mismatch: token covers %q, report digest is %q", claims.Digest, expectedDigest)
	}
	return claims, nil
}

package ledger

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gowebpki/jcs"
)

// hashEvent computes the SHA-256 digest of the event's RFC 8785 canonical
// JSON form, excluding the Hash field itself (it is cleared before
// marshaling). Adapted from the teacher's AuditLog.computeEntryHash, which
// canonicalizes before hashing rather than trusting map iteration order —
// here via the gowebpki/jcs library directly rather than a hand-rolled
// sorter.
func hashEvent(e DecisionEvent) (string, error) {
	e.Hash = "" // never include the field being computed
	canon, err := jcs.Marshal(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

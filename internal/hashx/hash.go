// Package hashx computes the content digests used as integrity fingerprints
// and as the audit trail's tamper-evidence mechanism: any alteration of the
// stored bytes changes the recorded digest.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of b as a lowercase hex string.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

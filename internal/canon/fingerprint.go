package canon

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint computes the SHA-256 hex digest of canonical text.
//
// Same bytes in, same digest out — it is the idempotency key for
// extraction caching. Not a security boundary; collision resistance
// only needs to hold across a corpus of registry records.
func Fingerprint(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

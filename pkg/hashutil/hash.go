package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func HashBytes(input string) []byte {
	sum := sha256.Sum256([]byte(input))
	return sum[:]
}

// ShortHash returns the first 16 hex characters, enough for stable
// human-readable identifiers.
func ShortHash(input string) string {
	return HashString(input)[:16]
}

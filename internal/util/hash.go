package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex fingerprints uploaded documents so runs can be correlated in logs.
func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

func ShortHash(b []byte) string {
	return SHA256Hex(b)[:12]
}

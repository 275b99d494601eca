package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex fingerprints paper content so upload caches can recognize a
// PDF they already sent regardless of its file name.
func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable hex-encoded hash of the raw image bytes.
// Identical inputs always map to the same fingerprint, which keys the
// artifact cache together with the style id.
func Fingerprint(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

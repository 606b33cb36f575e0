package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex-encoded SHA-256 digest of data. The pipeline uses it
// to fingerprint serialized wiring graphs, and FileCache uses it to map keys
// onto fixed-length file names.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key: the prefix plus a digest of the
// parts. Report keys fold the graph hash and every result-affecting option
// through here, so any option change lands on a fresh entry. The full
// 256-bit digest is kept to rule out collisions between distinct runs.
func hashKey(prefix string, parts ...any) string {
	raw, _ := json.Marshal(parts)
	return prefix + ":" + Hash(raw)
}

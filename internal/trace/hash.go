package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeTraceHash computes the deterministic hash of a canonical trace
// encoding: sha256 over the canonical bytes, hex-encoded. It assumes the
// input is already canonical (e.g. from ReachTrace.CanonicalJSON()), so
// it covers the sorted event order rather than insertion order.
func ComputeTraceHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	sum := sha256.Sum256(canonicalEncoding)
	return hex.EncodeToString(sum[:])
}

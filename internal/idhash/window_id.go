package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeWindowID computes a deterministic window_id using SHA256.
// Formula: SHA256(symbol|epoch|open_time_ms|strike)
// Returns hex-encoded hash (64 characters).
func ComputeWindowID(symbol, epoch string, openTimeMs int64, strike float64) string {
	data := fmt.Sprintf("%s|%s|%d|%g", symbol, epoch, openTimeMs, strike)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

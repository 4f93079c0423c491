package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(window_id|token|entry_time_ms|exit_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(windowID, token string, entryTimeMs, exitTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", windowID, token, entryTimeMs, exitTimeMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

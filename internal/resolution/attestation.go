package resolution

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AttestationValid reports whether key is a base58-encoded 32-byte value
// that decodes to a valid ed25519 curve point. On-chain resolutions whose
// attester key fails this check are not trusted and resolution falls
// through to the next source.
func AttestationValid(key string) bool {
	if key == "" {
		return false
	}

	raw, err := base58.Decode(key)
	if err != nil || len(raw) != 32 {
		return false
	}

	return isOnCurve(raw)
}

func isOnCurve(point []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

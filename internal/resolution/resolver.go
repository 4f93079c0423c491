// Package resolution determines a window's realized outcome from its
// resolution sources, checked in strict descending trust order. Cheaper
// and faster sources can disagree with costlier ones; grading always uses
// the best available truth.
package resolution

import (
	"strings"

	"binary-window-lab/internal/domain"
)

// Resolve returns the window's realized direction, or nil when no source
// is populated and no authoritative prices are available. Trust order:
//  1. externally audited resolution
//  2. on-chain attested resolution (attestation must validate)
//  3. generic resolved-direction field
//  4. fallback: authoritative close vs open price
func Resolve(w *domain.Window) *domain.Direction {
	if d := normalize(w.AuditedResolution); d != nil {
		return d
	}

	if r := w.OnChainResolution; r != nil && AttestationValid(r.AttesterKey) {
		if d := normalizeString(r.Direction); d != nil {
			return d
		}
	}

	if d := normalize(w.ResolvedDirection); d != nil {
		return d
	}

	if w.OpenPrice > 0 && w.ClosePrice > 0 {
		d := domain.DirectionDown
		if w.ClosePrice > w.OpenPrice {
			d = domain.DirectionUp
		}
		return &d
	}

	return nil
}

// normalize maps a nullable raw direction string onto {UP, DOWN}.
func normalize(raw *string) *domain.Direction {
	if raw == nil {
		return nil
	}
	return normalizeString(*raw)
}

func normalizeString(raw string) *domain.Direction {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "UP", "YES", "ABOVE":
		d := domain.DirectionUp
		return &d
	case "DOWN", "NO", "BELOW":
		d := domain.DirectionDown
		return &d
	default:
		return nil
	}
}

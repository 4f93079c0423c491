package domain

// Direction is the realized outcome of a binary window.
type Direction string

// Direction constants.
const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// OnChainResolution is a resolution published by an on-chain oracle account.
// The attester key must decode to a valid ed25519 point before the
// resolution is trusted.
type OnChainResolution struct {
	Direction   string // raw direction string, normalized by the resolver
	AttesterKey string // base58-encoded ed25519 public key of the attesting account
}

// Window represents one fixed-duration binary up/down market episode.
// Resolution fields are independently populated by the loader and checked
// by the resolver in descending trust order. A Window is never mutated
// after creation.
type Window struct {
	WindowID    string // deterministic hash, see idhash.ComputeWindowID
	Symbol      string // underlying symbol, e.g. "BTC"
	Epoch       string // optional epoch tag for book snapshot filtering
	OpenTimeMs  int64  // window open (ms since epoch)
	CloseTimeMs int64  // window close (ms since epoch)

	StrikePrice float64 // strike the up/down contract settles against
	OpenPrice   float64 // authoritative price at open (0 = unknown)
	ClosePrice  float64 // authoritative price at close (0 = unknown)

	// Resolution sources, highest trust first.
	AuditedResolution *string            // externally audited settlement
	OnChainResolution *OnChainResolution // on-chain attested settlement
	ResolvedDirection *string            // generic resolved-direction field
}

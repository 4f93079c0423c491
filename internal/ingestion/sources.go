package ingestion

import (
	"context"

	"binary-window-lab/internal/domain"
)

// OracleTickSource provides raw oracle ticks from external sources.
type OracleTickSource interface {
	// Fetch returns oracle ticks for a symbol within time range [from, to]
	// (inclusive). Ticks may be unordered; Manager enforces deterministic
	// ordering.
	Fetch(ctx context.Context, symbol string, from, to int64) ([]*domain.OracleTick, error)
}

// BookSnapshotSource provides raw order book snapshots from external sources.
type BookSnapshotSource interface {
	// Fetch returns snapshots for markets matching the symbol prefix within
	// time range [from, to] (inclusive). Snapshots may be unordered;
	// Manager enforces deterministic ordering.
	Fetch(ctx context.Context, symbolPrefix string, from, to int64) ([]*domain.BookSnapshot, error)
}

// ExchangeTickSource provides raw exchange trade ticks from external sources.
type ExchangeTickSource interface {
	// Fetch returns exchange ticks for a symbol within time range [from, to]
	// (inclusive). Ticks may be unordered; Manager enforces deterministic
	// ordering.
	Fetch(ctx context.Context, symbol string, from, to int64) ([]*domain.ExchangeTick, error)
}

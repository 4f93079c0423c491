package storage

import (
	"context"

	"binary-window-lab/internal/domain"
)

// WindowStore provides access to windows storage.
type WindowStore interface {
	// Insert adds a new window. Returns ErrDuplicateKey if window_id exists.
	Insert(ctx context.Context, w *domain.Window) error

	// InsertBulk adds multiple windows atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, windows []*domain.Window) error

	// GetByID retrieves a window by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, windowID string) (*domain.Window, error)

	// GetBySymbol retrieves all windows for a symbol, ordered by open time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Window, error)

	// GetByTimeRange retrieves windows for a symbol whose open time falls
	// within [start, end] (inclusive), ordered by open time ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Window, error)
}

// OracleTickStore provides access to oracle_ticks storage.
type OracleTickStore interface {
	// InsertBulk adds multiple ticks. Fails entire batch on duplicate
	// (topic, symbol, timestamp_ms).
	InsertBulk(ctx context.Context, ticks []*domain.OracleTick) error

	// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.OracleTick, error)

	// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.OracleTick, error)
}

// BookSnapshotStore provides access to book_snapshots storage. Snapshot
// symbols carry per-window suffixes, so symbol arguments match by prefix.
type BookSnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
	// (symbol, label, timestamp_ms).
	InsertBulk(ctx context.Context, snaps []*domain.BookSnapshot) error

	// GetBySymbol retrieves all snapshots whose symbol starts with the
	// given prefix, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbolPrefix string) ([]*domain.BookSnapshot, error)

	// GetByTimeRange retrieves snapshots whose symbol starts with the given
	// prefix within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbolPrefix string, start, end int64) ([]*domain.BookSnapshot, error)
}

// ExchangeTickStore provides access to exchange_ticks storage.
type ExchangeTickStore interface {
	// InsertBulk adds multiple ticks. Fails entire batch on duplicate
	// (exchange, symbol, timestamp_ms).
	InsertBulk(ctx context.Context, ticks []*domain.ExchangeTick) error

	// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.ExchangeTick, error)

	// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.ExchangeTick, error)
}

// ResultStore provides access to backtest_runs and their trades.
type ResultStore interface {
	// InsertRun adds a new run. Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, run *domain.BacktestRun) error

	// InsertTrades adds the trades of one run atomically.
	InsertTrades(ctx context.Context, runID string, trades []domain.Trade) error

	// GetRun retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.BacktestRun, error)

	// GetTradesByRun retrieves a run's trades, ordered by entry time ASC.
	GetTradesByRun(ctx context.Context, runID string) ([]domain.Trade, error)

	// ListRuns retrieves all runs, newest first.
	ListRuns(ctx context.Context) ([]*domain.BacktestRun, error)
}

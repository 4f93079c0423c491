package ingestion

import (
	"context"
	"time"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/observability"
	"binary-window-lab/internal/storage"
)

// Manager orchestrates ingestion from sources to storage.
// It enforces deterministic ordering and uses the storage layer for
// duplicate rejection.
type Manager struct {
	oracleSource   OracleTickSource
	bookSource     BookSnapshotSource
	exchangeSource ExchangeTickSource

	oracleStore   storage.OracleTickStore
	bookStore     storage.BookSnapshotStore
	exchangeStore storage.ExchangeTickStore
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	OracleSource   OracleTickSource
	BookSource     BookSnapshotSource
	ExchangeSource ExchangeTickSource

	OracleStore   storage.OracleTickStore
	BookStore     storage.BookSnapshotStore
	ExchangeStore storage.ExchangeTickStore
}

// NewManager creates a new ingestion manager with the provided sources and stores.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		oracleSource:   opts.OracleSource,
		bookSource:     opts.BookSource,
		exchangeSource: opts.ExchangeSource,
		oracleStore:    opts.OracleStore,
		bookStore:      opts.BookStore,
		exchangeStore:  opts.ExchangeStore,
	}
}

// IngestOracleTicks fetches oracle ticks from source and stores them.
// Enforces deterministic ordering by (timestamp_ms, topic, symbol).
// Returns count of ingested ticks and any error.
// Duplicates are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) IngestOracleTicks(ctx context.Context, symbol string, from, to int64) (int, error) {
	if m.oracleSource == nil || m.oracleStore == nil {
		return 0, nil
	}

	ticks, err := m.oracleSource.Fetch(ctx, symbol, from, to)
	if err != nil {
		return 0, err
	}
	if len(ticks) == 0 {
		return 0, nil
	}

	SortOracleTicks(ticks)

	if err := m.oracleStore.InsertBulk(ctx, ticks); err != nil {
		return 0, err
	}
	return len(ticks), nil
}

// IngestBookSnapshots fetches book snapshots from source and stores them.
// Enforces deterministic ordering by (timestamp_ms, symbol, label).
func (m *Manager) IngestBookSnapshots(ctx context.Context, symbolPrefix string, from, to int64) (int, error) {
	if m.bookSource == nil || m.bookStore == nil {
		return 0, nil
	}

	snaps, err := m.bookSource.Fetch(ctx, symbolPrefix, from, to)
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	SortBookSnapshots(snaps)

	if err := m.bookStore.InsertBulk(ctx, snaps); err != nil {
		return 0, err
	}
	return len(snaps), nil
}

// IngestExchangeTicks fetches exchange ticks from source and stores them.
// Enforces deterministic ordering by (timestamp_ms, exchange, symbol).
func (m *Manager) IngestExchangeTicks(ctx context.Context, symbol string, from, to int64) (int, error) {
	if m.exchangeSource == nil || m.exchangeStore == nil {
		return 0, nil
	}

	ticks, err := m.exchangeSource.Fetch(ctx, symbol, from, to)
	if err != nil {
		return 0, err
	}
	if len(ticks) == 0 {
		return 0, nil
	}

	SortExchangeTicks(ticks)

	if err := m.exchangeStore.InsertBulk(ctx, ticks); err != nil {
		return 0, err
	}
	return len(ticks), nil
}

// RecordExchangeStream drains a live tick channel into the exchange store
// in batches. Returns the number of ticks persisted. Flushes the current
// batch when it reaches batchSize or when the channel closes; a closed
// context flushes and returns.
func (m *Manager) RecordExchangeStream(ctx context.Context, ticks <-chan *domain.ExchangeTick, batchSize int) (int, error) {
	if m.exchangeStore == nil {
		return 0, nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	total := 0
	batch := make([]*domain.ExchangeTick, 0, batchSize)

	flush := func(flushCtx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		start := time.Now()
		err := m.exchangeStore.InsertBulk(flushCtx, batch)
		observability.RecordFlush(len(batch), time.Since(start).Seconds(), err)
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			// Final flush must outlive the cancelled recording context.
			if err := flush(context.WithoutCancel(ctx)); err != nil {
				return total, err
			}
			return total, ctx.Err()
		case tk, ok := <-ticks:
			if !ok {
				err := flush(ctx)
				return total, err
			}
			batch = append(batch, tk)
			if len(batch) >= batchSize {
				if err := flush(ctx); err != nil {
					return total, err
				}
			}
		}
	}
}

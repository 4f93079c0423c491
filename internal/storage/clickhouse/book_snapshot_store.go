package clickhouse

import (
	"context"
	"fmt"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// BookSnapshotStore implements storage.BookSnapshotStore using ClickHouse.
type BookSnapshotStore struct {
	conn *Conn
}

// NewBookSnapshotStore creates a new BookSnapshotStore.
func NewBookSnapshotStore(conn *Conn) *BookSnapshotStore {
	return &BookSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BookSnapshotStore = (*BookSnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (symbol, label, timestamp_ms).
func (s *BookSnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.BookSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		label       string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, sn := range snaps {
		if sn == nil || sn.Symbol == "" || sn.Label == "" {
			return storage.ErrInvalidInput
		}
		k := key{sn.Symbol, sn.Label, sn.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, sn := range snaps {
		exists, err := s.exists(ctx, sn.Symbol, sn.Label, sn.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO book_snapshots (
			symbol, label, epoch, timestamp_ms, best_bid, best_ask, bid_size, ask_size
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sn := range snaps {
		err := batch.Append(
			sn.Symbol, sn.Label, sn.Epoch, uint64(sn.TimestampMs),
			sn.BestBid, sn.BestAsk, sn.BidSize, sn.AskSize,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all snapshots whose symbol starts with the given
// prefix, ordered by timestamp ASC.
func (s *BookSnapshotStore) GetBySymbol(ctx context.Context, symbolPrefix string) ([]*domain.BookSnapshot, error) {
	query := `
		SELECT symbol, label, epoch, timestamp_ms, best_bid, best_ask, bid_size, ask_size
		FROM book_snapshots
		WHERE startsWith(symbol, ?)
		ORDER BY timestamp_ms ASC, symbol ASC, label ASC
	`

	rows, err := s.conn.Query(ctx, query, symbolPrefix)
	if err != nil {
		return nil, fmt.Errorf("query by symbol prefix: %w", err)
	}
	defer rows.Close()

	return scanBookSnapshots(rows)
}

// GetByTimeRange retrieves snapshots whose symbol starts with the given
// prefix within [start, end] (inclusive).
func (s *BookSnapshotStore) GetByTimeRange(ctx context.Context, symbolPrefix string, start, end int64) ([]*domain.BookSnapshot, error) {
	query := `
		SELECT symbol, label, epoch, timestamp_ms, best_bid, best_ask, bid_size, ask_size
		FROM book_snapshots
		WHERE startsWith(symbol, ?) AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, symbol ASC, label ASC
	`

	rows, err := s.conn.Query(ctx, query, symbolPrefix, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBookSnapshots(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *BookSnapshotStore) exists(ctx context.Context, symbol, label string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM book_snapshots
		WHERE symbol = ? AND label = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, label, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBookSnapshots scans multiple rows.
func scanBookSnapshots(rows chRows) ([]*domain.BookSnapshot, error) {
	var snaps []*domain.BookSnapshot

	for rows.Next() {
		var sn domain.BookSnapshot
		var timestampMs uint64

		err := rows.Scan(
			&sn.Symbol, &sn.Label, &sn.Epoch, &timestampMs,
			&sn.BestBid, &sn.BestAsk, &sn.BidSize, &sn.AskSize,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book snapshot row: %w", err)
		}

		sn.TimestampMs = int64(timestampMs)
		snaps = append(snaps, &sn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book snapshot rows: %w", err)
	}

	return snaps, nil
}

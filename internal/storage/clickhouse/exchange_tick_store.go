package clickhouse

import (
	"context"
	"fmt"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// ExchangeTickStore implements storage.ExchangeTickStore using ClickHouse.
type ExchangeTickStore struct {
	conn *Conn
}

// NewExchangeTickStore creates a new ExchangeTickStore.
func NewExchangeTickStore(conn *Conn) *ExchangeTickStore {
	return &ExchangeTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExchangeTickStore = (*ExchangeTickStore)(nil)

// InsertBulk adds multiple ticks. Fails entire batch on duplicate
// (exchange, symbol, timestamp_ms).
func (s *ExchangeTickStore) InsertBulk(ctx context.Context, ticks []*domain.ExchangeTick) error {
	if len(ticks) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		exchange    string
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, tk := range ticks {
		if tk == nil || tk.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{tk.Exchange, tk.Symbol, tk.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, tk := range ticks {
		exists, err := s.exists(ctx, tk.Exchange, tk.Symbol, tk.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO exchange_ticks (exchange, symbol, timestamp_ms, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tk := range ticks {
		if err := batch.Append(tk.Exchange, tk.Symbol, uint64(tk.TimestampMs), tk.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
func (s *ExchangeTickStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.ExchangeTick, error) {
	query := `
		SELECT exchange, symbol, timestamp_ms, price
		FROM exchange_ticks
		WHERE symbol = ?
		ORDER BY timestamp_ms ASC, exchange ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanExchangeTicks(rows)
}

// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
func (s *ExchangeTickStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.ExchangeTick, error) {
	query := `
		SELECT exchange, symbol, timestamp_ms, price
		FROM exchange_ticks
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, exchange ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanExchangeTicks(rows)
}

// exists checks if a tick with the given key exists.
func (s *ExchangeTickStore) exists(ctx context.Context, exchange, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM exchange_ticks
		WHERE exchange = ? AND symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, exchange, symbol, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanExchangeTicks scans multiple rows.
func scanExchangeTicks(rows chRows) ([]*domain.ExchangeTick, error) {
	var ticks []*domain.ExchangeTick

	for rows.Next() {
		var tk domain.ExchangeTick
		var timestampMs uint64

		if err := rows.Scan(&tk.Exchange, &tk.Symbol, &timestampMs, &tk.Price); err != nil {
			return nil, fmt.Errorf("scan exchange tick row: %w", err)
		}

		tk.TimestampMs = int64(timestampMs)
		ticks = append(ticks, &tk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange tick rows: %w", err)
	}

	return ticks, nil
}

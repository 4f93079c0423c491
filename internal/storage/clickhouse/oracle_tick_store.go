package clickhouse

import (
	"context"
	"fmt"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// OracleTickStore implements storage.OracleTickStore using ClickHouse.
type OracleTickStore struct {
	conn *Conn
}

// NewOracleTickStore creates a new OracleTickStore.
func NewOracleTickStore(conn *Conn) *OracleTickStore {
	return &OracleTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OracleTickStore = (*OracleTickStore)(nil)

// InsertBulk adds multiple ticks. Fails entire batch on duplicate
// (topic, symbol, timestamp_ms).
func (s *OracleTickStore) InsertBulk(ctx context.Context, ticks []*domain.OracleTick) error {
	if len(ticks) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		topic       string
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, tk := range ticks {
		if tk == nil || tk.Topic == "" {
			return storage.ErrInvalidInput
		}
		k := key{tk.Topic, tk.Symbol, tk.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, tk := range ticks {
		exists, err := s.exists(ctx, tk.Topic, tk.Symbol, tk.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO oracle_ticks (topic, symbol, timestamp_ms, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tk := range ticks {
		if err := batch.Append(tk.Topic, tk.Symbol, uint64(tk.TimestampMs), tk.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
func (s *OracleTickStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.OracleTick, error) {
	query := `
		SELECT topic, symbol, timestamp_ms, price
		FROM oracle_ticks
		WHERE symbol = ?
		ORDER BY timestamp_ms ASC, topic ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanOracleTicks(rows)
}

// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
func (s *OracleTickStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.OracleTick, error) {
	query := `
		SELECT topic, symbol, timestamp_ms, price
		FROM oracle_ticks
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, topic ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanOracleTicks(rows)
}

// exists checks if a tick with the given key exists.
func (s *OracleTickStore) exists(ctx context.Context, topic, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM oracle_ticks
		WHERE topic = ? AND symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, topic, symbol, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanOracleTicks scans multiple rows.
func scanOracleTicks(rows chRows) ([]*domain.OracleTick, error) {
	var ticks []*domain.OracleTick

	for rows.Next() {
		var tk domain.OracleTick
		var timestampMs uint64

		if err := rows.Scan(&tk.Topic, &tk.Symbol, &timestampMs, &tk.Price); err != nil {
			return nil, fmt.Errorf("scan oracle tick row: %w", err)
		}

		tk.TimestampMs = int64(timestampMs)
		ticks = append(ticks, &tk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oracle tick rows: %w", err)
	}

	return ticks, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// WindowStore implements storage.WindowStore using PostgreSQL.
type WindowStore struct {
	pool *Pool
}

// NewWindowStore creates a new WindowStore.
func NewWindowStore(pool *Pool) *WindowStore {
	return &WindowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WindowStore = (*WindowStore)(nil)

const windowColumns = `
	window_id, symbol, epoch, open_time_ms, close_time_ms,
	strike_price, open_price, close_price,
	audited_resolution, onchain_direction, onchain_attester_key, resolved_direction
`

const insertWindowQuery = `
	INSERT INTO windows (
		window_id, symbol, epoch, open_time_ms, close_time_ms,
		strike_price, open_price, close_price,
		audited_resolution, onchain_direction, onchain_attester_key, resolved_direction
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// Insert adds a new window. Returns ErrDuplicateKey if window_id exists.
func (s *WindowStore) Insert(ctx context.Context, w *domain.Window) error {
	if w == nil || w.WindowID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertWindowQuery, windowArgs(w)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// InsertBulk adds multiple windows atomically. Fails entire batch on any duplicate.
func (s *WindowStore) InsertBulk(ctx context.Context, windows []*domain.Window) error {
	if len(windows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert windows: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range windows {
		if w == nil || w.WindowID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertWindowQuery, windowArgs(w)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert window %s: %w", w.WindowID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert windows: %w", err)
	}
	return nil
}

// GetByID retrieves a window by its ID. Returns ErrNotFound if not exists.
func (s *WindowStore) GetByID(ctx context.Context, windowID string) (*domain.Window, error) {
	query := `SELECT ` + windowColumns + ` FROM windows WHERE window_id = $1`

	row := s.pool.QueryRow(ctx, query, windowID)
	w, err := scanWindow(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get window by id: %w", err)
	}
	return w, nil
}

// GetBySymbol retrieves all windows for a symbol, ordered by open time ASC.
func (s *WindowStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Window, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM windows
		WHERE symbol = $1
		ORDER BY open_time_ms ASC, window_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get windows by symbol: %w", err)
	}
	defer rows.Close()

	return scanWindows(rows)
}

// GetByTimeRange retrieves windows for a symbol whose open time falls
// within [start, end] (inclusive), ordered by open time ASC.
func (s *WindowStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Window, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM windows
		WHERE symbol = $1 AND open_time_ms >= $2 AND open_time_ms <= $3
		ORDER BY open_time_ms ASC, window_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("get windows by time range: %w", err)
	}
	defer rows.Close()

	return scanWindows(rows)
}

// windowArgs flattens a window into insert arguments; the on-chain
// resolution splits into two nullable columns.
func windowArgs(w *domain.Window) []any {
	var onchainDirection, onchainAttester *string
	if w.OnChainResolution != nil {
		onchainDirection = &w.OnChainResolution.Direction
		onchainAttester = &w.OnChainResolution.AttesterKey
	}
	return []any{
		w.WindowID, w.Symbol, w.Epoch, w.OpenTimeMs, w.CloseTimeMs,
		w.StrikePrice, w.OpenPrice, w.ClosePrice,
		w.AuditedResolution, onchainDirection, onchainAttester, w.ResolvedDirection,
	}
}

// scanWindow scans a single row.
func scanWindow(row pgx.Row) (*domain.Window, error) {
	var w domain.Window
	var onchainDirection, onchainAttester *string

	err := row.Scan(
		&w.WindowID, &w.Symbol, &w.Epoch, &w.OpenTimeMs, &w.CloseTimeMs,
		&w.StrikePrice, &w.OpenPrice, &w.ClosePrice,
		&w.AuditedResolution, &onchainDirection, &onchainAttester, &w.ResolvedDirection,
	)
	if err != nil {
		return nil, err
	}

	if onchainDirection != nil {
		w.OnChainResolution = &domain.OnChainResolution{Direction: *onchainDirection}
		if onchainAttester != nil {
			w.OnChainResolution.AttesterKey = *onchainAttester
		}
	}
	return &w, nil
}

// scanWindows scans multiple rows.
func scanWindows(rows pgx.Rows) ([]*domain.Window, error) {
	var windows []*domain.Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window row: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window rows: %w", err)
	}
	return windows, nil
}

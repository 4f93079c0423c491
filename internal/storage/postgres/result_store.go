package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// InsertRun adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ResultStore) InsertRun(ctx context.Context, run *domain.BacktestRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, strategy_id, created_at_ms,
			starting_capital, final_capital, total_pnl,
			win_rate, max_drawdown, total_trades, window_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.StrategyID, run.CreatedAtMs,
		run.StartingCapital, run.FinalCapital, run.TotalPnL,
		run.WinRate, run.MaxDrawdown, run.TotalTrades, run.WindowCount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// InsertTrades adds the trades of one run atomically.
func (s *ResultStore) InsertTrades(ctx context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	query := `
		INSERT INTO backtest_trades (
			run_id, trade_id, window_id, token,
			entry_time_ms, exit_time_ms, entry_price, exit_price,
			size, pnl, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert trades: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			runID, t.TradeID, t.WindowID, string(t.Token),
			t.EntryTimeMs, t.ExitTimeMs, t.EntryPrice, t.ExitPrice,
			t.Size, t.PnL, t.Reason,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert trades: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetRun(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	query := `
		SELECT run_id, strategy_id, created_at_ms,
		       starting_capital, final_capital, total_pnl,
		       win_rate, max_drawdown, total_trades, window_count
		FROM backtest_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return run, nil
}

// GetTradesByRun retrieves a run's trades, ordered by entry time ASC.
func (s *ResultStore) GetTradesByRun(ctx context.Context, runID string) ([]domain.Trade, error) {
	query := `
		SELECT trade_id, window_id, token,
		       entry_time_ms, exit_time_ms, entry_price, exit_price,
		       size, pnl, reason
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY entry_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var token string
		err := rows.Scan(
			&t.TradeID, &t.WindowID, &token,
			&t.EntryTimeMs, &t.ExitTimeMs, &t.EntryPrice, &t.ExitPrice,
			&t.Size, &t.PnL, &t.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Token = domain.Token(token)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}

// ListRuns retrieves all runs, newest first.
func (s *ResultStore) ListRuns(ctx context.Context) ([]*domain.BacktestRun, error) {
	query := `
		SELECT run_id, strategy_id, created_at_ms,
		       starting_capital, final_capital, total_pnl,
		       win_rate, max_drawdown, total_trades, window_count
		FROM backtest_runs
		ORDER BY created_at_ms DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// scanRun scans a single run row.
func scanRun(row pgx.Row) (*domain.BacktestRun, error) {
	var run domain.BacktestRun
	err := row.Scan(
		&run.RunID, &run.StrategyID, &run.CreatedAtMs,
		&run.StartingCapital, &run.FinalCapital, &run.TotalPnL,
		&run.WinRate, &run.MaxDrawdown, &run.TotalTrades, &run.WindowCount,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu     sync.RWMutex
	runs   map[string]*domain.BacktestRun
	trades map[string][]domain.Trade // keyed by run_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		runs:   make(map[string]*domain.BacktestRun),
		trades: make(map[string][]domain.Trade),
	}
}

// InsertRun adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ResultStore) InsertRun(_ context.Context, run *domain.BacktestRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.runs[run.RunID] = &runCopy
	return nil
}

// InsertTrades adds the trades of one run atomically. The run must exist.
func (s *ResultStore) InsertTrades(_ context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return storage.ErrNotFound
	}

	s.trades[runID] = append(s.trades[runID], trades...)
	return nil
}

// GetRun retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetRun(_ context.Context, runID string) (*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *run
	return &runCopy, nil
}

// GetTradesByRun retrieves a run's trades, ordered by entry time ASC.
func (s *ResultStore) GetTradesByRun(_ context.Context, runID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]domain.Trade, len(s.trades[runID]))
	copy(trades, s.trades[runID])

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].EntryTimeMs != trades[j].EntryTimeMs {
			return trades[i].EntryTimeMs < trades[j].EntryTimeMs
		}
		return trades[i].TradeID < trades[j].TradeID
	})

	return trades, nil
}

// ListRuns retrieves all runs, newest first.
func (s *ResultStore) ListRuns(_ context.Context) ([]*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestRun
	for _, run := range s.runs {
		runCopy := *run
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs > result[j].CreatedAtMs
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.ResultStore = (*ResultStore)(nil)

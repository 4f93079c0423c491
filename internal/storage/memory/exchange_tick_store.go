package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// ExchangeTickStore is an in-memory implementation of storage.ExchangeTickStore.
type ExchangeTickStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExchangeTick // keyed by (exchange, symbol, timestamp_ms)
}

// NewExchangeTickStore creates a new in-memory exchange tick store.
func NewExchangeTickStore() *ExchangeTickStore {
	return &ExchangeTickStore{
		data: make(map[string]*domain.ExchangeTick),
	}
}

// exchangeKey generates a unique key for an exchange tick.
func exchangeKey(exchange, symbol string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", exchange, symbol, timestampMs)
}

// InsertBulk adds multiple ticks. Fails entire batch on duplicate.
func (s *ExchangeTickStore) InsertBulk(_ context.Context, ticks []*domain.ExchangeTick) error {
	if len(ticks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(ticks))
	for _, tk := range ticks {
		if tk == nil || tk.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := exchangeKey(tk.Exchange, tk.Symbol, tk.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, tk := range ticks {
		tickCopy := *tk
		s.data[exchangeKey(tk.Exchange, tk.Symbol, tk.TimestampMs)] = &tickCopy
	}

	return nil
}

// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
func (s *ExchangeTickStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.ExchangeTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExchangeTick
	for _, tk := range s.data {
		if tk.Symbol == symbol {
			tickCopy := *tk
			result = append(result, &tickCopy)
		}
	}

	sortExchangeTicks(result)
	return result, nil
}

// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
func (s *ExchangeTickStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.ExchangeTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExchangeTick
	for _, tk := range s.data {
		if tk.Symbol == symbol && tk.TimestampMs >= start && tk.TimestampMs <= end {
			tickCopy := *tk
			result = append(result, &tickCopy)
		}
	}

	sortExchangeTicks(result)
	return result, nil
}

func sortExchangeTicks(ticks []*domain.ExchangeTick) {
	sort.Slice(ticks, func(i, j int) bool {
		if ticks[i].TimestampMs != ticks[j].TimestampMs {
			return ticks[i].TimestampMs < ticks[j].TimestampMs
		}
		return ticks[i].Exchange < ticks[j].Exchange
	})
}

var _ storage.ExchangeTickStore = (*ExchangeTickStore)(nil)

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// OracleTickStore is an in-memory implementation of storage.OracleTickStore.
type OracleTickStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OracleTick // keyed by (topic, symbol, timestamp_ms)
}

// NewOracleTickStore creates a new in-memory oracle tick store.
func NewOracleTickStore() *OracleTickStore {
	return &OracleTickStore{
		data: make(map[string]*domain.OracleTick),
	}
}

// oracleKey generates a unique key for an oracle tick.
func oracleKey(topic, symbol string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", topic, symbol, timestampMs)
}

// InsertBulk adds multiple ticks. Fails entire batch on duplicate.
func (s *OracleTickStore) InsertBulk(_ context.Context, ticks []*domain.OracleTick) error {
	if len(ticks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(ticks))
	for _, tk := range ticks {
		if tk == nil || tk.Topic == "" {
			return storage.ErrInvalidInput
		}
		key := oracleKey(tk.Topic, tk.Symbol, tk.TimestampMs)
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
		s.data[oracleKey(tk.Topic, tk.Symbol, tk.TimestampMs)] = &tickCopy
	}

	return nil
}

// GetBySymbol retrieves all ticks for a symbol, ordered by timestamp ASC.
func (s *OracleTickStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.OracleTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OracleTick
	for _, tk := range s.data {
		if tk.Symbol == symbol {
			tickCopy := *tk
			result = append(result, &tickCopy)
		}
	}

	sortOracleTicks(result)
	return result, nil
}

// GetByTimeRange retrieves ticks for a symbol within [start, end] (inclusive).
func (s *OracleTickStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.OracleTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OracleTick
	for _, tk := range s.data {
		if tk.Symbol == symbol && tk.TimestampMs >= start && tk.TimestampMs <= end {
			tickCopy := *tk
			result = append(result, &tickCopy)
		}
	}

	sortOracleTicks(result)
	return result, nil
}

func sortOracleTicks(ticks []*domain.OracleTick) {
	sort.Slice(ticks, func(i, j int) bool {
		if ticks[i].TimestampMs != ticks[j].TimestampMs {
			return ticks[i].TimestampMs < ticks[j].TimestampMs
		}
		return ticks[i].Topic < ticks[j].Topic
	})
}

var _ storage.OracleTickStore = (*OracleTickStore)(nil)

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// BookSnapshotStore is an in-memory implementation of storage.BookSnapshotStore.
type BookSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BookSnapshot // keyed by (symbol, label, timestamp_ms)
}

// NewBookSnapshotStore creates a new in-memory book snapshot store.
func NewBookSnapshotStore() *BookSnapshotStore {
	return &BookSnapshotStore{
		data: make(map[string]*domain.BookSnapshot),
	}
}

// bookKey generates a unique key for a book snapshot.
func bookKey(symbol, label string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", symbol, label, timestampMs)
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *BookSnapshotStore) InsertBulk(_ context.Context, snaps []*domain.BookSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snaps))
	for _, sn := range snaps {
		if sn == nil || sn.Symbol == "" || sn.Label == "" {
			return storage.ErrInvalidInput
		}
		key := bookKey(sn.Symbol, sn.Label, sn.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, sn := range snaps {
		snapCopy := *sn
		s.data[bookKey(sn.Symbol, sn.Label, sn.TimestampMs)] = &snapCopy
	}

	return nil
}

// GetBySymbol retrieves all snapshots whose symbol starts with the given
// prefix, ordered by timestamp ASC.
func (s *BookSnapshotStore) GetBySymbol(_ context.Context, symbolPrefix string) ([]*domain.BookSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BookSnapshot
	for _, sn := range s.data {
		if strings.HasPrefix(sn.Symbol, symbolPrefix) {
			snapCopy := *sn
			result = append(result, &snapCopy)
		}
	}

	sortBookSnapshots(result)
	return result, nil
}

// GetByTimeRange retrieves snapshots whose symbol starts with the given
// prefix within [start, end] (inclusive).
func (s *BookSnapshotStore) GetByTimeRange(_ context.Context, symbolPrefix string, start, end int64) ([]*domain.BookSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BookSnapshot
	for _, sn := range s.data {
		if strings.HasPrefix(sn.Symbol, symbolPrefix) && sn.TimestampMs >= start && sn.TimestampMs <= end {
			snapCopy := *sn
			result = append(result, &snapCopy)
		}
	}

	sortBookSnapshots(result)
	return result, nil
}

func sortBookSnapshots(snaps []*domain.BookSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].TimestampMs != snaps[j].TimestampMs {
			return snaps[i].TimestampMs < snaps[j].TimestampMs
		}
		if snaps[i].Symbol != snaps[j].Symbol {
			return snaps[i].Symbol < snaps[j].Symbol
		}
		return snaps[i].Label < snaps[j].Label
	})
}

var _ storage.BookSnapshotStore = (*BookSnapshotStore)(nil)

package memory

import (
	"context"
	"sort"
	"sync"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

// WindowStore is an in-memory implementation of storage.WindowStore.
type WindowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Window // keyed by window_id
}

// NewWindowStore creates a new in-memory window store.
func NewWindowStore() *WindowStore {
	return &WindowStore{
		data: make(map[string]*domain.Window),
	}
}

// Insert adds a new window. Returns ErrDuplicateKey if window_id exists.
func (s *WindowStore) Insert(_ context.Context, w *domain.Window) error {
	if w == nil || w.WindowID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.WindowID]; exists {
		return storage.ErrDuplicateKey
	}

	windowCopy := *w
	s.data[w.WindowID] = &windowCopy
	return nil
}

// InsertBulk adds multiple windows atomically. Fails entire batch on any duplicate.
func (s *WindowStore) InsertBulk(_ context.Context, windows []*domain.Window) error {
	if len(windows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(windows))
	for _, w := range windows {
		if w == nil || w.WindowID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[w.WindowID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[w.WindowID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[w.WindowID] = struct{}{}
	}

	// Second pass: insert all
	for _, w := range windows {
		windowCopy := *w
		s.data[w.WindowID] = &windowCopy
	}

	return nil
}

// GetByID retrieves a window by its ID. Returns ErrNotFound if not exists.
func (s *WindowStore) GetByID(_ context.Context, windowID string) (*domain.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[windowID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	windowCopy := *w
	return &windowCopy, nil
}

// GetBySymbol retrieves all windows for a symbol, ordered by open time ASC.
func (s *WindowStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Window
	for _, w := range s.data {
		if w.Symbol == symbol {
			windowCopy := *w
			result = append(result, &windowCopy)
		}
	}

	sortWindows(result)
	return result, nil
}

// GetByTimeRange retrieves windows for a symbol whose open time falls
// within [start, end] (inclusive), ordered by open time ASC.
func (s *WindowStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Window
	for _, w := range s.data {
		if w.Symbol == symbol && w.OpenTimeMs >= start && w.OpenTimeMs <= end {
			windowCopy := *w
			result = append(result, &windowCopy)
		}
	}

	sortWindows(result)
	return result, nil
}

func sortWindows(windows []*domain.Window) {
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].OpenTimeMs != windows[j].OpenTimeMs {
			return windows[i].OpenTimeMs < windows[j].OpenTimeMs
		}
		return windows[i].WindowID < windows[j].WindowID
	})
}

var _ storage.WindowStore = (*WindowStore)(nil)

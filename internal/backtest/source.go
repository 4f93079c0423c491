package backtest

import (
	"context"
	"sort"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/lookup"
	"binary-window-lab/internal/storage"
	"binary-window-lab/internal/timeline"
)

// DefaultFetchCap bounds evaluation concurrency in per-window fetch mode.
// Fetches share a capacity-limited connection pool, so the requested
// concurrency does not apply there; the cap is configurable on
// StoreSource for pools sized differently.
const DefaultFetchCap = 10

// DataSource supplies one window's merged timeline. Implementations must
// be safe for concurrent use: window evaluations call WindowEvents in
// parallel.
type DataSource interface {
	// WindowEvents returns the window's tagged timeline, restricted to
	// [open, close).
	WindowEvents(ctx context.Context, w *domain.Window) ([]*timeline.Event, error)

	// ConcurrencyLimit maps the requested evaluation concurrency onto
	// what this source can sustain.
	ConcurrencyLimit(requested int) int
}

// PreloadedSource serves windows from bulk-loaded tick arrays. The arrays
// are sorted once at construction and shared read-only across concurrent
// evaluations; per window the relevant sub-ranges are extracted by
// interval slicing, never copied.
type PreloadedSource struct {
	oracle   []*domain.OracleTick
	books    []*domain.BookSnapshot
	exchange []*domain.ExchangeTick
}

// NewPreloadedSource sorts the given arrays by timestamp and wraps them.
// The slices are owned by the source afterwards and must not be mutated.
func NewPreloadedSource(oracle []*domain.OracleTick, books []*domain.BookSnapshot, exchange []*domain.ExchangeTick) *PreloadedSource {
	sort.SliceStable(oracle, func(i, j int) bool { return oracle[i].TimestampMs < oracle[j].TimestampMs })
	sort.SliceStable(books, func(i, j int) bool { return books[i].TimestampMs < books[j].TimestampMs })
	sort.SliceStable(exchange, func(i, j int) bool { return exchange[i].TimestampMs < exchange[j].TimestampMs })

	return &PreloadedSource{oracle: oracle, books: books, exchange: exchange}
}

// WindowEvents slices the bulk arrays to the window range and merges.
// Book snapshots are additionally filtered by the window's symbol prefix
// and epoch tag.
func (s *PreloadedSource) WindowEvents(_ context.Context, w *domain.Window) ([]*timeline.Event, error) {
	oracle := lookup.OracleRange(s.oracle, w.OpenTimeMs, w.CloseTimeMs)
	books := lookup.FilterBookSnapshots(
		lookup.BookRange(s.books, w.OpenTimeMs, w.CloseTimeMs),
		w.Symbol, w.Epoch,
	)
	exchange := lookup.ExchangeRange(s.exchange, w.OpenTimeMs, w.CloseTimeMs)

	return timeline.Merge(oracle, books, exchange), nil
}

// ConcurrencyLimit passes the requested concurrency through: the arrays
// are read-only shared state with no contention.
func (s *PreloadedSource) ConcurrencyLimit(requested int) int {
	return requested
}

// StoreSource fetches each window's ticks on demand from the tick stores.
type StoreSource struct {
	Oracle   storage.OracleTickStore
	Books    storage.BookSnapshotStore
	Exchange storage.ExchangeTickStore

	// FetchCap overrides DefaultFetchCap when positive.
	FetchCap int
}

// WindowEvents fetches the window's ticks from the stores and merges
// them. Store range queries are inclusive, so the upper bound is close-1.
func (s *StoreSource) WindowEvents(ctx context.Context, w *domain.Window) ([]*timeline.Event, error) {
	oracle, err := s.Oracle.GetByTimeRange(ctx, w.Symbol, w.OpenTimeMs, w.CloseTimeMs-1)
	if err != nil {
		return nil, err
	}

	books, err := s.Books.GetByTimeRange(ctx, w.Symbol, w.OpenTimeMs, w.CloseTimeMs-1)
	if err != nil {
		return nil, err
	}
	books = lookup.FilterBookSnapshots(books, w.Symbol, w.Epoch)

	exchange, err := s.Exchange.GetByTimeRange(ctx, w.Symbol, w.OpenTimeMs, w.CloseTimeMs-1)
	if err != nil {
		return nil, err
	}

	return timeline.Merge(oracle, books, exchange), nil
}

// ConcurrencyLimit caps the requested concurrency at the fetch ceiling.
func (s *StoreSource) ConcurrencyLimit(requested int) int {
	cap := s.FetchCap
	if cap <= 0 {
		cap = DefaultFetchCap
	}
	if requested < cap {
		return requested
	}
	return cap
}

// Compile-time interface checks.
var (
	_ DataSource = (*PreloadedSource)(nil)
	_ DataSource = (*StoreSource)(nil)
)

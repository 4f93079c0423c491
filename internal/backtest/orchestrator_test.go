package backtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/market"
	"binary-window-lab/internal/strategy"
	"binary-window-lab/internal/timeline"
)

func makeWindows(n int) []*domain.Window {
	windows := make([]*domain.Window, 0, n)
	for i := 0; i < n; i++ {
		open := int64(1_000_000 + i*300_000)
		windows = append(windows, &domain.Window{
			WindowID:          "w" + string(rune('a'+i)),
			Symbol:            "BTC",
			OpenTimeMs:        open,
			CloseTimeMs:       open + 300_000,
			StrikePrice:       100,
			ResolvedDirection: strPtr("UP"),
		})
	}
	return windows
}

func preloadedFor(windows []*domain.Window) *PreloadedSource {
	var books []*domain.BookSnapshot
	for _, w := range windows {
		books = append(books,
			&domain.BookSnapshot{Symbol: w.Symbol, Label: "up", TimestampMs: w.OpenTimeMs + 10_000, BestBid: 0.38, BestAsk: 0.40, AskSize: 500},
			&domain.BookSnapshot{Symbol: w.Symbol, Label: "down", TimestampMs: w.OpenTimeMs + 10_000, BestBid: 0.58, BestAsk: 0.62, AskSize: 500},
		)
	}
	return NewPreloadedSource(nil, books, nil)
}

func TestNew_Validation(t *testing.T) {
	src := NewPreloadedSource(nil, nil, nil)

	if _, err := New(Options{Source: src}); !errors.Is(err, ErrNilStrategy) {
		t.Errorf("missing factory: got %v", err)
	}
	if _, err := New(Options{Strategy: buyUpOnce(10)}); !errors.Is(err, ErrNilSource) {
		t.Errorf("missing source: got %v", err)
	}
	nilFactory := func() strategy.Strategy { return nil }
	if _, err := New(Options{Strategy: nilFactory, Source: src}); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("nil-producing factory: got %v", err)
	}
}

// Two windows, $100 starting capital, buy UP at ask 0.40 size 100 in each,
// both resolve UP: total pnl 120, final capital 220, win rate 1.0.
func TestRun_TwoWinningWindows(t *testing.T) {
	windows := makeWindows(2)

	orc, err := New(Options{
		Windows:     windows,
		Source:      preloadedFor(windows),
		Strategy:    buyUpOnce(100),
		Config:      domain.BacktestConfig{StartingCapital: 100},
		Concurrency: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := orc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if res.TotalPnL != 120 {
		t.Errorf("expected total pnl 120, got %v", res.TotalPnL)
	}
	if res.FinalCapital != 220 {
		t.Errorf("expected final capital 220, got %v", res.FinalCapital)
	}
	if res.WinRate != 1.0 || res.TotalTrades != 2 || res.Wins != 2 {
		t.Errorf("expected 2/2 wins, got %+v", res)
	}
	if res.WindowCount != 2 {
		t.Errorf("expected 2 windows, got %d", res.WindowCount)
	}
	if len(res.EquityCurve) != 3 {
		t.Errorf("equity curve must have N+1 points, got %d", len(res.EquityCurve))
	}
	if res.MaxDrawdown != 0 {
		t.Errorf("monotonic equity has zero drawdown, got %v", res.MaxDrawdown)
	}
}

func TestRun_Deterministic(t *testing.T) {
	windows := makeWindows(6)
	src := preloadedFor(windows)

	run := func(concurrency int) *domain.AggregateResult {
		orc, err := New(Options{
			Windows:     windows,
			Source:      src,
			Strategy:    buyUpOnce(50),
			Config:      domain.BacktestConfig{StartingCapital: 100},
			Concurrency: concurrency,
		})
		if err != nil {
			t.Fatal(err)
		}
		res, err := orc.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		res.ElapsedMs = 0 // wall-clock, excluded from comparison
		return res
	}

	a, b, c := run(1), run(4), run(4)

	for name, r := range map[string]*domain.AggregateResult{"c=4 first": b, "c=4 second": c} {
		if r.TotalPnL != a.TotalPnL || r.FinalCapital != a.FinalCapital ||
			r.TotalTrades != a.TotalTrades || r.MaxDrawdown != a.MaxDrawdown {
			t.Errorf("%s diverged from sequential run:\n%+v\n%+v", name, a, r)
		}
		for i := range a.Trades {
			if a.Trades[i].TradeID != r.Trades[i].TradeID {
				t.Errorf("%s: trade order differs at %d", name, i)
			}
		}
		for i := range a.EquityCurve {
			if a.EquityCurve[i] != r.EquityCurve[i] {
				t.Errorf("%s: equity curve differs at %d", name, i)
			}
		}
	}
}

// trackingSource counts concurrent WindowEvents calls.
type trackingSource struct {
	inner DataSource

	mu      sync.Mutex
	current int
	max     int
}

func (s *trackingSource) WindowEvents(ctx context.Context, w *domain.Window) ([]*timeline.Event, error) {
	s.mu.Lock()
	s.current++
	if s.current > s.max {
		s.max = s.current
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond) // hold the slot long enough to observe overlap

	s.mu.Lock()
	s.current--
	s.mu.Unlock()

	return s.inner.WindowEvents(ctx, w)
}

func (s *trackingSource) ConcurrencyLimit(requested int) int {
	return s.inner.ConcurrencyLimit(requested)
}

func TestRun_ConcurrencyBound(t *testing.T) {
	windows := makeWindows(12)
	src := &trackingSource{inner: preloadedFor(windows)}

	orc, err := New(Options{
		Windows:     windows,
		Source:      src,
		Strategy:    buyUpOnce(10),
		Config:      domain.BacktestConfig{StartingCapital: 100},
		Concurrency: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.max > 3 {
		t.Errorf("concurrency bound violated: %d in flight", src.max)
	}
}

func TestStoreSource_ConcurrencyCap(t *testing.T) {
	s := &StoreSource{}
	if got := s.ConcurrencyLimit(50); got != DefaultFetchCap {
		t.Errorf("expected requested 50 capped at %d, got %d", DefaultFetchCap, got)
	}
	if got := s.ConcurrencyLimit(3); got != 3 {
		t.Errorf("requests below the cap pass through, got %d", got)
	}
	s.FetchCap = 4
	if got := s.ConcurrencyLimit(50); got != 4 {
		t.Errorf("explicit cap not honored, got %d", got)
	}
}

func TestRun_FetchFailureAbortsRun(t *testing.T) {
	windows := makeWindows(3)
	src := &failingSource{failAt: windows[1].WindowID, inner: preloadedFor(windows)}

	orc, err := New(Options{
		Windows:     windows,
		Source:      src,
		Strategy:    buyUpOnce(10),
		Config:      domain.BacktestConfig{StartingCapital: 100},
		Concurrency: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = orc.Run(context.Background())
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(err.Error(), windows[1].WindowID) {
		t.Errorf("error should name the failed window: %v", err)
	}
}

type failingSource struct {
	failAt string
	inner  DataSource
}

func (s *failingSource) WindowEvents(ctx context.Context, w *domain.Window) ([]*timeline.Event, error) {
	if w.WindowID == s.failAt {
		return nil, errors.New("store unavailable")
	}
	return s.inner.WindowEvents(ctx, w)
}

func (s *failingSource) ConcurrencyLimit(requested int) int {
	return s.inner.ConcurrencyLimit(requested)
}

func TestRun_ProgressMonotonic(t *testing.T) {
	windows := makeWindows(8)

	var mu sync.Mutex
	var completed []int
	var total int32

	orc, err := New(Options{
		Windows:     windows,
		Source:      preloadedFor(windows),
		Strategy:    buyUpOnce(10),
		Config:      domain.BacktestConfig{StartingCapital: 100},
		Concurrency: 4,
		OnProgress: func(done, tot int) {
			mu.Lock()
			completed = append(completed, done)
			mu.Unlock()
			atomic.StoreInt32(&total, int32(tot))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(completed) != 8 || atomic.LoadInt32(&total) != 8 {
		t.Fatalf("expected 8 progress calls with total 8, got %d calls", len(completed))
	}
	for i, c := range completed {
		if c != i+1 {
			t.Errorf("progress must be strictly increasing: %v", completed)
			break
		}
	}
}

func TestRun_EmptyWindows(t *testing.T) {
	orc, err := New(Options{
		Windows:  nil,
		Source:   NewPreloadedSource(nil, nil, nil),
		Strategy: buyUpOnce(10),
		Config:   domain.BacktestConfig{StartingCapital: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := orc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.WindowCount != 0 || res.TotalTrades != 0 {
		t.Errorf("empty run should be empty, got %+v", res)
	}
	if res.FinalCapital != 100 || len(res.EquityCurve) != 1 {
		t.Errorf("empty run keeps starting capital: %+v", res)
	}
}

// Per-window evaluation state must be isolated: a strategy mutating its own
// fields in one window never sees another window's mutations.
func TestRun_FreshStrategyPerWindow(t *testing.T) {
	windows := makeWindows(4)

	var instances int32
	factory := func() strategy.Strategy {
		atomic.AddInt32(&instances, 1)
		return &strategy.Stub{
			DecideFunc: func(st *market.State, _ domain.BacktestConfig) []domain.Signal { return nil },
		}
	}

	orc, err := New(Options{
		Windows:     windows,
		Source:      preloadedFor(windows),
		Strategy:    factory,
		Config:      domain.BacktestConfig{StartingCapital: 100},
		Concurrency: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// One probe at construction plus one instance per window.
	if got := atomic.LoadInt32(&instances); got != 5 {
		t.Errorf("expected 5 factory invocations, got %d", got)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

func TestResultStore_InsertRunAndGet(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	run := &domain.BacktestRun{RunID: "r1", StrategyID: "CHEAP_SIDE", CreatedAtMs: 1000, StartingCapital: 100, FinalCapital: 160}
	if err := store.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.FinalCapital != 160 {
		t.Errorf("Unexpected run: %+v", got)
	}

	if err := store.InsertRun(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestResultStore_TradesRequireRun(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	err := store.InsertTrades(ctx, "missing", []domain.Trade{{TradeID: "t1"}})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for trades without run, got %v", err)
	}
}

func TestResultStore_GetTradesByRun_Ordered(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	if err := store.InsertRun(ctx, &domain.BacktestRun{RunID: "r1"}); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	trades := []domain.Trade{
		{TradeID: "t2", EntryTimeMs: 2000, PnL: -5},
		{TradeID: "t1", EntryTimeMs: 1000, PnL: 10},
	}
	if err := store.InsertTrades(ctx, "r1", trades); err != nil {
		t.Fatalf("InsertTrades failed: %v", err)
	}

	got, err := store.GetTradesByRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetTradesByRun failed: %v", err)
	}
	if len(got) != 2 || got[0].TradeID != "t1" || got[1].TradeID != "t2" {
		t.Errorf("Trades not in entry-time order: %+v", got)
	}
}

func TestResultStore_ListRuns_NewestFirst(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	runs := []*domain.BacktestRun{
		{RunID: "r1", CreatedAtMs: 1000},
		{RunID: "r2", CreatedAtMs: 3000},
		{RunID: "r3", CreatedAtMs: 2000},
	}
	for _, r := range runs {
		if err := store.InsertRun(ctx, r); err != nil {
			t.Fatalf("InsertRun failed: %v", err)
		}
	}

	got, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(got) != 3 || got[0].RunID != "r2" || got[1].RunID != "r3" || got[2].RunID != "r1" {
		t.Errorf("Runs not newest first: %+v", got)
	}
}

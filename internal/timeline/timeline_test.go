package timeline

import (
	"testing"

	"binary-window-lab/internal/domain"
)

func TestMerge_SortsAscending(t *testing.T) {
	oracle := []*domain.OracleTick{
		{Topic: domain.TopicOracleSettlement, TimestampMs: 300, Price: 3},
		{Topic: domain.TopicOracleReference, TimestampMs: 100, Price: 1},
	}
	books := []*domain.BookSnapshot{
		{Label: "btc-up", TimestampMs: 200},
	}
	exchange := []*domain.ExchangeTick{
		{Exchange: "binance", TimestampMs: 250, Price: 2.5},
	}

	events := Merge(oracle, books, exchange)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].TimestampMs < events[i-1].TimestampMs {
			t.Fatalf("events out of order at %d: %d after %d",
				i, events[i].TimestampMs, events[i-1].TimestampMs)
		}
	}
}

func TestMerge_StableTieOrder(t *testing.T) {
	// All at the same timestamp: oracle must precede book must precede
	// exchange, in source-list insertion order.
	oracle := []*domain.OracleTick{
		{Topic: domain.TopicOracleSettlement, TimestampMs: 100},
		{Topic: domain.TopicOracleReference, TimestampMs: 100},
	}
	books := []*domain.BookSnapshot{
		{Label: "up", TimestampMs: 100},
		{Label: "down", TimestampMs: 100},
	}
	exchange := []*domain.ExchangeTick{
		{Exchange: "binance", TimestampMs: 100},
	}

	events := Merge(oracle, books, exchange)
	want := []Source{SourceOracleSlow, SourceOracleFast, SourceBookUp, SourceBookDown, "exchange:binance"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, w := range want {
		if events[i].Source != w {
			t.Errorf("position %d: expected %s, got %s", i, w, events[i].Source)
		}
	}
}

func TestMerge_TaggingRules(t *testing.T) {
	events := Merge(
		[]*domain.OracleTick{
			{Topic: domain.TopicOracleSettlement, TimestampMs: 1},
			{Topic: domain.TopicOracleReference, TimestampMs: 2},
			{Topic: "vendor.custom", TimestampMs: 3},
			{Topic: "", TimestampMs: 4},
		},
		[]*domain.BookSnapshot{
			{Label: "BTC-DOWN-JAN", TimestampMs: 5},
			{Label: "BTC-UP-JAN", TimestampMs: 6},
			{Label: "", TimestampMs: 7},
		},
		[]*domain.ExchangeTick{
			{Exchange: "kraken", TimestampMs: 8},
			{Exchange: "", TimestampMs: 9},
		},
	)

	want := []Source{
		SourceOracleSlow,
		SourceOracleFast,
		"raw:vendor.custom",
		"raw:",
		SourceBookDown,
		SourceBookUp,
		SourceBookUp, // unlabeled snapshot degrades to up book
		"exchange:kraken",
		"exchange:unknown",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, w := range want {
		if events[i].Source != w {
			t.Errorf("event %d: expected tag %q, got %q", i, w, events[i].Source)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if events := Merge(nil, nil, nil); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

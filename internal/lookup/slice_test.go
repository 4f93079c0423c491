package lookup

import (
	"testing"

	"binary-window-lab/internal/domain"
)

func makeTicks(stamps ...int64) []*domain.OracleTick {
	out := make([]*domain.OracleTick, len(stamps))
	for i, ts := range stamps {
		out[i] = &domain.OracleTick{TimestampMs: ts, Price: float64(i)}
	}
	return out
}

func TestSliceRange_Empty(t *testing.T) {
	if got := OracleRange(nil, 0, 100); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
	if got := OracleRange(makeTicks(1, 2, 3), 50, 100); len(got) != 0 {
		t.Errorf("expected empty slice for out-of-range query, got %d entries", len(got))
	}
	if got := OracleRange(makeTicks(1, 2, 3), 3, 3); len(got) != 0 {
		t.Errorf("expected empty slice for start==end, got %d entries", len(got))
	}
}

func TestSliceRange_HalfOpenBounds(t *testing.T) {
	ticks := makeTicks(10, 20, 30, 40)

	got := OracleRange(ticks, 20, 40)
	if len(got) != 2 {
		t.Fatalf("expected 2 ticks in [20,40), got %d", len(got))
	}
	if got[0].TimestampMs != 20 || got[1].TimestampMs != 30 {
		t.Errorf("wrong boundary handling: got %d and %d", got[0].TimestampMs, got[1].TimestampMs)
	}
}

func TestSliceRange_DuplicateBoundaryTimestamps(t *testing.T) {
	ticks := makeTicks(10, 20, 20, 20, 30, 30)

	got := OracleRange(ticks, 20, 30)
	if len(got) != 3 {
		t.Fatalf("expected all 3 duplicates at the lower boundary, got %d", len(got))
	}
	for _, tick := range got {
		if tick.TimestampMs != 20 {
			t.Errorf("tick at %d leaked into [20,30)", tick.TimestampMs)
		}
	}
}

// Round-trip property: prefix + [start,end) + suffix reconstructs the array.
func TestSliceRange_RoundTrip(t *testing.T) {
	ticks := makeTicks(5, 10, 10, 15, 20, 20, 20, 25, 30)

	bounds := []struct{ start, end int64 }{
		{0, 100}, {5, 30}, {10, 20}, {20, 21}, {12, 13}, {30, 31},
	}
	for _, b := range bounds {
		before := OracleRange(ticks, -1<<62, b.start)
		mid := OracleRange(ticks, b.start, b.end)
		after := OracleRange(ticks, b.end, 1<<62)

		if len(before)+len(mid)+len(after) != len(ticks) {
			t.Fatalf("[%d,%d): pieces sum to %d, want %d",
				b.start, b.end, len(before)+len(mid)+len(after), len(ticks))
		}
		i := 0
		for _, piece := range [][]*domain.OracleTick{before, mid, after} {
			for _, tick := range piece {
				if tick != ticks[i] {
					t.Fatalf("[%d,%d): element %d differs after reconstruction", b.start, b.end, i)
				}
				i++
			}
		}
	}
}

func TestFilterBookSnapshots(t *testing.T) {
	snaps := []*domain.BookSnapshot{
		{Symbol: "BTC-UP", Epoch: "e1", TimestampMs: 1},
		{Symbol: "BTC-DOWN", Epoch: "e2", TimestampMs: 2},
		{Symbol: "ETH-UP", Epoch: "e1", TimestampMs: 3},
		{Symbol: "BTC-UP", Epoch: "", TimestampMs: 4},
	}

	got := FilterBookSnapshots(snaps, "BTC", "e1")
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	// Snapshot without an epoch tag passes the epoch filter.
	if got[1].TimestampMs != 4 {
		t.Errorf("untagged snapshot should pass epoch filter, got ts=%d", got[1].TimestampMs)
	}

	if got := FilterBookSnapshots(snaps, "", ""); len(got) != 4 {
		t.Errorf("empty filters should keep everything, got %d", len(got))
	}
}

package ingestion

import (
	"errors"
	"sort"

	"binary-window-lab/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortOracleTicks orders ticks by (timestamp_ms ASC, topic ASC, symbol ASC).
func SortOracleTicks(ticks []*domain.OracleTick) {
	sort.Slice(ticks, func(i, j int) bool {
		return compareOracleTicks(ticks[i], ticks[j]) < 0
	})
}

// SortBookSnapshots orders snapshots by (timestamp_ms ASC, symbol ASC, label ASC).
func SortBookSnapshots(snaps []*domain.BookSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		return compareBookSnapshots(snaps[i], snaps[j]) < 0
	})
}

// SortExchangeTicks orders ticks by (timestamp_ms ASC, exchange ASC, symbol ASC).
func SortExchangeTicks(ticks []*domain.ExchangeTick) {
	sort.Slice(ticks, func(i, j int) bool {
		return compareExchangeTicks(ticks[i], ticks[j]) < 0
	})
}

// ValidateOracleTickOrdering checks if ticks are properly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateOracleTickOrdering(ticks []*domain.OracleTick) error {
	for i := 1; i < len(ticks); i++ {
		if compareOracleTicks(ticks[i-1], ticks[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// ValidateBookSnapshotOrdering checks if snapshots are properly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateBookSnapshotOrdering(snaps []*domain.BookSnapshot) error {
	for i := 1; i < len(snaps); i++ {
		if compareBookSnapshots(snaps[i-1], snaps[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareOracleTicks returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp_ms ASC, topic ASC, symbol ASC)
func compareOracleTicks(a, b *domain.OracleTick) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Topic != b.Topic {
		if a.Topic < b.Topic {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return 0
}

// compareBookSnapshots returns comparison result for book snapshots.
// Order: (timestamp_ms ASC, symbol ASC, label ASC)
func compareBookSnapshots(a, b *domain.BookSnapshot) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	if a.Label != b.Label {
		if a.Label < b.Label {
			return -1
		}
		return 1
	}
	return 0
}

// compareExchangeTicks returns comparison result for exchange ticks.
// Order: (timestamp_ms ASC, exchange ASC, symbol ASC)
func compareExchangeTicks(a, b *domain.ExchangeTick) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Exchange != b.Exchange {
		if a.Exchange < b.Exchange {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return 0
}

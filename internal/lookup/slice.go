// Package lookup provides time-range extraction over timestamp-sorted
// slices. Range extraction is O(log n + k): two binary searches plus a
// shallow sub-slice; callers share the backing array read-only.
package lookup

import (
	"sort"
	"strings"

	"binary-window-lab/internal/domain"
)

// SliceRange returns the contiguous sub-slice of points whose timestamp
// falls within [start, end). points must be sorted ascending by the value
// ts extracts. The result shares the backing array and must not be
// mutated. Duplicate timestamps at either boundary are handled: the lower
// bound is the first index at or after start, the upper bound the first
// index at or after end.
func SliceRange[T any](points []T, start, end int64, ts func(T) int64) []T {
	if len(points) == 0 || end <= start {
		return nil
	}

	lo := sort.Search(len(points), func(i int) bool { return ts(points[i]) >= start })
	hi := sort.Search(len(points), func(i int) bool { return ts(points[i]) >= end })

	return points[lo:hi]
}

// OracleRange extracts oracle ticks within [start, end).
func OracleRange(ticks []*domain.OracleTick, start, end int64) []*domain.OracleTick {
	return SliceRange(ticks, start, end, func(t *domain.OracleTick) int64 { return t.TimestampMs })
}

// BookRange extracts book snapshots within [start, end).
func BookRange(snaps []*domain.BookSnapshot, start, end int64) []*domain.BookSnapshot {
	return SliceRange(snaps, start, end, func(s *domain.BookSnapshot) int64 { return s.TimestampMs })
}

// ExchangeRange extracts exchange ticks within [start, end).
func ExchangeRange(ticks []*domain.ExchangeTick, start, end int64) []*domain.ExchangeTick {
	return SliceRange(ticks, start, end, func(t *domain.ExchangeTick) int64 { return t.TimestampMs })
}

// FilterBookSnapshots keeps snapshots whose symbol starts with symbolPrefix
// and, when both the filter and the snapshot carry an epoch tag, whose
// epoch matches. Symbol/epoch are not monotonic in the sort key, so this
// is a linear post-slice filter rather than part of the search.
func FilterBookSnapshots(snaps []*domain.BookSnapshot, symbolPrefix, epoch string) []*domain.BookSnapshot {
	out := make([]*domain.BookSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if symbolPrefix != "" && !strings.HasPrefix(s.Symbol, symbolPrefix) {
			continue
		}
		if epoch != "" && s.Epoch != "" && s.Epoch != epoch {
			continue
		}
		out = append(out, s)
	}
	return out
}

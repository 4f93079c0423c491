// Package timeline merges the three tick sources of one window into a
// single time-ordered, source-tagged event sequence for replay.
package timeline

import (
	"sort"
	"strings"

	"binary-window-lab/internal/domain"
)

// Source identifies where a merged event came from.
type Source string

// Source tags.
const (
	SourceOracleSlow Source = "oracle_slow" // slow, authoritative oracle feed
	SourceOracleFast Source = "oracle_fast" // fast, reference oracle feed
	SourceBookUp     Source = "book_up"     // up-token order book
	SourceBookDown   Source = "book_down"   // down-token order book

	rawPrefix      = "raw:"
	exchangePrefix = "exchange:"
)

// Event is one source-tagged observation on the merged timeline. Exactly
// one of Oracle, Book, Exchange is set, matching the source tag.
type Event struct {
	Source      Source
	TimestampMs int64

	Oracle   *domain.OracleTick
	Book     *domain.BookSnapshot
	Exchange *domain.ExchangeTick
}

// Merge tags and merges three independently-ordered sources into one
// ascending timeline. The sort is stable, so events with equal timestamps
// keep source-list insertion order (oracle before book before exchange);
// state updates therefore precede strategy evaluation deterministically on
// replay. Events that lack tagging fields degrade to a generic tag; a
// batch is never dropped.
func Merge(oracle []*domain.OracleTick, books []*domain.BookSnapshot, exchange []*domain.ExchangeTick) []*Event {
	events := make([]*Event, 0, len(oracle)+len(books)+len(exchange))

	for _, t := range oracle {
		events = append(events, &Event{
			Source:      tagOracle(t.Topic),
			TimestampMs: t.TimestampMs,
			Oracle:      t,
		})
	}

	for _, b := range books {
		events = append(events, &Event{
			Source:      tagBook(b.Label),
			TimestampMs: b.TimestampMs,
			Book:        b,
		})
	}

	for _, t := range exchange {
		events = append(events, &Event{
			Source:      tagExchange(t.Exchange),
			TimestampMs: t.TimestampMs,
			Exchange:    t,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})

	return events
}

func tagOracle(topic string) Source {
	switch topic {
	case domain.TopicOracleSettlement:
		return SourceOracleSlow
	case domain.TopicOracleReference:
		return SourceOracleFast
	default:
		return Source(rawPrefix + topic)
	}
}

func tagBook(label string) Source {
	if strings.Contains(strings.ToLower(label), "down") {
		return SourceBookDown
	}
	return SourceBookUp
}

func tagExchange(name string) Source {
	if name == "" {
		name = "unknown"
	}
	return Source(exchangePrefix + name)
}

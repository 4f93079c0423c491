// Package market tracks the strategy-visible state of one window. The
// tracker is a pure accumulator: it performs no I/O and is constructed
// fresh for every window evaluated.
package market

import (
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/timeline"
)

// BookTop is the current top of one outcome token's order book.
type BookTop struct {
	BestBid     float64
	BestAsk     float64
	BidSize     float64
	AskSize     float64
	TimestampMs int64
}

// Position is the strategy-visible view of the window's open position.
// Zero Size means flat.
type Position struct {
	Token   domain.Token
	Size    float64
	AvgCost float64 // average cost per unit, fees included
}

// State is everything a strategy sees when deciding on one event.
type State struct {
	Window        *domain.Window
	NowMs         int64
	TimeToCloseMs int64

	SettlementPrice float64 // last slow authoritative oracle price
	ReferencePrice  float64 // last fast reference oracle price
	ExchangePrice   float64 // last external exchange price

	UpBook   BookTop
	DownBook BookTop

	EventCount int
	LastEvent  *timeline.Event

	Position Position // refreshed by the evaluator before each decision
	Capital  float64  // free capital, refreshed by the evaluator
}

// Tracker accumulates window state from timeline events.
type Tracker struct {
	state State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetWindow binds the tracker to a window and resets the clock to the
// window open.
func (t *Tracker) SetWindow(w *domain.Window) {
	t.state.Window = w
	t.state.NowMs = w.OpenTimeMs
	t.state.TimeToCloseMs = w.CloseTimeMs - w.OpenTimeMs
}

// ProcessEvent folds one tagged event into the state.
func (t *Tracker) ProcessEvent(ev *timeline.Event) {
	t.state.EventCount++
	t.state.LastEvent = ev

	switch {
	case ev.Oracle != nil:
		switch ev.Source {
		case timeline.SourceOracleSlow:
			t.state.SettlementPrice = ev.Oracle.Price
		case timeline.SourceOracleFast:
			t.state.ReferencePrice = ev.Oracle.Price
		}
	case ev.Book != nil:
		top := BookTop{
			BestBid:     ev.Book.BestBid,
			BestAsk:     ev.Book.BestAsk,
			BidSize:     ev.Book.BidSize,
			AskSize:     ev.Book.AskSize,
			TimestampMs: ev.Book.TimestampMs,
		}
		if ev.Source == timeline.SourceBookDown {
			t.state.DownBook = top
		} else {
			t.state.UpBook = top
		}
	case ev.Exchange != nil:
		t.state.ExchangePrice = ev.Exchange.Price
	}
}

// UpdateTimeToClose advances the window clock to ts.
func (t *Tracker) UpdateTimeToClose(ts int64) {
	t.state.NowMs = ts
	if w := t.state.Window; w != nil {
		t.state.TimeToCloseMs = w.CloseTimeMs - ts
		if t.state.TimeToCloseMs < 0 {
			t.state.TimeToCloseMs = 0
		}
	}
}

// State returns the accumulated state. The pointer stays valid for the
// tracker's lifetime; it must not be shared across windows.
func (t *Tracker) State() *State {
	return &t.state
}

// Book returns the book top for the given outcome token.
func (s *State) Book(token domain.Token) BookTop {
	if token == domain.TokenDown {
		return s.DownBook
	}
	return s.UpBook
}

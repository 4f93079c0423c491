// Package execution simulates order execution for one window. A Simulator
// is constructed fresh per window and owns that window's capital ledger
// and trade list; it is never shared between windows.
package execution

import (
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/idhash"
	"binary-window-lab/internal/market"
)

// Config scopes a simulator to the run configuration.
type Config struct {
	StartingCapital float64
	SpreadBuffer    float64 // widens the touch when pricing fills
	FeeRate         float64 // fraction of fill notional
}

// Fill is the simulator's decision for one signal.
type Fill struct {
	Filled bool
	Price  float64
	Size   float64
}

// Stats summarizes the ledger at window close.
type Stats struct {
	PnL            float64
	EndingCapital  float64
	TradeCount     int
	WinRate        float64
	SettledPayout  float64
	OpenAtSettling bool
}

type position struct {
	token       domain.Token
	size        float64
	costBasis   float64 // total cost including entry fees
	entryTimeMs int64
}

// Simulator is one window's execution ledger.
type Simulator struct {
	cfg      Config
	windowID string

	capital float64
	pos     *position
	trades  []domain.Trade
	equity  []float64
}

// New creates a simulator with the configured starting capital.
func New(windowID string, cfg Config) *Simulator {
	return &Simulator{
		cfg:      cfg,
		windowID: windowID,
		capital:  cfg.StartingCapital,
	}
}

// Execute decides whether a signal fills and at what price and size.
// Buys price at the ask widened by the spread buffer; sells price at the
// bid narrowed by it. A signal's own price is used when the book side is
// empty. Buys against an open position on the other token do not fill.
func (s *Simulator) Execute(sig domain.Signal, st *market.State) Fill {
	switch sig.Action {
	case domain.ActionBuy:
		return s.buyFill(sig, st)
	case domain.ActionSell:
		return s.sellFill(sig, st)
	default:
		return Fill{}
	}
}

func (s *Simulator) buyFill(sig domain.Signal, st *market.State) Fill {
	if s.pos != nil && s.pos.token != sig.Token {
		return Fill{}
	}

	price := st.Book(sig.Token).BestAsk
	if price <= 0 {
		price = sig.Price
	} else {
		price *= 1 + s.cfg.SpreadBuffer
	}
	if price <= 0 || sig.Size <= 0 {
		return Fill{}
	}

	// Cap size at what the remaining capital affords, fee included.
	unitCost := price * (1 + s.cfg.FeeRate)
	maxSize := s.capital / unitCost
	size := sig.Size
	if size > maxSize {
		size = maxSize
	}
	if size <= 0 {
		return Fill{}
	}

	return Fill{Filled: true, Price: price, Size: size}
}

func (s *Simulator) sellFill(sig domain.Signal, st *market.State) Fill {
	if s.pos == nil || s.pos.token != sig.Token {
		return Fill{}
	}

	price := st.Book(sig.Token).BestBid
	if price <= 0 {
		price = sig.Price
	} else {
		price *= 1 - s.cfg.SpreadBuffer
	}
	if price <= 0 {
		return Fill{}
	}

	return Fill{Filled: true, Price: price, Size: s.pos.size}
}

// BuyToken opens or extends the position at the given fill price/size.
func (s *Simulator) BuyToken(token domain.Token, price, size float64, ts int64, reason string) {
	cost := price * size * (1 + s.cfg.FeeRate)
	if cost > s.capital {
		cost = s.capital // clamp against rounding drift from buyFill
	}
	s.capital -= cost

	if s.pos == nil {
		s.pos = &position{token: token, size: size, costBasis: cost, entryTimeMs: ts}
		return
	}
	s.pos.size += size
	s.pos.costBasis += cost
}

// SellToken closes the entire open position at the given price and
// records the realized trade.
func (s *Simulator) SellToken(token domain.Token, price float64, ts int64, reason string) {
	if s.pos == nil || s.pos.token != token {
		return
	}
	proceeds := price * s.pos.size * (1 - s.cfg.FeeRate)
	s.closePosition(proceeds, price, ts, reason)
}

// ResolveWindow settles any open position at binary payout: 1.0 per unit
// on the winning side, 0.0 otherwise. Settlement pays no fee.
func (s *Simulator) ResolveWindow(dir domain.Direction, ts int64) {
	if s.pos == nil {
		return
	}
	payout := 0.0
	if domain.Token(dir) == s.pos.token {
		payout = 1.0
	}
	s.closePosition(payout*s.pos.size, payout, ts, domain.ReasonSettlement)
}

func (s *Simulator) closePosition(proceeds, exitPrice float64, ts int64, reason string) {
	pos := s.pos
	s.pos = nil

	s.capital += proceeds
	pnl := proceeds - pos.costBasis

	s.trades = append(s.trades, domain.Trade{
		TradeID:     idhash.ComputeTradeID(s.windowID, string(pos.token), pos.entryTimeMs, ts),
		WindowID:    s.windowID,
		Token:       pos.token,
		EntryTimeMs: pos.entryTimeMs,
		ExitTimeMs:  ts,
		EntryPrice:  pos.costBasis / pos.size,
		ExitPrice:   exitPrice,
		Size:        pos.size,
		PnL:         pnl,
		Reason:      reason,
	})
	s.equity = append(s.equity, s.capital)
}

// Position returns the strategy-visible view of the open position.
func (s *Simulator) Position() market.Position {
	if s.pos == nil {
		return market.Position{}
	}
	return market.Position{
		Token:   s.pos.token,
		Size:    s.pos.size,
		AvgCost: s.pos.costBasis / s.pos.size,
	}
}

// Capital returns free capital.
func (s *Simulator) Capital() float64 {
	return s.capital
}

// Trades returns the realized trades in execution order.
func (s *Simulator) Trades() []domain.Trade {
	return s.trades
}

// EquityCurve returns capital after each realized trade.
func (s *Simulator) EquityCurve() []float64 {
	return s.equity
}

// Stats summarizes the ledger.
func (s *Simulator) Stats() Stats {
	wins := 0
	pnl := 0.0
	for _, t := range s.trades {
		pnl += t.PnL
		if t.PnL > 0 {
			wins++
		}
	}

	// Realized pnl only: a position left open by an unresolved window is
	// carried at cost and contributes nothing.
	st := Stats{
		PnL:            pnl,
		EndingCapital:  s.cfg.StartingCapital + pnl,
		TradeCount:     len(s.trades),
		OpenAtSettling: s.pos != nil,
	}
	if len(s.trades) > 0 {
		st.WinRate = float64(wins) / float64(len(s.trades))
	}
	return st
}

package strategy

import (
	"fmt"
	"math"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/market"
)

// Momentum follows the fast reference oracle: once the reference price
// moves past the strike by at least MinEdge (fractional), it buys the side
// the move points at. It exits early if the edge flips sign while the
// position is open.
type Momentum struct {
	MinEdge   float64
	OrderSize float64

	entered bool
	side    domain.Token
}

// NewMomentum creates a fresh Momentum instance.
func NewMomentum(minEdge, orderSize float64) *Momentum {
	return &Momentum{MinEdge: minEdge, OrderSize: orderSize}
}

// Name returns the strategy identifier including parameters.
func (s *Momentum) Name() string {
	return fmt.Sprintf("MOMENTUM_edge%g_size%g", s.MinEdge, s.OrderSize)
}

// Decide enters on sufficient edge and exits when the edge reverses.
func (s *Momentum) Decide(st *market.State, _ domain.BacktestConfig) []domain.Signal {
	w := st.Window
	if w == nil || w.StrikePrice <= 0 || st.ReferencePrice <= 0 {
		return nil
	}

	edge := (st.ReferencePrice - w.StrikePrice) / w.StrikePrice

	if !s.entered {
		if math.Abs(edge) < s.MinEdge {
			return nil
		}
		s.entered = true
		s.side = domain.TokenUp
		if edge < 0 {
			s.side = domain.TokenDown
		}
		return []domain.Signal{{
			Action:     domain.ActionBuy,
			Token:      s.side,
			Size:       s.OrderSize,
			Reason:     "momentum_entry",
			Confidence: math.Abs(edge),
		}}
	}

	// Exit when the move flips against the held side.
	if (s.side == domain.TokenUp && edge < 0) || (s.side == domain.TokenDown && edge > 0) {
		side := s.side
		s.entered = false
		return []domain.Signal{{
			Action: domain.ActionSell,
			Token:  side,
			Reason: "momentum_reversal",
		}}
	}

	return nil
}

var _ Strategy = (*Momentum)(nil)

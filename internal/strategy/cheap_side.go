package strategy

import (
	"fmt"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/market"
)

// CheapSide buys the cheaper outcome token once per window when its ask
// is at or below the configured ceiling, then holds to expiry. The bet is
// that short-duration binary books overprice the consensus side.
type CheapSide struct {
	MaxEntryPrice float64
	OrderSize     float64

	entered bool
}

// NewCheapSide creates a fresh CheapSide instance.
func NewCheapSide(maxEntryPrice, orderSize float64) *CheapSide {
	return &CheapSide{MaxEntryPrice: maxEntryPrice, OrderSize: orderSize}
}

// Name returns the strategy identifier including parameters.
func (s *CheapSide) Name() string {
	return fmt.Sprintf("CHEAP_SIDE_max%.2f_size%g", s.MaxEntryPrice, s.OrderSize)
}

// Decide buys at most once, on the first event where both books are
// quoted and the cheaper ask clears the ceiling.
func (s *CheapSide) Decide(st *market.State, _ domain.BacktestConfig) []domain.Signal {
	if s.entered {
		return nil
	}
	upAsk := st.UpBook.BestAsk
	downAsk := st.DownBook.BestAsk
	if upAsk <= 0 || downAsk <= 0 {
		return nil
	}

	token := domain.TokenUp
	ask := upAsk
	if downAsk < upAsk {
		token = domain.TokenDown
		ask = downAsk
	}
	if ask > s.MaxEntryPrice {
		return nil
	}

	s.entered = true
	return []domain.Signal{{
		Action:     domain.ActionBuy,
		Token:      token,
		Size:       s.OrderSize,
		Reason:     "cheap_side_entry",
		Confidence: 1 - ask,
	}}
}

var _ Strategy = (*CheapSide)(nil)

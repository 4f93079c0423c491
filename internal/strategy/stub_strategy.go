package strategy

import (
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/market"
)

// Stub is a scripted strategy for tests. DecideFunc runs per event; the
// optional hooks record invocations.
type Stub struct {
	StrategyName string
	DecideFunc   func(st *market.State, cfg domain.BacktestConfig) []domain.Signal
	OnOpen       func(st *market.State, cfg domain.BacktestConfig)
	OnClose      func(st *market.State, sum CloseSummary, cfg domain.BacktestConfig)
}

// Name returns the configured name, defaulting to "stub".
func (s *Stub) Name() string {
	if s.StrategyName == "" {
		return "stub"
	}
	return s.StrategyName
}

// Decide delegates to DecideFunc when set.
func (s *Stub) Decide(st *market.State, cfg domain.BacktestConfig) []domain.Signal {
	if s.DecideFunc == nil {
		return nil
	}
	return s.DecideFunc(st, cfg)
}

// OnWindowOpen implements OpenHook.
func (s *Stub) OnWindowOpen(st *market.State, cfg domain.BacktestConfig) {
	if s.OnOpen != nil {
		s.OnOpen(st, cfg)
	}
}

// OnWindowClose implements CloseHook.
func (s *Stub) OnWindowClose(st *market.State, sum CloseSummary, cfg domain.BacktestConfig) {
	if s.OnClose != nil {
		s.OnClose(st, sum, cfg)
	}
}

var (
	_ Strategy  = (*Stub)(nil)
	_ OpenHook  = (*Stub)(nil)
	_ CloseHook = (*Stub)(nil)
)

// Package strategy defines the decision interface replayed by the
// backtest evaluator, plus the built-in heuristic strategies.
package strategy

import (
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/market"
)

// Strategy decides trading actions for the events of one window. A
// strategy instance is scoped to a single window: the evaluator builds a
// fresh one per window via a Factory, so instances may keep mutable state
// without synchronization.
type Strategy interface {
	// Name returns the strategy identifier (includes parameters).
	Name() string

	// Decide is called once per timeline event with the accumulated
	// window state. It may return zero or more signals.
	Decide(st *market.State, cfg domain.BacktestConfig) []domain.Signal
}

// Factory builds one fresh Strategy per window.
type Factory func() Strategy

// OpenHook is implemented by strategies that want a callback when a
// window opens, before any event is replayed.
type OpenHook interface {
	OnWindowOpen(st *market.State, cfg domain.BacktestConfig)
}

// CloseHook is implemented by strategies that want a callback when a
// window closes.
type CloseHook interface {
	OnWindowClose(st *market.State, sum CloseSummary, cfg domain.BacktestConfig)
}

// Defaulter is implemented by strategies that carry default run
// configuration; the orchestrator fills zero-valued config fields from it.
type Defaulter interface {
	Defaults() domain.BacktestConfig
}

// CloseSummary is handed to the close hook after settlement.
type CloseSummary struct {
	CloseTimeMs       int64
	Symbol            string
	StrikePrice       float64
	ClosePrice        float64
	ResolvedDirection *domain.Direction
	PnL               float64
	TradeCount        int
}

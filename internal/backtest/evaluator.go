// Package backtest evaluates windows against a strategy under bounded
// concurrency and aggregates the results into one portfolio view.
package backtest

import (
	"fmt"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/execution"
	"binary-window-lab/internal/market"
	"binary-window-lab/internal/resolution"
	"binary-window-lab/internal/strategy"
	"binary-window-lab/internal/timeline"
)

// EvaluateWindow replays one window's timeline through a fresh tracker,
// ledger and the given strategy instance. The instance set is fully
// isolated: nothing here is shared with any other window, so concurrent
// evaluations need no locks. Identical inputs always produce identical
// results; there is no wall-clock or randomness dependence.
//
// A fault raised while evaluating a single event (strategy or execution)
// is captured into the fault count and replay continues with the next
// event: one bad decision must not corrupt the rest of the window.
func EvaluateWindow(w *domain.Window, events []*timeline.Event, strat strategy.Strategy, cfg domain.BacktestConfig) *domain.WindowResult {
	tracker := market.NewTracker()
	tracker.SetWindow(w)

	sim := execution.New(w.WindowID, execution.Config{
		StartingCapital: cfg.StartingCapital,
		SpreadBuffer:    cfg.SpreadBuffer,
		FeeRate:         cfg.FeeRate,
	})

	st := tracker.State()
	st.Capital = sim.Capital()

	faults := 0
	if h, ok := strat.(strategy.OpenHook); ok {
		if err := capture(func() { h.OnWindowOpen(st, cfg) }); err != nil {
			faults++
		}
	}

	// Resolved once per evaluation; nil simply disables settlement.
	resolved := resolution.Resolve(w)

	processed := 0
	for _, ev := range events {
		// Boundary rule: open <= ts < close. Sources pre-slice, but the
		// evaluator owns the invariant.
		if ev.TimestampMs < w.OpenTimeMs || ev.TimestampMs >= w.CloseTimeMs {
			continue
		}

		tracker.ProcessEvent(ev)
		tracker.UpdateTimeToClose(ev.TimestampMs)
		processed++

		st.Position = sim.Position()
		st.Capital = sim.Capital()

		var signals []domain.Signal
		if err := capture(func() { signals = strat.Decide(st, cfg) }); err != nil {
			faults++
			continue
		}

		for _, sig := range signals {
			if !sig.Valid() {
				continue // missing action or token reference: discarded
			}
			sig := sig
			ts := ev.TimestampMs
			if err := capture(func() { applySignal(sim, sig, st, ts) }); err != nil {
				faults++
			}
		}
	}

	if resolved != nil {
		sim.ResolveWindow(*resolved, w.CloseTimeMs)
	}

	stats := sim.Stats()

	if h, ok := strat.(strategy.CloseHook); ok {
		sum := strategy.CloseSummary{
			CloseTimeMs:       w.CloseTimeMs,
			Symbol:            w.Symbol,
			StrikePrice:       w.StrikePrice,
			ClosePrice:        w.ClosePrice,
			ResolvedDirection: resolved,
			PnL:               stats.PnL,
			TradeCount:        stats.TradeCount,
		}
		if err := capture(func() { h.OnWindowClose(st, sum, cfg) }); err != nil {
			faults++
		}
	}

	return &domain.WindowResult{
		WindowID:          w.WindowID,
		Symbol:            w.Symbol,
		CloseTimeMs:       w.CloseTimeMs,
		PnL:               stats.PnL,
		Trades:            sim.Trades(),
		EventsProcessed:   processed,
		EndingCapital:     stats.EndingCapital,
		WinRate:           stats.WinRate,
		ResolvedDirection: resolved,
		EquityCurve:       sim.EquityCurve(),
		FaultCount:        faults,
	}
}

// applySignal asks the simulator for a fill decision and mutates the
// position only when the signal fills.
func applySignal(sim *execution.Simulator, sig domain.Signal, st *market.State, ts int64) {
	fill := sim.Execute(sig, st)
	if !fill.Filled {
		return
	}

	reason := sig.Reason
	if reason == "" {
		reason = domain.ReasonSignal
	}

	switch sig.Action {
	case domain.ActionBuy:
		sim.BuyToken(sig.Token, fill.Price, fill.Size, ts, reason)
	case domain.ActionSell:
		sim.SellToken(sig.Token, fill.Price, ts, reason)
	}
}

// capture runs fn, converting a panic into an error.
func capture(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation fault: %v", r)
		}
	}()
	fn()
	return nil
}

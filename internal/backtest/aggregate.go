package backtest

import (
	"sort"
	"time"

	"binary-window-lab/internal/domain"
)

// Aggregate folds per-window results into one chronological portfolio
// result. Concurrent evaluation completes out of order, so results are
// first sorted by window close time (window ID breaks ties, keeping the
// output deterministic).
func Aggregate(results []*domain.WindowResult, startingCapital float64, elapsed time.Duration) *domain.AggregateResult {
	sorted := make([]*domain.WindowResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CloseTimeMs != sorted[j].CloseTimeMs {
			return sorted[i].CloseTimeMs < sorted[j].CloseTimeMs
		}
		return sorted[i].WindowID < sorted[j].WindowID
	})

	agg := &domain.AggregateResult{
		WindowCount:  len(sorted),
		FinalCapital: startingCapital,
		ElapsedMs:    elapsed.Milliseconds(),
		EquityCurve:  make([]float64, 0, len(sorted)+1),
		Windows:      make([]domain.WindowSummary, 0, len(sorted)),
	}
	agg.EquityCurve = append(agg.EquityCurve, startingCapital)

	capital := startingCapital
	peak := startingCapital
	winSum, lossSum := 0.0, 0.0
	losses := 0

	for _, r := range sorted {
		capital += r.PnL
		agg.TotalPnL += r.PnL
		agg.EventsProcessed += r.EventsProcessed
		agg.FaultCount += r.FaultCount
		agg.EquityCurve = append(agg.EquityCurve, capital)

		if capital > peak {
			peak = capital
		}
		if peak > 0 {
			if dd := (peak - capital) / peak; dd > agg.MaxDrawdown {
				agg.MaxDrawdown = dd
			}
		}

		for _, t := range r.Trades {
			agg.TotalTrades++
			if t.PnL > 0 {
				agg.Wins++
				winSum += t.PnL
			} else {
				losses++
				lossSum += t.PnL
			}
		}
		agg.Trades = append(agg.Trades, r.Trades...)

		agg.Windows = append(agg.Windows, domain.WindowSummary{
			WindowID:          r.WindowID,
			Symbol:            r.Symbol,
			CloseTimeMs:       r.CloseTimeMs,
			PnL:               r.PnL,
			TradeCount:        len(r.Trades),
			FaultCount:        r.FaultCount,
			ResolvedDirection: r.ResolvedDirection,
		})
	}

	agg.FinalCapital = capital
	if agg.TotalTrades > 0 {
		agg.WinRate = float64(agg.Wins) / float64(agg.TotalTrades)
	}
	if agg.Wins > 0 {
		agg.AvgWin = winSum / float64(agg.Wins)
	}
	if losses > 0 {
		agg.AvgLoss = lossSum / float64(losses)
	}
	if startingCapital > 0 {
		agg.ReturnPct = agg.TotalPnL / startingCapital * 100
	}

	return agg
}

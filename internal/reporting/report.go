package reporting

import (
	"time"

	"binary-window-lab/internal/domain"
)

// Report is the render-ready view of one backtest run.
type Report struct {
	GeneratedAt time.Time
	StrategyID  string

	Summary     Summary
	Windows     []domain.WindowSummary
	Trades      []domain.Trade
	EquityCurve []float64
}

// Summary holds the headline portfolio metrics.
type Summary struct {
	StartingCapital float64
	FinalCapital    float64
	TotalPnL        float64
	ReturnPct       float64
	WinRate         float64
	MaxDrawdown     float64
	AvgWin          float64
	AvgLoss         float64

	TotalTrades     int
	WindowCount     int
	EventsProcessed int
	FaultCount      int
	ElapsedMs       int64
}

// BuildReport assembles a Report from an aggregate result.
func BuildReport(strategyID string, startingCapital float64, res *domain.AggregateResult, generatedAt time.Time) *Report {
	return &Report{
		GeneratedAt: generatedAt,
		StrategyID:  strategyID,
		Summary: Summary{
			StartingCapital: startingCapital,
			FinalCapital:    res.FinalCapital,
			TotalPnL:        res.TotalPnL,
			ReturnPct:       res.ReturnPct,
			WinRate:         res.WinRate,
			MaxDrawdown:     res.MaxDrawdown,
			AvgWin:          res.AvgWin,
			AvgLoss:         res.AvgLoss,
			TotalTrades:     res.TotalTrades,
			WindowCount:     res.WindowCount,
			EventsProcessed: res.EventsProcessed,
			FaultCount:      res.FaultCount,
			ElapsedMs:       res.ElapsedMs,
		},
		Windows:     res.Windows,
		Trades:      res.Trades,
		EquityCurve: res.EquityCurve,
	}
}

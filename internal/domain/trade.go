package domain

// Trade reason codes.
const (
	ReasonSettlement = "SETTLEMENT"
	ReasonSignal     = "SIGNAL"
)

// Trade is one realized round-trip execution. Trades are owned by the
// per-window execution ledger; appended, never mutated.
type Trade struct {
	TradeID     string
	WindowID    string
	Token       Token
	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64 // average cost per unit, fees included
	ExitPrice   float64 // realized exit/settlement price per unit
	Size        float64
	PnL         float64
	Reason      string // reason code of the closing action
}

// WindowResult is one window's evaluation outcome. Produced once per
// window, immutable thereafter.
type WindowResult struct {
	WindowID    string
	Symbol      string
	CloseTimeMs int64

	PnL               float64
	Trades            []Trade
	EventsProcessed   int
	EndingCapital     float64
	WinRate           float64
	ResolvedDirection *Direction
	EquityCurve       []float64 // capital after each realized trade
	FaultCount        int       // per-event strategy/execution faults survived
}

// WindowSummary is the per-window row carried on an AggregateResult.
type WindowSummary struct {
	WindowID          string
	Symbol            string
	CloseTimeMs       int64
	PnL               float64
	TradeCount        int
	FaultCount        int
	ResolvedDirection *Direction
}

// AggregateResult is the portfolio-level rollup of one backtest run.
// Built once from all WindowResults, in chronological window order.
type AggregateResult struct {
	TotalTrades     int
	Wins            int
	WinRate         float64
	TotalPnL        float64
	ReturnPct       float64
	MaxDrawdown     float64 // fractional decline from peak, in [0,1]
	FinalCapital    float64
	AvgWin          float64
	AvgLoss         float64
	EventsProcessed int
	WindowCount     int
	FaultCount      int
	ElapsedMs       int64

	EquityCurve []float64 // starting capital prepended; length = WindowCount+1
	Trades      []Trade   // chronological by window close
	Windows     []WindowSummary
}

// BacktestRun is the persisted record of one completed backtest run.
type BacktestRun struct {
	RunID       string // random UUID, assigned at persistence time
	StrategyID  string
	CreatedAtMs int64

	StartingCapital float64
	FinalCapital    float64
	TotalPnL        float64
	WinRate         float64
	MaxDrawdown     float64
	TotalTrades     int
	WindowCount     int
}

package domain

// Default configuration values.
const (
	DefaultStartingCapital  = 1000.0
	DefaultWindowDurationMs = int64(3_600_000) // one hour
)

// BacktestConfig holds the per-run knobs visible to strategies and the
// execution simulator. Concurrency and progress reporting live on the
// orchestrator options, not here.
type BacktestConfig struct {
	StartingCapital  float64 // capital each window's ledger starts with
	SpreadBuffer     float64 // fraction added to the ask when pricing fills
	FeeRate          float64 // fee as a fraction of fill notional
	WindowDurationMs int64   // expected window duration
}

// Normalize applies defaults for zero-valued fields and returns the
// resulting config.
func (c BacktestConfig) Normalize() BacktestConfig {
	if c.StartingCapital <= 0 {
		c.StartingCapital = DefaultStartingCapital
	}
	if c.WindowDurationMs <= 0 {
		c.WindowDurationMs = DefaultWindowDurationMs
	}
	if c.SpreadBuffer < 0 {
		c.SpreadBuffer = 0
	}
	if c.FeeRate < 0 {
		c.FeeRate = 0
	}
	return c
}

// Strategy type constants.
const (
	StrategyTypeCheapSide = "CHEAP_SIDE"
	StrategyTypeMomentum  = "MOMENTUM"
)

// StrategyConfig holds strategy construction parameters. Pointer fields
// distinguish "unset" from zero; the factory validates required fields
// per strategy type.
type StrategyConfig struct {
	StrategyType string

	// CHEAP_SIDE parameters
	MaxEntryPrice *float64 // highest ask the strategy will pay

	// MOMENTUM parameters
	MinEdge *float64 // minimum |reference - strike| / strike to enter

	// Common parameters
	OrderSize *float64 // token units per entry
}

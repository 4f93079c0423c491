package backtest

import (
	"context"
	"fmt"
	"sort"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/strategy"
)

// Sweepable configuration parameter names.
const (
	ParamStartingCapital  = "startingCapital"
	ParamSpreadBuffer     = "spreadBuffer"
	ParamFeeRate          = "feeRate"
	ParamWindowDurationMs = "windowDurationMs"
)

// SweepOptions configures a parameter sweep: one orchestrator run per
// point of the Cartesian grid.
type SweepOptions struct {
	Windows    []*domain.Window
	Source     DataSource
	Strategy   strategy.Factory
	BaseConfig domain.BacktestConfig

	// Grid maps parameter names (Param* constants) to candidate values.
	Grid map[string][]float64

	Concurrency int

	// OnSweepProgress, when set, fires after each combination with
	// (combinationsCompleted, combinationsTotal).
	OnSweepProgress func(completed, total int)
}

// SweepResult pairs one grid point with its backtest result.
type SweepResult struct {
	Params map[string]float64
	Result *domain.AggregateResult
}

// RunSweep runs the orchestrator once per grid combination, sequentially:
// sweeps are not parallelized beyond per-run window concurrency, bounding
// peak resource use. The data source passes through unchanged to every
// combination; in pre-loaded mode the bulk arrays are loaded exactly
// once. Returns results in grid enumeration order.
func RunSweep(ctx context.Context, opts SweepOptions) ([]SweepResult, error) {
	combos, err := expandGrid(opts.Grid)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, 0, len(combos))
	for i, params := range combos {
		cfg, err := applyParams(opts.BaseConfig, params)
		if err != nil {
			return nil, err
		}

		orch, err := New(Options{
			Windows:     opts.Windows,
			Source:      opts.Source,
			Strategy:    opts.Strategy,
			Config:      cfg,
			Concurrency: opts.Concurrency,
		})
		if err != nil {
			return nil, err
		}

		result, err := orch.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("sweep combination %d: %w", i, err)
		}
		out = append(out, SweepResult{Params: params, Result: result})

		if opts.OnSweepProgress != nil {
			opts.OnSweepProgress(i+1, len(combos))
		}
	}

	return out, nil
}

// expandGrid builds the Cartesian product of the grid by folding each
// dimension into a growing combination list, starting from the single
// empty combination. Dimensions are visited in sorted name order and
// later dimensions vary fastest, so enumeration is deterministic.
func expandGrid(grid map[string][]float64) ([]map[string]float64, error) {
	names := make([]string, 0, len(grid))
	for name := range grid {
		if len(grid[name]) == 0 {
			return nil, fmt.Errorf("sweep parameter %q has no values", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		next := make([]map[string]float64, 0, len(combos)*len(grid[name]))
		for _, base := range combos {
			for _, v := range grid[name] {
				combo := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					combo[k] = bv
				}
				combo[name] = v
				next = append(next, combo)
			}
		}
		combos = next
	}

	return combos, nil
}

// applyParams overlays one grid point onto the base config. Unknown
// parameter names are configuration errors and fail before any run.
func applyParams(cfg domain.BacktestConfig, params map[string]float64) (domain.BacktestConfig, error) {
	for name, v := range params {
		switch name {
		case ParamStartingCapital:
			cfg.StartingCapital = v
		case ParamSpreadBuffer:
			cfg.SpreadBuffer = v
		case ParamFeeRate:
			cfg.FeeRate = v
		case ParamWindowDurationMs:
			cfg.WindowDurationMs = int64(v)
		default:
			return cfg, fmt.Errorf("unknown sweep parameter %q", name)
		}
	}
	return cfg, nil
}

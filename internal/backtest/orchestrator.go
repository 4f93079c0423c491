package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/limiter"
	"binary-window-lab/internal/observability"
	"binary-window-lab/internal/strategy"
)

// Orchestrator errors.
var (
	ErrNilStrategy     = errors.New("strategy factory is required")
	ErrInvalidStrategy = errors.New("strategy factory must produce a named strategy")
	ErrNilSource       = errors.New("data source is required")
)

// Options configures one backtest run.
type Options struct {
	Windows  []*domain.Window
	Source   DataSource
	Strategy strategy.Factory
	Config   domain.BacktestConfig

	// Concurrency is the requested number of windows evaluated in
	// parallel; the data source may lower it. Values below 1 mean 1.
	Concurrency int

	// OnProgress, when set, fires once per completed window with
	// (completed, total), in completion order.
	OnProgress func(completed, total int)
}

// Orchestrator drives window evaluation across all windows under one
// shared concurrency limiter and folds the results into an
// AggregateResult.
type Orchestrator struct {
	opts Options
}

// New validates the options and creates an Orchestrator. Configuration
// errors surface here, before any window work begins.
func New(opts Options) (*Orchestrator, error) {
	if opts.Strategy == nil {
		return nil, ErrNilStrategy
	}
	if opts.Source == nil {
		return nil, ErrNilSource
	}

	// Probe one instance: the factory must produce a usable strategy,
	// and strategy defaults fill zero-valued config fields.
	probe := opts.Strategy()
	if probe == nil || probe.Name() == "" {
		return nil, ErrInvalidStrategy
	}
	if d, ok := probe.(strategy.Defaulter); ok {
		opts.Config = mergeDefaults(opts.Config, d.Defaults())
	}
	opts.Config = opts.Config.Normalize()

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Orchestrator{opts: opts}, nil
}

// Run evaluates every window and returns the aggregated portfolio result.
// Window evaluations complete in arbitrary order; the aggregator restores
// chronological order. A window whose data fetch fails aborts the run
// with an error naming the window; runs are never cancelled mid-window.
func (o *Orchestrator) Run(ctx context.Context) (*domain.AggregateResult, error) {
	start := time.Now()

	windows := o.opts.Windows
	results := make([]*domain.WindowResult, len(windows))

	lim := limiter.New(o.opts.Source.ConcurrencyLimit(o.opts.Concurrency))

	var mu sync.Mutex
	completed := 0

	for i, w := range windows {
		i, w := i, w
		if err := lim.Go(ctx, func() error {
			events, err := o.opts.Source.WindowEvents(ctx, w)
			if err != nil {
				return fmt.Errorf("window %s: load events: %w", w.WindowID, err)
			}

			// Fresh strategy instance per window: no shared mutable state.
			res := EvaluateWindow(w, events, o.opts.Strategy(), o.opts.Config)
			results[i] = res
			observability.RecordWindowEvaluated(len(res.Trades), res.FaultCount)

			if o.opts.OnProgress != nil {
				// Held across the callback so completed counts arrive
				// strictly increasing even under concurrent completions.
				mu.Lock()
				completed++
				o.opts.OnProgress(completed, len(windows))
				mu.Unlock()
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := lim.Wait(); err != nil {
		return nil, err
	}

	return Aggregate(results, o.opts.Config.StartingCapital, time.Since(start)), nil
}

// mergeDefaults fills zero-valued config fields from strategy defaults.
func mergeDefaults(cfg, def domain.BacktestConfig) domain.BacktestConfig {
	if cfg.StartingCapital == 0 {
		cfg.StartingCapital = def.StartingCapital
	}
	if cfg.SpreadBuffer == 0 {
		cfg.SpreadBuffer = def.SpreadBuffer
	}
	if cfg.FeeRate == 0 {
		cfg.FeeRate = def.FeeRate
	}
	if cfg.WindowDurationMs == 0 {
		cfg.WindowDurationMs = def.WindowDurationMs
	}
	return cfg
}

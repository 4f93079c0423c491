package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"binary-window-lab/internal/backtest"
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
	chstore "binary-window-lab/internal/storage/clickhouse"
	pgstore "binary-window-lab/internal/storage/postgres"
	"binary-window-lab/internal/strategy"
)

// sweepConfig is the YAML shape of a sweep definition: a base run config
// plus the parameter grid overlaid on it, one run per combination.
type sweepConfig struct {
	Base struct {
		StartingCapital  float64 `yaml:"starting_capital"`
		SpreadBuffer     float64 `yaml:"spread_buffer"`
		FeeRate          float64 `yaml:"fee_rate"`
		WindowDurationMs int64   `yaml:"window_duration_ms"`
	} `yaml:"base"`

	// Grid keys are the sweepable parameter names: startingCapital,
	// spreadBuffer, feeRate, windowDurationMs.
	Grid map[string][]float64 `yaml:"grid"`
}

func loadSweepConfig(path string) (*sweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var cfg sweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &cfg, nil
}

func main() {
	configPath := flag.String("config", "", "Sweep config YAML (required)")

	// Window selection
	symbol := flag.String("symbol", "", "Underlying symbol to backtest, e.g. BTC (required)")
	fromMs := flag.Int64("from", 0, "Range start, ms since epoch (0 = all windows for the symbol)")
	toMs := flag.Int64("to", 0, "Range end, ms since epoch (0 = all windows for the symbol)")

	// Strategy
	strategyType := flag.String("strategy", "", "Strategy: CHEAP_SIDE, MOMENTUM (required)")
	maxEntryPrice := flag.Float64("max-entry-price", -1, "Highest ask CHEAP_SIDE will pay")
	minEdge := flag.Float64("min-edge", -1, "Minimum |reference-strike|/strike for MOMENTUM to enter")
	orderSize := flag.Float64("order-size", -1, "Token units per entry")

	concurrency := flag.Int("concurrency", 4, "Windows evaluated in parallel within each run")
	perWindow := flag.Bool("per-window", false, "Fetch each window's ticks on demand instead of preloading")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[sweep] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *strategyType == "" {
		logger.Fatal("--strategy is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (windows)")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (tick timeseries)")
	}

	*strategyType = strings.ToUpper(*strategyType)
	if *strategyType != domain.StrategyTypeCheapSide && *strategyType != domain.StrategyTypeMomentum {
		logger.Fatalf("Invalid strategy: %s. Must be CHEAP_SIDE or MOMENTUM", *strategyType)
	}

	cfg, err := loadSweepConfig(*configPath)
	if err != nil {
		logger.Fatalf("load sweep config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	windowStore := pgstore.NewWindowStore(pool)
	oracleStore := chstore.NewOracleTickStore(conn)
	bookStore := chstore.NewBookSnapshotStore(conn)
	exchangeStore := chstore.NewExchangeTickStore(conn)

	strategyCfg := domain.StrategyConfig{StrategyType: *strategyType}
	if *maxEntryPrice >= 0 {
		strategyCfg.MaxEntryPrice = maxEntryPrice
	}
	if *minEdge >= 0 {
		strategyCfg.MinEdge = minEdge
	}
	if *orderSize >= 0 {
		strategyCfg.OrderSize = orderSize
	}

	factory, err := strategy.FromConfig(strategyCfg)
	if err != nil {
		logger.Fatalf("build strategy: %v", err)
	}

	windows, err := loadWindows(ctx, windowStore, *symbol, *fromMs, *toMs)
	if err != nil {
		logger.Fatalf("load windows: %v", err)
	}
	if len(windows) == 0 {
		logger.Fatalf("no windows found for symbol %s", *symbol)
	}
	logger.Printf("Loaded %d windows for %s", len(windows), *symbol)

	var source backtest.DataSource
	if *perWindow {
		source = &backtest.StoreSource{
			Oracle:   oracleStore,
			Books:    bookStore,
			Exchange: exchangeStore,
		}
	} else {
		source, err = preloadSource(ctx, oracleStore, bookStore, exchangeStore, *symbol, windows)
		if err != nil {
			logger.Fatalf("preload ticks: %v", err)
		}
	}

	logger.Printf("Running sweep: symbol=%s strategy=%s grid dimensions=%d",
		*symbol, *strategyType, len(cfg.Grid))

	results, err := backtest.RunSweep(ctx, backtest.SweepOptions{
		Windows:  windows,
		Source:   source,
		Strategy: factory,
		BaseConfig: domain.BacktestConfig{
			StartingCapital:  cfg.Base.StartingCapital,
			SpreadBuffer:     cfg.Base.SpreadBuffer,
			FeeRate:          cfg.Base.FeeRate,
			WindowDurationMs: cfg.Base.WindowDurationMs,
		},
		Grid:        cfg.Grid,
		Concurrency: *concurrency,
		OnSweepProgress: func(completed, total int) {
			logger.Printf("Completed combination %d/%d", completed, total)
		},
	})
	if err != nil {
		logger.Fatalf("sweep failed: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
	} else {
		printSweepResults(results)
	}
}

// loadWindows fetches the windows to evaluate, by time range when one is
// given and by symbol otherwise.
func loadWindows(ctx context.Context, store storage.WindowStore, symbol string, fromMs, toMs int64) ([]*domain.Window, error) {
	if fromMs > 0 || toMs > 0 {
		if toMs <= 0 {
			toMs = time.Now().UnixMilli()
		}
		return store.GetByTimeRange(ctx, symbol, fromMs, toMs)
	}
	return store.GetBySymbol(ctx, symbol)
}

// preloadSource bulk-loads every tick the sweep's windows can touch. The
// arrays are shared across all grid combinations.
func preloadSource(
	ctx context.Context,
	oracleStore storage.OracleTickStore,
	bookStore storage.BookSnapshotStore,
	exchangeStore storage.ExchangeTickStore,
	symbol string,
	windows []*domain.Window,
) (*backtest.PreloadedSource, error) {
	start, end := windows[0].OpenTimeMs, windows[0].CloseTimeMs
	for _, w := range windows[1:] {
		if w.OpenTimeMs < start {
			start = w.OpenTimeMs
		}
		if w.CloseTimeMs > end {
			end = w.CloseTimeMs
		}
	}

	oracle, err := oracleStore.GetByTimeRange(ctx, symbol, start, end-1)
	if err != nil {
		return nil, fmt.Errorf("oracle ticks: %w", err)
	}
	books, err := bookStore.GetByTimeRange(ctx, symbol, start, end-1)
	if err != nil {
		return nil, fmt.Errorf("book snapshots: %w", err)
	}
	exchange, err := exchangeStore.GetByTimeRange(ctx, symbol, start, end-1)
	if err != nil {
		return nil, fmt.Errorf("exchange ticks: %w", err)
	}

	return backtest.NewPreloadedSource(oracle, books, exchange), nil
}

// printSweepResults outputs one line per grid combination.
func printSweepResults(results []backtest.SweepResult) {
	fmt.Println()
	fmt.Println("=== Sweep Results ===")
	for i, sr := range results {
		fmt.Printf("[%d] %s\n", i+1, formatParams(sr.Params))
		fmt.Printf("    trades=%d winRate=%.2f%% pnl=%.4f return=%.2f%% maxDD=%.2f%% final=%.4f\n",
			sr.Result.TotalTrades,
			sr.Result.WinRate*100,
			sr.Result.TotalPnL,
			sr.Result.ReturnPct,
			sr.Result.MaxDrawdown*100,
			sr.Result.FinalCapital,
		)
	}
}

// formatParams renders a grid point with parameter names sorted, matching
// the grid enumeration order.
func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "(base config)"
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, params[name]))
	}
	return strings.Join(parts, " ")
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"binary-window-lab/internal/backtest"
	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/reporting"
	"binary-window-lab/internal/storage"
	chstore "binary-window-lab/internal/storage/clickhouse"
	"binary-window-lab/internal/storage/memory"
	"binary-window-lab/internal/storage/migrations"
	pgstore "binary-window-lab/internal/storage/postgres"
	"binary-window-lab/internal/strategy"
)

func main() {
	// Window selection
	symbol := flag.String("symbol", "", "Underlying symbol to backtest, e.g. BTC (required)")
	fromMs := flag.Int64("from", 0, "Range start, ms since epoch (0 = all windows for the symbol)")
	toMs := flag.Int64("to", 0, "Range end, ms since epoch (0 = all windows for the symbol)")

	// Strategy
	strategyType := flag.String("strategy", "", "Strategy: CHEAP_SIDE, MOMENTUM (required)")
	maxEntryPrice := flag.Float64("max-entry-price", -1, "Highest ask CHEAP_SIDE will pay")
	minEdge := flag.Float64("min-edge", -1, "Minimum |reference-strike|/strike for MOMENTUM to enter")
	orderSize := flag.Float64("order-size", -1, "Token units per entry")

	// Run configuration
	capital := flag.Float64("capital", 0, "Starting capital per run (0 = strategy/engine default)")
	spreadBuffer := flag.Float64("spread-buffer", 0, "Fraction added to the ask when pricing fills")
	feeRate := flag.Float64("fee-rate", 0, "Fee as a fraction of fill notional")
	windowDurationMs := flag.Int64("window-duration-ms", 0, "Expected window duration (ms, 0 = default)")
	concurrency := flag.Int("concurrency", 4, "Windows evaluated in parallel")
	perWindow := flag.Bool("per-window", false, "Fetch each window's ticks on demand instead of preloading")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	migrate := flag.Bool("migrate", false, "Apply schema migrations before running")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist the run and its trades to storage")
	reportPath := flag.String("report", "", "Write a markdown report to this path")
	tradesCSVPath := flag.String("trades-csv", "", "Write the trade log as CSV to this path")
	equityCSVPath := flag.String("equity-csv", "", "Write the equity curve as CSV to this path")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *strategyType == "" {
		logger.Fatal("--strategy is required")
	}
	*strategyType = strings.ToUpper(*strategyType)
	if *strategyType != domain.StrategyTypeCheapSide && *strategyType != domain.StrategyTypeMomentum {
		logger.Fatalf("Invalid strategy: %s. Must be CHEAP_SIDE or MOMENTUM", *strategyType)
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

	// Create stores
	var windowStore storage.WindowStore = memory.NewWindowStore()
	var resultStore storage.ResultStore = memory.NewResultStore()
	var oracleStore storage.OracleTickStore = memory.NewOracleTickStore()
	var bookStore storage.BookSnapshotStore = memory.NewBookSnapshotStore()
	var exchangeStore storage.ExchangeTickStore = memory.NewExchangeTickStore()

	if !*useMemory {
		// Require DSNs when not using memory
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory (windows and run records)")
		}
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory (tick timeseries)")
		}

		// PostgreSQL for windows and run records
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("migrate postgres: %v", err)
			}
		}

		windowStore = pgstore.NewWindowStore(pool)
		resultStore = pgstore.NewResultStore(pool)

		// ClickHouse for tick timeseries
		var conn *chstore.Conn
		if *migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, *clickhouseDSN)
		}
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()

		oracleStore = chstore.NewOracleTickStore(conn)
		bookStore = chstore.NewBookSnapshotStore(conn)
		exchangeStore = chstore.NewExchangeTickStore(conn)
	}

	// Build the strategy factory
	factory, err := strategy.FromConfig(buildStrategyConfig(*strategyType, *maxEntryPrice, *minEdge, *orderSize))
	if err != nil {
		logger.Fatalf("build strategy: %v", err)
	}

	// Load windows
	windows, err := loadWindows(ctx, windowStore, *symbol, *fromMs, *toMs)
	if err != nil {
		logger.Fatalf("load windows: %v", err)
	}
	if len(windows) == 0 {
		logger.Fatalf("no windows found for symbol %s", *symbol)
	}
	logger.Printf("Loaded %d windows for %s", len(windows), *symbol)

	// Build the data source
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

	cfg := domain.BacktestConfig{
		StartingCapital:  *capital,
		SpreadBuffer:     *spreadBuffer,
		FeeRate:          *feeRate,
		WindowDurationMs: *windowDurationMs,
	}

	orch, err := backtest.New(backtest.Options{
		Windows:     windows,
		Source:      source,
		Strategy:    factory,
		Config:      cfg,
		Concurrency: *concurrency,
		OnProgress: func(completed, total int) {
			if completed%50 == 0 || completed == total {
				logger.Printf("Evaluated %d/%d windows", completed, total)
			}
		},
	})
	if err != nil {
		logger.Fatalf("configure backtest: %v", err)
	}

	logger.Printf("Running backtest: symbol=%s strategy=%s windows=%d concurrency=%d",
		*symbol, *strategyType, len(windows), *concurrency)

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	cfg = cfg.Normalize()
	report := reporting.BuildReport(*strategyType, cfg.StartingCapital, result, time.Now().UTC())

	if *persistResult {
		runID, err := persistRun(ctx, resultStore, *strategyType, cfg.StartingCapital, result)
		if err != nil {
			logger.Fatalf("persist result: %v", err)
		}
		logger.Printf("Persisted run %s (%d trades)", runID, len(result.Trades))
	}

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
			logger.Fatalf("write report: %v", err)
		}
		logger.Printf("Wrote markdown report to %s", *reportPath)
	}
	if *tradesCSVPath != "" {
		if err := os.WriteFile(*tradesCSVPath, []byte(reporting.RenderTradesCSV(report)), 0o644); err != nil {
			logger.Fatalf("write trades csv: %v", err)
		}
	}
	if *equityCSVPath != "" {
		if err := os.WriteFile(*equityCSVPath, []byte(reporting.RenderEquityCSV(report)), 0o644); err != nil {
			logger.Fatalf("write equity csv: %v", err)
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printAggregate(result, cfg.StartingCapital)
	}
}

// buildStrategyConfig creates a StrategyConfig from CLI flags. Negative
// flag values mean unset; the factory validates required parameters.
func buildStrategyConfig(strategyType string, maxEntryPrice, minEdge, orderSize float64) domain.StrategyConfig {
	cfg := domain.StrategyConfig{StrategyType: strategyType}

	if maxEntryPrice >= 0 {
		cfg.MaxEntryPrice = &maxEntryPrice
	}
	if minEdge >= 0 {
		cfg.MinEdge = &minEdge
	}
	if orderSize >= 0 {
		cfg.OrderSize = &orderSize
	}

	return cfg
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

// preloadSource bulk-loads every tick the run's windows can touch and
// wraps them in a PreloadedSource. One range query per store covers the
// whole run.
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

	// Store ranges are inclusive; window close is exclusive.
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

// persistRun stores the run summary and its trades under a fresh run ID.
func persistRun(ctx context.Context, store storage.ResultStore, strategyID string, startingCapital float64, res *domain.AggregateResult) (string, error) {
	run := &domain.BacktestRun{
		RunID:       uuid.NewString(),
		StrategyID:  strategyID,
		CreatedAtMs: time.Now().UnixMilli(),

		StartingCapital: startingCapital,
		FinalCapital:    res.FinalCapital,
		TotalPnL:        res.TotalPnL,
		WinRate:         res.WinRate,
		MaxDrawdown:     res.MaxDrawdown,
		TotalTrades:     res.TotalTrades,
		WindowCount:     res.WindowCount,
	}

	if err := store.InsertRun(ctx, run); err != nil {
		return "", err
	}
	if err := store.InsertTrades(ctx, run.RunID, res.Trades); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// printAggregate outputs a human-readable run summary.
func printAggregate(res *domain.AggregateResult, startingCapital float64) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Windows:            %d\n", res.WindowCount)
	fmt.Printf("Events Processed:   %d\n", res.EventsProcessed)
	fmt.Printf("Elapsed:            %v\n", time.Duration(res.ElapsedMs)*time.Millisecond)
	fmt.Println()

	fmt.Println("Trades:")
	fmt.Printf("  Total:            %d\n", res.TotalTrades)
	fmt.Printf("  Wins:             %d\n", res.Wins)
	fmt.Printf("  Win Rate:         %.2f%%\n", res.WinRate*100)
	fmt.Printf("  Avg Win:          %.4f\n", res.AvgWin)
	fmt.Printf("  Avg Loss:         %.4f\n", res.AvgLoss)
	fmt.Println()

	fmt.Println("Portfolio:")
	fmt.Printf("  Starting Capital: %.4f\n", startingCapital)
	fmt.Printf("  Final Capital:    %.4f\n", res.FinalCapital)
	fmt.Printf("  Total PnL:        %.4f\n", res.TotalPnL)
	fmt.Printf("  Return:           %.2f%%\n", res.ReturnPct)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", res.MaxDrawdown*100)

	if res.FaultCount > 0 {
		fmt.Println()
		fmt.Printf("Faults survived:    %d\n", res.FaultCount)
	}
}

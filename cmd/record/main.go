package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binary-window-lab/internal/ingestion"
	"binary-window-lab/internal/observability"
	chstore "binary-window-lab/internal/storage/clickhouse"
	"binary-window-lab/internal/storage/migrations"
)

func main() {
	endpoint := flag.String("ws-endpoint", "", "WebSocket trade feed endpoint (required)")
	exchange := flag.String("exchange", "", "Exchange name stamped on recorded ticks (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")
	batchSize := flag.Int("batch-size", 500, "Ticks per storage flush")
	migrate := flag.Bool("migrate", false, "Apply schema migrations before recording")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	duration := flag.Duration("duration", 0, "Stop recording after this long (0 = until interrupted)")

	flag.Parse()

	logger := log.New(os.Stderr, "[record] ", log.LstdFlags)

	if *endpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *exchange == "" {
		logger.Fatal("--exchange is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, flushing and shutting down...", sig)
		cancel()
	}()

	var conn *chstore.Conn
	var err error
	if *migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, *clickhouseDSN)
	}
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	feed, err := ingestion.NewWSFeed(ctx, *endpoint, *exchange, nil)
	if err != nil {
		logger.Fatalf("connect to feed: %v", err)
	}
	defer feed.Close()

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		ExchangeStore: chstore.NewExchangeTickStore(conn),
	})

	logger.Printf("Recording %s trades from %s (batch size %d)", *exchange, *endpoint, *batchSize)
	start := time.Now()

	count, err := manager.RecordExchangeStream(ctx, feed.Ticks(), *batchSize)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatalf("recording failed after %d ticks: %v", count, err)
	}

	logger.Printf("Recorded %d ticks in %v", count, time.Since(start).Round(time.Second))
}

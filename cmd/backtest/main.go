// cmd/backtest scores tick files with a crossover strategy, writing one
// output file per input file, and can first download recorded price series
// from a remote store into the input directory.
//
// Usage:
//
//	go run ./cmd/backtest -r -x -i input_files -o output_files -config backtest.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"crossover-backtester/config"
	"crossover-backtester/internal/backtest"
	"crossover-backtester/internal/download"
	"crossover-backtester/internal/logger"
	"crossover-backtester/internal/metrics"
	"crossover-backtester/internal/model"
	"crossover-backtester/internal/store/postgres"
	"crossover-backtester/internal/store/redis"
	"crossover-backtester/internal/store/sqlite"
)

type flags struct {
	input, output string
	remote        bool
	execute       bool
	configPath    string
	strategy      string
	workers       int
	metricsAddr   string
}

func parseFlags(args []string) (*flags, *flag.FlagSet, error) {
	f := &flags{}
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)

	fs.StringVar(&f.input, "i", "", "Directory of input tick files (default input_files)")
	fs.StringVar(&f.input, "input", "", "Same as -i")
	fs.StringVar(&f.output, "o", "", "Directory for output files (default output_files)")
	fs.StringVar(&f.output, "output", "", "Same as -o")
	fs.BoolVar(&f.remote, "r", false, "Download recorded price series into the input directory")
	fs.BoolVar(&f.remote, "remote", false, "Same as -r")
	fs.BoolVar(&f.execute, "x", false, "Run the backtest over the input directory")
	fs.BoolVar(&f.execute, "execute", false, "Same as -x")
	fs.StringVar(&f.configPath, "config", "", "Optional YAML config file")
	fs.StringVar(&f.strategy, "strategy", "", "Scoring strategy: trend_follow, crossover_rise, crossover_target")
	fs.IntVar(&f.workers, "workers", 0, "Files processed in parallel")
	fs.StringVar(&f.metricsAddr, "metrics", "", "Serve /metrics and /healthz on this address")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}

// apply lets explicit flags win over file and environment settings.
func (f *flags) apply(cfg *config.Config) {
	if f.input != "" {
		cfg.InputDir = f.input
	}
	if f.output != "" {
		cfg.OutputDir = f.output
	}
	if f.strategy != "" {
		cfg.Strategy = f.strategy
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f, fs, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if !f.remote && !f.execute {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -r to download, -x to execute, or both")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if f.remote {
		if err := cfg.ValidateStore(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 1
		}
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	log := logger.Init("backtest", level)

	runID := logger.NewRunID()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithTraceID(ctx, runID)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(runID)
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg, health)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Stop(shutdownCtx)
		}()
	}

	if f.remote {
		if err := fetch(ctx, cfg, m, health); err != nil {
			log.Error("download failed", append(logger.LogWithTrace(ctx), "store", cfg.Store.Kind, "error", err)...)
			return 1
		}
	}

	if f.execute {
		runner, err := backtest.NewRunner(backtest.Config{
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Workers:   cfg.Workers,
			Strategy:  cfg.StrategyKind(),
			Params:    cfg.Scoring,
			Analyzer:  cfg.Analyzer,
			Metrics:   m,
			Health:    health,
			Logger:    log,
		})
		if err != nil {
			log.Error("backtest setup failed", "error", err)
			return 1
		}
		sum, err := runner.Run(ctx)
		if err != nil {
			log.Error("backtest failed", append(logger.LogWithTrace(ctx), "error", err)...)
			return 1
		}
		printSummary(sum)
	}
	return 0
}

func fetch(ctx context.Context, cfg *config.Config, m *metrics.Metrics, health *metrics.HealthStatus) error {
	reader, pinger, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := health.CheckStore(ctx, cfg.Store.Kind, pinger); err != nil {
		return fmt.Errorf("%s unreachable: %w", cfg.Store.Kind, err)
	}

	fetcher := &download.Fetcher{Reader: reader, Dir: cfg.InputDir, Metrics: m}
	paths, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	slog.Info("download complete", append(logger.LogWithTrace(ctx), "files", len(paths), "dir", cfg.InputDir)...)
	return nil
}

type pingingReader interface {
	model.PriceReader
	metrics.Pinger
}

// openStore connects to the configured price store. Connection failures are
// returned so the caller can report them before any file is touched.
func openStore(ctx context.Context, sc config.Store) (model.PriceReader, metrics.Pinger, error) {
	var (
		r   pingingReader
		err error
	)
	switch sc.Kind {
	case config.StoreRedis:
		r, err = redis.NewReader(redis.Config{
			Addr:      sc.Redis.Addr,
			Password:  sc.Redis.Password,
			DB:        sc.Redis.DB,
			KeyPrefix: sc.Redis.KeyPrefix,
		})
	case config.StoreSQLite:
		r, err = sqlite.OpenExisting(sc.SQLite.Path)
	case config.StorePostgres:
		pc := postgres.DefaultPoolConfig()
		if sc.Postgres.MaxConns > 0 {
			pc.MaxConns = sc.Postgres.MaxConns
		}
		r, err = postgres.Open(ctx, sc.Postgres.DSN, pc)
	default:
		err = fmt.Errorf("unknown store kind %q", sc.Kind)
	}
	if err != nil {
		return nil, nil, err
	}
	return r, r, nil
}

func printSummary(sum backtest.Summary) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Files:             %-16d ║\n", sum.Files)
	fmt.Printf("║  Succeeded:         %-16d ║\n", sum.OK)
	fmt.Printf("║  Failed:            %-16d ║\n", sum.Failed)
	fmt.Printf("║  Skipped:           %-16d ║\n", sum.Skipped)
	fmt.Printf("║  Ticks scored:      %-16d ║\n", sum.Ticks)
	fmt.Printf("║  Invalid lines:     %-16d ║\n", sum.Invalid)
	fmt.Printf("║  Successes:         %-16d ║\n", sum.Outcomes[model.OutcomeSuccess])
	fmt.Printf("║  Failures:          %-16d ║\n", sum.Outcomes[model.OutcomeFailure])
	fmt.Println("╚══════════════════════════════════════╝")
}

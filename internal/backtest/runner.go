// Package backtest runs a scoring strategy over every tick file in a
// directory, writing one output file per input file.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crossover-backtester/internal/analyzer"
	"crossover-backtester/internal/logger"
	"crossover-backtester/internal/marketdata/feed"
	"crossover-backtester/internal/marketdata/replay"
	"crossover-backtester/internal/metrics"
	"crossover-backtester/internal/model"
	"crossover-backtester/internal/sink"
	"crossover-backtester/internal/strategy"
)

const (
	inputExt  = ".txt"
	outputExt = ".out"
)

// Config describes one backtest run.
type Config struct {
	InputDir  string
	OutputDir string
	Workers   int

	Strategy strategy.Kind
	Params   strategy.Params
	Analyzer analyzer.Config

	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus
	Logger  *slog.Logger
}

// FileResult is the outcome of one input file.
type FileResult struct {
	Input    string
	Output   string
	Stats    replay.Stats
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Summary aggregates a run.
type Summary struct {
	Files    int
	OK       int
	Failed   int
	Skipped  int
	Ticks    int
	Invalid  int
	Outcomes map[model.Outcome]int
	Results  []FileResult // ordered by input name
}

// Runner processes input files on a bounded worker pool.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return nil, fmt.Errorf("input and output directories are required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = strategy.KindCrossoverTarget
	}
	// Fail on an unknown strategy before touching any file.
	if _, err := newStrategy(cfg, analyzer.New(cfg.Analyzer)); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log}, nil
}

func newStrategy(cfg Config, a *analyzer.Analyzer) (strategy.Strategy, error) {
	return strategy.Build(cfg.Strategy, cfg.Params, a)
}

// Inputs lists the tick files of the input directory, sorted by name.
func (r *Runner) Inputs() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != inputExt {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns the output file for an input file name.
func (r *Runner) OutputPath(input string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	return filepath.Join(r.cfg.OutputDir, stem+outputExt)
}

// Run processes every input file. Per-file failures are logged and counted;
// only listing the inputs or creating the output directory fails the run.
// Once ctx is done, files not yet started are skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	files, err := r.Inputs()
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output directory: %w", err)
	}

	runID := logger.TraceID(ctx)
	if runID == "" {
		runID = logger.NewRunID()
		ctx = logger.WithTraceID(ctx, runID)
	}

	sample, _ := newStrategy(r.cfg, analyzer.New(r.cfg.Analyzer))
	r.log.Info("backtest started",
		append(logger.LogWithTrace(ctx),
			"input", r.cfg.InputDir,
			"output", r.cfg.OutputDir,
			"files", len(files),
			"workers", r.cfg.Workers,
			"strategy", sample.Name(),
			"columns", strings.Join(sample.Columns(), ", "),
		)...,
	)

	results := make([]FileResult, len(files))

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, name := range files {
		if ctx.Err() != nil {
			results[i] = FileResult{Input: name, Output: r.OutputPath(name), Skipped: true}
			continue
		}
		i, name := i, name
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = FileResult{Input: name, Output: r.OutputPath(name), Skipped: true}
				return nil
			}
			fileCtx := logger.WithTraceID(ctx, logger.FileTraceID(runID, name))
			results[i] = r.processFile(fileCtx, name)
			r.cfg.Health.FileDone()
			return nil
		})
	}
	g.Wait()

	sum := Summary{Outcomes: make(map[model.Outcome]int, 3), Results: results}
	for _, res := range results {
		sum.Files++
		switch {
		case res.Skipped:
			sum.Skipped++
			r.cfg.Metrics.ObserveFile(metrics.StatusSkipped, 0, 0, 0)
			continue
		case res.Err != nil:
			sum.Failed++
			r.cfg.Metrics.ObserveFile(metrics.StatusFailed, res.Stats.Ticks, res.Stats.Skipped, res.Duration)
		default:
			sum.OK++
			r.cfg.Metrics.ObserveFile(metrics.StatusOK, res.Stats.Ticks, res.Stats.Skipped, res.Duration)
		}
		sum.Ticks += res.Stats.Ticks
		sum.Invalid += res.Stats.Skipped
		for o, n := range res.Stats.Outcomes {
			sum.Outcomes[o] += n
			r.cfg.Metrics.ObserveOutcomes(sample.Name(), o.String(), n)
		}
	}

	r.log.Info("backtest finished",
		append(logger.LogWithTrace(ctx),
			"files", sum.Files,
			"ok", sum.OK,
			"failed", sum.Failed,
			"skipped", sum.Skipped,
			"ticks", sum.Ticks,
			"invalid_lines", sum.Invalid,
		)...,
	)
	return sum, nil
}

// processFile replays one input file into its output file with a fresh
// analyzer and strategy.
func (r *Runner) processFile(ctx context.Context, name string) FileResult {
	start := time.Now()
	res := FileResult{Input: name, Output: r.OutputPath(name)}
	attrs := logger.LogWithTrace(ctx)

	r.log.Info("file started", append(attrs, "file", name)...)

	res.Stats, res.Err = r.replayFile(ctx, name, res.Output)
	res.Duration = time.Since(start)

	if res.Err != nil {
		r.log.Error("file failed", append(attrs,
			"file", name,
			"error", res.Err,
			"ticks", res.Stats.Ticks,
		)...)
		return res
	}

	r.log.Info("file finished", append(attrs,
		"file", name,
		"ticks", res.Stats.Ticks,
		"skipped_lines", res.Stats.Skipped,
		"successes", res.Stats.Successes(),
		"failures", res.Stats.Failures(),
		"duration_ms", res.Duration.Milliseconds(),
	)...)
	return res
}

func (r *Runner) replayFile(ctx context.Context, name, output string) (replay.Stats, error) {
	in, err := feed.Open(filepath.Join(r.cfg.InputDir, name))
	if err != nil {
		return replay.Stats{}, err
	}
	defer in.Close()
	in.WithLogger(r.log.With(logger.LogWithTrace(ctx)...))

	out, err := sink.Create(output)
	if err != nil {
		return replay.Stats{}, err
	}

	source := analyzer.New(r.cfg.Analyzer)
	strat, err := newStrategy(r.cfg, source)
	if err != nil {
		out.Close()
		return replay.Stats{}, err
	}

	stats, err := replay.Run(ctx, in, source, strat, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return stats, err
}

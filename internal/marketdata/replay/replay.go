// Package replay drives one tick series through an indicator source and a
// scoring strategy, writing every scored tick to a sink.
package replay

import (
	"context"
	"fmt"
	"log/slog"

	"crossover-backtester/internal/logger"
	"crossover-backtester/internal/model"
	"crossover-backtester/internal/strategy"
)

// TickSource yields ticks in order. *feed.File implements it.
type TickSource interface {
	Next() (model.Tick, bool)
	Err() error
	Skipped() int
}

// RecordSink receives one record per tick. *sink.Writer implements it.
type RecordSink interface {
	Write(rec model.Record) error
}

// Stats summarises one replayed series.
type Stats struct {
	Ticks    int
	Skipped  int
	Outcomes map[model.Outcome]int
}

// Successes returns the number of success outcomes.
func (s Stats) Successes() int { return s.Outcomes[model.OutcomeSuccess] }

// Failures returns the number of failure outcomes.
func (s Stats) Failures() int { return s.Outcomes[model.OutcomeFailure] }

// Run replays ticks from src until it is exhausted. Each tick is annotated,
// scored and written before the next one is read. A sink or read error stops
// the replay; the stats cover the ticks written so far.
//
// ctx only carries the trace ID for logging. A series is always replayed to
// the end so its output is complete.
func Run(ctx context.Context, src TickSource, source model.IndicatorSource, strat strategy.Strategy, out RecordSink) (Stats, error) {
	stats := Stats{Outcomes: make(map[model.Outcome]int, 3)}

	for {
		tick, ok := src.Next()
		if !ok {
			break
		}
		snap := source.Annotate(tick.Price)
		rec := strat.Step(tick, snap)
		if err := out.Write(rec); err != nil {
			stats.Skipped = src.Skipped()
			return stats, fmt.Errorf("tick %d: %w", tick.Index, err)
		}
		stats.Ticks++
		stats.Outcomes[rec.Outcome]++
	}
	stats.Skipped = src.Skipped()

	if err := src.Err(); err != nil {
		return stats, err
	}

	slog.Debug("replay complete",
		append(logger.LogWithTrace(ctx),
			"strategy", strat.Name(),
			"ticks", stats.Ticks,
			"skipped", stats.Skipped,
		)...,
	)
	return stats, nil
}

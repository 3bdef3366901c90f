package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	goredis "github.com/go-redis/redis/v8"

	"crossover-backtester/internal/model"
)

const writeBatch = 500

var (
	_ model.PriceReader = (*Reader)(nil)
	_ model.PriceWriter = (*Writer)(nil)
)

// Writer appends price points to their series streams.
type Writer struct {
	client *goredis.Client
	prefix string
}

// NewWriter creates a new Redis Writer and pings the server.
func NewWriter(cfg Config) (*Writer, error) {
	client, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("redis writer connected", "addr", cfg.Addr, "prefix", cfg.prefix())
	return &Writer{client: client, prefix: cfg.prefix()}, nil
}

// WritePricePoints appends points with pipelined XADDs, writeBatch per round trip.
func (w *Writer) WritePricePoints(ctx context.Context, points []model.PricePoint) error {
	for start := 0; start < len(points); start += writeBatch {
		end := min(start+writeBatch, len(points))

		pipe := w.client.Pipeline()
		for _, p := range points[start:end] {
			pipe.XAdd(ctx, &goredis.XAddArgs{
				Stream: StreamKey(w.prefix, p.Market, p.Symbol),
				Values: map[string]interface{}{
					"price": strconv.FormatFloat(p.Price, 'f', -1, 64),
					"ts":    strconv.FormatInt(p.TS.UnixMilli(), 10),
				},
			})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis xadd batch: %w", err)
		}
	}
	return nil
}

// Close closes the Redis connection.
func (w *Writer) Close() error {
	return w.client.Close()
}

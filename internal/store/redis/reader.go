// Package redis stores recorded price series in Redis Streams, one stream
// per (market, symbol): "<prefix>:<market>:<symbol>" with fields "price" and
// "ts" (unix milliseconds).
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"crossover-backtester/internal/model"
)

const (
	// DefaultKeyPrefix is the stream key prefix used when none is configured.
	DefaultKeyPrefix = "prices"

	scanCount  = 200
	xrangePage = 1000
)

// Config configures the Redis connection.
type Config struct {
	Addr      string // Redis address, e.g. "localhost:6379"
	Password  string
	DB        int
	KeyPrefix string
}

func (c Config) prefix() string {
	if c.KeyPrefix == "" {
		return DefaultKeyPrefix
	}
	return c.KeyPrefix
}

// StreamKey returns the stream key of one series.
func StreamKey(prefix, market, symbol string) string {
	return prefix + ":" + market + ":" + symbol
}

// parseKey splits a stream key into market and symbol.
// Symbols may contain ':'; markets may not.
func parseKey(prefix, key string) (market, symbol string, ok bool) {
	rest, found := strings.CutPrefix(key, prefix+":")
	if !found {
		return "", "", false
	}
	market, symbol, found = strings.Cut(rest, ":")
	if !found || market == "" || symbol == "" {
		return "", "", false
	}
	return market, symbol, true
}

// Reader loads every recorded series from Redis.
type Reader struct {
	client *goredis.Client
	prefix string
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg Config) (*Reader, error) {
	client, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("redis reader connected", "addr", cfg.Addr, "prefix", cfg.prefix())
	return &Reader{client: client, prefix: cfg.prefix()}, nil
}

func dial(cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Ping checks the connection.
func (r *Reader) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ReadPriceMarketData discovers series streams with SCAN and reads each
// one in full with XRANGE. Entries without a parsable price are skipped.
func (r *Reader) ReadPriceMarketData(ctx context.Context) (model.MarketData, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	md := make(model.MarketData)
	for _, key := range keys {
		market, symbol, ok := parseKey(r.prefix, key)
		if !ok {
			slog.Warn("skipping unrecognised stream key", "key", key)
			continue
		}
		if err := r.readStream(ctx, key, market, symbol, md); err != nil {
			return nil, err
		}
	}
	// Stream IDs follow insertion order, which need not match TS.
	md.SortByTime()
	return md, nil
}

func (r *Reader) scanKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	seen := make(map[string]struct{})
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			// SCAN may return a key more than once.
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

func (r *Reader) readStream(ctx context.Context, key, market, symbol string, md model.MarketData) error {
	start := "-"
	for {
		msgs, err := r.client.XRangeN(ctx, key, start, "+", xrangePage).Result()
		if err != nil {
			return fmt.Errorf("redis xrange %s: %w", key, err)
		}
		for _, msg := range msgs {
			p, ok := decodeMessage(msg)
			if !ok {
				slog.Warn("skipping malformed price entry", "key", key, "id", msg.ID)
				continue
			}
			p.Market, p.Symbol = market, symbol
			md.Add(p)
		}
		if len(msgs) < xrangePage {
			return nil
		}
		start = "(" + msgs[len(msgs)-1].ID
	}
}

// decodeMessage reads price and ts from a stream entry. A missing ts falls
// back to the entry ID's millisecond part.
func decodeMessage(msg goredis.XMessage) (model.PricePoint, bool) {
	raw, ok := msg.Values["price"].(string)
	if !ok {
		return model.PricePoint{}, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.PricePoint{}, false
	}

	tsRaw, _ := msg.Values["ts"].(string)
	if tsRaw == "" {
		tsRaw, _, _ = strings.Cut(msg.ID, "-")
	}
	ms, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return model.PricePoint{}, false
	}
	return model.PricePoint{TS: time.UnixMilli(ms).UTC(), Price: price}, true
}

// Close closes the Redis connection.
func (r *Reader) Close() error {
	return r.client.Close()
}

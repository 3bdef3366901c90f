// Package postgres reads and writes recorded price series in PostgreSQL over
// a pgx connection pool, table price_points(market, symbol, ts, price).
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crossover-backtester/internal/model"
)

const writeBatch = 500

var (
	_ model.PriceReader = (*Store)(nil)
	_ model.PriceWriter = (*Store)(nil)
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolConfig is sized for one batch download per run.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          4,
		MinConns:          0,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// Store is a price store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, pings the server and ensures the schema exists.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	if poolCfg.MaxConns < 1 {
		poolCfg.MaxConns = 1
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("postgres store connected", "host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		create table if not exists price_points (
			market text not null,
			symbol text not null,
			ts     timestamptz not null,
			price  double precision not null,
			primary key (market, symbol, ts)
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ReadPriceMarketData returns every stored series, each ordered by ts.
func (s *Store) ReadPriceMarketData(ctx context.Context) (model.MarketData, error) {
	rows, err := s.pool.Query(ctx, `
		select market, symbol, ts, price
		from price_points
		order by market, symbol, ts asc
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres query price_points: %w", err)
	}
	defer rows.Close()

	md := make(model.MarketData)
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Market, &p.Symbol, &p.TS, &p.Price); err != nil {
			return nil, fmt.Errorf("postgres scan price_points: %w", err)
		}
		p.TS = p.TS.UTC()
		md.Add(p)
	}
	return md, rows.Err()
}

// WritePricePoints upserts points, writeBatch statements per round trip.
func (s *Store) WritePricePoints(ctx context.Context, points []model.PricePoint) error {
	for start := 0; start < len(points); start += writeBatch {
		end := min(start+writeBatch, len(points))

		batch := &pgx.Batch{}
		for _, p := range points[start:end] {
			batch.Queue(`
				insert into price_points (market, symbol, ts, price)
				values ($1, $2, $3, $4)
				on conflict (market, symbol, ts) do update set price = excluded.price
			`, p.Market, p.Symbol, p.TS, p.Price)
		}
		if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("postgres insert batch: %w", err)
		}
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Package sqlite persists recorded price series in a local SQLite file,
// table price_points(market, symbol, ts, price) with ts in unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"crossover-backtester/internal/model"
)

const defaultBatchSize = 500

var (
	_ model.PriceReader = (*Store)(nil)
	_ model.PriceWriter = (*Store)(nil)
)

// Store reads and writes price points.
type Store struct {
	db *sql.DB
}

// OpenExisting opens a database that must already exist. Reading from a
// path that was never recorded to is a configuration error, not an empty store.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("sqlite open: database %s does not exist", path)
		}
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	return Open(path)
}

// Open opens (creating if needed) the database at path with WAL mode and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite store opened", "path", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_points (
			market TEXT    NOT NULL,
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			price  REAL    NOT NULL,
			PRIMARY KEY (market, symbol, ts)
		);
	`)
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReadPriceMarketData returns every stored series, each ordered by ts.
func (s *Store) ReadPriceMarketData(ctx context.Context) (model.MarketData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market, symbol, ts, price
		FROM price_points
		ORDER BY market, symbol, ts ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query price_points: %w", err)
	}
	defer rows.Close()

	md := make(model.MarketData)
	for rows.Next() {
		var (
			p    model.PricePoint
			tsMs int64
		)
		if err := rows.Scan(&p.Market, &p.Symbol, &tsMs, &p.Price); err != nil {
			return nil, fmt.Errorf("sqlite scan price_points: %w", err)
		}
		p.TS = time.UnixMilli(tsMs).UTC()
		md.Add(p)
	}
	return md, rows.Err()
}

// WritePricePoints upserts points in transactions of defaultBatchSize rows.
func (s *Store) WritePricePoints(ctx context.Context, points []model.PricePoint) error {
	for start := 0; start < len(points); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(points))
		if err := s.insertBatch(ctx, points[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertBatch(ctx context.Context, points []model.PricePoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO price_points (market, symbol, ts, price)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Market, p.Symbol, p.TS.UnixMilli(), p.Price); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert %s:%s: %w", p.Market, p.Symbol, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

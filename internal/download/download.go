// Package download writes recorded price series from a remote store into
// tick files the backtest runner can replay.
package download

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"crossover-backtester/internal/logger"
	"crossover-backtester/internal/metrics"
	"crossover-backtester/internal/model"
)

// TimestampLayout formats the local download time in file names (yymmdd-HHMMSS).
const TimestampLayout = "060102-150405"

// Fetcher downloads every series of Reader into Dir.
type Fetcher struct {
	Reader  model.PriceReader
	Dir     string
	Now     func() time.Time // defaults to time.Now
	Metrics *metrics.Metrics
}

// Fetch writes one file per (market, symbol) series and returns the written
// paths in market, then symbol, order. Every file of one call shares the same
// timestamp; a name already written in this call gets a "-<market>" suffix.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	md, err := f.Reader.ReadPriceMarketData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read market data: %w", err)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	stamp := now().Format(TimestampLayout)

	markets := make([]string, 0, len(md))
	for m := range md {
		markets = append(markets, m)
	}
	sort.Strings(markets)

	used := make(map[string]bool)
	var written []string
	for _, market := range markets {
		symbols := make([]string, 0, len(md[market]))
		for s := range md[market] {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)

		for _, symbol := range symbols {
			points := md[market][symbol]
			if len(points) == 0 {
				continue
			}
			name := fileName(used, market, symbol, stamp)

			path := filepath.Join(f.Dir, name+".txt")
			if err := writeSeries(path, points); err != nil {
				return written, err
			}
			written = append(written, path)
			slog.Info("downloaded series",
				append(logger.LogWithTrace(ctx),
					"market", market,
					"symbol", symbol,
					"points", len(points),
					"file", path,
				)...,
			)
		}
	}

	if len(written) == 0 {
		slog.Warn("store holds no price series, nothing downloaded",
			append(logger.LogWithTrace(ctx), "dir", f.Dir)...)
	}
	f.Metrics.ObserveDownload(len(written))
	return written, nil
}

// fileName returns a name not yet in used and records it. A name taken by an
// earlier series gets a "-<market>" suffix, then a counter.
func fileName(used map[string]bool, market, symbol, stamp string) string {
	base := sanitize(symbol) + "-" + stamp
	name := base
	if used[name] {
		name = base + "-" + sanitize(market)
	}
	for n := 2; used[name]; n++ {
		name = base + "-" + sanitize(market) + "-" + strconv.Itoa(n)
	}
	used[name] = true
	return name
}

func writeSeries(path string, points []model.PricePoint) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(file)
	buf := make([]byte, 0, 32)
	for _, p := range points {
		buf = strconv.AppendFloat(buf[:0], p.Price, 'f', -1, 64)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// sanitize keeps names usable as file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, s)
}

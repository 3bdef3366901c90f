package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crossover-backtester/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prices.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteThenRead(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

	// Written out of order; reads come back ordered by ts.
	points := []model.PricePoint{
		{Market: "NSE", Symbol: "INFY", TS: base.Add(2 * time.Second), Price: 1502},
		{Market: "NSE", Symbol: "INFY", TS: base, Price: 1500},
		{Market: "NSE", Symbol: "INFY", TS: base.Add(time.Second), Price: 1501.25},
		{Market: "NSE", Symbol: "TCS", TS: base, Price: 3900},
		{Market: "BSE", Symbol: "INFY", TS: base, Price: 1499.5},
	}
	if err := s.WritePricePoints(ctx, points); err != nil {
		t.Fatalf("write: %v", err)
	}

	md, err := s.ReadPriceMarketData(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if md.SeriesCount() != 3 {
		t.Fatalf("series = %d, want 3", md.SeriesCount())
	}

	infy := md["NSE"]["INFY"]
	want := []float64{1500, 1501.25, 1502}
	if len(infy) != len(want) {
		t.Fatalf("NSE/INFY has %d points, want %d", len(infy), len(want))
	}
	for i, p := range want {
		if infy[i].Price != p {
			t.Errorf("point %d price = %v, want %v", i, infy[i].Price, p)
		}
		if infy[i].Market != "NSE" || infy[i].Symbol != "INFY" {
			t.Errorf("point %d labelled %s/%s", i, infy[i].Market, infy[i].Symbol)
		}
	}
	if !infy[0].TS.Equal(base) {
		t.Errorf("ts = %v, want %v", infy[0].TS, base)
	}
}

func TestWrite_ReplacesSameTimestamp(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	ts := time.UnixMilli(1700000000000).UTC()

	for _, price := range []float64{10, 11} {
		if err := s.WritePricePoints(ctx, []model.PricePoint{{Market: "M", Symbol: "S", TS: ts, Price: price}}); err != nil {
			t.Fatal(err)
		}
	}
	md, err := s.ReadPriceMarketData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := md["M"]["S"]; len(got) != 1 || got[0].Price != 11 {
		t.Fatalf("series = %+v, want single point at 11", got)
	}
}

func TestOpenExisting_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := OpenExisting(path); err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("OpenExisting created %s (stat err = %v)", path, err)
	}
}

func TestOpenExisting_ReadsRecordedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.db")
	w, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ts := time.UnixMilli(1700000000000).UTC()
	if err := w.WritePricePoints(context.Background(), []model.PricePoint{{Market: "M", Symbol: "S", TS: ts, Price: 7}}); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := OpenExisting(path)
	if err != nil {
		t.Fatalf("open existing: %v", err)
	}
	defer r.Close()
	md, err := r.ReadPriceMarketData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := md["M"]["S"]; len(got) != 1 || got[0].Price != 7 {
		t.Fatalf("series = %+v, want single point at 7", got)
	}
}

func TestRead_Empty(t *testing.T) {
	md, err := openTemp(t).ReadPriceMarketData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if md.SeriesCount() != 0 {
		t.Fatalf("series = %d, want 0", md.SeriesCount())
	}
}

package feed

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crossover-backtester/internal/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func drain(t *testing.T, f *File) []model.Tick {
	t.Helper()
	var ticks []model.Tick
	for {
		tick, ok := f.Next()
		if !ok {
			break
		}
		ticks = append(ticks, tick)
	}
	if err := f.Err(); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	return ticks
}

func TestNext_SequentialIndices(t *testing.T) {
	f, err := Open(writeFile(t, "1.5\n2.25\n3\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got := drain(t, f)
	want := []model.Tick{{Index: 0, Price: 1.5}, {Index: 1, Price: 2.25}, {Index: 2, Price: 3}}
	if len(got) != len(want) {
		t.Fatalf("got %d ticks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNext_SkipsInvalidWithoutShiftingIndices(t *testing.T) {
	var logs bytes.Buffer
	f, err := Open(writeFile(t, "100\nabc\n\n  101.5  \r\nNaN\n+Inf\n102\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil)))

	got := drain(t, f)
	prices := []float64{100, 101.5, 102}
	if len(got) != len(prices) {
		t.Fatalf("got %d ticks, want %d: %+v", len(got), len(prices), got)
	}
	for i, p := range prices {
		if got[i].Index != i || got[i].Price != p {
			t.Errorf("tick %d = %+v, want index %d price %v", i, got[i], i, p)
		}
	}
	if f.Skipped() != 3 {
		t.Errorf("skipped = %d, want 3 (blank lines are not counted)", f.Skipped())
	}
	if !strings.Contains(logs.String(), `"line":2`) {
		t.Errorf("warning should name line 2, logs: %s", logs.String())
	}
}

func TestNext_SkipsOverlongLine(t *testing.T) {
	var logs bytes.Buffer
	content := "100\n" + strings.Repeat("x", 70*1024) + "\n101\n102"
	f, err := Open(writeFile(t, content))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil)))

	got := drain(t, f)
	want := []model.Tick{{Index: 0, Price: 100}, {Index: 1, Price: 101}, {Index: 2, Price: 102}}
	if len(got) != len(want) {
		t.Fatalf("got %d ticks, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if f.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", f.Skipped())
	}
	if !strings.Contains(logs.String(), "skipping overlong line") || !strings.Contains(logs.String(), `"line":2`) {
		t.Errorf("expected overlong warning for line 2, logs: %s", logs.String())
	}
}

func TestNext_LineAtLimitIsParsed(t *testing.T) {
	padded := strings.Repeat(" ", maxLineLen-len("42\n")) + "42\n"
	f, err := Open(writeFile(t, padded+"43\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	got := drain(t, f)
	if len(got) != 2 || got[0].Price != 42 || got[1].Price != 43 {
		t.Fatalf("got %+v, want prices 42 and 43", got)
	}
	if f.Skipped() != 0 {
		t.Errorf("skipped = %d, want 0", f.Skipped())
	}
}

func TestNext_EmptyFile(t *testing.T) {
	f, err := Open(writeFile(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if ticks := drain(t, f); len(ticks) != 0 {
		t.Fatalf("expected no ticks, got %v", ticks)
	}
}

func TestReset(t *testing.T) {
	f, err := Open(writeFile(t, "1\nx\n2\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	first := drain(t, f)
	if err := f.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if f.Skipped() != 0 {
		t.Errorf("skipped not cleared by reset: %d", f.Skipped())
	}
	second := drain(t, f)
	if len(first) != 2 || len(second) != 2 || first[0] != second[0] || first[1] != second[1] {
		t.Fatalf("reset did not replay the same ticks: %v vs %v", first, second)
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

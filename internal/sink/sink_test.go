package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"crossover-backtester/internal/model"
)

func record(index int, values ...float64) model.Record {
	fields := make([]model.Field, len(values))
	for i, v := range values {
		fields[i] = model.Field{Value: v}
	}
	return model.Record{Tick: model.Tick{Index: index}, Fields: fields}
}

func TestWrite_Format(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	if err := s.Write(record(0, 100.25, 0.5, 1.3, 0.0005)); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(record(1, 99, 1, 1.5, 1e-9)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	want := "100.25, 0.5, 1.3, 0.0005\n99, 1, 1.5, 1e-09\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
	if s.Lines() != 2 {
		t.Errorf("lines = %d, want 2", s.Lines())
	}
}

func TestCreate_TruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "EURUSD.out")
	if err := os.WriteFile(path, []byte("stale content\nmore\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(record(0, 1.1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1.1\n" {
		t.Fatalf("file = %q, want %q", got, "1.1\n")
	}
}

func TestCreate_Unwritable(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be opened as an output file.
	if _, err := Create(dir); err == nil {
		t.Fatal("expected error creating output over a directory")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestClose_ReportsFlushError(t *testing.T) {
	s := New(failingWriter{})
	if err := s.Write(record(0, 1)); err != nil {
		t.Fatalf("buffered write should not fail yet: %v", err)
	}
	if err := s.Close(); err == nil {
		t.Fatal("expected flush error on close")
	}
}

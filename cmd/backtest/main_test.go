package main

import (
	"os"
	"path/filepath"
	"testing"

	"crossover-backtester/config"
)

func TestParseFlags_ShortAndLongForms(t *testing.T) {
	tests := []struct {
		args []string
		want flags
	}{
		{[]string{"-x"}, flags{execute: true}},
		{[]string{"--execute", "--remote"}, flags{execute: true, remote: true}},
		{[]string{"-r", "-i", "in", "-o", "out"}, flags{remote: true, input: "in", output: "out"}},
		{[]string{"--input=in", "--output=out", "-workers", "3"}, flags{input: "in", output: "out", workers: 3}},
	}
	for _, tt := range tests {
		got, _, err := parseFlags(tt.args)
		if err != nil {
			t.Fatalf("parseFlags(%v): %v", tt.args, err)
		}
		if *got != tt.want {
			t.Errorf("parseFlags(%v) = %+v, want %+v", tt.args, *got, tt.want)
		}
	}
}

func TestFlagsApply(t *testing.T) {
	cfg := config.Default()
	f := &flags{input: "ticks", workers: 2, strategy: "crossover_rise"}
	f.apply(cfg)

	if cfg.InputDir != "ticks" || cfg.OutputDir != "output_files" {
		t.Errorf("dirs = %s, %s", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.Workers != 2 || cfg.Strategy != "crossover_rise" {
		t.Errorf("workers = %d strategy = %s", cfg.Workers, cfg.Strategy)
	}
}

func TestRun_NothingToDo(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

// clearStoreEnv blanks the variables config.Load reads; empty values are ignored.
func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORE_KIND", "REDIS_ADDR", "SQLITE_PATH", "POSTGRES_DSN", "DATABASE_URL", "WORKERS", "METRICS_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestRun_ExecuteIgnoresStoreConfig(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("STORE_KIND", "postgres")
	t.Setenv("LOG_LEVEL", "error")

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	if code := run([]string{"-x", "-i", in, "-o", out}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}
}

func TestRun_RemoteChecksStoreConfig(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("STORE_KIND", "postgres")
	t.Setenv("LOG_LEVEL", "error")

	if code := run([]string{"-r", "-i", t.TempDir()}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRun_RemoteMissingSQLiteFails(t *testing.T) {
	clearStoreEnv(t)
	db := filepath.Join(t.TempDir(), "does-not-exist.db")
	t.Setenv("STORE_KIND", "sqlite")
	t.Setenv("SQLITE_PATH", db)
	t.Setenv("LOG_LEVEL", "error")

	if code := run([]string{"-r", "-i", t.TempDir()}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Fatalf("download created %s (stat err = %v)", db, err)
	}
}

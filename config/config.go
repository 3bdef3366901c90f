// Package config loads the backtester configuration: built-in defaults,
// then an optional YAML file, then environment overrides (a local .env file
// is loaded into the environment first).
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crossover-backtester/internal/analyzer"
	"crossover-backtester/internal/logger"
	"crossover-backtester/internal/strategy"
)

// Store kinds.
const (
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	InputDir    string `yaml:"input_dir"`
	OutputDir   string `yaml:"output_dir"`
	Workers     int    `yaml:"workers"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the metrics server

	Strategy string          `yaml:"strategy"`
	Scoring  strategy.Params `yaml:"scoring"`
	Analyzer analyzer.Config `yaml:"analyzer"`

	Store Store `yaml:"store"`
}

// Store selects and configures the remote price store used by downloads.
type Store struct {
	Kind     string   `yaml:"kind"`
	Redis    Redis    `yaml:"redis"`
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
}

// Redis configures the Redis Streams store.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SQLite configures the local SQLite store.
type SQLite struct {
	Path string `yaml:"path"`
}

// Postgres configures the PostgreSQL store.
type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		InputDir:  "input_files",
		OutputDir: "output_files",
		Workers:   1,
		LogLevel:  "info",
		Strategy:  string(strategy.KindCrossoverTarget),
		Scoring:   strategy.DefaultParams(),
		Analyzer:  analyzer.DefaultConfig(),
		Store: Store{
			Kind: StoreRedis,
			Redis: Redis{
				Addr:      "localhost:6379",
				KeyPrefix: "prices",
			},
			SQLite:   SQLite{Path: "data/prices.db"},
			Postgres: Postgres{MaxConns: 4},
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
// envFiles default to ".env"; missing env files are ignored, and variables
// already set in the environment win over them.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Kind, "STORE_KIND")
	setString(&c.Store.Redis.Addr, "REDIS_ADDR")
	setString(&c.Store.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Store.Redis.KeyPrefix, "REDIS_KEY_PREFIX")
	setString(&c.Store.SQLite.Path, "SQLITE_PATH")
	setString(&c.Store.Postgres.DSN, "DATABASE_URL")
	setString(&c.Store.Postgres.DSN, "POSTGRES_DSN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.MetricsAddr, "METRICS_ADDR")

	if err := setInt(&c.Store.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	return setInt(&c.Workers, "WORKERS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error

	if c.InputDir == "" {
		errs = append(errs, errors.New("input_dir is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := strategy.ParseKind(c.Strategy); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateStore checks the store section. Only the download step reads the
// store, so a backtest-only run does not need it.
func (c *Config) ValidateStore() error {
	var errs []error

	switch c.Store.Kind {
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is empty"))
		}
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("store.sqlite.path is empty"))
		}
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn is empty (set POSTGRES_DSN)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q (want redis, sqlite or postgres)", c.Store.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid store config: %w", errors.Join(errs...))
	}
	return nil
}

// StrategyKind returns the parsed strategy kind. Call after Validate.
func (c *Config) StrategyKind() strategy.Kind {
	k, _ := strategy.ParseKind(c.Strategy)
	return k
}

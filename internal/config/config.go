package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	Environment string
	// ExportDSN, when set, selects the persistence sink for the run report
	// and final snapshots: a sqlite file path (optionally prefixed with
	// sqlite:) or a postgres:// URL.
	ExportDSN string
	// HTTPAddr, when set, keeps the process alive after the replay and
	// serves the read-only reporting API on this address.
	HTTPAddr string
	// Shards is the number of replay workers. Transactions are partitioned
	// by client id, so any value >= 1 yields the same final ledger.
	Shards int
}

// Load loads configuration from environment variables. Everything is
// optional for a plain replay; the defaults give a serial, in-memory run.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getenv("APP_ENV", "development"),
		ExportDSN:   os.Getenv("CLEARBOOK_EXPORT_DSN"),
		HTTPAddr:    os.Getenv("CLEARBOOK_HTTP_ADDR"),
		Shards:      1,
	}

	if raw := os.Getenv("CLEARBOOK_SHARDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CLEARBOOK_SHARDS %q: %w", raw, err)
		}
		cfg.Shards = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	var problems []string

	if c.Shards < 1 {
		problems = append(problems, "CLEARBOOK_SHARDS must be >= 1")
	}
	if c.ExportDSN != "" && !validDSN(c.ExportDSN) {
		problems = append(problems, "CLEARBOOK_EXPORT_DSN must be a sqlite file path or a postgres:// URL")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func validDSN(dsn string) bool {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return true
	}
	// Anything else is treated as a sqlite path; reject only obvious
	// scheme typos.
	return !strings.Contains(dsn, "://") || strings.HasPrefix(dsn, "sqlite://")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package export persists run results. The engine itself is purely
// in-memory; export is a one-shot output adapter writing the run report,
// the final snapshots, and the outcome journal to a database at the end
// of a replay.
package export

import (
	"context"
	"strings"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

// Store persists the result of one replay run.
type Store interface {
	SaveRun(ctx context.Context, report engine.Report, snapshots []ledger.AccountSnapshot, journal []*audit.Entry) error
	Close() error
}

// Open selects a store by DSN: postgres:// (or postgresql://) URLs open a
// PostgreSQL store, anything else is treated as a sqlite file path. An
// optional sqlite: prefix is stripped.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite:")
	return OpenSQLite(ctx, path)
}

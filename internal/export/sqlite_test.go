package export

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

func TestSQLiteStore_SaveRun(t *testing.T) {
	ctx := context.Background()

	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	chain := audit.NewChain()
	chain.Append("accepted tx=1 client=1 kind=deposit")
	chain.Append("rejected tx=2 client=1 kind=withdrawal reason=insufficient_funds")

	rep := engine.Report{
		RunID:      "run-1",
		Processed:  2,
		Accepted:   1,
		Rejected:   1,
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	}
	snaps := []ledger.AccountSnapshot{
		{
			Client:    1,
			Available: decimal.RequireFromString("1.0"),
			Held:      decimal.Zero,
			Total:     decimal.RequireFromString("1.0"),
			Locked:    false,
		},
	}

	require.NoError(t, store.SaveRun(ctx, rep, snaps, chain.Entries()))

	var processed int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT processed FROM runs WHERE id = ?`, "run-1").Scan(&processed))
	assert.Equal(t, 2, processed)

	var available string
	var locked bool
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT available, locked FROM account_snapshots WHERE run_id = ? AND client = ?`,
		"run-1", 1).Scan(&available, &locked))
	got, err := decimal.NewFromString(available)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1.0")))
	assert.False(t, locked)

	var journalRows int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outcome_journal WHERE run_id = ?`, "run-1").Scan(&journalRows))
	assert.Equal(t, 2, journalRows)

	// Same run id twice must fail, not silently duplicate.
	assert.Error(t, store.SaveRun(ctx, rep, snaps, nil))
}

func TestOpen_RoutesByDSN(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, store)
	store.Close()
}

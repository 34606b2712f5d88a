package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

// SQLiteStore writes run results to a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			processed   INTEGER NOT NULL,
			accepted    INTEGER NOT NULL,
			rejected    INTEGER NOT NULL,
			malformed   INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS account_snapshots (
			run_id    TEXT NOT NULL REFERENCES runs(id),
			client    INTEGER NOT NULL,
			available TEXT NOT NULL,
			held      TEXT NOT NULL,
			total     TEXT NOT NULL,
			locked    INTEGER NOT NULL,
			PRIMARY KEY (run_id, client)
		);
		CREATE TABLE IF NOT EXISTS outcome_journal (
			run_id    TEXT NOT NULL REFERENCES runs(id),
			seq       INTEGER NOT NULL,
			entry_id  TEXT NOT NULL,
			ts        TEXT NOT NULL,
			prev_hash TEXT NOT NULL,
			hash      TEXT NOT NULL,
			payload   TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveRun stores the report, snapshots and journal in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, report engine.Report, snapshots []ledger.AccountSnapshot, journal []*audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, processed, accepted, rejected, malformed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Processed, report.Accepted, report.Rejected, report.Malformed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, snap := range snapshots {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO account_snapshots (run_id, client, available, held, total, locked)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, uint64(snap.Client),
			snap.Available.String(), snap.Held.String(), snap.Total.String(), snap.Locked)
		if err != nil {
			return fmt.Errorf("inserting snapshot for client %s: %w", snap.Client, err)
		}
	}

	for _, entry := range journal {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outcome_journal (run_id, seq, entry_id, ts, prev_hash, hash, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, entry.Seq, entry.ID, entry.Timestamp,
			entry.PreviousHash, entry.Hash, entry.Payload)
		if err != nil {
			return fmt.Errorf("inserting journal entry %d: %w", entry.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

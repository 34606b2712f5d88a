package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

// PostgresStore writes run results to a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at dsn and ensures the schema
// exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			processed   BIGINT NOT NULL,
			accepted    BIGINT NOT NULL,
			rejected    BIGINT NOT NULL,
			malformed   BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS account_snapshots (
			run_id    TEXT NOT NULL REFERENCES runs(id),
			client    INTEGER NOT NULL,
			available NUMERIC NOT NULL,
			held      NUMERIC NOT NULL,
			total     NUMERIC NOT NULL,
			locked    BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, client)
		);
		CREATE TABLE IF NOT EXISTS outcome_journal (
			run_id    TEXT NOT NULL REFERENCES runs(id),
			seq       BIGINT NOT NULL,
			entry_id  TEXT NOT NULL,
			ts        TEXT NOT NULL,
			prev_hash TEXT NOT NULL,
			hash      TEXT NOT NULL,
			payload   TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveRun stores the report, snapshots and journal in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, report engine.Report, snapshots []ledger.AccountSnapshot, journal []*audit.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, started_at, finished_at, processed, accepted, rejected, malformed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.RunID, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Processed, report.Accepted, report.Rejected, report.Malformed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, snap := range snapshots {
		_, err = tx.Exec(ctx,
			`INSERT INTO account_snapshots (run_id, client, available, held, total, locked)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			report.RunID, uint64(snap.Client),
			snap.Available, snap.Held, snap.Total, snap.Locked)
		if err != nil {
			return fmt.Errorf("inserting snapshot for client %s: %w", snap.Client, err)
		}
	}

	for _, entry := range journal {
		_, err = tx.Exec(ctx,
			`INSERT INTO outcome_journal (run_id, seq, entry_id, ts, prev_hash, hash, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			report.RunID, entry.Seq, entry.ID, entry.Timestamp,
			entry.PreviousHash, entry.Hash, entry.Payload)
		if err != nil {
			return fmt.Errorf("inserting journal entry %d: %w", entry.Seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

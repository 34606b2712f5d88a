package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

// Report aggregates run-level outcomes. Rejections are business outcomes,
// not failures: the run completes regardless.
type Report struct {
	RunID      string         `json:"run_id"`
	Processed  int            `json:"processed"`
	Accepted   int            `json:"accepted"`
	Rejected   int            `json:"rejected"`
	Malformed  int            `json:"malformed"`
	ByReason   map[string]int `json:"by_reason"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func newReport() Report {
	return Report{
		RunID:     uuid.New().String(),
		ByReason:  make(map[string]int),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) merge(other Report) {
	r.Processed += other.Processed
	r.Accepted += other.Accepted
	r.Rejected += other.Rejected
	r.Malformed += other.Malformed
	for reason, n := range other.ByReason {
		r.ByReason[reason] += n
	}
}

// Engine consumes a transaction stream in arrival order, routes each
// transaction to the addressed client's account, and aggregates run-level
// outcomes. The skip-and-continue policy is fixed: a logically invalid
// transaction never halts settlement for other clients.
type Engine struct {
	ledger *ledger.Ledger
	logger *slog.Logger
	chain  *audit.Chain
}

// New creates an engine over the given ledger. Logger and chain may be
// nil, in which case logging is discarded and no journal is kept.
func New(led *ledger.Ledger, logger *slog.Logger, chain *audit.Chain) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{ledger: led, logger: logger, chain: chain}
}

// Ledger returns the engine's account registry.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Process routes one transaction to its client's account. The returned
// error is the rejection reason, already recorded; callers following the
// default policy simply ignore it.
func (e *Engine) Process(tx ledger.Transaction) error {
	err := e.ledger.GetOrCreate(tx.Client()).AppendTx(tx)
	e.record(tx, err)
	return err
}

func (e *Engine) record(tx ledger.Transaction, err error) {
	if err == nil {
		if e.chain != nil {
			e.chain.Appendf("accepted tx=%s client=%s kind=%s", tx.ID(), tx.Client(), tx.Kind())
		}
		return
	}

	if e.chain != nil {
		e.chain.Appendf("rejected tx=%s client=%s kind=%s reason=%s",
			tx.ID(), tx.Client(), tx.Kind(), reasonLabel(err))
	}
	e.logger.Warn("transaction rejected",
		"tx", tx.ID().String(),
		"client", tx.Client().String(),
		"kind", string(tx.Kind()),
		"reason", reasonLabel(err),
	)
}

// Run drains the source until io.EOF or context cancellation, applying the
// skip-and-continue policy to rejections and malformed rows.
func (e *Engine) Run(ctx context.Context, src TransactionSource) (Report, error) {
	report := newReport()

	for {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, err
		}

		tx, err := src.Next()
		switch {
		case errors.Is(err, io.EOF):
			report.FinishedAt = time.Now().UTC()
			e.logger.Info("run complete",
				"run_id", report.RunID,
				"processed", report.Processed,
				"accepted", report.Accepted,
				"rejected", report.Rejected,
				"malformed", report.Malformed,
				"accounts", e.ledger.Len(),
			)
			return report, nil

		case err != nil:
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				report.Malformed++
				e.logger.Warn("skipping malformed record", "error", rowErr.Error())
				continue
			}
			report.FinishedAt = time.Now().UTC()
			return report, err
		}

		report.Processed++
		if err := e.Process(tx); err != nil {
			report.Rejected++
			report.ByReason[reasonLabel(err)]++
		} else {
			report.Accepted++
		}
	}
}

// reasonLabel maps a rejection to a stable label for reports and journals.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrUnknownReference):
		return "unknown_reference"
	case errors.Is(err, ledger.ErrNotDisputable):
		return "not_disputable"
	case errors.Is(err, ledger.ErrInvalidDisputeState):
		return "invalid_dispute_state"
	case errors.Is(err, ledger.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return "duplicate_transaction"
	default:
		return "other"
	}
}

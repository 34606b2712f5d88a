package engine

import (
	"fmt"
	"io"

	"github.com/example/clearbook/internal/ledger"
)

// TransactionSource yields parsed transactions in arrival order. The
// engine depends on this interface, not on a concrete decoder.
//
//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go TransactionSource
type TransactionSource interface {
	// Next returns the next transaction in the stream. It returns io.EOF
	// when the stream is exhausted. A *RowError marks one malformed record
	// the engine counts and skips; any other error aborts the run.
	Next() (ledger.Transaction, error)
}

// RowError marks a single malformed input record. A run never aborts on a
// RowError: the engine counts it and moves on.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// SliceSource replays a fixed slice of transactions. Used by tests and by
// callers that already hold the full stream in memory.
type SliceSource struct {
	txs []ledger.Transaction
	pos int
}

// NewSliceSource creates a source over the given transactions.
func NewSliceSource(txs []ledger.Transaction) *SliceSource {
	return &SliceSource{txs: txs}
}

func (s *SliceSource) Next() (ledger.Transaction, error) {
	if s.pos >= len(s.txs) {
		return ledger.Transaction{}, io.EOF
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}

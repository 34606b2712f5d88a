// Package ingestion maps raw CSV records onto strongly-typed transactions.
// It is a collaborator of the core engine: all state-dependent logic lives
// behind it, and a row that fails here never reaches an account.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
)

// expected header of an input file: type,client,tx,amount
const fieldCount = 4

// Reader streams transactions out of a CSV document one row at a time,
// without materializing the whole file.
type Reader struct {
	csv    *csv.Reader
	line   int
	header bool
}

// NewReader wraps an input stream. The first row must be the header.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Dispute rows legitimately leave the amount column empty or drop it.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr}
}

// Next yields the next transaction. Malformed rows come back as an
// *engine.RowError so the caller can count and skip them; io.EOF ends the
// stream.
func (r *Reader) Next() (ledger.Transaction, error) {
	if !r.header {
		r.header = true
		r.line++
		if _, err := r.csv.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return ledger.Transaction{}, io.EOF
			}
			return ledger.Transaction{}, fmt.Errorf("reading header: %w", err)
		}
	}

	r.line++
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return ledger.Transaction{}, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return ledger.Transaction{}, &engine.RowError{Line: r.line, Err: err}
		}
		return ledger.Transaction{}, err
	}

	tx, err := parseRecord(record)
	if err != nil {
		return ledger.Transaction{}, &engine.RowError{Line: r.line, Err: err}
	}
	return tx, nil
}

func parseRecord(record []string) (ledger.Transaction, error) {
	if len(record) < fieldCount-1 || len(record) > fieldCount {
		return ledger.Transaction{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(record))
	}

	for i, f := range record {
		record[i] = strings.TrimSpace(f)
	}

	kind, err := ledger.ParseKind(record[0])
	if err != nil {
		return ledger.Transaction{}, err
	}

	client, err := ledger.ParseClientID(record[1])
	if err != nil {
		return ledger.Transaction{}, err
	}

	id, err := ledger.ParseTxID(record[2])
	if err != nil {
		return ledger.Transaction{}, err
	}

	var amount *decimal.Decimal
	if len(record) == fieldCount && record[3] != "" {
		d, err := decimal.NewFromString(record[3])
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("invalid amount %q: %w", record[3], err)
		}
		amount = &d
	}

	return ledger.New(id, client, kind, amount)
}

// Package report formats final account snapshots for output.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/example/clearbook/internal/ledger"
)

// WriteCSV renders account snapshots as CSV with the header
// client,available,held,total,locked. Amounts are rendered with four
// fractional digits so output is byte-stable across runs.
func WriteCSV(w io.Writer, snapshots []ledger.AccountSnapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, s := range snapshots {
		row := []string{
			s.Client.String(),
			s.Available.StringFixed(ledger.AmountPrecision),
			s.Held.StringFixed(ledger.AmountPrecision),
			s.Total.StringFixed(ledger.AmountPrecision),
			strconv.FormatBool(s.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for client %s: %w", s.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/clearbook/internal/ledger"
)

// RunSharded drains the source with n workers, partitioning transactions
// by client id so each account is mutated by exactly one worker. Causal
// order per client is preserved because a client's transactions all land
// on the same shard, in arrival order. With one shard it degenerates to
// the serial Run.
//
// The final ledger state is identical to a serial run over the same input;
// only the interleaving of journal entries across clients differs.
func (e *Engine) RunSharded(ctx context.Context, src TransactionSource, shards int) (Report, error) {
	if shards <= 1 {
		return e.Run(ctx, src)
	}

	report := newReport()

	chans := make([]chan ledger.Transaction, shards)
	for i := range chans {
		chans[i] = make(chan ledger.Transaction, 64)
	}

	partials := make([]Report, shards)
	var malformed int

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < shards; i++ {
		g.Go(func() error {
			local := Report{ByReason: make(map[string]int)}
			for tx := range chans[i] {
				local.Processed++
				if err := e.Process(tx); err != nil {
					local.Rejected++
					local.ByReason[reasonLabel(err)]++
				} else {
					local.Accepted++
				}
			}
			partials[i] = local
			return nil
		})
	}

	g.Go(func() error {
		// Closing the shard channels releases the workers, on success and
		// on abort alike.
		defer func() {
			for _, ch := range chans {
				close(ch)
			}
		}()

		for {
			tx, err := src.Next()
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case err != nil:
				var rowErr *RowError
				if errors.As(err, &rowErr) {
					malformed++
					e.logger.Warn("skipping malformed record", "error", rowErr.Error())
					continue
				}
				return err
			}

			select {
			case chans[int(tx.Client())%shards] <- tx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	err := g.Wait()

	for _, p := range partials {
		report.merge(p)
	}
	report.Malformed += malformed
	report.FinishedAt = time.Now().UTC()

	if err != nil {
		return report, err
	}

	e.logger.Info("run complete",
		"run_id", report.RunID,
		"shards", shards,
		"processed", report.Processed,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"malformed", report.Malformed,
		"accounts", e.ledger.Len(),
	)
	return report, nil
}

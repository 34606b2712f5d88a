package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/engine/mocks"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/pkg/audit"
)

func deposit(t *testing.T, id ledger.TxID, client ledger.ClientID, amount string) ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewDeposit(id, client, decimal.RequireFromString(amount))
	require.NoError(t, err)
	return tx
}

func withdrawal(t *testing.T, id ledger.TxID, client ledger.ClientID, amount string) ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewWithdrawal(id, client, decimal.RequireFromString(amount))
	require.NoError(t, err)
	return tx
}

func TestEngine_Run_SkipAndContinue(t *testing.T) {
	chain := audit.NewChain()
	eng := engine.New(ledger.NewLedger(), nil, chain)

	src := engine.NewSliceSource([]ledger.Transaction{
		deposit(t, 1, 1, "1.0"),
		withdrawal(t, 2, 1, "5.0"),       // insufficient funds
		ledger.NewDispute(99, 1),         // unknown reference
		withdrawal(t, 3, 1, "0.5"),       // fine
		deposit(t, 4, 2, "2.0"),          // second client
		ledger.NewDispute(4, 2),          // fine
		ledger.NewChargeback(4, 2),       // locks client 2
		deposit(t, 5, 2, "1.0"),          // rejected, account locked
	})

	report, err := eng.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 8, report.Processed)
	assert.Equal(t, 5, report.Accepted)
	assert.Equal(t, 3, report.Rejected)
	assert.Equal(t, 0, report.Malformed)
	assert.Equal(t, 1, report.ByReason["insufficient_funds"])
	assert.Equal(t, 1, report.ByReason["unknown_reference"])
	assert.Equal(t, 1, report.ByReason["account_locked"])
	assert.NotEmpty(t, report.RunID)

	snaps := eng.Ledger().SnapshotAll()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Available.Equal(decimal.RequireFromString("0.5")))
	assert.False(t, snaps[0].Locked)
	assert.True(t, snaps[1].Total.IsZero())
	assert.True(t, snaps[1].Locked)

	// One journal entry per processed transaction, chain intact.
	assert.Equal(t, 8, chain.Len())
	assert.True(t, chain.Verify())
}

func TestEngine_Run_MalformedRowsAreCounted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockTransactionSource(ctrl)
	gomock.InOrder(
		src.EXPECT().Next().Return(deposit(t, 1, 1, "1.0"), nil),
		src.EXPECT().Next().Return(ledger.Transaction{}, &engine.RowError{Line: 3, Err: errors.New("bad amount")}),
		src.EXPECT().Next().Return(deposit(t, 2, 1, "2.0"), nil),
		src.EXPECT().Next().Return(ledger.Transaction{}, io.EOF),
	)

	eng := engine.New(ledger.NewLedger(), nil, nil)
	report, err := eng.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 1, report.Malformed)
}

func TestEngine_Run_SourceFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("stream torn down")
	src := mocks.NewMockTransactionSource(ctrl)
	gomock.InOrder(
		src.EXPECT().Next().Return(deposit(t, 1, 1, "1.0"), nil),
		src.EXPECT().Next().Return(ledger.Transaction{}, boom),
	)

	eng := engine.New(ledger.NewLedger(), nil, nil)
	report, err := eng.Run(context.Background(), src)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, report.Processed)
}

func TestEngine_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := engine.New(ledger.NewLedger(), nil, nil)
	_, err := eng.Run(ctx, engine.NewSliceSource(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Process_ReturnsRejection(t *testing.T) {
	eng := engine.New(ledger.NewLedger(), nil, nil)

	require.NoError(t, eng.Process(deposit(t, 1, 1, "1")))
	err := eng.Process(withdrawal(t, 2, 1, "9"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

// shardedStream builds a stream across many clients where each client's
// own transactions are causally ordered.
func shardedStream(t *testing.T) []ledger.Transaction {
	t.Helper()
	var txs []ledger.Transaction
	var next ledger.TxID = 1

	for client := ledger.ClientID(1); client <= 40; client++ {
		first := next
		txs = append(txs, deposit(t, next, client, "100"))
		next++
		txs = append(txs, withdrawal(t, next, client, "30"))
		next++
		txs = append(txs, ledger.NewDispute(first, client))
		if client%3 == 0 {
			txs = append(txs, ledger.NewChargeback(first, client))
		} else if client%3 == 1 {
			txs = append(txs, ledger.NewResolve(first, client))
		}
		txs = append(txs, deposit(t, next, client, fmt.Sprintf("%d.25", client)))
		next++
	}
	return txs
}

func TestEngine_RunSharded_MatchesSerial(t *testing.T) {
	stream := shardedStream(t)

	serial := engine.New(ledger.NewLedger(), nil, nil)
	serialReport, err := serial.Run(context.Background(), engine.NewSliceSource(stream))
	require.NoError(t, err)

	sharded := engine.New(ledger.NewLedger(), nil, audit.NewChain())
	shardedReport, err := sharded.RunSharded(context.Background(), engine.NewSliceSource(stream), 8)
	require.NoError(t, err)

	assert.Equal(t, serialReport.Processed, shardedReport.Processed)
	assert.Equal(t, serialReport.Accepted, shardedReport.Accepted)
	assert.Equal(t, serialReport.Rejected, shardedReport.Rejected)
	assert.Equal(t, serialReport.ByReason, shardedReport.ByReason)

	want := serial.Ledger().SnapshotAll()
	got := sharded.Ledger().SnapshotAll()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Client, got[i].Client)
		assert.True(t, want[i].Available.Equal(got[i].Available), "client %s available", want[i].Client)
		assert.True(t, want[i].Held.Equal(got[i].Held), "client %s held", want[i].Client)
		assert.Equal(t, want[i].Locked, got[i].Locked)
	}
}

func TestEngine_RunSharded_SingleShardFallsBack(t *testing.T) {
	eng := engine.New(ledger.NewLedger(), nil, nil)
	report, err := eng.RunSharded(context.Background(), engine.NewSliceSource([]ledger.Transaction{
		deposit(t, 1, 1, "1"),
	}), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accepted)
}

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// diff is the effect a single transaction has on an account: a signed
// balance delta, an optional lock signal, and the log update to perform.
// Isolating every transaction rule in calculateDiff keeps AppendTx a dumb
// applier and makes the behavior inspectable in one place.
type diff struct {
	available decimal.Decimal
	held      decimal.Decimal
	lock      bool

	// appendEntry is set for deposits and withdrawals, which create a new
	// log entry. Dispute kinds instead move the referenced entry through
	// its dispute lifecycle in place.
	appendEntry bool
	refIndex    int
	refState    DisputeState
}

// calculateDiff owns all transaction behaviors and rules. It is pure:
// identical inputs always produce the identical outcome, and the account
// is only read, never written.
func calculateDiff(a *Account, tx Transaction) (diff, error) {
	switch tx.Kind() {
	case KindDeposit:
		amount, _ := tx.Amount()
		if _, exists := a.index[tx.ID()]; exists {
			return diff{}, ErrDuplicateTransaction
		}
		return diff{available: amount, appendEntry: true}, nil

	case KindWithdrawal:
		amount, _ := tx.Amount()
		if _, exists := a.index[tx.ID()]; exists {
			return diff{}, ErrDuplicateTransaction
		}
		if a.snapshot.Available.LessThan(amount) {
			return diff{}, ErrInsufficientFunds
		}
		return diff{available: amount.Neg(), appendEntry: true}, nil

	case KindDispute:
		idx, entry, err := a.reference(tx.ID())
		if err != nil {
			return diff{}, err
		}
		if entry.Tx.Kind() != KindDeposit {
			return diff{}, ErrNotDisputable
		}
		if !entry.State.CanTransition(DisputeDisputed) {
			return diff{}, ErrInvalidDisputeState
		}
		// The full deposited amount moves to held even if that drives
		// available negative; later deposits must make up the shortfall.
		amount, _ := entry.Tx.Amount()
		return diff{
			available: amount.Neg(),
			held:      amount,
			refIndex:  idx,
			refState:  DisputeDisputed,
		}, nil

	case KindResolve:
		idx, entry, err := a.reference(tx.ID())
		if err != nil {
			return diff{}, err
		}
		if !entry.State.CanTransition(DisputeResolved) {
			return diff{}, ErrInvalidDisputeState
		}
		amount, _ := entry.Tx.Amount()
		return diff{
			available: amount,
			held:      amount.Neg(),
			refIndex:  idx,
			refState:  DisputeResolved,
		}, nil

	case KindChargeback:
		idx, entry, err := a.reference(tx.ID())
		if err != nil {
			return diff{}, err
		}
		if !entry.State.CanTransition(DisputeChargedBack) {
			return diff{}, ErrInvalidDisputeState
		}
		// Held funds leave the system entirely; nothing returns to
		// available and the account locks.
		amount, _ := entry.Tx.Amount()
		return diff{
			held:     amount.Neg(),
			lock:     true,
			refIndex: idx,
			refState: DisputeChargedBack,
		}, nil

	default:
		// Unreachable for transactions built through the constructors.
		return diff{}, fmt.Errorf("unhandled transaction kind %q", tx.Kind())
	}
}

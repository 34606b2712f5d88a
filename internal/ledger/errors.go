package ledger

import "errors"

// Rejection reasons. Every rejection is local to a single transaction: it
// never corrupts the account snapshot and never aborts a run.
var (
	// ErrInsufficientFunds rejects a withdrawal larger than the available
	// balance.
	ErrInsufficientFunds = errors.New("not enough available balance to withdraw")

	// ErrUnknownReference rejects a dispute, resolve or chargeback citing a
	// transaction id that is not in the client's log.
	ErrUnknownReference = errors.New("referenced transaction not found in account log")

	// ErrNotDisputable rejects a dispute citing a non-deposit entry.
	// Withdrawals cannot be disputed in this model.
	ErrNotDisputable = errors.New("referenced transaction is not a disputable deposit")

	// ErrInvalidDisputeState rejects a dispute citing an entry that is not
	// clean, or a resolve/chargeback citing an entry that is not disputed.
	ErrInvalidDisputeState = errors.New("referenced transaction is not in the required dispute state")

	// ErrAccountLocked rejects any transaction, deposits included, arriving
	// after the account has been locked by a chargeback.
	ErrAccountLocked = errors.New("account is locked")

	// ErrDuplicateTransaction rejects a deposit or withdrawal whose id is
	// already present in the account log.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
)

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Snapshot is the derived balance view of an account. Total is never
// stored: it is always Available + Held, computed on demand.
type Snapshot struct {
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// Total returns the client's full balance.
func (s Snapshot) Total() decimal.Decimal {
	return s.Available.Add(s.Held)
}

// LoggedTransaction is an accepted deposit or withdrawal together with its
// dispute lifecycle state.
type LoggedTransaction struct {
	Tx    Transaction
	State DisputeState
}

// Account owns one client's transaction log and its balance snapshot.
//
// The log is append-only and is the source of truth; the snapshot is a
// cache maintained incrementally by AppendTx, the only function permitted
// to mutate either. Mutations must be serialized per account by the
// caller; the ledger hands each account to exactly one worker at a time.
type Account struct {
	id       ClientID
	log      []LoggedTransaction
	index    map[TxID]int
	snapshot Snapshot
}

// NewAccount creates an empty, unlocked account.
func NewAccount(id ClientID) *Account {
	return &Account{
		id:    id,
		index: make(map[TxID]int),
	}
}

// AppendTx calculates the transaction's effect and applies it atomically:
// either the log entry (or in-place dispute state update) and the balance
// delta both land, or the account is left byte-for-byte unchanged and the
// rejection reason is returned.
func (a *Account) AppendTx(tx Transaction) error {
	if a.snapshot.Locked {
		return ErrAccountLocked
	}

	d, err := calculateDiff(a, tx)
	if err != nil {
		return err
	}

	if d.appendEntry {
		a.index[tx.ID()] = len(a.log)
		a.log = append(a.log, LoggedTransaction{Tx: tx, State: DisputeClean})
	} else {
		a.log[d.refIndex].State = d.refState
	}

	a.snapshot.Available = a.snapshot.Available.Add(d.available)
	a.snapshot.Held = a.snapshot.Held.Add(d.held)
	if d.lock {
		a.snapshot.Locked = true
	}

	return nil
}

// reference resolves a dispute-kind target in the account's log.
func (a *Account) reference(id TxID) (int, LoggedTransaction, error) {
	idx, ok := a.index[id]
	if !ok {
		return 0, LoggedTransaction{}, ErrUnknownReference
	}
	return idx, a.log[idx], nil
}

// ID returns the owning client's id.
func (a *Account) ID() ClientID { return a.id }

// Snapshot returns a copy of the current balance snapshot.
func (a *Account) Snapshot() Snapshot { return a.snapshot }

// Log returns a copy of the account's transaction log, in append order.
func (a *Account) Log() []LoggedTransaction {
	out := make([]LoggedTransaction, len(a.log))
	copy(out, a.log)
	return out
}

// Replay recomputes a snapshot from the log alone. It is a consistency
// check for the incrementally maintained snapshot, not a hot-path
// operation: each entry contributes according to its final dispute state.
func (a *Account) Replay() Snapshot {
	var s Snapshot
	for _, entry := range a.log {
		amount, _ := entry.Tx.Amount()

		if entry.Tx.Kind() == KindWithdrawal {
			s.Available = s.Available.Sub(amount)
			continue
		}

		switch entry.State {
		case DisputeClean, DisputeResolved:
			s.Available = s.Available.Add(amount)
		case DisputeDisputed:
			s.Held = s.Held.Add(amount)
		case DisputeChargedBack:
			s.Locked = true
		}
	}
	return s
}

// CheckConsistency verifies that the cached snapshot matches a full replay
// of the log.
func (a *Account) CheckConsistency() error {
	replayed := a.Replay()
	if !replayed.Available.Equal(a.snapshot.Available) ||
		!replayed.Held.Equal(a.snapshot.Held) ||
		replayed.Locked != a.snapshot.Locked {
		return fmt.Errorf("client %s: snapshot diverged from log replay (cached %s/%s/%t, replayed %s/%s/%t)",
			a.id,
			a.snapshot.Available, a.snapshot.Held, a.snapshot.Locked,
			replayed.Available, replayed.Held, replayed.Locked)
	}
	return nil
}

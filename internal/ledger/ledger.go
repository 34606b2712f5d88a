package ledger

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger is the registry of all client accounts for a run. Accounts are
// created lazily on first reference and never removed; a locked account
// stays present, simply rejecting everything.
//
// The mutex only guards the map itself: create-if-absent must be atomic
// under concurrent first touch. Per-account mutation order is the caller's
// responsibility (one logical owner per account at a time).
type Ledger struct {
	mu       sync.Mutex
	accounts map[ClientID]*Account
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[ClientID]*Account)}
}

// GetOrCreate returns the client's account, creating a fresh zero-balance
// unlocked one on first access.
func (l *Ledger) GetOrCreate(id ClientID) *Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		a = NewAccount(id)
		l.accounts[id] = a
	}
	return a
}

// Get returns the client's account if it exists.
func (l *Ledger) Get(id ClientID) (*Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	return a, ok
}

// Len returns the number of accounts in the registry.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.accounts)
}

// AccountSnapshot is one row of the final report.
type AccountSnapshot struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// SnapshotAll returns every account's snapshot sorted by client id
// ascending, so output is reproducible regardless of arrival order.
func (l *Ledger) SnapshotAll() []AccountSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AccountSnapshot, 0, len(l.accounts))
	for id, a := range l.accounts {
		s := a.Snapshot()
		out = append(out, AccountSnapshot{
			Client:    id,
			Available: s.Available,
			Held:      s.Held,
			Total:     s.Total(),
			Locked:    s.Locked,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

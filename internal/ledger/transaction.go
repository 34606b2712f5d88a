package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of transaction kinds accepted by the engine.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind maps a raw textual field onto a Kind.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", raw)
	}
}

// movesFunds reports whether the kind carries its own amount. Dispute,
// resolve and chargeback instead reference a prior transaction by id.
func (k Kind) movesFunds() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// AmountPrecision is the maximum number of fractional digits an amount
// may carry. Values with more precision are rejected at construction.
const AmountPrecision = 4

// Transaction is one immutable record from the input stream.
//
// For dispute, resolve and chargeback records the ID field does not name a
// new transaction: it points at the prior deposit being disputed.
type Transaction struct {
	id     TxID
	client ClientID
	kind   Kind
	amount decimal.Decimal
}

// New builds a validated Transaction. The amount must be present exactly
// when the kind is a deposit or withdrawal, non-negative, and within
// AmountPrecision fractional digits.
func New(id TxID, client ClientID, kind Kind, amount *decimal.Decimal) (Transaction, error) {
	tx := Transaction{id: id, client: client, kind: kind}

	if !kind.movesFunds() {
		if amount != nil {
			return Transaction{}, fmt.Errorf("%s must not carry an amount", kind)
		}
		return tx, nil
	}

	if amount == nil {
		return Transaction{}, fmt.Errorf("%s requires an amount", kind)
	}
	if amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%s amount must not be negative, got %s", kind, amount)
	}
	if !amount.Equal(amount.Truncate(AmountPrecision)) {
		return Transaction{}, fmt.Errorf("%s amount %s exceeds %d decimal places", kind, amount, AmountPrecision)
	}

	tx.amount = *amount
	return tx, nil
}

// NewDeposit is a convenience constructor for deposits.
func NewDeposit(id TxID, client ClientID, amount decimal.Decimal) (Transaction, error) {
	return New(id, client, KindDeposit, &amount)
}

// NewWithdrawal is a convenience constructor for withdrawals.
func NewWithdrawal(id TxID, client ClientID, amount decimal.Decimal) (Transaction, error) {
	return New(id, client, KindWithdrawal, &amount)
}

// NewDispute builds a dispute referencing a prior transaction.
func NewDispute(ref TxID, client ClientID) Transaction {
	return Transaction{id: ref, client: client, kind: KindDispute}
}

// NewResolve builds a resolve referencing a prior transaction.
func NewResolve(ref TxID, client ClientID) Transaction {
	return Transaction{id: ref, client: client, kind: KindResolve}
}

// NewChargeback builds a chargeback referencing a prior transaction.
func NewChargeback(ref TxID, client ClientID) Transaction {
	return Transaction{id: ref, client: client, kind: KindChargeback}
}

// ID returns the transaction id, or the referenced id for dispute kinds.
func (t Transaction) ID() TxID { return t.id }

// Client returns the addressed client.
func (t Transaction) Client() ClientID { return t.client }

// Kind returns the transaction kind.
func (t Transaction) Kind() Kind { return t.kind }

// Amount returns the amount and whether one is present for this kind.
func (t Transaction) Amount() (decimal.Decimal, bool) {
	if !t.kind.movesFunds() {
		return decimal.Decimal{}, false
	}
	return t.amount, true
}

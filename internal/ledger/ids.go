package ledger

import (
	"fmt"
	"strconv"
)

// ClientID identifies a client account. The upstream wire format is an
// unsigned 16-bit integer; values outside that range are rejected at parse
// time so a ClientID in hand is always valid.
type ClientID uint16

// TxID identifies a transaction. IDs are unique across the whole input
// stream, not per client; per-account uniqueness of accepted entries is
// enforced at append time.
type TxID uint32

// ParseClientID converts a raw textual field into a validated ClientID.
func ParseClientID(raw string) (ClientID, error) {
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid client id %q: %w", raw, err)
	}
	return ClientID(v), nil
}

// ParseTxID converts a raw textual field into a validated TxID.
func ParseTxID(raw string) (TxID, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid transaction id %q: %w", raw, err)
	}
	return TxID(v), nil
}

func (c ClientID) String() string { return strconv.FormatUint(uint64(c), 10) }

func (t TxID) String() string { return strconv.FormatUint(uint64(t), 10) }

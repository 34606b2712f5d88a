package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a single tamper-evident journal record. Each entry links to its
// predecessor by hash, so editing or dropping any processed outcome breaks
// the chain.
type Entry struct {
	ID           string `json:"id"`
	Seq          int    `json:"seq"`
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Payload      string `json:"payload"`
	Hash         string `json:"hash"`
}

// Chain is a hash-chained journal of per-transaction outcomes. A run
// appends one entry per processed record, accepted or rejected, and the
// full chain can be verified or exported afterwards.
type Chain struct {
	mu      sync.Mutex
	prev    string
	entries []*Entry
}

// NewChain creates an empty chain anchored at a zero hash.
func NewChain() *Chain {
	return &Chain{prev: strings.Repeat("0", 64)}
}

// Append adds a new journal entry for the given payload.
func (c *Chain) Append(payload string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{
		ID:           uuid.New().String(),
		Seq:          len(c.entries),
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		PreviousHash: c.prev,
		Payload:      payload,
	}
	entry.Hash = entryHash(entry)

	c.prev = entry.Hash
	c.entries = append(c.entries, entry)
	return entry
}

// Appendf formats a payload and appends it.
func (c *Chain) Appendf(format string, args ...any) *Entry {
	return c.Append(fmt.Sprintf(format, args...))
}

// Len returns the number of journal entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the journal in append order.
func (c *Chain) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Verify checks the whole chain's integrity.
func (c *Chain) Verify() bool {
	return VerifyEntries(c.Entries())
}

// VerifyEntries checks that a slice of entries forms a valid hash chain.
func VerifyEntries(entries []*Entry) bool {
	for i, entry := range entries {
		if i > 0 && entry.PreviousHash != entries[i-1].Hash {
			return false
		}
		if entryHash(entry) != entry.Hash {
			return false
		}
	}
	return true
}

func entryHash(e *Entry) string {
	input := fmt.Sprintf("%s|%d|%s|%s|%s", e.PreviousHash, e.Seq, e.ID, e.Timestamp, e.Payload)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

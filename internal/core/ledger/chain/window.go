// Package chain implements the blockchain and anti-replay window
// (component C7). The window's purge-then-throttle admission order is
// grounded in the original basic_service::approve/_transfer's
// purge_old_transactions-then-throttle_check sequence; the bounded
// lookup cache fronting it is adapted from the teacher's
// manager.LedgerCache (hashicorp/golang-lru), retargeted from caching
// whole ledgers to caching recent transaction hashes.
package chain

import (
	"container/list"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// DefaultMaxInWindow mirrors the original's MAX_IN_WINDOW constant.
const DefaultMaxInWindow = 3000

// WindowConfig tunes the anti-replay window.
type WindowConfig struct {
	// MaxInWindow caps how many transaction hashes the window retains
	// before throttling new admissions.
	MaxInWindow int

	// RetentionNanos is how long, from the ledger's own notion of
	// "now" at admission time, a transaction hash is remembered for
	// replay detection before it is eligible for purge.
	RetentionNanos uint64
}

// DefaultWindowConfig returns the spec's default tuning.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{MaxInWindow: DefaultMaxInWindow, RetentionNanos: uint64((24 * 60 * 60) * 1e9)}
}

type entry struct {
	hash [32]byte

	// admittedAt is the block's real append-time (the now passed to
	// Admit), not the caller-supplied created_at — purging ages
	// entries off the ledger's own clock, matching the original's
	// block_timestamp-based retention rather than a client-controlled
	// value.
	admittedAt uint64
}

// TxWindow tracks recently admitted transaction hashes to reject
// replays and to throttle admissions once MaxInWindow hashes are held,
// independent of the Blockchain's own storage. It does not check
// created_at; the façade's validateCreatedAt does.
type TxWindow struct {
	mu sync.Mutex

	cfg WindowConfig

	order *list.List // of *entry, oldest at Front
	seen  map[[32]byte]*list.Element

	lookup *lru.Cache[[32]byte, uint64] // bounded mirror of seen (hash -> admission time); Admit's duplicate check reads seen
}

// NewTxWindow creates an empty window.
func NewTxWindow(cfg WindowConfig) (*TxWindow, error) {
	if cfg.MaxInWindow <= 0 {
		cfg.MaxInWindow = DefaultMaxInWindow
	}
	lookup, err := lru.New[[32]byte, uint64](cfg.MaxInWindow)
	if err != nil {
		return nil, err
	}
	return &TxWindow{
		cfg:    cfg,
		order:  list.New(),
		seen:   make(map[[32]byte]*list.Element),
		lookup: lookup,
	}, nil
}

// Admit checks hash for replay/throttle violations and, if accepted,
// records it. now is the ledger's current time in nanoseconds.
//
// The check order: a hash already in the window is rejected as a
// duplicate before any purge; then expired entries are purged; only if
// purging freed no room do we apply the throttle (reject when still at
// MaxInWindow capacity).
func (w *TxWindow) Admit(hash [32]byte, createdAt, now uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[hash]; dup {
		return ledgererr.New(ledgererr.CodeDuplicateTransaction, "")
	}

	purged := w.purgeLocked(now)

	if purged == 0 && len(w.seen) >= w.cfg.MaxInWindow {
		return ledgererr.New(ledgererr.CodeWindowExpired, "transaction window is full")
	}

	e := &entry{hash: hash, admittedAt: now}
	elem := w.order.PushBack(e)
	w.seen[hash] = elem
	w.lookup.Add(hash, now)
	return nil
}

// purgeLocked removes every entry older than the retention window
// relative to now, returning how many were purged. Caller holds mu.
func (w *TxWindow) purgeLocked(now uint64) int {
	purged := 0
	for front := w.order.Front(); front != nil; {
		e := front.Value.(*entry)
		if now < e.admittedAt || now-e.admittedAt <= w.cfg.RetentionNanos {
			break
		}
		next := front.Next()
		w.order.Remove(front)
		delete(w.seen, e.hash)
		w.lookup.Remove(e.hash)
		purged++
		front = next
	}
	return purged
}

// Contains reports whether hash is currently tracked (used by tests).
func (w *TxWindow) Contains(hash [32]byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[hash]
	return ok
}

// Len returns the number of tracked hashes.
func (w *TxWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

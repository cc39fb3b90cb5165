// Package allowance implements the allowance book (component C5): a
// (owner, spender) -> amount map, grounded in the original dft_types
// Allowances = HashMap<TokenHolder, HashMap<TokenHolder, Nat>> and the
// balance book's mutex-guarded accessor shape.
package allowance

import (
	"sync"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Book holds every owner->spender allowance. Absent entries are an
// implicit allowance of zero.
type Book struct {
	mu  sync.RWMutex
	byOwner map[string]map[string]amount.Amount
}

// New creates an empty allowance book.
func New() *Book {
	return &Book{byOwner: make(map[string]map[string]amount.Amount)}
}

// Allowance returns the amount owner has allowed spender to transfer.
func (b *Book) Allowance(owner, spender identity.Holder) amount.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	spenders, ok := b.byOwner[owner.Key()]
	if !ok {
		return amount.Zero()
	}
	return spenders[spender.Key()]
}

// Size returns the total number of (owner, spender) pairs with a
// positive allowance, used by the façade's token_metrics diagnostic.
func (b *Book) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, spenders := range b.byOwner {
		n += len(spenders)
	}
	return n
}

// Credit increases owner's allowance to spender by value, creating
// the entry if absent. Crediting zero is a no-op, so no zero entry is
// ever created.
func (b *Book) Credit(owner, spender identity.Holder, value amount.Amount) {
	if value.IsZero() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	spenders, ok := b.byOwner[owner.Key()]
	if !ok {
		spenders = make(map[string]amount.Amount)
		b.byOwner[owner.Key()] = spenders
	}
	spenders[spender.Key()] = spenders[spender.Key()].Add(value)
}

// Set overwrites owner's allowance to spender with value; the façade's
// Approve and RestoreSnapshot use it (approve sets rather than
// increments). Setting zero removes the entry.
func (b *Book) Set(owner, spender identity.Holder, value amount.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	spenders, ok := b.byOwner[owner.Key()]
	if !ok {
		spenders = make(map[string]amount.Amount)
		b.byOwner[owner.Key()] = spenders
	}
	if value.IsZero() {
		delete(spenders, spender.Key())
		if len(spenders) == 0 {
			delete(b.byOwner, owner.Key())
		}
		return
	}
	spenders[spender.Key()] = value
}

// Debit decreases owner's allowance to spender by value, failing with
// CodeInsufficientAllowance if it would go negative.
func (b *Book) Debit(owner, spender identity.Holder, value amount.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	spenders, ok := b.byOwner[owner.Key()]
	if !ok {
		if value.IsZero() {
			return nil
		}
		return ledgererr.New(ledgererr.CodeInsufficientAllowance, "")
	}
	cur := spenders[spender.Key()]
	next, err := cur.Sub(value)
	if err != nil {
		return ledgererr.New(ledgererr.CodeInsufficientAllowance, "")
	}
	if next.IsZero() {
		delete(spenders, spender.Key())
		if len(spenders) == 0 {
			delete(b.byOwner, owner.Key())
		}
	} else {
		spenders[spender.Key()] = next
	}
	return nil
}

// HasAtLeast reports whether owner's allowance to spender is >= value.
func (b *Book) HasAtLeast(owner, spender identity.Holder, value amount.Amount) bool {
	return !b.Allowance(owner, spender).LessThan(value)
}

// SpenderAllowance pairs a spender with the amount owner has allowed
// them, returned by AllowancesOf.
type SpenderAllowance struct {
	Spender identity.Holder
	Amount  amount.Amount
}

// AllowancesOf returns every positive allowance owner has granted, for
// the façade's allowancesOf query.
func (b *Book) AllowancesOf(owner identity.Holder) []SpenderAllowance {
	b.mu.RLock()
	defer b.mu.RUnlock()
	spenders, ok := b.byOwner[owner.Key()]
	if !ok {
		return nil
	}
	out := make([]SpenderAllowance, 0, len(spenders))
	for k, v := range spenders {
		out = append(out, SpenderAllowance{Spender: decodeHolderKey(k), Amount: v})
	}
	return out
}

// ForEach iterates over every (owner, spender) pair with a positive
// allowance, used by the façade's Snapshot. The callback must not call
// back into the Book.
func (b *Book) ForEach(fn func(owner, spender identity.Holder, v amount.Amount)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ownerKey, spenders := range b.byOwner {
		owner := decodeHolderKey(ownerKey)
		for spenderKey, v := range spenders {
			fn(owner, decodeHolderKey(spenderKey), v)
		}
	}
}

func decodeHolderKey(k string) identity.Holder {
	if len(k) < 33 {
		return identity.Holder{}
	}
	sepIdx := len(k) - 33
	principal := identity.Principal(k[:sepIdx])
	var sub identity.SubAccount
	copy(sub[:], k[sepIdx+1:])
	return identity.NewHolder(principal, sub)
}

// Package balance implements the balance book (component C4): a
// holder-keyed map of non-negative amounts, grounded in the original
// dft_types Balances = HashMap<TokenHolder, Nat> and the teacher's
// mutex-guarded accessor style (internal/core/ledger/ledger.go's
// Reader/Writer split, retargeted from ledger entries to balances).
package balance

import (
	"sync"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Book holds every holder's balance. A holder absent from the map has
// an implicit balance of zero; Book never stores explicit zeros so
// that HolderCount reflects only holders with positive balance.
type Book struct {
	mu  sync.RWMutex
	bal map[string]amount.Amount
}

// New creates an empty balance book.
func New() *Book {
	return &Book{bal: make(map[string]amount.Amount)}
}

// BalanceOf returns the holder's current balance (zero if absent).
func (b *Book) BalanceOf(h identity.Holder) amount.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.bal[h.Key()]; ok {
		return v
	}
	return amount.Zero()
}

// HolderCount returns the number of holders with a positive balance.
func (b *Book) HolderCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.bal)
}

// TotalSupply sums every holder's balance.
func (b *Book) TotalSupply() amount.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := amount.Zero()
	for _, v := range b.bal {
		total = total.Add(v)
	}
	return total
}

// Credit adds value to the holder's balance. Crediting zero is a
// no-op so a holder that has never held a positive balance is never
// inserted into the map, matching allowance.Book.Set's zero-entry
// deletion and keeping HolderCount accurate.
func (b *Book) Credit(h identity.Holder, value amount.Amount) {
	if value.IsZero() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.bal[h.Key()]
	b.bal[h.Key()] = cur.Add(value)
}

// Debit subtracts value from the holder's balance, failing with
// CodeInsufficientBalance if the balance would go negative.
func (b *Book) Debit(h identity.Holder, value amount.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.bal[h.Key()]
	next, err := cur.Sub(value)
	if err != nil {
		return ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}
	if next.IsZero() {
		delete(b.bal, h.Key())
	} else {
		b.bal[h.Key()] = next
	}
	return nil
}

// HasAtLeast reports whether the holder's balance is >= value, without mutating.
func (b *Book) HasAtLeast(h identity.Holder, value amount.Amount) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cur := b.bal[h.Key()]
	return !cur.LessThan(value)
}

// ForEach iterates over every holder with a positive balance. The
// callback must not call back into the Book (the lock is held).
func (b *Book) ForEach(fn func(h identity.Holder, v amount.Amount)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for k, v := range b.bal {
		fn(decodeHolderKey(k), v)
	}
}

func decodeHolderKey(k string) identity.Holder {
	// Key() joins Principal and SubAccount with a literal "|", a byte
	// that may also occur inside either part, so splitting on it is
	// ambiguous; decode by trimming the fixed 32-byte suffix instead.
	if len(k) < 33 {
		return identity.Holder{}
	}
	sepIdx := len(k) - 33 // 32 bytes of sub-account + 1 separator byte
	principal := identity.Principal(k[:sepIdx])
	var sub identity.SubAccount
	copy(sub[:], k[sepIdx+1:])
	return identity.NewHolder(principal, sub)
}

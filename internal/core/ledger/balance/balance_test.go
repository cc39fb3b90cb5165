package balance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/balance"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

func holder(b byte) identity.Holder {
	return identity.NewDefaultHolder(identity.Principal{b})
}

func TestCreditDebitRoundTrip(t *testing.T) {
	book := balance.New()
	h := holder(0x01)

	book.Credit(h, amount.FromUint64(100))
	require.Equal(t, "100", book.BalanceOf(h).String())
	require.Equal(t, 1, book.HolderCount())

	require.NoError(t, book.Debit(h, amount.FromUint64(40)))
	require.Equal(t, "60", book.BalanceOf(h).String())
}

func TestDebitInsufficientBalance(t *testing.T) {
	book := balance.New()
	h := holder(0x02)
	book.Credit(h, amount.FromUint64(10))

	err := book.Debit(h, amount.FromUint64(20))
	require.Error(t, err)
	require.ErrorIs(t, err, ledgererr.New(ledgererr.CodeInsufficientBalance, ""))
}

// TestZeroBalanceNotStored checks spec.md's invariant that no entry
// with balance zero is ever retained: debiting a holder down to zero
// must remove it from HolderCount.
func TestZeroBalanceNotStored(t *testing.T) {
	book := balance.New()
	h := holder(0x03)
	book.Credit(h, amount.FromUint64(50))
	require.NoError(t, book.Debit(h, amount.FromUint64(50)))

	require.Equal(t, 0, book.HolderCount())
	require.True(t, book.BalanceOf(h).IsZero())
}

// TestCreditZeroDoesNotRetainHolder checks that crediting zero to a
// holder never seen before is a no-op, not an insertion of a
// zero-balance entry.
func TestCreditZeroDoesNotRetainHolder(t *testing.T) {
	book := balance.New()
	h := holder(0x09)

	book.Credit(h, amount.Zero())
	require.Equal(t, 0, book.HolderCount())
	require.True(t, book.BalanceOf(h).IsZero())
}

func TestHasAtLeast(t *testing.T) {
	book := balance.New()
	h := holder(0x04)
	book.Credit(h, amount.FromUint64(30))

	require.True(t, book.HasAtLeast(h, amount.FromUint64(30)))
	require.True(t, book.HasAtLeast(h, amount.FromUint64(10)))
	require.False(t, book.HasAtLeast(h, amount.FromUint64(31)))
}

func TestTotalSupplySumsHolders(t *testing.T) {
	book := balance.New()
	book.Credit(holder(0x05), amount.FromUint64(10))
	book.Credit(holder(0x06), amount.FromUint64(25))

	require.Equal(t, "35", book.TotalSupply().String())
}

func TestForEachVisitsEveryHolder(t *testing.T) {
	book := balance.New()
	h1, h2 := holder(0x07), holder(0x08)
	book.Credit(h1, amount.FromUint64(1))
	book.Credit(h2, amount.FromUint64(2))

	seen := map[string]string{}
	book.ForEach(func(h identity.Holder, v amount.Amount) {
		seen[h.Key()] = v.String()
	})

	require.Equal(t, "1", seen[h1.Key()])
	require.Equal(t, "2", seen[h2.Key()])
}

func TestForEachRoundTripsSubAccounts(t *testing.T) {
	book := balance.New()
	p := identity.Principal{0xAA}
	withSub := identity.NewHolder(p, identity.SubAccount{0x01})
	book.Credit(withSub, amount.FromUint64(7))

	var decoded identity.Holder
	book.ForEach(func(h identity.Holder, v amount.Amount) {
		decoded = h
	})
	require.Equal(t, withSub.Key(), decoded.Key())
}

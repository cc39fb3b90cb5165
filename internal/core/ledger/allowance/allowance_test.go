package allowance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/allowance"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

func holder(b byte) identity.Holder {
	return identity.NewDefaultHolder(identity.Principal{b})
}

func TestSetThenDebit(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x01), holder(0x02)

	book.Set(owner, spender, amount.FromUint64(100))
	require.Equal(t, "100", book.Allowance(owner, spender).String())
	require.Equal(t, 1, book.Size())

	require.NoError(t, book.Debit(owner, spender, amount.FromUint64(40)))
	require.Equal(t, "60", book.Allowance(owner, spender).String())
}

func TestSetToZeroRemovesEntry(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x03), holder(0x04)

	book.Set(owner, spender, amount.FromUint64(5))
	require.Equal(t, 1, book.Size())

	book.Set(owner, spender, amount.Zero())
	require.Equal(t, 0, book.Size())
	require.True(t, book.Allowance(owner, spender).IsZero())
}

func TestDebitDownToZeroRemovesEntry(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x05), holder(0x06)

	book.Credit(owner, spender, amount.FromUint64(10))
	require.NoError(t, book.Debit(owner, spender, amount.FromUint64(10)))

	require.Equal(t, 0, book.Size())
}

func TestDebitInsufficientAllowance(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x07), holder(0x08)
	book.Set(owner, spender, amount.FromUint64(5))

	err := book.Debit(owner, spender, amount.FromUint64(6))
	require.Error(t, err)
	require.ErrorIs(t, err, ledgererr.New(ledgererr.CodeInsufficientAllowance, ""))
}

func TestDebitZeroOnAbsentEntrySucceeds(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x09), holder(0x0A)

	require.NoError(t, book.Debit(owner, spender, amount.Zero()))
}

func TestCreditAccumulates(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x0B), holder(0x0C)

	book.Credit(owner, spender, amount.FromUint64(3))
	book.Credit(owner, spender, amount.FromUint64(4))
	require.Equal(t, "7", book.Allowance(owner, spender).String())
}

func TestHasAtLeast(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x0D), holder(0x0E)
	book.Set(owner, spender, amount.FromUint64(20))

	require.True(t, book.HasAtLeast(owner, spender, amount.FromUint64(20)))
	require.False(t, book.HasAtLeast(owner, spender, amount.FromUint64(21)))
}

func TestForEachRoundTripsOwnerAndSpender(t *testing.T) {
	book := allowance.New()
	owner, spender := holder(0x0F), holder(0x10)
	book.Set(owner, spender, amount.FromUint64(9))

	count := 0
	book.ForEach(func(o, s identity.Holder, v amount.Amount) {
		count++
		require.Equal(t, owner.Key(), o.Key())
		require.Equal(t, spender.Key(), s.Key())
		require.Equal(t, "9", v.String())
	})
	require.Equal(t, 1, count)
}

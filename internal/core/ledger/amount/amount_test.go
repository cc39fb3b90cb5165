package amount_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
)

func TestAddSub(t *testing.T) {
	a := amount.FromUint64(100)
	b := amount.FromUint64(40)

	sum := a.Add(b)
	require.Equal(t, "140", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, "60", diff.String())
}

func TestSubNegativeRejected(t *testing.T) {
	a := amount.FromUint64(10)
	b := amount.FromUint64(20)
	_, err := a.Sub(b)
	require.ErrorIs(t, err, amount.ErrNegative)
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := amount.FromString("not-a-number")
	require.Error(t, err)
}

func TestFromStringRejectsNegative(t *testing.T) {
	_, err := amount.FromString("-5")
	require.Error(t, err)
}

func TestMulRateBasisPointsFloors(t *testing.T) {
	v := amount.FromUint64(999)
	// rate 1, decimals 3 => 999 * 1 / 1000 = 0 (floors)
	got := v.MulRateBasisPoints(1, 3)
	require.True(t, got.IsZero())

	v2 := amount.FromUint64(100000)
	got2 := v2.MulRateBasisPoints(5, 8) // 100000*5/1e8 = 0.005 -> floors to 0
	require.True(t, got2.IsZero())

	v3 := amount.FromUint64(100000000000)
	got3 := v3.MulRateBasisPoints(5, 8) // 1e11*5/1e8 = 5000
	require.Equal(t, "5000", got3.String())
}

func TestTextMarshalRoundTrip(t *testing.T) {
	a := amount.FromUint64(12345)
	text, err := a.MarshalText()
	require.NoError(t, err)

	var back amount.Amount
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, 0, a.Cmp(back))
}

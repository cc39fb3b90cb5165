package fee_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/fee"
)

// TestFeeIdentity checks spec.md's fee law:
// calc_transfer_fee(v) == max(minimum, rate*v/10^rate_decimals).
func TestFeeIdentity(t *testing.T) {
	sched := fee.Schedule{Minimum: amount.FromUint64(1), Rate: 10, RateDecimals: 4} // 0.1%
	values := []uint64{1, 100000, 100000000}
	for _, v := range values {
		got := sched.CalcTransferFee(amount.FromUint64(v))
		rateFee := amount.FromUint64(v).MulRateBasisPoints(sched.Rate, sched.RateDecimals)
		want := sched.Minimum
		if rateFee.Cmp(sched.Minimum) > 0 {
			want = rateFee
		}
		require.Equal(t, want.String(), got.String(), "value=%d", v)
	}
}

// TestCalcApproveFeeIsFlatMinimum checks that the approve fee never
// picks up the rate component, unlike CalcTransferFee.
func TestCalcApproveFeeIsFlatMinimum(t *testing.T) {
	sched := fee.Schedule{Minimum: amount.FromUint64(1), Rate: 5, RateDecimals: 8}
	for _, v := range []uint64{0, 1, 1_000_000_000} {
		got := sched.CalcApproveFee(amount.FromUint64(v))
		require.Equal(t, sched.Minimum.String(), got.String(), "value=%d", v)
	}

	transferFee := sched.CalcTransferFee(amount.FromUint64(1_000_000_000))
	require.NotEqual(t, transferFee.String(), sched.CalcApproveFee(amount.FromUint64(1_000_000_000)).String())
}

func TestManagerSetScheduleValidates(t *testing.T) {
	m := fee.NewManager(fee.DefaultSchedule())
	bad := fee.Schedule{RateDecimals: 200}
	require.Error(t, m.SetSchedule(bad))
	require.Equal(t, fee.DefaultSchedule(), m.Current())

	good := fee.Schedule{Minimum: amount.FromUint64(2), Rate: 1, RateDecimals: 2}
	require.NoError(t, m.SetSchedule(good))
	require.Equal(t, "2", m.Current().Minimum.String())
}

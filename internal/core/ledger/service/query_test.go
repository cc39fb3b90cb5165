package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/config"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/fee"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/service"
)

// TestBlocksByQueryClampsToMaxBlocksPerRequest checks that a query
// spanning more than MaxBlocksPerRequest locally held blocks is
// clamped rather than returning every block in range.
func TestBlocksByQueryClampsToMaxBlocksPerRequest(t *testing.T) {
	now := uint64(1)
	l, err := service.New(service.Options{
		TokenID:     tokenID,
		Owner:       owner,
		Meta:        config.Meta{Symbol: "TST", Name: "Test Token", Decimals: 8},
		FeeTo:       feeTo,
		FeeSchedule: fee.Schedule{Minimum: amount.Zero(), Rate: 0, RateDecimals: 0},
		Clock:       func() uint64 { return now },
	})
	require.NoError(t, err)

	_, _, err = l.Mint(owner, aliceHolder(), amount.FromUint64(1_000_000), now)
	require.NoError(t, err)
	for i := 0; i < service.MaxBlocksPerRequest+500; i++ {
		now++
		_, _, err := l.Transfer(aliceHolder(), bobHolder(), amount.FromUint64(1), now)
		require.NoError(t, err)
	}

	result, err := l.BlocksByQuery(context.Background(), 0, l.TokenMetrics().ChainLength)
	require.NoError(t, err)
	require.Len(t, result.Blocks, service.MaxBlocksPerRequest)
	require.Empty(t, result.ArchivedRanges)
}

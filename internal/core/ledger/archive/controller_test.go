package archive_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive/shard"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

var testTokenID = identity.Principal{0xBB}

func txAt(i uint64) block.Transaction {
	return block.Transaction{
		Operation: block.Operation{
			Kind:  block.KindTransfer,
			From:  identity.NewDefaultHolder(identity.Principal{0x01}),
			To:    identity.NewDefaultHolder(identity.Principal{0x02}),
			Value: amount.FromUint64(1),
		},
		CreatedAt: i + 1,
	}
}

func fillChain(t *testing.T, c *chain.Blockchain, n int) {
	for i := 0; i < n; i++ {
		_, _, err := c.AddTxToBlock(txAt(uint64(i)), uint64(i)+1)
		require.NoError(t, err)
	}
}

func TestTriggerArchiveShipsBatchAndUpdatesIndex(t *testing.T) {
	c, err := chain.New(testTokenID, chain.DefaultWindowConfig())
	require.NoError(t, err)
	fillChain(t, c, 10)

	idx := archive.NewIndex()
	client := shard.NewMemoryShard()
	ctrl := archive.New(archive.DefaultConfig(), testTokenID, client, c, idx)

	require.NoError(t, ctrl.TriggerArchive(context.Background()))

	require.Equal(t, uint64(10), c.ArchivedPrefixLen())
	require.Equal(t, 1, idx.Len())
	shardID, ok := idx.ShardFor(5)
	require.True(t, ok)
	require.Len(t, client.BlocksFor(shardID), 10)
}

func TestTriggerArchiveNoBlocksIsError(t *testing.T) {
	c, err := chain.New(testTokenID, chain.DefaultWindowConfig())
	require.NoError(t, err)

	idx := archive.NewIndex()
	client := shard.NewMemoryShard()
	ctrl := archive.New(archive.DefaultConfig(), testTokenID, client, c, idx)

	require.Error(t, ctrl.TriggerArchive(context.Background()))
}

// TestArchivalRoundTripCoalescesSameShardRanges mirrors the named
// end-to-end scenario: 4000 blocks archived at a 2000-block batch cap
// produce two hand-offs that both land on the same reused shard (it
// stays under MaxShardBytes for such small blocks), which the index
// then merges into a single contiguous range.
func TestArchivalRoundTripCoalescesSameShardRanges(t *testing.T) {
	// fillChain lands all 4000 transactions within nanoseconds of each
	// other, so nothing ages out of the replay window; it must hold more
	// than the default 3000 entries.
	c, err := chain.New(testTokenID, chain.WindowConfig{MaxInWindow: 5000, RetentionNanos: chain.DefaultWindowConfig().RetentionNanos})
	require.NoError(t, err)
	fillChain(t, c, 4000)

	idx := archive.NewIndex()
	client := shard.NewMemoryShard()
	cfg := archive.DefaultConfig()
	cfg.MaxBlocksPerBatch = 2000
	ctrl := archive.New(cfg, testTokenID, client, c, idx)

	require.NoError(t, ctrl.TriggerArchive(context.Background()))
	require.NoError(t, ctrl.TriggerArchive(context.Background()))

	require.Equal(t, uint64(4000), c.ArchivedPrefixLen())
	require.Equal(t, 1, idx.Len())

	shardID, ok := idx.ShardFor(3999)
	require.True(t, ok)
	require.Len(t, client.BlocksFor(shardID), 4000)

	_, ok = idx.ShardFor(4000)
	require.False(t, ok)

	_, ok, err = c.BlockByHeight(4000)
	require.Error(t, err)
	require.False(t, ok)
}

// TestFailedInstallIsRetriedNotOrphaned checks that a shard whose
// InstallShard call failed is retried on the next archival attempt
// instead of being abandoned behind a brand-new CreateShard call.
func TestFailedInstallIsRetriedNotOrphaned(t *testing.T) {
	c, err := chain.New(testTokenID, chain.DefaultWindowConfig())
	require.NoError(t, err)
	fillChain(t, c, 10)

	idx := archive.NewIndex()

	ctrl := gomock.NewController(t)
	client := shard.NewMockClient(ctrl)
	shardID := identity.Principal{0x01}

	client.EXPECT().CreateShard(gomock.Any()).Return(shardID, nil).Times(1)
	client.EXPECT().InstallShard(gomock.Any(), shardID, testTokenID, uint64(0)).Return(errors.New("install failed")).Times(1)
	client.EXPECT().InstallShard(gomock.Any(), shardID, testTokenID, uint64(0)).Return(nil).Times(1)
	client.EXPECT().BatchAppend(gomock.Any(), shardID, gomock.Any()).Return(true, nil).Times(1)

	archCtrl := archive.New(archive.DefaultConfig(), testTokenID, client, c, idx)

	require.Error(t, archCtrl.TriggerArchive(context.Background()))
	require.NoError(t, archCtrl.TriggerArchive(context.Background()))
}

// TestStatusErrorFailsArchivalOutright checks that a failed Status
// query on the tracked shard fails the whole attempt rather than
// being treated as "shard full, create a new one."
func TestStatusErrorFailsArchivalOutright(t *testing.T) {
	c, err := chain.New(testTokenID, chain.DefaultWindowConfig())
	require.NoError(t, err)
	fillChain(t, c, 10)

	idx := archive.NewIndex()

	ctrl := gomock.NewController(t)
	client := shard.NewMockClient(ctrl)
	shardID := identity.Principal{0x01}

	client.EXPECT().CreateShard(gomock.Any()).Return(shardID, nil).Times(1)
	client.EXPECT().InstallShard(gomock.Any(), shardID, testTokenID, uint64(0)).Return(nil).Times(1)
	client.EXPECT().BatchAppend(gomock.Any(), shardID, gomock.Any()).Return(true, nil).Times(1)
	client.EXPECT().Status(gomock.Any(), shardID).Return(shard.Status{}, errors.New("unreachable")).Times(1)

	archCtrl := archive.New(archive.DefaultConfig(), testTokenID, client, c, idx)

	require.NoError(t, archCtrl.TriggerArchive(context.Background()))

	// distinct created_at values so these blocks don't collide with
	// the first batch's transaction hashes in the anti-replay window.
	for i := 0; i < 5; i++ {
		_, _, err := c.AddTxToBlock(txAt(uint64(1000+i)), uint64(1000+i)+1)
		require.NoError(t, err)
	}
	require.Error(t, archCtrl.TriggerArchive(context.Background()))
}

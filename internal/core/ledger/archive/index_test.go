package archive_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

func TestAddRangeMergesContiguousSameShard(t *testing.T) {
	idx := archive.NewIndex()
	shardA := identity.Principal{0x01}

	idx.AddRange(0, 2000, shardA)
	idx.AddRange(2000, 4000, shardA)

	require.Equal(t, 1, idx.Len())

	s, ok := idx.ShardFor(3999)
	require.True(t, ok)
	require.True(t, s.Equal(shardA))
}

func TestAddRangeDoesNotMergeDifferentShards(t *testing.T) {
	idx := archive.NewIndex()
	shardA, shardB := identity.Principal{0x01}, identity.Principal{0x02}

	idx.AddRange(0, 2000, shardA)
	idx.AddRange(2000, 4000, shardB)

	require.Equal(t, 2, idx.Len())
}

func TestShardForUnarchivedHeight(t *testing.T) {
	idx := archive.NewIndex()
	idx.AddRange(0, 100, identity.Principal{0x01})

	_, ok := idx.ShardFor(100)
	require.False(t, ok)
}

func TestRangesIntersectingClipsToQuery(t *testing.T) {
	idx := archive.NewIndex()
	shardA := identity.Principal{0x01}
	idx.AddRange(0, 100, shardA)

	ranges := idx.RangesIntersecting(50, 200)
	require.Len(t, ranges, 1)
	require.Equal(t, uint64(50), ranges[0].Start)
	require.Equal(t, uint64(100), ranges[0].End)
}

func TestAddRangeOutOfOrderStillMerges(t *testing.T) {
	idx := archive.NewIndex()
	shardA := identity.Principal{0x01}

	idx.AddRange(2000, 4000, shardA)
	idx.AddRange(0, 2000, shardA)

	require.Equal(t, 1, idx.Len())
	s, ok := idx.ShardFor(0)
	require.True(t, ok)
	require.True(t, s.Equal(shardA))
}

package chain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
)

func TestAdmitRejectsDuplicate(t *testing.T) {
	w, err := chain.NewTxWindow(chain.WindowConfig{MaxInWindow: 10, RetentionNanos: 1000})
	require.NoError(t, err)

	h := [32]byte{0x01}
	require.NoError(t, w.Admit(h, 1, 1))
	require.Error(t, w.Admit(h, 1, 1))
	require.Equal(t, 1, w.Len())
}

func TestAdmitThrottlesWhenFull(t *testing.T) {
	w, err := chain.NewTxWindow(chain.WindowConfig{MaxInWindow: 2, RetentionNanos: 1_000_000})
	require.NoError(t, err)

	require.NoError(t, w.Admit([32]byte{0x01}, 1, 1))
	require.NoError(t, w.Admit([32]byte{0x02}, 1, 1))

	err = w.Admit([32]byte{0x03}, 1, 1)
	require.Error(t, err)
	require.Equal(t, 2, w.Len())
}

func TestPurgeFreesRoomBeforeThrottle(t *testing.T) {
	w, err := chain.NewTxWindow(chain.WindowConfig{MaxInWindow: 1, RetentionNanos: 100})
	require.NoError(t, err)

	require.NoError(t, w.Admit([32]byte{0x01}, 0, 0))
	require.True(t, w.Contains([32]byte{0x01}))

	// now far enough past the first entry's admission time + retention
	// that it is purged, freeing room for the new admission instead of
	// throttling.
	require.NoError(t, w.Admit([32]byte{0x02}, 200, 200))
	require.False(t, w.Contains([32]byte{0x01}))
	require.True(t, w.Contains([32]byte{0x02}))
}

func TestDefaultWindowConfigUsedWhenMaxInWindowUnset(t *testing.T) {
	w, err := chain.NewTxWindow(chain.WindowConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Admit([32]byte{0x01}, 0, 0))
	require.Equal(t, 1, w.Len())
}

package block_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

func sampleTx() block.Transaction {
	return block.Transaction{
		Operation: block.Operation{
			Kind:  block.KindTransfer,
			From:  identity.NewDefaultHolder(identity.Principal{0x01}),
			To:    identity.NewDefaultHolder(identity.Principal{0x02}),
			Value: amount.FromUint64(100),
			Fee:   amount.FromUint64(1),
		},
		CreatedAt: 1000,
	}
}

func TestTransactionHashDeterministic(t *testing.T) {
	tokenID := identity.Principal{0xAA, 0xBB}
	tx := sampleTx()

	h1, err := tx.Hash(tokenID)
	require.NoError(t, err)
	h2, err := tx.Hash(tokenID)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestTransactionHashBindsTokenID(t *testing.T) {
	tx := sampleTx()

	h1, err := tx.Hash(identity.Principal{0x01})
	require.NoError(t, err)
	h2, err := tx.Hash(identity.Principal{0x02})
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestTransactionHashSensitiveToFields(t *testing.T) {
	tokenID := identity.Principal{0xAA}
	tx1 := sampleTx()
	tx2 := sampleTx()
	tx2.CreatedAt = 1001

	h1, err := tx1.Hash(tokenID)
	require.NoError(t, err)
	h2, err := tx2.Hash(tokenID)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	parent := [32]byte{0x01}
	b := block.Block{
		ParentHash:  &parent,
		Transaction: sampleTx(),
		Timestamp:   2000,
	}

	encoded, err := b.Encode()
	require.NoError(t, err)
	require.Greater(t, encoded.SizeBytes(), 0)

	decoded, err := encoded.Decode()
	require.NoError(t, err)
	require.Equal(t, b.Timestamp, decoded.Timestamp)
	require.Equal(t, *b.ParentHash, *decoded.ParentHash)
	require.Equal(t, b.Transaction.CreatedAt, decoded.Transaction.CreatedAt)
	require.Equal(t, b.Transaction.Operation.Value.String(), decoded.Transaction.Operation.Value.String())
}

func TestEncodedBlockHashDeterministic(t *testing.T) {
	tokenID := identity.Principal{0x01}
	b := block.Block{Transaction: sampleTx(), Timestamp: 1}

	encoded, err := b.Encode()
	require.NoError(t, err)

	require.Equal(t, encoded.Hash(tokenID), encoded.Hash(tokenID))
}

func TestGenesisBlockHasNilParent(t *testing.T) {
	b := block.Block{Transaction: sampleTx(), Timestamp: 1}
	require.Nil(t, b.ParentHash)

	encoded, err := b.Encode()
	require.NoError(t, err)
	decoded, err := encoded.Decode()
	require.NoError(t, err)
	require.Nil(t, decoded.ParentHash)
}

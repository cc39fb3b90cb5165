// Package block implements the transaction and block model (component
// C6): the Operation variants, Transaction envelope, and the
// hash-linked Block/EncodedBlock pair, grounded in the original
// dft_types token_transaction.rs (Operation, Transaction) and block.rs
// (Block, EncodedBlock, hash_with_token_id).
package block

import (
	"crypto/sha256"
	"fmt"

	"github.com/dft-ledger/ledgerd/internal/codec"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// Kind discriminates the Operation variants spec.md names.
type Kind int

const (
	KindTransfer Kind = iota
	KindApprove
	KindMint
	KindBurn
	KindBurnFrom
	KindFeeModify
	KindOwnerModify
	KindFeeToModify
	KindAddMinter
	KindRemoveMinter
)

// Operation is the tagged union of every ledger-mutating action that
// produces a block, mirrored one-for-one from the original's
// Operation enum plus the dft_burnable extension's burn/burn_from.
type Operation struct {
	Kind Kind

	Caller identity.Holder

	// Transfer / Approve / Burn / BurnFrom
	From   identity.Holder
	To     identity.Holder
	Owner  identity.Holder
	Spender identity.Holder
	Value  amount.Amount
	Fee    amount.Amount

	// OwnerModify / FeeToModify / AddMinter / RemoveMinter
	NewOwner identity.Principal
	NewFeeTo identity.Holder
	Minter   identity.Principal

	// FeeModify
	NewFeeMinimum      amount.Amount
	NewFeeRate         uint64
	NewFeeRateDecimals uint8
}

// Transaction pairs an Operation with its admission timestamp. Hash
// binds the transaction to a specific token instance, exactly as the
// original's Transaction::hash_with_token_id does.
type Transaction struct {
	Operation Operation
	CreatedAt uint64 // nanoseconds since Unix epoch
}

// Hash computes sha256(tokenID || codec.Encode(tx)).
func (t Transaction) Hash(tokenID identity.Principal) ([32]byte, error) {
	encoded, err := codec.Encode(t)
	if err != nil {
		return [32]byte{}, fmt.Errorf("block: encode transaction: %w", err)
	}
	return hashWithTokenID(tokenID, encoded), nil
}

// Block is one link in the chain: the parent's hash (nil only for the
// genesis block), the transaction it carries, and its close timestamp.
type Block struct {
	ParentHash *[32]byte
	Transaction Transaction
	Timestamp   uint64
}

// EncodedBlock is the deterministic wire/storage encoding of a Block,
// mirroring the original EncodedBlock newtype wrapping candid bytes.
type EncodedBlock []byte

// Encode serializes the block deterministically.
func (b Block) Encode() (EncodedBlock, error) {
	data, err := codec.Encode(b)
	if err != nil {
		return nil, fmt.Errorf("block: encode: %w", err)
	}
	return EncodedBlock(data), nil
}

// Decode deserializes an EncodedBlock back into a Block.
func (e EncodedBlock) Decode() (Block, error) {
	var b Block
	if err := codec.Decode(e, &b); err != nil {
		return Block{}, fmt.Errorf("block: decode: %w", err)
	}
	return b, nil
}

// Hash computes sha256(tokenID || encodedBlockBytes), the block hash
// used as both the chain-link hash and the archival shard's addressing
// key.
func (e EncodedBlock) Hash(tokenID identity.Principal) [32]byte {
	return hashWithTokenID(tokenID, e)
}

// SizeBytes returns the encoded block's length, used by the archival
// controller's byte-budget check against the shard transport limit.
func (e EncodedBlock) SizeBytes() int { return len(e) }

func hashWithTokenID(tokenID identity.Principal, payload []byte) [32]byte {
	h := sha256.New()
	h.Write(tokenID)
	h.Write(payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Package shard defines the auxiliary storage shard contract
// (component C8's external dependency) and its transports. Per the
// scope boundary, only this contract is specified — the shard's own
// storage internals are out of scope. Grounded in the original
// auto_scaling_storage.rs calls into the shard canister: canister
// creation, install_code with (token_id, block_height_offset) args,
// canister_status for memory_size, and batchAppend.
package shard

import (
	"context"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// Status mirrors the subset of canister_status the controller reads
// to decide whether a shard still has room (get_or_create_available_storage_id).
type Status struct {
	MemorySizeBytes uint64
}

// Client is the controller-side contract a concrete shard transport
// must satisfy.
type Client interface {
	// CreateShard provisions a new, uninstalled auxiliary storage shard
	// and returns its principal.
	CreateShard(ctx context.Context) (identity.Principal, error)

	// InstallShard installs the shard's storage code, binding it to
	// tokenID and the height offset of the first block it will hold.
	InstallShard(ctx context.Context, shardID, tokenID identity.Principal, heightOffset uint64) error

	// Status returns the shard's current resource usage.
	Status(ctx context.Context, shardID identity.Principal) (Status, error)

	// BatchAppend ships a contiguous batch of encoded blocks to the
	// shard. ok is false if the shard rejected the batch (distinct
	// from a transport error).
	BatchAppend(ctx context.Context, shardID identity.Principal, blocks []block.EncodedBlock) (ok bool, err error)

	// FetchRange returns the encoded blocks the shard holds within
	// [start, end), clipped to what it actually has. Grounded in the
	// original archive canister's own block_by_height/get_blocks query
	// methods, which blocks_by_query forwards to once a height falls
	// outside the locally-held chain.
	FetchRange(ctx context.Context, shardID identity.Principal, start, end uint64) ([]block.EncodedBlock, error)
}

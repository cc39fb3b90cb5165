package archive

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive/shard"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Config tunes the auto-scaling archival strategy, named after the
// original's MAX_MESSAGE_SIZE_BYTES / MAX_CANISTER_STORAGE_BYTES
// constants in auto_scaling_storage.rs.
type Config struct {
	// MaxBatchBytes caps a single BatchAppend payload, mirroring the
	// original's check against MAX_MESSAGE_SIZE_BYTES before sending.
	MaxBatchBytes uint64
	// MaxShardBytes caps how much a shard will hold before the
	// controller reserves or creates a new one.
	MaxShardBytes uint64
	// MaxBlocksPerBatch additionally bounds batch size by block count.
	MaxBlocksPerBatch int
}

// DefaultConfig mirrors the original's constants.
func DefaultConfig() Config {
	return Config{
		MaxBatchBytes:     2 * 1024 * 1024,
		MaxShardBytes:     shard.MaxCanisterStorageBytes,
		MaxBlocksPerBatch: 2000,
	}
}

type shardLifecycle int

const (
	shardAbsent shardLifecycle = iota
	shardReserved
	shardInstalled
)

type trackedShard struct {
	id       identity.Principal
	state    shardLifecycle
	heightAt uint64 // height offset this shard was installed with
}

// Controller implements the archival hand-off strategy: when the
// locally-held block prefix grows past the operator's trigger point,
// ship it to an auxiliary storage shard and record the hand-off in
// the Index, following exec_auto_scaling_strategy's lock -> compute
// batch -> get-or-create shard -> send -> update range -> unlock
// sequence from the original.
type Controller struct {
	cfg     Config
	tokenID identity.Principal
	client  shard.Client
	chain   *chain.Blockchain
	index   *Index

	mu      sync.Mutex
	current *trackedShard

	archiving atomic.Bool
	group     singleflight.Group
}

// New creates a Controller for tokenID, backed by client.
func New(cfg Config, tokenID identity.Principal, client shard.Client, bc *chain.Blockchain, idx *Index) *Controller {
	return &Controller{cfg: cfg, tokenID: tokenID, client: client, chain: bc, index: idx}
}

// TriggerArchive attempts to ship the current archivable prefix to a
// shard. Concurrent triggers (a manual call racing the ticker) are
// collapsed onto a single in-flight attempt via singleflight; the
// archiving_in_progress flag is the authority for correctness, the
// singleflight group only avoids a redundant shard round trip.
func (c *Controller) TriggerArchive(ctx context.Context) error {
	_, err, _ := c.group.Do("archive", func() (interface{}, error) {
		return nil, c.exec(ctx)
	})
	return err
}

func (c *Controller) exec(ctx context.Context) error {
	if !c.archiving.CompareAndSwap(false, true) {
		return ledgererr.New(ledgererr.CodeArchiveInProgress, "")
	}
	defer c.archiving.Store(false)

	blocks, startHeight := c.chain.TakeArchivablePrefix(c.cfg.MaxBlocksPerBatch)
	if len(blocks) == 0 {
		return ledgererr.New(ledgererr.CodeNoArchivableBlocks, "")
	}

	batch, batchBytes := capToByteBudget(blocks, c.cfg.MaxBatchBytes)
	if len(batch) == 0 {
		return ledgererr.New(ledgererr.CodeArchiveBatchTooLarge, fmt.Sprintf("single block exceeds %d bytes", c.cfg.MaxBatchBytes))
	}
	_ = batchBytes

	shardID, err := c.getOrCreateAvailableShard(ctx, startHeight)
	if err != nil {
		return err
	}

	ok, err := c.client.BatchAppend(ctx, shardID, batch)
	if err != nil {
		return ledgererr.New(ledgererr.CodeShardUnavailable, err.Error())
	}
	if !ok {
		return ledgererr.New(ledgererr.CodeShardUnavailable, "shard rejected batch")
	}

	c.chain.CommitArchived(len(batch))
	c.index.AddRange(startHeight, startHeight+uint64(len(batch)), shardID)
	return nil
}

func capToByteBudget(blocks []block.EncodedBlock, maxBytes uint64) ([]block.EncodedBlock, uint64) {
	var total uint64
	for i, b := range blocks {
		sz := uint64(b.SizeBytes())
		if total+sz > maxBytes {
			return blocks[:i], total
		}
		total += sz
	}
	return blocks, total
}

// getOrCreateAvailableShard mirrors get_or_create_available_storage_id:
// reuse the currently tracked shard if it has room, retry installing a
// shard stuck in shardReserved from a previously failed install, and
// otherwise (no tracked shard, or the tracked shard is full) create a
// brand-new shard.
// A failed Status query fails the whole archival attempt outright —
// it is not treated as "shard full, make a new one."
func (c *Controller) getOrCreateAvailableShard(ctx context.Context, heightOffset uint64) (identity.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.state == shardInstalled {
		st, err := c.client.Status(ctx, c.current.id)
		if err != nil {
			return nil, ledgererr.New(ledgererr.CodeShardUnavailable, err.Error())
		}
		if st.MemorySizeBytes < c.cfg.MaxShardBytes {
			return c.current.id, nil
		}
		// Current shard is full; fall through to reserve a new one.
	}

	if c.current != nil && c.current.state == shardReserved {
		if err := c.client.InstallShard(ctx, c.current.id, c.tokenID, c.current.heightAt); err != nil {
			return nil, ledgererr.New(ledgererr.CodeShardUnavailable, err.Error())
		}
		c.current.state = shardInstalled
		return c.current.id, nil
	}

	id, err := c.client.CreateShard(ctx)
	if err != nil {
		return nil, ledgererr.New(ledgererr.CodeShardUnavailable, err.Error())
	}
	c.current = &trackedShard{id: id, state: shardReserved, heightAt: heightOffset}

	if err := c.client.InstallShard(ctx, id, c.tokenID, heightOffset); err != nil {
		return nil, ledgererr.New(ledgererr.CodeShardUnavailable, err.Error())
	}
	c.current.state = shardInstalled
	return id, nil
}

// InProgress reports whether an archival attempt currently holds the lock.
func (c *Controller) InProgress() bool { return c.archiving.Load() }

package chain

import (
	"sync"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Blockchain is the hash-linked append-only chain of locally retained
// blocks (component C7), plus the anti-replay TxWindow admission gate.
// Blocks older than ArchivedPrefixLen have been handed off to the
// archival controller (C8) and are no longer held in memory; queries
// for them must be forwarded by the façade.
type Blockchain struct {
	mu sync.RWMutex

	tokenID identity.Principal

	window *TxWindow

	// archivedPrefixLen counts blocks [0, archivedPrefixLen) that have
	// been shipped to auxiliary storage and dropped from blocks.
	archivedPrefixLen uint64

	// blocks holds encoded blocks for heights
	// [archivedPrefixLen, archivedPrefixLen+len(blocks)).
	blocks []block.EncodedBlock

	lastHash [32]byte
	hasLast  bool

	// txIndex maps a transaction hash to its local height, for blocks
	// still held in memory. Archived transactions are looked up via
	// the façade's txindex store instead.
	txIndex map[[32]byte]uint64
}

// New creates an empty chain for tokenID.
func New(tokenID identity.Principal, windowCfg WindowConfig) (*Blockchain, error) {
	w, err := NewTxWindow(windowCfg)
	if err != nil {
		return nil, err
	}
	return &Blockchain{
		tokenID: tokenID,
		window:  w,
		txIndex: make(map[[32]byte]uint64),
	}, nil
}

// Restore rebuilds a Blockchain from a previously persisted state
// snapshot (D7): the archived prefix length, the still-locally-held
// encoded blocks starting at that height, and the chain's last hash.
// The transaction index and the anti-replay window are both rebuilt
// by decoding each block and replaying it through the window exactly
// as AddTxToBlock would have, using now as the restoring process's
// current time for the window's purge comparisons.
func Restore(tokenID identity.Principal, windowCfg WindowConfig, archivedPrefixLen uint64, blocks []block.EncodedBlock, lastHash [32]byte, hasLast bool, now uint64) (*Blockchain, error) {
	w, err := NewTxWindow(windowCfg)
	if err != nil {
		return nil, err
	}
	c := &Blockchain{
		tokenID:           tokenID,
		window:            w,
		archivedPrefixLen: archivedPrefixLen,
		blocks:            append([]block.EncodedBlock{}, blocks...),
		lastHash:          lastHash,
		hasLast:           hasLast,
		txIndex:           make(map[[32]byte]uint64),
	}
	for i, encoded := range c.blocks {
		b, err := encoded.Decode()
		if err != nil {
			return nil, err
		}
		txHash, err := b.Transaction.Hash(tokenID)
		if err != nil {
			return nil, err
		}
		c.txIndex[txHash] = archivedPrefixLen + uint64(i)
		// Best-effort: a block already past the retention window on
		// restore is simply not re-added, which is correct (it is no
		// longer eligible for replay rejection either way).
		if now > b.Timestamp && now-b.Timestamp > w.cfg.RetentionNanos {
			continue
		}
		_ = w.Admit(txHash, b.Transaction.CreatedAt, now)
	}
	return c, nil
}

// ChainLength returns the total number of blocks ever appended,
// archived or not.
func (c *Blockchain) ChainLength() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archivedPrefixLen + uint64(len(c.blocks))
}

// ArchivedPrefixLen returns how many leading blocks have been
// archived and dropped from local memory.
func (c *Blockchain) ArchivedPrefixLen() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archivedPrefixLen
}

// LocalRange returns the [start, end) height range still held locally.
func (c *Blockchain) LocalRange() (start, end uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archivedPrefixLen, c.archivedPrefixLen + uint64(len(c.blocks))
}

// AddTxToBlock runs admission (anti-replay window check) and, if
// accepted, appends a new block carrying tx. Returns the new block's
// height and hash. This mirrors the original's add_tx_to_block, which
// is always called from inside the single admission check the façade
// performs before mutating balances/allowances.
func (c *Blockchain) AddTxToBlock(tx block.Transaction, now uint64) (height uint64, hash [32]byte, err error) {
	txHash, err := tx.Hash(c.tokenID)
	if err != nil {
		return 0, [32]byte{}, err
	}

	if err := c.window.Admit(txHash, tx.CreatedAt, now); err != nil {
		return 0, [32]byte{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var parent *[32]byte
	if c.hasLast {
		h := c.lastHash
		parent = &h
	}

	b := block.Block{ParentHash: parent, Transaction: tx, Timestamp: now}
	encoded, err := b.Encode()
	if err != nil {
		return 0, [32]byte{}, err
	}

	height = c.archivedPrefixLen + uint64(len(c.blocks))
	blockHash := encoded.Hash(c.tokenID)

	c.blocks = append(c.blocks, encoded)
	c.lastHash = blockHash
	c.hasLast = true
	c.txIndex[txHash] = height

	return height, blockHash, nil
}

// BlockByHeight returns the encoded block at height if it is held
// locally. ok is false (with no error) when the height is archived;
// the caller (façade) is responsible for consulting the archive index
// to forward the request, per the original's block_by_height split.
func (c *Blockchain) BlockByHeight(height uint64) (encoded block.EncodedBlock, ok bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	length := c.archivedPrefixLen + uint64(len(c.blocks))
	if height >= length {
		return nil, false, ledgererr.New(ledgererr.CodeNonExistentBlockHeight, "")
	}
	if height < c.archivedPrefixLen {
		return nil, false, nil
	}
	return c.blocks[height-c.archivedPrefixLen], true, nil
}

// LocalBlocksInRange returns encoded blocks for [start, end) clamped
// to the locally held range, plus the actual [start, end) served.
func (c *Blockchain) LocalBlocksInRange(start, end uint64) ([]block.EncodedBlock, uint64, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	localStart := c.archivedPrefixLen
	localEnd := c.archivedPrefixLen + uint64(len(c.blocks))

	if start < localStart {
		start = localStart
	}
	if end > localEnd {
		end = localEnd
	}
	if start >= end {
		return nil, start, start
	}
	out := make([]block.EncodedBlock, end-start)
	copy(out, c.blocks[start-localStart:end-localStart])
	return out, start, end
}

// LocalHeightForTx returns the local height of a transaction hash, if
// it is still held in memory.
func (c *Blockchain) LocalHeightForTx(txHash [32]byte) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.txIndex[txHash]
	return h, ok
}

// TakeArchivablePrefix returns up to maxBlocks encoded blocks starting
// at the current archivedPrefixLen, for the archival controller to
// ship to an auxiliary shard. It does not remove them; the caller
// must call CommitArchived after a successful hand-off.
func (c *Blockchain) TakeArchivablePrefix(maxBlocks int) (blocks []block.EncodedBlock, startHeight uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.blocks)
	if maxBlocks > 0 && maxBlocks < n {
		n = maxBlocks
	}
	out := make([]block.EncodedBlock, n)
	copy(out, c.blocks[:n])
	return out, c.archivedPrefixLen
}

// CommitArchived drops the first n locally held blocks after they
// have been durably handed off to an auxiliary storage shard.
func (c *Blockchain) CommitArchived(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return
	}
	if n > len(c.blocks) {
		n = len(c.blocks)
	}
	for i := 0; i < n; i++ {
		encoded := c.blocks[i]
		b, err := encoded.Decode()
		if err != nil {
			continue
		}
		txHash, err := b.Transaction.Hash(c.tokenID)
		if err != nil {
			continue
		}
		delete(c.txIndex, txHash)
	}
	c.blocks = c.blocks[n:]
	c.archivedPrefixLen += uint64(n)
}

// LastHash returns the hash of the most recently appended block.
func (c *Blockchain) LastHash() (hash [32]byte, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHash, c.hasLast
}

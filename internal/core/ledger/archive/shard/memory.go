package shard

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// MaxCanisterStorageBytes mirrors the original's ceiling a shard
// reports itself full at, used by MemoryShard to simulate exhaustion.
const MaxCanisterStorageBytes = 3 * 1024 * 1024 * 1024 // ~3 GiB, per the original's MAX_CANISTER_STORAGE_BYTES

type shardState struct {
	installed bool
	tokenID   identity.Principal
	offset    uint64
	blocks    []block.EncodedBlock
	used      uint64
}

// MemoryShard is an in-process stand-in for the auxiliary storage
// shard's contract, used by controller tests and by standalone
// deployments with no real shard process configured.
type MemoryShard struct {
	mu      sync.Mutex
	seq     uint64
	shards  map[string]*shardState
	maxSize uint64
}

// NewMemoryShard creates an empty fake with the default capacity.
func NewMemoryShard() *MemoryShard {
	return &MemoryShard{shards: make(map[string]*shardState), maxSize: MaxCanisterStorageBytes}
}

var _ Client = (*MemoryShard)(nil)

func (m *MemoryShard) CreateShard(ctx context.Context) (identity.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := sha256.Sum256([]byte(fmt.Sprintf("memshard-%d", m.seq)))
	p := identity.Principal(id[:10])
	m.shards[string(p)] = &shardState{}
	return p, nil
}

func (m *MemoryShard) InstallShard(ctx context.Context, shardID, tokenID identity.Principal, heightOffset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shards[string(shardID)]
	if !ok {
		return fmt.Errorf("shard: unknown shard %s", shardID)
	}
	s.installed = true
	s.tokenID = tokenID
	s.offset = heightOffset
	return nil
}

func (m *MemoryShard) Status(ctx context.Context, shardID identity.Principal) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shards[string(shardID)]
	if !ok {
		return Status{}, fmt.Errorf("shard: unknown shard %s", shardID)
	}
	return Status{MemorySizeBytes: s.used}, nil
}

func (m *MemoryShard) BatchAppend(ctx context.Context, shardID identity.Principal, blocks []block.EncodedBlock) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shards[string(shardID)]
	if !ok {
		return false, fmt.Errorf("shard: unknown shard %s", shardID)
	}
	if !s.installed {
		return false, fmt.Errorf("shard: %s not installed", shardID)
	}
	var size uint64
	for _, b := range blocks {
		size += uint64(b.SizeBytes())
	}
	if s.used+size > m.maxSize {
		return false, nil
	}
	s.blocks = append(s.blocks, blocks...)
	s.used += size
	return true, nil
}

func (m *MemoryShard) FetchRange(ctx context.Context, shardID identity.Principal, start, end uint64) ([]block.EncodedBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shards[string(shardID)]
	if !ok {
		return nil, fmt.Errorf("shard: unknown shard %s", shardID)
	}
	localStart := s.offset
	localEnd := s.offset + uint64(len(s.blocks))
	if start < localStart {
		start = localStart
	}
	if end > localEnd {
		end = localEnd
	}
	if start >= end {
		return nil, nil
	}
	out := make([]block.EncodedBlock, end-start)
	copy(out, s.blocks[start-localStart:end-localStart])
	return out, nil
}

// BlocksFor returns the blocks a test has appended to shardID, for
// assertions in controller tests.
func (m *MemoryShard) BlocksFor(shardID identity.Principal) []block.EncodedBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.shards[string(shardID)]
	if s == nil {
		return nil
	}
	out := make([]block.EncodedBlock, len(s.blocks))
	copy(out, s.blocks)
	return out
}

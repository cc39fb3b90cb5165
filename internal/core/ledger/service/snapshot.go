package service

import (
	"fmt"

	"github.com/dft-ledger/ledgerd/internal/codec"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/allowance"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive/shard"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/balance"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/config"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/fee"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// balanceEntry/allowanceEntry/rangeEntry give the holder-keyed maps a
// deterministic, CBOR-encodable shape: codec.Encode sorts map keys for
// a canonical byte-for-byte snapshot, but identity.Holder itself isn't
// a valid map key once this crosses the wire, so entries are flattened
// into slices.
type balanceEntry struct {
	Principal  []byte
	SubAccount [32]byte
	Value      amount.Amount
}

type allowanceEntry struct {
	OwnerPrincipal    []byte
	OwnerSubAccount   [32]byte
	SpenderPrincipal  []byte
	SpenderSubAccount [32]byte
	Value             amount.Amount
}

type rangeEntry struct {
	Start, End uint64
	Shard      []byte
}

// Snapshot is the deterministic, persistable image of a Ledger's
// entire state (D1 + D7): every component's state, flattened for
// ugorji/go/codec's canonical CBOR encoding.
type Snapshot struct {
	TokenID identity.Principal

	Meta    config.Meta
	Owner   identity.Principal
	FeeTo   identity.Holder
	Desc    map[string]string
	Logo    []byte
	Minters []identity.Principal

	FeeSchedule fee.Schedule

	Balances   []balanceEntry
	Allowances []allowanceEntry

	ArchivedPrefixLen uint64
	LocalBlocks       [][]byte
	LastHash          [32]byte
	HasLast           bool

	ArchiveRanges []rangeEntry
}

// Snapshot captures the ledger's complete state as of the call. The
// façade mutex is held for the duration, so the result is consistent
// with any single point between mutating calls.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		TokenID:     l.tokenID,
		Meta:        l.cfg.Meta(),
		Owner:       l.cfg.Owner(),
		FeeTo:       l.cfg.FeeTo(),
		Desc:        l.cfg.Description(),
		Logo:        l.cfg.Logo(),
		Minters:     l.cfg.Minters(),
		FeeSchedule: l.fees.Current(),
	}

	l.bal.ForEach(func(h identity.Holder, v amount.Amount) {
		snap.Balances = append(snap.Balances, balanceEntry{Principal: h.Principal, SubAccount: h.SubAccount, Value: v})
	})
	l.allow.ForEach(func(owner, spender identity.Holder, v amount.Amount) {
		snap.Allowances = append(snap.Allowances, allowanceEntry{
			OwnerPrincipal: owner.Principal, OwnerSubAccount: owner.SubAccount,
			SpenderPrincipal: spender.Principal, SpenderSubAccount: spender.SubAccount,
			Value: v,
		})
	})

	snap.ArchivedPrefixLen = l.chain.ArchivedPrefixLen()
	start, end := l.chain.LocalRange()
	localBlocks, _, _ := l.chain.LocalBlocksInRange(start, end)
	for _, b := range localBlocks {
		snap.LocalBlocks = append(snap.LocalBlocks, []byte(b))
	}
	snap.LastHash, snap.HasLast = l.chain.LastHash()

	for _, r := range l.idx.RangesIntersecting(0, snap.ArchivedPrefixLen) {
		snap.ArchiveRanges = append(snap.ArchiveRanges, rangeEntry{Start: r.Start, End: r.End, Shard: r.Shard})
	}

	return snap
}

// EncodeSnapshot serializes a Snapshot deterministically (D1).
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := codec.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("service: encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := codec.Decode(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("service: decode snapshot: %w", err)
	}
	return snap, nil
}

// RestoreSnapshot rebuilds a Ledger from a previously captured
// Snapshot, reconnecting it to shardClient and clock (neither of
// which is itself part of the persisted state).
func RestoreSnapshot(snap Snapshot, windowCfg chain.WindowConfig, archiveCfg archive.Config, shardClient shard.Client, clock Clock, maxFutureSkewNanos uint64, txIndex TxIndexLookup) (*Ledger, error) {
	now := uint64(0)
	if clock != nil {
		now = clock()
	}

	if windowCfg == (chain.WindowConfig{}) {
		windowCfg = chain.DefaultWindowConfig()
	}

	localBlocks := make([]block.EncodedBlock, len(snap.LocalBlocks))
	for i, b := range snap.LocalBlocks {
		localBlocks[i] = block.EncodedBlock(b)
	}
	bc, err := chain.Restore(snap.TokenID, windowCfg, snap.ArchivedPrefixLen, localBlocks, snap.LastHash, snap.HasLast, now)
	if err != nil {
		return nil, err
	}

	idx := archive.NewIndex()
	for _, r := range snap.ArchiveRanges {
		idx.AddRange(r.Start, r.End, identity.Principal(r.Shard))
	}

	cfg := config.New(snap.TokenID, snap.Owner, snap.Meta, snap.FeeTo)
	for k, v := range snap.Desc {
		cfg.SetDescriptionField(k, v)
	}
	if len(snap.Logo) > 0 {
		if err := cfg.SetLogo(snap.Logo); err != nil {
			return nil, err
		}
	}
	for _, m := range snap.Minters {
		_ = cfg.AddMinter(snap.Owner, m)
	}

	bal := balance.New()
	for _, e := range snap.Balances {
		bal.Credit(identity.NewHolder(identity.Principal(e.Principal), e.SubAccount), e.Value)
	}
	allow := allowance.New()
	for _, e := range snap.Allowances {
		owner := identity.NewHolder(identity.Principal(e.OwnerPrincipal), e.OwnerSubAccount)
		spender := identity.NewHolder(identity.Principal(e.SpenderPrincipal), e.SpenderSubAccount)
		allow.Set(owner, spender, e.Value)
	}

	client := shardClient
	if client == nil {
		client = shard.NewMemoryShard()
	}
	cfgArchive := archiveCfg
	if cfgArchive == (archive.Config{}) {
		cfgArchive = archive.DefaultConfig()
	}
	clk := clock
	if clk == nil {
		clk = func() uint64 { return 0 }
	}
	skew := maxFutureSkewNanos
	if skew == 0 {
		skew = DefaultMaxFutureSkewNanos
	}

	return &Ledger{
		tokenID:           snap.TokenID,
		cfg:               cfg,
		fees:              fee.NewManager(snap.FeeSchedule),
		bal:               bal,
		allow:             allow,
		chain:             bc,
		idx:               idx,
		shardClient:       client,
		controller:        archive.New(cfgArchive, snap.TokenID, client, bc, idx),
		clock:             clk,
		maxFutureSkew:     skew,
		txWindowRetention: windowCfg.RetentionNanos,
		txIndex:           txIndex,
	}, nil
}

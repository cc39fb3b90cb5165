// Package service implements the ledger façade (component C9): the
// single entry point composing identity, config, fee, balance,
// allowance, chain and archive into the token's mutating and
// query operations, grounded in the original
// dft_standard::token_service::basic_service.rs and the
// dft_burnable::token.rs burn/burn_from extension.
package service

import (
	"context"
	"sync"

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
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// Clock supplies the ledger's notion of "now", in nanoseconds since
// the Unix epoch. Injected so tests can control admission timing
// without depending on wall-clock time.
type Clock func() uint64

// TxIndexLookup resolves a transaction hash to the height it was
// committed at, once that block has left the in-memory chain and been
// handed off to durable storage (D8). A nil lookup degrades gracefully:
// TxByID only ever resolves transactions still held in memory.
type TxIndexLookup interface {
	Lookup(ctx context.Context, txHash [32]byte) (height uint64, ok bool, err error)
}

// Options configures a new Ledger.
type Options struct {
	TokenID      identity.Principal
	Owner        identity.Principal
	Meta         config.Meta
	FeeTo        identity.Holder
	FeeSchedule  fee.Schedule
	WindowConfig chain.WindowConfig
	ArchiveConfig archive.Config
	ShardClient  shard.Client
	Clock        Clock

	// MaxFutureSkewNanos bounds how far into the future a transaction's
	// created_at may sit relative to the ledger's own clock before it
	// is rejected outright, independent of the replay window.
	MaxFutureSkewNanos uint64

	TxIndex TxIndexLookup
}

// DefaultMaxFutureSkewNanos is two minutes, a conservative bound on
// clock drift between a caller and the ledger.
const DefaultMaxFutureSkewNanos = uint64(2 * 60 * 1e9)

// Ledger is the token façade. A single mutex serializes every
// mutating operation (the concurrency model's C9 section); the
// archival controller runs its own hand-off outside that mutex,
// coordinating instead through the Blockchain's and Index's own locks
// plus its CAS in-progress flag.
type Ledger struct {
	mu sync.Mutex

	tokenID identity.Principal
	cfg     *config.Configuration
	fees    *fee.Manager
	bal     *balance.Book
	allow   *allowance.Book
	chain   *chain.Blockchain
	idx     *archive.Index

	shardClient       shard.Client
	controller        *archive.Controller
	clock             Clock
	maxFutureSkew     uint64
	txWindowRetention uint64
	txIndex           TxIndexLookup
}

// New assembles a Ledger from Options.
func New(opts Options) (*Ledger, error) {
	windowCfg := opts.WindowConfig
	if windowCfg == (chain.WindowConfig{}) {
		windowCfg = chain.DefaultWindowConfig()
	}
	bc, err := chain.New(opts.TokenID, windowCfg)
	if err != nil {
		return nil, err
	}
	if err := opts.FeeSchedule.Validate(); err != nil {
		return nil, err
	}
	idx := archive.NewIndex()

	client := opts.ShardClient
	if client == nil {
		client = shard.NewMemoryShard()
	}

	archiveCfg := opts.ArchiveConfig
	if archiveCfg == (archive.Config{}) {
		archiveCfg = archive.DefaultConfig()
	}

	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return 0 }
	}

	maxSkew := opts.MaxFutureSkewNanos
	if maxSkew == 0 {
		maxSkew = DefaultMaxFutureSkewNanos
	}

	return &Ledger{
		tokenID:           opts.TokenID,
		cfg:               config.New(opts.TokenID, opts.Owner, opts.Meta, opts.FeeTo),
		fees:              fee.NewManager(opts.FeeSchedule),
		bal:               balance.New(),
		allow:             allowance.New(),
		chain:             bc,
		idx:               idx,
		shardClient:       client,
		controller:        archive.New(archiveCfg, opts.TokenID, client, bc, idx),
		clock:             clock,
		maxFutureSkew:     maxSkew,
		txWindowRetention: windowCfg.RetentionNanos,
		txIndex:           opts.TxIndex,
	}, nil
}

// TokenID returns the ledger's token principal.
func (l *Ledger) TokenID() identity.Principal { return l.tokenID }

// Config exposes the configuration component for read-only queries by
// callers that need it directly (e.g. a CLI "inspect" command).
func (l *Ledger) Config() *config.Configuration { return l.cfg }

// Fees exposes the fee manager for read-only queries.
func (l *Ledger) Fees() *fee.Manager { return l.fees }

func (l *Ledger) validateCreatedAt(createdAt uint64) (now uint64, err error) {
	now = l.clock()
	if createdAt > now+l.maxFutureSkew {
		return now, ledgererr.New(ledgererr.CodeInvalidCreatedAt, "")
	}
	if createdAt <= now && now-createdAt > l.txWindowRetention {
		return now, ledgererr.New(ledgererr.CodeTxTooOld, "")
	}
	return now, nil
}

func requireNotAnonymous(h identity.Holder) error {
	if h.IsAnonymous() {
		return ledgererr.New(ledgererr.CodeAnonymousCaller, "")
	}
	return nil
}

func requireCallerNotAnonymous(p identity.Principal) error {
	if p.IsAnonymous() {
		return ledgererr.New(ledgererr.CodeAnonymousCaller, "")
	}
	return nil
}

func (l *Ledger) applyTransfer(from, to identity.Holder, value, txFee amount.Amount) error {
	if err := l.bal.Debit(from, value.Add(txFee)); err != nil {
		return err
	}
	l.bal.Credit(to, value)
	if !txFee.IsZero() {
		l.bal.Credit(l.cfg.FeeTo(), txFee)
	}
	return nil
}

// Transfer moves value from caller's own balance to to, admitting a
// Transfer block. The fee is drawn from caller alongside value, in one
// debit, exactly as the original's _transfer does.
func (l *Ledger) Transfer(caller, to identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txFee := l.fees.Current().CalcTransferFee(value)
	if !l.bal.HasAtLeast(caller, value.Add(txFee)) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}

	op := block.Operation{Kind: block.KindTransfer, Caller: caller, From: caller, To: to, Value: value, Fee: txFee}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.applyTransfer(caller, to, value, txFee); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// Approve sets (not increments) the allowance caller grants spender
// to value. The approval fee is charged only after the allowance
// itself has been committed, mirroring the original's ordering where
// calc_approve_fee's charge happens after the main critical section.
func (l *Ledger) Approve(caller, spender identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txFee := l.fees.Current().CalcApproveFee(value)
	if !l.bal.HasAtLeast(caller, txFee) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}

	op := block.Operation{Kind: block.KindApprove, Caller: caller, Owner: caller, Spender: spender, Value: value, Fee: txFee}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.allow.Set(caller, spender, value)

	if !txFee.IsZero() {
		if err := l.bal.Debit(caller, txFee); err != nil {
			return 0, [32]byte{}, err
		}
		l.bal.Credit(l.cfg.FeeTo(), txFee)
	}
	return height, hash, nil
}

// Mint credits value to to's balance, admitting a Mint block. Only a
// minter (the owner or an explicitly added minter) may call this,
// following dft_mintable's mint authorization check. No fee is
// charged, mirroring the original's mint path.
func (l *Ledger) Mint(caller identity.Principal, to identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	if err := requireNotAnonymous(to); err != nil {
		return 0, [32]byte{}, err
	}
	if !l.cfg.IsMinter(caller) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeNotMinter, "")
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	op := block.Operation{Kind: block.KindMint, Caller: identity.NewDefaultHolder(caller), To: to, Value: value}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	l.bal.Credit(to, value)
	return height, hash, nil
}

// TransferFrom moves value out of from's balance on caller's behalf,
// debiting caller's allowance only after the transfer itself succeeds
// — mirroring the original's approve_transfer_from, which reduces the
// allowance after _transfer, not before.
func (l *Ledger) TransferFrom(caller, from, to identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txFee := l.fees.Current().CalcTransferFee(value)
	total := value.Add(txFee)

	if !l.allow.HasAtLeast(from, caller, total) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientAllowance, "")
	}
	if !l.bal.HasAtLeast(from, total) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}

	op := block.Operation{Kind: block.KindTransfer, Caller: caller, From: from, To: to, Value: value, Fee: txFee}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.applyTransfer(from, to, value, txFee); err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.allow.Debit(from, caller, total); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// Burn destroys value from caller's own balance. Values below the
// active fee schedule's Minimum are rejected, following
// dft_burnable::token.rs's refusal to burn dust amounts.
func (l *Ledger) Burn(caller identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if value.LessThan(l.fees.Current().Minimum) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeAmountBelowMinimum, "")
	}
	if !l.bal.HasAtLeast(caller, value) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}

	op := block.Operation{Kind: block.KindBurn, Caller: caller, From: caller, Value: value}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.bal.Debit(caller, value); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// BurnFrom destroys value from owner's balance on caller's behalf,
// debiting the allowance only after the burn succeeds, for the same
// reason TransferFrom defers its allowance debit.
func (l *Ledger) BurnFrom(caller, owner identity.Holder, value amount.Amount, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if value.LessThan(l.fees.Current().Minimum) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeAmountBelowMinimum, "")
	}
	if !l.allow.HasAtLeast(owner, caller, value) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientAllowance, "")
	}
	if !l.bal.HasAtLeast(owner, value) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeInsufficientBalance, "")
	}

	op := block.Operation{Kind: block.KindBurnFrom, Caller: caller, Owner: owner, From: owner, Value: value}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.bal.Debit(owner, value); err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.allow.Debit(owner, caller, value); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// OwnerModify transfers ownership of the token, admitting a block.
// Setting the owner to its current value is a no-op that succeeds
// without emitting a block, matching spec.md's idempotent-no-op law.
func (l *Ledger) OwnerModify(caller, newOwner identity.Principal, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	if !l.cfg.IsOwner(caller) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	if l.cfg.Owner().Equal(newOwner) {
		return l.chain.ChainLength(), [32]byte{}, nil
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	op := block.Operation{Kind: block.KindOwnerModify, Caller: identity.NewDefaultHolder(caller), NewOwner: newOwner}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.cfg.SetOwner(caller, newOwner); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// FeeToModify changes the holder fees are paid to.
func (l *Ledger) FeeToModify(caller identity.Principal, newFeeTo identity.Holder, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	if !l.cfg.IsOwner(caller) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	op := block.Operation{Kind: block.KindFeeToModify, Caller: identity.NewDefaultHolder(caller), NewFeeTo: newFeeTo}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.cfg.SetFeeTo(caller, newFeeTo); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// AddMinter grants minting rights to minter.
func (l *Ledger) AddMinter(caller, minter identity.Principal, createdAt uint64) (height uint64, hash [32]byte, err error) {
	return l.minterOp(block.KindAddMinter, caller, minter, createdAt, l.cfg.AddMinter)
}

// RemoveMinter revokes minting rights from minter.
func (l *Ledger) RemoveMinter(caller, minter identity.Principal, createdAt uint64) (height uint64, hash [32]byte, err error) {
	return l.minterOp(block.KindRemoveMinter, caller, minter, createdAt, l.cfg.RemoveMinter)
}

func (l *Ledger) minterOp(kind block.Kind, caller, minter identity.Principal, createdAt uint64, apply func(identity.Principal, identity.Principal) error) (height uint64, hash [32]byte, err error) {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	if !l.cfg.IsOwner(caller) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	op := block.Operation{Kind: kind, Caller: identity.NewDefaultHolder(caller), Minter: minter}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := apply(caller, minter); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// FeeModify replaces the active fee schedule.
func (l *Ledger) FeeModify(caller identity.Principal, newSchedule fee.Schedule, createdAt uint64) (height uint64, hash [32]byte, err error) {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return 0, [32]byte{}, err
	}
	if !l.cfg.IsOwner(caller) {
		return 0, [32]byte{}, ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	if err := newSchedule.Validate(); err != nil {
		return 0, [32]byte{}, err
	}
	now, err := l.validateCreatedAt(createdAt)
	if err != nil {
		return 0, [32]byte{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	op := block.Operation{
		Kind:               block.KindFeeModify,
		Caller:             identity.NewDefaultHolder(caller),
		NewFeeMinimum:      newSchedule.Minimum,
		NewFeeRate:         newSchedule.Rate,
		NewFeeRateDecimals: newSchedule.RateDecimals,
	}
	tx := block.Transaction{Operation: op, CreatedAt: createdAt}

	height, hash, err = l.chain.AddTxToBlock(tx, now)
	if err != nil {
		return 0, [32]byte{}, err
	}
	if err := l.fees.SetSchedule(newSchedule); err != nil {
		return 0, [32]byte{}, err
	}
	return height, hash, nil
}

// SetDescriptionField and SetLogo produce no block, following the
// accepted resolution of the original's desc/set_logo inconsistency
// (see config.Configuration.SetDescriptionField).

// SetDescriptionField requires owner privilege but does not admit a
// transaction.
func (l *Ledger) SetDescriptionField(caller identity.Principal, key, value string) error {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return err
	}
	if !l.cfg.IsOwner(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	l.cfg.SetDescriptionField(key, value)
	return nil
}

// SetLogo requires owner privilege but does not admit a transaction.
func (l *Ledger) SetLogo(caller identity.Principal, logo []byte) error {
	if err := requireCallerNotAnonymous(caller); err != nil {
		return err
	}
	if !l.cfg.IsOwner(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	return l.cfg.SetLogo(logo)
}

// TriggerArchive attempts to hand the current archivable prefix off
// to an auxiliary storage shard. It deliberately does not hold the
// façade mutex: mutating operations must not stall behind a shard
// round trip, and the controller's own locking keeps this safe to run
// concurrently with Transfer/Approve/etc.
func (l *Ledger) TriggerArchive(ctx context.Context) error {
	return l.controller.TriggerArchive(ctx)
}

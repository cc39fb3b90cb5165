// Package config implements the token configuration (component C2):
// the immutable-unless-governed identity of the token (name, symbol,
// decimals) plus the mutable owner/fee_to/minter-set/logo/description
// fields, grounded in the original dft_types TokenPayload fields
// (owner, fee_to, meta, desc, logo) and dft_mintable's minter HashSet.
package config

import (
	"bytes"
	"sync"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/ledgererr"
)

// descKeys is the fixed whitelist a set_desc key must belong to;
// anything else is silently dropped. Grounded on the original's
// DESC_KEYS set (dft_types::desc_keys), whose "TWITTER" entry is
// exercised directly by token_test.rs's set_desc coverage.
var descKeys = map[string]struct{}{
	"OFFICIAL_SITE":  {},
	"OFFICIAL_EMAIL": {},
	"DESCRIPTION":    {},
	"TWITTER":        {},
	"TELEGRAM":       {},
	"MEDIUM":         {},
	"FACEBOOK":       {},
	"GITHUB":         {},
	"DISCORD":        {},
	"REDDIT":         {},
	"WHITEPAPER":     {},
}

// logoMagicPrefixes lists the recognized image signatures a logo must
// start with, grounded on the original's get_logo_type (token.rs),
// which accepts PNG, JPEG, GIF and SVG.
var logoMagicPrefixes = [][]byte{
	{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	{0xFF, 0xD8, 0xFF},                               // JPEG
	{0x47, 0x49, 0x46, 0x38},                         // GIF87a/GIF89a
	[]byte("<svg"),
	[]byte("<?xml"), // SVG documents commonly open with an XML prolog
}

func recognizedLogoFormat(logo []byte) bool {
	for _, prefix := range logoMagicPrefixes {
		if bytes.HasPrefix(logo, prefix) {
			return true
		}
	}
	return false
}

// Meta carries the immutable token identity fields.
type Meta struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// Configuration holds the token's governance-mutable settings behind
// a mutex, following the balance/allowance books' accessor shape.
type Configuration struct {
	mu sync.RWMutex

	tokenID identity.Principal
	meta    Meta
	owner   identity.Principal
	feeTo   identity.Holder
	desc    map[string]string
	logo    []byte
	minters map[string]struct{}
}

// New creates a Configuration. owner is implicitly a minter.
func New(tokenID, owner identity.Principal, meta Meta, feeTo identity.Holder) *Configuration {
	return &Configuration{
		tokenID: tokenID,
		meta:    meta,
		owner:   owner,
		feeTo:   feeTo,
		desc:    make(map[string]string),
		minters: make(map[string]struct{}),
	}
}

func (c *Configuration) TokenID() identity.Principal { return c.tokenID }

func (c *Configuration) Meta() Meta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

func (c *Configuration) Owner() identity.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

func (c *Configuration) FeeTo() identity.Holder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeTo
}

// IsOwner reports whether p equals the current owner.
func (c *Configuration) IsOwner(p identity.Principal) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner.Equal(p)
}

// IsMinter reports whether p may mint: the owner is an implicit
// minter, independent of explicit AddMinter/RemoveMinter membership.
func (c *Configuration) IsMinter(p identity.Principal) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.owner.Equal(p) {
		return true
	}
	_, ok := c.minters[string(p)]
	return ok
}

// SetOwner requires the caller to already be owner; governed by the
// façade's OwnerModify operation.
func (c *Configuration) SetOwner(caller, newOwner identity.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.owner.Equal(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	c.owner = append(identity.Principal{}, newOwner...)
	return nil
}

// SetFeeTo requires the caller to already be owner; governed by the
// façade's FeeToModify operation.
func (c *Configuration) SetFeeTo(caller identity.Principal, feeTo identity.Holder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.owner.Equal(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	c.feeTo = feeTo
	return nil
}

// AddMinter requires the caller to be owner.
func (c *Configuration) AddMinter(caller, minter identity.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.owner.Equal(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	c.minters[string(minter)] = struct{}{}
	return nil
}

// RemoveMinter requires the caller to be owner.
func (c *Configuration) RemoveMinter(caller, minter identity.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.owner.Equal(caller) {
		return ledgererr.New(ledgererr.CodeNotOwner, "")
	}
	delete(c.minters, string(minter))
	return nil
}

// Minters returns a snapshot of the explicit minter set (not
// including the implicit owner membership).
func (c *Configuration) Minters() []identity.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]identity.Principal, 0, len(c.minters))
	for k := range c.minters {
		out = append(out, identity.Principal(k))
	}
	return out
}

// SetDescriptionField sets one key in the free-form description map.
// Keys outside the fixed whitelist are silently dropped — the call
// still succeeds, it just has no effect. Per the accepted resolution
// of the original's desc/set_logo inconsistency, this mutation does
// not produce a block.
func (c *Configuration) SetDescriptionField(key, value string) {
	if _, ok := descKeys[key]; !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc[key] = value
}

func (c *Configuration) Description() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.desc))
	for k, v := range c.desc {
		out[k] = v
	}
	return out
}

// SetLogo replaces the logo bytes after checking they open with a
// recognized image magic prefix (PNG, JPEG, GIF, SVG), mirroring the
// original's get_logo_type check. Also produces no block.
func (c *Configuration) SetLogo(logo []byte) error {
	if !recognizedLogoFormat(logo) {
		return ledgererr.New(ledgererr.CodeInvalidLogoFormat, "")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logo = append([]byte{}, logo...)
	return nil
}

func (c *Configuration) Logo() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]byte{}, c.logo...)
}

// Package identity implements the holder model: principals (opaque
// caller identities) and sub-accounts, following the Principal/TokenHolder
// types carried over from the original dfinity-fungible-token-standard.
package identity

import (
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxPrincipalBytes matches the Internet Computer's principal size ceiling.
const MaxPrincipalBytes = 29

// Principal is an opaque caller identity. The anonymous principal is
// the single-byte value {0x04}, mirrored from the IC convention.
type Principal []byte

var anonymous = Principal{0x04}

// Anonymous returns the reserved anonymous principal.
func Anonymous() Principal { return append(Principal{}, anonymous...) }

// IsAnonymous reports whether p is the anonymous principal.
func (p Principal) IsAnonymous() bool {
	return len(p) == len(anonymous) && string(p) == string(anonymous)
}

// Equal reports byte-for-byte equality.
func (p Principal) Equal(other Principal) bool {
	return string(p) == string(other)
}

// String renders the canonical CRC32+base32 text form used by the
// Internet Computer (Principal.toText()): the principal bytes are
// prefixed with their CRC32 checksum, base32-encoded without padding,
// lower-cased, and hyphenated every five characters.
func (p Principal) String() string {
	checksum := crc32.ChecksumIEEE(p)
	buf := make([]byte, 4+len(p))
	buf[0] = byte(checksum >> 24)
	buf[1] = byte(checksum >> 16)
	buf[2] = byte(checksum >> 8)
	buf[3] = byte(checksum)
	copy(buf[4:], p)

	encoded := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))

	var b strings.Builder
	for i := 0; i < len(encoded); i += 5 {
		end := i + 5
		if end > len(encoded) {
			end = len(encoded)
		}
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(encoded[i:end])
	}
	return b.String()
}

// ParsePrincipal parses the canonical text form produced by String.
func ParsePrincipal(text string) (Principal, error) {
	raw := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: malformed principal text %q: %w", text, err)
	}
	if len(decoded) < 4 {
		return nil, fmt.Errorf("identity: principal text %q too short", text)
	}
	checksum := decoded[:4]
	body := decoded[4:]
	want := crc32.ChecksumIEEE(body)
	got := uint32(checksum[0])<<24 | uint32(checksum[1])<<16 | uint32(checksum[2])<<8 | uint32(checksum[3])
	if want != got {
		return nil, fmt.Errorf("identity: checksum mismatch for %q", text)
	}
	if len(body) > MaxPrincipalBytes {
		return nil, fmt.Errorf("identity: principal exceeds %d bytes", MaxPrincipalBytes)
	}
	return Principal(body), nil
}

// SubAccount discriminates multiple balances under one principal.
type SubAccount [32]byte

// Holder is the (principal, sub-account) pair spec.md's Data Model
// names as the balance/allowance key. The zero SubAccount is carried
// explicitly rather than normalized away: two holders compare by
// struct equality.
type Holder struct {
	Principal  Principal
	SubAccount SubAccount
}

// NewHolder builds a Holder with an explicit sub-account.
func NewHolder(p Principal, sub SubAccount) Holder {
	return Holder{Principal: append(Principal{}, p...), SubAccount: sub}
}

// NewDefaultHolder builds a Holder with the zero sub-account.
func NewDefaultHolder(p Principal) Holder {
	return Holder{Principal: append(Principal{}, p...)}
}

// Key returns a comparable map key for the holder.
func (h Holder) Key() string {
	return string(h.Principal) + "|" + string(h.SubAccount[:])
}

// String renders the holder's canonical text form:
// "<principal>[-<hex(sub_account)>]", omitting the sub-account suffix
// entirely when it is the zero value.
func (h Holder) String() string {
	if h.SubAccount == (SubAccount{}) {
		return h.Principal.String()
	}
	return fmt.Sprintf("%s-%x", h.Principal.String(), h.SubAccount[:])
}

// subAccountHexLen is the fixed width of a sub-account's hex suffix
// (32 bytes), which is what lets ParseHolder tell the sub-account
// apart from the principal's own hyphen-grouped base32 text.
const subAccountHexLen = len(SubAccount{}) * 2

// ParseHolder parses the text form produced by Holder.String:
// "<principal>" or "<principal>-<hex(sub_account)>".
func ParseHolder(text string) (Holder, error) {
	if len(text) > subAccountHexLen+1 && text[len(text)-subAccountHexLen-1] == '-' {
		principalText := text[:len(text)-subAccountHexLen-1]
		subHex := text[len(text)-subAccountHexLen:]
		if decoded, err := hex.DecodeString(subHex); err == nil && len(decoded) == len(SubAccount{}) {
			p, err := ParsePrincipal(principalText)
			if err != nil {
				return Holder{}, fmt.Errorf("identity: malformed holder text %q: %w", text, err)
			}
			var sub SubAccount
			copy(sub[:], decoded)
			return NewHolder(p, sub), nil
		}
	}
	p, err := ParsePrincipal(text)
	if err != nil {
		return Holder{}, fmt.Errorf("identity: malformed holder text %q: %w", text, err)
	}
	return NewDefaultHolder(p), nil
}

// IsAnonymous reports whether the holder's principal is anonymous.
func (h Holder) IsAnonymous() bool {
	return h.Principal.IsAnonymous()
}

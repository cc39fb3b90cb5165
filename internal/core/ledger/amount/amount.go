// Package amount provides the arbitrary-precision, non-negative token
// amount type shared by every ledger component, mirroring the
// candid::Nat used throughout the original dfinity-fungible-token-standard.
package amount

import (
	"errors"
	"math/big"
)

// ErrNegative is returned by any operation that would produce a
// negative amount.
var ErrNegative = errors.New("amount: negative result not allowed")

// Amount wraps big.Int and enforces non-negativity at construction and
// at every arithmetic boundary.
type Amount struct {
	v *big.Int
}

// Zero returns the zero amount.
func Zero() Amount { return Amount{v: new(big.Int)} }

// FromUint64 builds an amount from a uint64.
func FromUint64(n uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(n)}
}

// FromBigInt builds an amount from a big.Int, rejecting negative values.
func FromBigInt(n *big.Int) (Amount, error) {
	if n.Sign() < 0 {
		return Amount{}, ErrNegative
	}
	return Amount{v: new(big.Int).Set(n)}, nil
}

// FromString parses a base-10 non-negative integer string.
func FromString(s string) (Amount, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, errors.New("amount: invalid integer literal")
	}
	return FromBigInt(n)
}

// BigInt returns a defensive copy of the underlying big.Int.
func (a Amount) BigInt() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) value() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.value(), b.value())}
}

// Sub returns a - b, or an error if the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	r := new(big.Int).Sub(a.value(), b.value())
	if r.Sign() < 0 {
		return Amount{}, ErrNegative
	}
	return Amount{v: r}, nil
}

// Cmp compares a to b (-1, 0, 1).
func (a Amount) Cmp(b Amount) int {
	return a.value().Cmp(b.value())
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.value().Sign() == 0 }

// String renders the amount as a base-10 string.
func (a Amount) String() string { return a.value().String() }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text encoders.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler. The binary CBOR
// handle in internal/codec uses this rather than MarshalText, so an
// Amount is carried as its base-10 digits in hashes, blocks and
// snapshots.
func (a Amount) MarshalBinary() ([]byte, error) { return a.MarshalText() }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Amount) UnmarshalBinary(data []byte) error { return a.UnmarshalText(data) }

// MulRateBasisPoints computes floor(a * rate / 10^decimals), used by
// the fee calculator's percentage-rate component.
func (a Amount) MulRateBasisPoints(rate uint64, decimals uint8) Amount {
	num := new(big.Int).Mul(a.value(), new(big.Int).SetUint64(rate))
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	if den.Sign() == 0 {
		return Zero()
	}
	return Amount{v: num.Div(num, den)}
}

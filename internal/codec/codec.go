// Package codec provides the deterministic binary encoding used both
// for content hashing (transaction and block hashes) and for the
// persisted-state snapshot, via ugorji/go/codec's CBOR handle with
// canonical (sorted-map-key) encoding enabled. The teacher encodes
// fixed-layout headers by hand with encoding/binary
// (internal/core/ledger/header/header.go, since adapted away); our
// payloads are variable-shape structs, so we lean on a real codec
// library instead of hand-rolling a second binary.Write schema.
package codec

import (
	"github.com/ugorji/go/codec"
)

// handle is shared across Encode/Decode calls; ugorji's handles are
// safe for concurrent use once configured and never mutated again.
var handle = newHandle()

func newHandle() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}

// Encode serializes v deterministically.
func Encode(v interface{}) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, handle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf, nil
}

// Decode deserializes data into v, which must be a pointer.
func Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, handle)
	return dec.Decode(v)
}

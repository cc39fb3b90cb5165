package shard

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/dft-ledger/ledgerd/internal/codec"
)

// codecName is the gRPC content-subtype this codec is registered
// under (ContentType becomes "application/grpc+ugorji").
const codecName = "ugorji"

// ugorjyCodec adapts our deterministic codec package (D1, ugorji/go/codec)
// into grpc's encoding.Codec interface, used in place of a protobuf
// codec since this contract has no .proto/protoc in the retrieval pack.
type ugorjyCodec struct{}

func (ugorjyCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("shard: marshal: %w", err)
	}
	return data, nil
}

func (ugorjyCodec) Unmarshal(data []byte, v interface{}) error {
	if err := codec.Decode(data, v); err != nil {
		return fmt.Errorf("shard: unmarshal: %w", err)
	}
	return nil
}

func (ugorjyCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(ugorjyCodec{})
}

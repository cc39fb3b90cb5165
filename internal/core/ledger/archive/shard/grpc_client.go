package shard

import (
	"context"

	"google.golang.org/grpc"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// GRPCClient implements Client by calling a remote shard-hosting
// process over gRPC, using the method names of the hand-rolled
// serviceDesc in grpc_server.go in place of protoc-generated stubs.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// DialGRPCClient connects to a shard gRPC server at target.
func DialGRPCClient(ctx context.Context, target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.ForceCodec(ugorjyCodec{})))
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *GRPCClient) Close() error { return c.conn.Close() }

var _ Client = (*GRPCClient)(nil)

func (c *GRPCClient) CreateShard(ctx context.Context) (identity.Principal, error) {
	out := new(createShardResponse)
	if err := c.conn.Invoke(ctx, "/dftledger.Shard/CreateShard", new(createShardRequest), out); err != nil {
		return nil, err
	}
	return identity.Principal(out.ShardID), nil
}

func (c *GRPCClient) InstallShard(ctx context.Context, shardID, tokenID identity.Principal, heightOffset uint64) error {
	in := &installShardRequest{ShardID: []byte(shardID), TokenID: []byte(tokenID), HeightOffset: heightOffset}
	out := new(installShardResponse)
	return c.conn.Invoke(ctx, "/dftledger.Shard/InstallShard", in, out)
}

func (c *GRPCClient) Status(ctx context.Context, shardID identity.Principal) (Status, error) {
	in := &statusRequest{ShardID: []byte(shardID)}
	out := new(statusResponse)
	if err := c.conn.Invoke(ctx, "/dftledger.Shard/Status", in, out); err != nil {
		return Status{}, err
	}
	return Status{MemorySizeBytes: out.MemorySizeBytes}, nil
}

func (c *GRPCClient) BatchAppend(ctx context.Context, shardID identity.Principal, blocks []block.EncodedBlock) (bool, error) {
	raw := make([][]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = []byte(b)
	}
	in := &batchAppendRequest{ShardID: []byte(shardID), Blocks: raw}
	out := new(batchAppendResponse)
	if err := c.conn.Invoke(ctx, "/dftledger.Shard/BatchAppend", in, out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func (c *GRPCClient) FetchRange(ctx context.Context, shardID identity.Principal, start, end uint64) ([]block.EncodedBlock, error) {
	in := &fetchRangeRequest{ShardID: []byte(shardID), Start: start, End: end}
	out := new(fetchRangeResponse)
	if err := c.conn.Invoke(ctx, "/dftledger.Shard/FetchRange", in, out); err != nil {
		return nil, err
	}
	blocks := make([]block.EncodedBlock, len(out.Blocks))
	for i, b := range out.Blocks {
		blocks[i] = block.EncodedBlock(b)
	}
	return blocks, nil
}

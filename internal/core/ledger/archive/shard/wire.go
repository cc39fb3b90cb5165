package shard

// Wire request/response structs for the hand-rolled gRPC service in
// grpc_server.go. There is no .proto/protoc in this retrieval pack, so these
// are plain Go structs carried by the ugorjyCodec (wire_codec.go)
// rather than protobuf-generated types.

type createShardRequest struct{}

type createShardResponse struct {
	ShardID []byte
}

type installShardRequest struct {
	ShardID      []byte
	TokenID      []byte
	HeightOffset uint64
}

type installShardResponse struct{}

type statusRequest struct {
	ShardID []byte
}

type statusResponse struct {
	MemorySizeBytes uint64
}

type batchAppendRequest struct {
	ShardID []byte
	Blocks  [][]byte
}

type batchAppendResponse struct {
	OK bool
}

type fetchRangeRequest struct {
	ShardID    []byte
	Start, End uint64
}

type fetchRangeResponse struct {
	Blocks [][]byte
}

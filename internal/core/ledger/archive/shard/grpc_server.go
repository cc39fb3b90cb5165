// gRPC transport for the shard contract (D4), grounded in the
// teacher's internal/grpc/server.go Server/ServerOption/Start/Stop
// shape — retargeted from a never-registered XRPL ledger-query
// service to an actually-registered shard service, since the
// teacher's grpc.NewServer() is created but RegisterService is never
// called anywhere in that package.
package shard

import (
	"context"
	"errors"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "dftledger.Shard",
	HandlerType: (*Client)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateShard", Handler: createShardHandler},
		{MethodName: "InstallShard", Handler: installShardHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "BatchAppend", Handler: batchAppendHandler},
		{MethodName: "FetchRange", Handler: fetchRangeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dftledger/shard.proto",
}

func createShardHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(createShardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callCreateShard(srv.(Client), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dftledger.Shard/CreateShard"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callCreateShard(srv.(Client), ctx, req.(*createShardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func callCreateShard(c Client, ctx context.Context, _ *createShardRequest) (interface{}, error) {
	id, err := c.CreateShard(ctx)
	if err != nil {
		return nil, err
	}
	return &createShardResponse{ShardID: []byte(id)}, nil
}

func installShardHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(installShardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callInstallShard(srv.(Client), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dftledger.Shard/InstallShard"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callInstallShard(srv.(Client), ctx, req.(*installShardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func callInstallShard(c Client, ctx context.Context, in *installShardRequest) (interface{}, error) {
	if err := c.InstallShard(ctx, identity.Principal(in.ShardID), identity.Principal(in.TokenID), in.HeightOffset); err != nil {
		return nil, err
	}
	return &installShardResponse{}, nil
}

func statusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(statusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callStatus(srv.(Client), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dftledger.Shard/Status"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callStatus(srv.(Client), ctx, req.(*statusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func callStatus(c Client, ctx context.Context, in *statusRequest) (interface{}, error) {
	st, err := c.Status(ctx, identity.Principal(in.ShardID))
	if err != nil {
		return nil, err
	}
	return &statusResponse{MemorySizeBytes: st.MemorySizeBytes}, nil
}

func batchAppendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(batchAppendRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callBatchAppend(srv.(Client), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dftledger.Shard/BatchAppend"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callBatchAppend(srv.(Client), ctx, req.(*batchAppendRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func callBatchAppend(c Client, ctx context.Context, in *batchAppendRequest) (interface{}, error) {
	blocks := make([]block.EncodedBlock, len(in.Blocks))
	for i, b := range in.Blocks {
		blocks[i] = block.EncodedBlock(b)
	}
	ok, err := c.BatchAppend(ctx, identity.Principal(in.ShardID), blocks)
	if err != nil {
		return nil, err
	}
	return &batchAppendResponse{OK: ok}, nil
}

func fetchRangeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(fetchRangeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callFetchRange(srv.(Client), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dftledger.Shard/FetchRange"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callFetchRange(srv.(Client), ctx, req.(*fetchRangeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func callFetchRange(c Client, ctx context.Context, in *fetchRangeRequest) (interface{}, error) {
	blocks, err := c.FetchRange(ctx, identity.Principal(in.ShardID), in.Start, in.End)
	if err != nil {
		return nil, err
	}
	raw := make([][]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = []byte(b)
	}
	return &fetchRangeResponse{Blocks: raw}, nil
}

// Server hosts a Client implementation over gRPC, following the
// teacher's Server/ServerOption/Start/StartAsync/Stop lifecycle shape.
type Server struct {
	mu         sync.RWMutex
	grpcServer *grpc.Server
	impl       Client
	listener   net.Listener
	running    bool
}

// NewServer wraps impl (e.g. a real shard process's Client
// implementation, or a *MemoryShard in tests) as a gRPC service.
func NewServer(impl Client, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(ugorjyCodec{})}, opts...)
	grpcServer := grpc.NewServer(opts...)
	grpcServer.RegisterService(&serviceDesc, impl)
	return &Server{grpcServer: grpcServer, impl: impl}
}

// Start listens on addr and serves until the server is stopped; it
// blocks the calling goroutine.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("shard: server already running")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	return s.grpcServer.Serve(listener)
}

// StartAsync starts the server in a goroutine and returns immediately.
func (s *Server) StartAsync(addr string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("shard: server already running")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	go func() {
		_ = s.grpcServer.Serve(listener)
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.grpcServer.GracefulStop()
	s.running = false
}

// Address returns the bound address, empty if not running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Code generated in the style of mockgen for the Client interface.
// Hand-maintained because this repository does not run go generate;
// keep in sync with Client in contract.go.
package shard

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/block"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// MockClient is a mock of the Client interface.
type MockClient struct {
	ctrl     *gomock.Controller
	recorder *MockClientMockRecorder
}

// MockClientMockRecorder is the mock recorder for MockClient.
type MockClientMockRecorder struct {
	mock *MockClient
}

// NewMockClient creates a new mock instance.
func NewMockClient(ctrl *gomock.Controller) *MockClient {
	mock := &MockClient{ctrl: ctrl}
	mock.recorder = &MockClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClient) EXPECT() *MockClientMockRecorder {
	return m.recorder
}

func (m *MockClient) CreateShard(ctx context.Context) (identity.Principal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateShard", ctx)
	ret0, _ := ret[0].(identity.Principal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockClientMockRecorder) CreateShard(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateShard", reflect.TypeOf((*MockClient)(nil).CreateShard), ctx)
}

func (m *MockClient) InstallShard(ctx context.Context, shardID, tokenID identity.Principal, heightOffset uint64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InstallShard", ctx, shardID, tokenID, heightOffset)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockClientMockRecorder) InstallShard(ctx, shardID, tokenID, heightOffset interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InstallShard", reflect.TypeOf((*MockClient)(nil).InstallShard), ctx, shardID, tokenID, heightOffset)
}

func (m *MockClient) Status(ctx context.Context, shardID identity.Principal) (Status, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Status", ctx, shardID)
	ret0, _ := ret[0].(Status)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockClientMockRecorder) Status(ctx, shardID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Status", reflect.TypeOf((*MockClient)(nil).Status), ctx, shardID)
}

func (m *MockClient) BatchAppend(ctx context.Context, shardID identity.Principal, blocks []block.EncodedBlock) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BatchAppend", ctx, shardID, blocks)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockClientMockRecorder) BatchAppend(ctx, shardID, blocks interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BatchAppend", reflect.TypeOf((*MockClient)(nil).BatchAppend), ctx, shardID, blocks)
}

func (m *MockClient) FetchRange(ctx context.Context, shardID identity.Principal, start, end uint64) ([]block.EncodedBlock, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchRange", ctx, shardID, start, end)
	ret0, _ := ret[0].([]block.EncodedBlock)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockClientMockRecorder) FetchRange(ctx, shardID, start, end interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchRange", reflect.TypeOf((*MockClient)(nil).FetchRange), ctx, shardID, start, end)
}

var _ Client = (*MockClient)(nil)

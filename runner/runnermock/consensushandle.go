// Hand-written in MockGen's output style for
// github.com/luxfi/bft-harness/runner (interface: ConsensusHandle).

// Package runnermock provides a gomock-backed mock of
// runner.ConsensusHandle[string, string, []string, string], the concrete
// instantiation runner's own tests drive (SPEC_FULL §10: "go.uber.org/mock
// ... for the runner.ConsensusHandle mock used to test TestRunner without a
// real BFT engine"), grounded in go.uber.org/mock/gomock and the pack's own
// gomock-backed mock re-export at validator/validatorsmock/state.go.
package runnermock

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"github.com/luxfi/bft-harness/runner"
)

// MockConsensusHandle is a mock of runner.ConsensusHandle[string, string,
// []string, string].
type MockConsensusHandle struct {
	ctrl     *gomock.Controller
	recorder *MockConsensusHandleMockRecorder
}

// MockConsensusHandleMockRecorder is the mock recorder for
// MockConsensusHandle.
type MockConsensusHandleMockRecorder struct {
	mock *MockConsensusHandle
}

// NewMockConsensusHandle creates a new mock instance.
func NewMockConsensusHandle(ctrl *gomock.Controller) *MockConsensusHandle {
	mock := &MockConsensusHandle{ctrl: ctrl}
	mock.recorder = &MockConsensusHandleMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockConsensusHandle) EXPECT() *MockConsensusHandleMockRecorder {
	return m.recorder
}

// StartOneRound mocks base method.
func (m *MockConsensusHandle) StartOneRound(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StartOneRound", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// StartOneRound indicates an expected call of StartOneRound.
func (mr *MockConsensusHandleMockRecorder) StartOneRound(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StartOneRound", reflect.TypeOf((*MockConsensusHandle)(nil).StartOneRound), ctx)
}

// CollectRoundEvents mocks base method.
func (m *MockConsensusHandle) CollectRoundEvents(ctx context.Context) (runner.NodeOutcome[string, []string], error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CollectRoundEvents", ctx)
	ret0, _ := ret[0].(runner.NodeOutcome[string, []string])
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CollectRoundEvents indicates an expected call of CollectRoundEvents.
func (mr *MockConsensusHandleMockRecorder) CollectRoundEvents(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CollectRoundEvents", reflect.TypeOf((*MockConsensusHandle)(nil).CollectRoundEvents), ctx)
}

// GetDecidedLeaf mocks base method.
func (m *MockConsensusHandle) GetDecidedLeaf(ctx context.Context) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetDecidedLeaf", ctx)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetDecidedLeaf indicates an expected call of GetDecidedLeaf.
func (mr *MockConsensusHandleMockRecorder) GetDecidedLeaf(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetDecidedLeaf", reflect.TypeOf((*MockConsensusHandle)(nil).GetDecidedLeaf), ctx)
}

// SubmitTransaction mocks base method.
func (m *MockConsensusHandle) SubmitTransaction(ctx context.Context, txn string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SubmitTransaction", ctx, txn)
	ret0, _ := ret[0].(error)
	return ret0
}

// SubmitTransaction indicates an expected call of SubmitTransaction.
func (mr *MockConsensusHandleMockRecorder) SubmitTransaction(ctx, txn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SubmitTransaction", reflect.TypeOf((*MockConsensusHandle)(nil).SubmitTransaction), ctx, txn)
}

// ShutDown mocks base method.
func (m *MockConsensusHandle) ShutDown(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ShutDown", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// ShutDown indicates an expected call of ShutDown.
func (mr *MockConsensusHandleMockRecorder) ShutDown(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShutDown", reflect.TypeOf((*MockConsensusHandle)(nil).ShutDown), ctx)
}

var _ runner.ConsensusHandle[string, string, []string, string] = (*MockConsensusHandle)(nil)

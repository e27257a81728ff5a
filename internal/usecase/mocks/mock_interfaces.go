//	mockgen -destination=internal/usecase/mocks/mock_interfaces.go -package=mocks github.com/novapay/remit/internal/usecase SettlementRail,RateConverter,IdempotencyStore
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/novapay/remit/internal/domain"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockSettlementRail is a mock of SettlementRail interface.
type MockSettlementRail struct {
	ctrl     *gomock.Controller
	recorder *MockSettlementRailMockRecorder
	isgomock struct{}
}

// MockSettlementRailMockRecorder is the mock recorder for MockSettlementRail.
type MockSettlementRailMockRecorder struct {
	mock *MockSettlementRail
}

// NewMockSettlementRail creates a new mock instance.
func NewMockSettlementRail(ctrl *gomock.Controller) *MockSettlementRail {
	mock := &MockSettlementRail{ctrl: ctrl}
	mock.recorder = &MockSettlementRailMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSettlementRail) EXPECT() *MockSettlementRailMockRecorder {
	return m.recorder
}

// Submit mocks base method.
func (m *MockSettlementRail) Submit(arg0 context.Context, arg1 domain.SettlementInstruction) (domain.SettlementOutcome, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Submit", arg0, arg1)
	ret0, _ := ret[0].(domain.SettlementOutcome)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Submit indicates an expected call of Submit.
func (mr *MockSettlementRailMockRecorder) Submit(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Submit", reflect.TypeOf((*MockSettlementRail)(nil).Submit), arg0, arg1)
}

// MockRateConverter is a mock of RateConverter interface.
type MockRateConverter struct {
	ctrl     *gomock.Controller
	recorder *MockRateConverterMockRecorder
	isgomock struct{}
}

// MockRateConverterMockRecorder is the mock recorder for MockRateConverter.
type MockRateConverterMockRecorder struct {
	mock *MockRateConverter
}

// NewMockRateConverter creates a new mock instance.
func NewMockRateConverter(ctrl *gomock.Controller) *MockRateConverter {
	mock := &MockRateConverter{ctrl: ctrl}
	mock.recorder = &MockRateConverterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRateConverter) EXPECT() *MockRateConverterMockRecorder {
	return m.recorder
}

// Rate mocks base method.
func (m *MockRateConverter) Rate(arg0, arg1 string) (decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rate", arg0, arg1)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Rate indicates an expected call of Rate.
func (mr *MockRateConverterMockRecorder) Rate(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rate", reflect.TypeOf((*MockRateConverter)(nil).Rate), arg0, arg1)
}

// MockIdempotencyStore is a mock of IdempotencyStore interface.
type MockIdempotencyStore struct {
	ctrl     *gomock.Controller
	recorder *MockIdempotencyStoreMockRecorder
	isgomock struct{}
}

// MockIdempotencyStoreMockRecorder is the mock recorder for MockIdempotencyStore.
type MockIdempotencyStoreMockRecorder struct {
	mock *MockIdempotencyStore
}

// NewMockIdempotencyStore creates a new mock instance.
func NewMockIdempotencyStore(ctrl *gomock.Controller) *MockIdempotencyStore {
	mock := &MockIdempotencyStore{ctrl: ctrl}
	mock.recorder = &MockIdempotencyStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIdempotencyStore) EXPECT() *MockIdempotencyStoreMockRecorder {
	return m.recorder
}

// CheckAndSet mocks base method.
func (m *MockIdempotencyStore) CheckAndSet(arg0 context.Context, arg1 string, arg2 []byte, arg3 time.Duration) (bool, []byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckAndSet", arg0, arg1, arg2, arg3)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// CheckAndSet indicates an expected call of CheckAndSet.
func (mr *MockIdempotencyStoreMockRecorder) CheckAndSet(arg0, arg1, arg2, arg3 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckAndSet", reflect.TypeOf((*MockIdempotencyStore)(nil).CheckAndSet), arg0, arg1, arg2, arg3)
}

// Release mocks base method.
func (m *MockIdempotencyStore) Release(arg0 context.Context, arg1 string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Release", arg0, arg1)
	ret0, _ := ret[0].(error)
	return ret0
}

// Release indicates an expected call of Release.
func (mr *MockIdempotencyStoreMockRecorder) Release(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Release", reflect.TypeOf((*MockIdempotencyStore)(nil).Release), arg0, arg1)
}

// Update mocks base method.
func (m *MockIdempotencyStore) Update(arg0 context.Context, arg1 string, arg2 []byte, arg3 time.Duration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", arg0, arg1, arg2, arg3)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockIdempotencyStoreMockRecorder) Update(arg0, arg1, arg2, arg3 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIdempotencyStore)(nil).Update), arg0, arg1, arg2, arg3)
}

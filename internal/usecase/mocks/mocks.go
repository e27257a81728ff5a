package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

// MockWalletRepository is a mock implementation of WalletRepository.
// Without Func overrides it behaves as an in-memory store.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	CreateFunc            func(ctx context.Context, wallet *domain.Wallet) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Wallet, error)
	GetByPrincipalFunc    func(ctx context.Context, principalID string) (*domain.Wallet, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error)
	ApplyDeltaFunc        func(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// Seed stores a wallet directly.
func (m *MockWalletRepository) Seed(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = wallet
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.PrincipalID == wallet.PrincipalID {
			return domain.ErrWalletExists
		}
	}
	m.wallets[wallet.ID] = wallet
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[id]; ok {
		return w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByPrincipal(ctx context.Context, principalID string) (*domain.Wallet, error) {
	if m.GetByPrincipalFunc != nil {
		return m.GetByPrincipalFunc(ctx, principalID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.PrincipalID == principalID {
			return w, nil
		}
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallets := make([]*domain.Wallet, 0, len(ids))
	for _, id := range ids {
		w, ok := m.wallets[id]
		if !ok {
			return nil, domain.ErrWalletNotFound
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return decimal.Zero, domain.ErrWalletNotFound
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	w.Balance = next
	w.Version++
	w.UpdatedAt = updatedAt
	return next, nil
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Balance = balance
	w.Version++
	w.UpdatedAt = updatedAt
	return nil
}

func (m *MockWalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallets := make([]*domain.Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// MockTransactionRepository is a mock implementation of
// TransactionRepository backed by an in-memory map.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	CreatePendingFunc        func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc              func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByCorrelationFunc     func(ctx context.Context, correlationID string) ([]*domain.Transaction, error)
	FinalizeFunc             func(ctx context.Context, tx usecase.Transaction, id string, outcome domain.Outcome, completedAt time.Time) error
	ListByWalletFunc         func(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)
	ListPendingBeforeFunc    func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
	SumCompletedByWalletFunc func(ctx context.Context, walletID string) (decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) CreatePending(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreatePendingFunc != nil {
		return m.CreatePendingFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *txn
	stored.Status = domain.TransactionPending
	m.txns[txn.ID] = &stored
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txns[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error) {
	if m.GetByCorrelationFunc != nil {
		return m.GetByCorrelationFunc(ctx, correlationID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, t := range m.txns {
		if t.CorrelationID == correlationID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) Finalize(ctx context.Context, tx usecase.Transaction, id string, outcome domain.Outcome, completedAt time.Time) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, tx, id, outcome, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status != domain.TransactionPending {
		return domain.ErrInvalidTransition
	}
	t.Status = outcome.Status
	t.SettlementRef = outcome.SettlementRef
	if outcome.Reason != "" {
		reason := outcome.Reason
		t.FailureReason = &reason
	}
	t.CompletedAt = &completedAt
	return nil
}

func (m *MockTransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByWalletFunc != nil {
		return m.ListByWalletFunc(ctx, walletID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, t := range m.txns {
		if t.WalletID == walletID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	if m.ListPendingBeforeFunc != nil {
		return m.ListPendingBeforeFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, t := range m.txns {
		if t.Status == domain.TransactionPending && t.CreatedAt.Before(cutoff) {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) SumCompletedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error) {
	if m.SumCompletedByWalletFunc != nil {
		return m.SumCompletedByWalletFunc(ctx, walletID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.txns {
		if t.WalletID == walletID && t.Status == domain.TransactionCompleted {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

// MockSagaRepository is a mock implementation of SagaRepository.
type MockSagaRepository struct {
	mu    sync.RWMutex
	sagas map[string]*domain.TransferSaga

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, saga *domain.TransferSaga) error
	GetFunc         func(ctx context.Context, correlationID string) (*domain.TransferSaga, error)
	UpdateStateFunc func(ctx context.Context, tx usecase.Transaction, correlationID string, state domain.SagaState, updatedAt time.Time) error
	ListStaleFunc   func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TransferSaga, error)
}

func NewMockSagaRepository() *MockSagaRepository {
	return &MockSagaRepository{
		sagas: make(map[string]*domain.TransferSaga),
	}
}

// Seed stores a saga directly.
func (m *MockSagaRepository) Seed(saga *domain.TransferSaga) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sagas[saga.CorrelationID] = saga
}

func (m *MockSagaRepository) Create(ctx context.Context, tx usecase.Transaction, saga *domain.TransferSaga) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, saga)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *saga
	m.sagas[saga.CorrelationID] = &stored
	return nil
}

func (m *MockSagaRepository) Get(ctx context.Context, correlationID string) (*domain.TransferSaga, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, correlationID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sagas[correlationID]; ok {
		return s, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockSagaRepository) UpdateState(ctx context.Context, tx usecase.Transaction, correlationID string, state domain.SagaState, updatedAt time.Time) error {
	if m.UpdateStateFunc != nil {
		return m.UpdateStateFunc(ctx, tx, correlationID, state, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sagas[correlationID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	s.State = state
	s.UpdatedAt = updatedAt
	return nil
}

func (m *MockSagaRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TransferSaga, error) {
	if m.ListStaleFunc != nil {
		return m.ListStaleFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sagas []*domain.TransferSaga
	for _, s := range m.sagas {
		if s.State != domain.SagaFinalized && s.UpdatedAt.Before(cutoff) {
			sagas = append(sagas, s)
		}
	}
	return sagas, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the types of recorded events in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.EventType
	}
	return types
}

// MockTransaction is a no-op database transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// MockIDGenerator returns sequential ids.
type MockIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{prefix: "id-"}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return m.prefix + itoa(m.n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// MockNotifier records notifications.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []string

	NotifyFunc func(ctx context.Context, recipient string, amount decimal.Decimal, currency string) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, recipient string, amount decimal.Decimal, currency string) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, recipient, amount, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, recipient)
	return nil
}

// ErrCacheMiss mirrors the miss error of the redis-backed cache.
var ErrCacheMiss = errors.New("cache miss")

// MockCache is an in-memory usecase.Cache.
type MockCache struct {
	mu      sync.RWMutex
	values  map[string][]byte
	Deletes []string
}

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	m.Deletes = append(m.Deletes, key)
	return nil
}

// StaticRates is a fixed-table usecase.RateConverter.
type StaticRates struct {
	Table map[string]decimal.Decimal
}

// NewStaticRates builds a converter with the common mobile-currency
// pairs against XLM.
func NewStaticRates() *StaticRates {
	return &StaticRates{Table: map[string]decimal.Decimal{
		"KES/XLM": decimal.RequireFromString("0.0083333333"),
		"XLM/KES": decimal.RequireFromString("120"),
		"USD/XLM": decimal.RequireFromString("8.33"),
		"XLM/USD": decimal.RequireFromString("0.12"),
	}}
}

func (r *StaticRates) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := r.Table[from+"/"+to]; ok {
		return rate, nil
	}
	return decimal.Zero, domain.ErrUnsupportedCurrencyPair
}

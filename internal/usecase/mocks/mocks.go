package mocks

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// participant is an in-memory repository that takes part in MockTransactionManager
// transactions: its state is captured on Begin and restored on Rollback.
type participant interface {
	snapshot() any
	restore(any)
}

// MockTransactionManager is a mock implementation of TransactionManager.
// Transactions are serialised, which stands in for row locks.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	sem          chan struct{}
	participants []participant

	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
}

func NewMockTransactionManager(participants ...participant) *MockTransactionManager {
	return &MockTransactionManager{
		sem:          make(chan struct{}, 1),
		participants: participants,
	}
}

// NewLedgerStore wires in-memory repositories sharing one transaction manager.
func NewLedgerStore() (*MockTransactionManager, *MockAccountRepository, *MockFreezeRepository, *MockEntryRepository, *MockOutboxRepository, *MockAuditRepository) {
	accounts := NewMockAccountRepository()
	freezes := NewMockFreezeRepository()
	entries := NewMockEntryRepository()
	outbox := NewMockOutboxRepository()
	audit := NewMockAuditRepository()

	return NewMockTransactionManager(accounts, freezes, entries, outbox, audit), accounts, freezes, entries, outbox, audit
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snaps := make([]any, len(m.participants))
	for i, p := range m.participants {
		snaps[i] = p.snapshot()
	}

	m.mu.Lock()
	m.begins++
	m.mu.Unlock()

	return &MockTransaction{manager: m, snaps: snaps}, nil
}

// Stats returns how many transactions were begun, committed and rolled back.
func (m *MockTransactionManager) Stats() (begins, commits, rollbacks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begins, m.commits, m.rollbacks
}

func (m *MockTransactionManager) finish(tx *MockTransaction, commit bool) {
	if !commit {
		for i, p := range m.participants {
			p.restore(tx.snaps[i])
		}
	}

	m.mu.Lock()
	if commit {
		m.commits++
	} else {
		m.rollbacks++
	}
	m.mu.Unlock()

	<-m.sem
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	manager *MockTransactionManager
	snaps   []any
	done    bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	if m.done || m.manager == nil {
		return nil
	}
	m.done = true
	m.manager.finish(m, true)
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	if m.done || m.manager == nil {
		return nil
	}
	m.done = true
	m.manager.finish(m, false)
	return nil
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	UpdateBalancesFunc   func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores an account directly, bypassing transactions.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account.Clone()
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}
	m.accounts[account.ID] = account.Clone()
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc.Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, account)
	}
	// mirrors the CHECK constraint on the accounts table
	if err := account.CheckInvariant(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = account.Balance
	acc.FrozenBalance = account.FrozenBalance
	acc.Version = account.Version
	acc.UpdatedAt = account.UpdatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, acc.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

func (m *MockAccountRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Account, len(m.accounts))
	for id, acc := range m.accounts {
		snap[id] = acc.Clone()
	}
	return snap
}

func (m *MockAccountRepository) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = s.(map[string]*domain.Account)
}

// MockFreezeRepository is an in-memory FreezeRepository. Like the partial
// unique index, it rejects a second PENDING freeze for one purpose ref.
type MockFreezeRepository struct {
	mu      sync.RWMutex
	freezes map[string]*domain.Freeze

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, freeze *domain.Freeze) error
	GetByIDForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Freeze, error)
	TransitionStateFunc    func(ctx context.Context, tx usecase.Transaction, id string, target domain.FreezeState, reason domain.ResolutionReason, resolvedAt time.Time) (bool, error)
	ListExpiredPendingFunc func(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Freeze, error)
}

func NewMockFreezeRepository() *MockFreezeRepository {
	return &MockFreezeRepository{
		freezes: make(map[string]*domain.Freeze),
	}
}

// Seed stores a freeze directly, bypassing transactions.
func (m *MockFreezeRepository) Seed(freeze *domain.Freeze) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freezes[freeze.ID] = freeze.Clone()
}

// All returns every stored freeze ordered by id.
func (m *MockFreezeRepository) All() []*domain.Freeze {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Freeze, 0, len(m.freezes))
	for _, f := range m.freezes {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockFreezeRepository) Create(ctx context.Context, tx usecase.Transaction, freeze *domain.Freeze) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, freeze)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.freezes {
		if f.PurposeRef == freeze.PurposeRef && f.State == domain.FreezeStatePending {
			return domain.ErrDuplicateReservation
		}
	}
	m.freezes[freeze.ID] = freeze.Clone()
	return nil
}

func (m *MockFreezeRepository) GetByID(ctx context.Context, id string) (*domain.Freeze, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.freezes[id]; ok {
		return f.Clone(), nil
	}
	return nil, domain.ErrFreezeNotFound
}

func (m *MockFreezeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Freeze, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockFreezeRepository) GetPendingByPurposeRef(ctx context.Context, tx usecase.Transaction, purposeRef string) (*domain.Freeze, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.freezes {
		if f.PurposeRef == purposeRef && f.State == domain.FreezeStatePending {
			return f.Clone(), nil
		}
	}
	return nil, domain.ErrFreezeNotFound
}

func (m *MockFreezeRepository) GetLatestByPurposeRef(ctx context.Context, purposeRef string) (*domain.Freeze, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Freeze
	for _, f := range m.freezes {
		if f.PurposeRef != purposeRef {
			continue
		}
		if f.State == domain.FreezeStatePending {
			return f.Clone(), nil
		}
		if latest == nil || f.ID > latest.ID {
			latest = f
		}
	}
	if latest == nil {
		return nil, domain.ErrFreezeNotFound
	}
	return latest.Clone(), nil
}

func (m *MockFreezeRepository) TransitionState(ctx context.Context, tx usecase.Transaction, id string, target domain.FreezeState, reason domain.ResolutionReason, resolvedAt time.Time) (bool, error) {
	if m.TransitionStateFunc != nil {
		return m.TransitionStateFunc(ctx, tx, id, target, reason, resolvedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.freezes[id]
	if !ok || f.State != domain.FreezeStatePending {
		return false, nil
	}
	f.State = target
	f.ResolutionReason = reason
	at := resolvedAt
	f.ResolvedAt = &at
	return true, nil
}

func (m *MockFreezeRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Freeze, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Freeze
	for _, f := range m.freezes {
		if f.AccountID == accountID {
			out = append(out, f.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func (m *MockFreezeRepository) ListExpiredPending(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Freeze, error) {
	if m.ListExpiredPendingFunc != nil {
		return m.ListExpiredPendingFunc(ctx, now, afterID, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Freeze
	for _, f := range m.freezes {
		if f.State == domain.FreezeStatePending && f.ExpiresAt.Before(now) && f.ID > afterID {
			out = append(out, f.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// pendingTotals sums PENDING freezes per account.
func (m *MockFreezeRepository) pendingTotals() map[string]*domain.FreezeTotals {
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals := make(map[string]*domain.FreezeTotals)
	for _, f := range m.freezes {
		if f.State != domain.FreezeStatePending {
			continue
		}
		t, ok := totals[f.AccountID]
		if !ok {
			t = &domain.FreezeTotals{AccountID: f.AccountID, PendingSum: decimal.Zero}
			totals[f.AccountID] = t
		}
		t.PendingSum = t.PendingSum.Add(f.Amount)
		t.PendingCount++
	}
	return totals
}

func (m *MockFreezeRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Freeze, len(m.freezes))
	for id, f := range m.freezes {
		snap[id] = f.Clone()
	}
	return snap
}

func (m *MockFreezeRepository) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freezes = s.(map[string]*domain.Freeze)
}

// MockLedgerRepository computes FreezeTotals from the in-memory repositories.
type MockLedgerRepository struct {
	accounts *MockAccountRepository
	freezes  *MockFreezeRepository

	FreezeTotalsFunc func(ctx context.Context) ([]*domain.FreezeTotals, error)
}

func NewMockLedgerRepository(accounts *MockAccountRepository, freezes *MockFreezeRepository) *MockLedgerRepository {
	return &MockLedgerRepository{accounts: accounts, freezes: freezes}
}

func (m *MockLedgerRepository) FreezeTotals(ctx context.Context) ([]*domain.FreezeTotals, error) {
	if m.FreezeTotalsFunc != nil {
		return m.FreezeTotalsFunc(ctx)
	}
	pending := m.freezes.pendingTotals()
	accounts, _ := m.accounts.List(ctx, 0, 0)

	out := make([]*domain.FreezeTotals, 0, len(accounts))
	for _, acc := range accounts {
		t := &domain.FreezeTotals{
			AccountID:     acc.ID,
			Balance:       acc.Balance,
			FrozenBalance: acc.FrozenBalance,
			PendingSum:    decimal.Zero,
		}
		if p, ok := pending[acc.ID]; ok {
			t.PendingSum = p.PendingSum
			t.PendingCount = p.PendingCount
		}
		out = append(out, t)
	}
	return out, nil
}

// MockEntryRepository is an in-memory EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.AccountEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.AccountEntry) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.AccountEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *entry
	m.entries = append(m.entries, &e)
	return nil
}

func (m *MockEntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AccountEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AccountEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			e := *m.entries[i]
			out = append(out, &e)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockEntryRepository) GetByFreeze(ctx context.Context, freezeID string) ([]*domain.AccountEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AccountEntry
	for _, e := range m.entries {
		if e.FreezeID == freezeID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AccountEntry(nil), m.entries...)
}

func (m *MockEntryRepository) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = s.([]*domain.AccountEntry)
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// EventTypes lists stored event types in insertion order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

func (m *MockOutboxRepository) CountUnpublished(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, e := range m.events {
		if !e.Published {
			n++
		}
	}
	return n, nil
}

func (m *MockOutboxRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = s.([]*domain.OutboxEvent)
}

// MockAuditRepository is an in-memory AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		out = append(out, l)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (m *MockAuditRepository) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

func (m *MockAuditRepository) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = s.([]*domain.AuditLog)
}

// MockIDGenerator is a mock implementation of IDGenerator. Generated ids
// sort in creation order.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	id := strconv.Itoa(m.counter)
	for len(id) < 8 {
		id = "0" + id
	}
	return "mock-id-" + id
}

// MockRetrier retries up to Attempts times on RetryOn errors.
type MockRetrier struct {
	Attempts int
	RetryOn  error

	mu    sync.Mutex
	calls int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < max(m.Attempts, 1); i++ {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()

		err = operation()
		if err == nil || m.RetryOn == nil || !errors.Is(err, m.RetryOn) {
			return err
		}
	}
	return errors.Join(domain.ErrTransientStore, err)
}

// Calls returns how many times the operation ran.
func (m *MockRetrier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"sync"
	"time"

	"portfolio-access/internal/domain"
	"portfolio-access/internal/domain/model"
	"portfolio-access/internal/domain/ports/adapter"
	"portfolio-access/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memPassRepo is a small in-memory entitlement store used by unit tests.
type memPassRepo struct {
	mu      sync.RWMutex
	passes  map[string]*model.AccessPass // by pass id
	findErr error                        // simulate read failures
	saveErr error                        // simulate write failures
	reads   int                          // FindActiveByOwner call count
}

func newMemPassRepo() *memPassRepo {
	return &memPassRepo{passes: make(map[string]*model.AccessPass)}
}

func (m *memPassRepo) Save(ctx context.Context, tx repository.Tx, p *model.AccessPass) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.passes[p.ID] = &cp
	return nil
}

func (m *memPassRepo) FindActiveByOwner(ctx context.Context, tx repository.Tx, owner string) (*model.AccessPass, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var best *model.AccessPass
	for _, p := range m.passes {
		if p.Owner != owner || p.Status != model.PassStatusActive || !p.ExpiresAt.After(now) {
			continue
		}
		if best == nil || p.ExpiresAt.After(best.ExpiresAt) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memPassRepo) Revoke(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passes[id]
	if !ok || p.Status != model.PassStatusActive {
		return domain.ErrNotFound
	}
	p.Status = model.PassStatusRevoked
	p.ExpiresAt = at
	return nil
}

func (m *memPassRepo) ListByOwner(ctx context.Context, tx repository.Tx, owner string, limit int) ([]*model.AccessPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.AccessPass
	for _, p := range m.passes {
		if p.Owner == owner && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPassRepo) readCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

func (m *memPassRepo) countByOwner(owner string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.passes {
		if p.Owner == owner {
			n++
		}
	}
	return n
}

// memOpRepo is the in-memory payment operation log.
type memOpRepo struct {
	mu      sync.RWMutex
	ops     map[string]*model.PaymentOperation
	saveErr error
}

func newMemOpRepo() *memOpRepo {
	return &memOpRepo{ops: make(map[string]*model.PaymentOperation)}
}

func (m *memOpRepo) Save(ctx context.Context, tx repository.Tx, op *model.PaymentOperation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *op
	m.ops[op.ExternalTxID] = &cp
	return nil
}

func (m *memOpRepo) FindByExternalTxID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *op
	return &cp, nil
}

func (m *memOpRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.OperationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return domain.ErrNotFound
	}
	op.Status = status
	op.UpdatedAt = time.Now()
	return nil
}

func (m *memOpRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.PaymentOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentOperation
	for _, op := range m.ops {
		if op.Status == model.OperationStatusPending && op.CreatedAt.Before(cutoff) && len(out) < limit {
			cp := *op
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockPaymentGateway has injectable behavior per method.
type MockPaymentGateway struct {
	CreateOperationFunc   func(ctx context.Context, req adapter.OperationRequest) (*adapter.OperationResult, error)
	TransactionStatusFunc func(ctx context.Context, externalTxID string) (*adapter.TransactionStatus, error)

	mu          sync.Mutex
	createCalls []adapter.OperationRequest
	statusCalls []string
}

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) CreateOperation(ctx context.Context, req adapter.OperationRequest) (*adapter.OperationResult, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, req)
	g.mu.Unlock()
	if g.CreateOperationFunc != nil {
		return g.CreateOperationFunc(ctx, req)
	}
	return &adapter.OperationResult{
		ExternalTxID: req.ExternalTxID,
		DeepLink:     "intech://pay/" + req.ExternalTxID,
		AuthLink:     "https://pay.example/" + req.ExternalTxID,
	}, nil
}

func (g *MockPaymentGateway) TransactionStatus(ctx context.Context, externalTxID string) (*adapter.TransactionStatus, error) {
	g.mu.Lock()
	g.statusCalls = append(g.statusCalls, externalTxID)
	g.mu.Unlock()
	if g.TransactionStatusFunc != nil {
		return g.TransactionStatusFunc(ctx, externalTxID)
	}
	return &adapter.TransactionStatus{ExternalTxID: externalTxID, Status: "PENDING"}, nil
}

func (g *MockPaymentGateway) ListServices(ctx context.Context) ([]adapter.Service, error) {
	return nil, nil
}

func (g *MockPaymentGateway) GetBalance(ctx context.Context) (*adapter.Balance, error) {
	return &adapter.Balance{}, nil
}

func (g *MockPaymentGateway) ListPendingBills(ctx context.Context, serviceCode, reference string) ([]adapter.PendingBill, error) {
	return nil, nil
}

func (g *MockPaymentGateway) RecentErrors(ctx context.Context) ([]adapter.GatewayError, error) {
	return nil, nil
}

func (g *MockPaymentGateway) createdRequests() []adapter.OperationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]adapter.OperationRequest(nil), g.createCalls...)
}

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, repository.NoTX)
}

// mockThrottle counts Allow calls and denies after a configurable budget.
type mockThrottle struct {
	mu     sync.Mutex
	calls  int
	budget int // 0 means unlimited
}

func (t *mockThrottle) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.budget > 0 && t.calls > t.budget {
		return false, nil
	}
	return true, nil
}

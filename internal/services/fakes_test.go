package services

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// memoryStore is an in-memory TransactionStore with the same conditional
// update rules as the real stores.
type memoryStore struct {
	mu     sync.Mutex
	txs    map[string]models.Transaction
	GetErr error
	SetErr error
	Limits []int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{txs: map[string]models.Transaction{}}
}

func (m *memoryStore) Create(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[tx.TransactionID]; ok {
		return models.ErrTransactionExists
	}
	m.txs[tx.TransactionID] = *tx
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	tx, ok := m.txs[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	return &tx, nil
}

func (m *memoryStore) SetStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return nil, false, m.SetErr
	}
	tx, ok := m.txs[id]
	if !ok {
		return nil, false, models.ErrTransactionNotFound
	}
	switch tx.Status {
	case models.StatusPending:
		tx.Status = status
		m.txs[id] = tx
		return &tx, true, nil
	case status:
		return &tx, false, nil
	}
	return &tx, false, models.ErrStatusConflict
}

func (m *memoryStore) SetScore(ctx context.Context, id string, score decimal.Decimal) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	tx.Score = decimal.NullDecimal{Decimal: score, Valid: true}
	m.txs[id] = tx
	return &tx, nil
}

func (m *memoryStore) List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Limits = append(m.Limits, limit)
	var out []models.Transaction
	for _, tx := range m.txs {
		if status == "" || tx.Status == status {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) status(id string) models.PaymentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs[id].Status
}

// MockGateway implements Gateway for testing.
type MockGateway struct {
	InitSessionFunc func(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	Requests        []SessionRequest
}

func (m *MockGateway) InitSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.InitSessionFunc != nil {
		return m.InitSessionFunc(ctx, req)
	}
	return &SessionResponse{Status: "SUCCESS", GatewayPageURL: "https://sandbox.sslcommerz.com/EasyCheckOut/" + req.TransactionID}, nil
}

// MockValidator implements OrderValidator for testing. Without a
// ValidateOrderFunc it answers from Orders.
type MockValidator struct {
	ValidateOrderFunc func(ctx context.Context, valID string) (*OrderValidation, error)
	Orders            map[string]OrderValidation
	Calls             []string
}

func (m *MockValidator) ValidateOrder(ctx context.Context, valID string) (*OrderValidation, error) {
	m.Calls = append(m.Calls, valID)
	if m.ValidateOrderFunc != nil {
		return m.ValidateOrderFunc(ctx, valID)
	}
	if order, ok := m.Orders[valID]; ok {
		return &order, nil
	}
	return &OrderValidation{Status: "INVALID_TRANSACTION"}, nil
}

// memoryUsers is an in-memory UserStore keyed by email.
type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	SaveErr error
	Limits  []int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]models.User{}}
}

func (m *memoryUsers) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	saved := *user
	if old, ok := m.byEmail[user.Email]; ok {
		saved.ID = old.ID
		saved.CreatedAt = old.CreatedAt
	}
	m.byEmail[user.Email] = saved
	return &saved, nil
}

func (m *memoryUsers) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Limits = append(m.Limits, limit)
	var users []models.User
	for _, user := range m.byEmail {
		users = append(users, user)
	}
	return users, nil
}

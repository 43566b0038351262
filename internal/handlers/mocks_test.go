package handlers

import (
	"context"
	"errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

var ErrMockRender = errors.New("mock render error")

// MockPaymentInitiator implements PaymentInitiator for testing
type MockPaymentInitiator struct {
	CreatePaymentFunc func(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitResult, error)
	LastRequest       models.PaymentRequest
}

func (m *MockPaymentInitiator) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitResult, error) {
	m.LastRequest = req
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return &models.PaymentInitResult{URL: "https://sandbox.sslcommerz.com/EasyCheckOut/abc"}, nil
}

// MockStatusRecorder implements StatusRecorder and StatusReader for testing
type MockStatusRecorder struct {
	GetPaymentStatusFunc func(ctx context.Context, transactionID string) (*models.PaymentStatusView, error)
	RecordOutcomeFunc    func(ctx context.Context, transactionID string, status models.PaymentStatus, valID string) (bool, error)
	Recorded             []models.PaymentStatus
	ValIDs               []string
	GetCalls             int
}

func (m *MockStatusRecorder) GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusView, error) {
	m.GetCalls++
	if m.GetPaymentStatusFunc != nil {
		return m.GetPaymentStatusFunc(ctx, transactionID)
	}
	return &models.PaymentStatusView{Status: models.StatusSuccess, TransactionID: transactionID, Name: "Student Name", Score: "7.0"}, nil
}

func (m *MockStatusRecorder) RecordOutcome(ctx context.Context, transactionID string, status models.PaymentStatus, valID string) (bool, error) {
	m.Recorded = append(m.Recorded, status)
	m.ValIDs = append(m.ValIDs, valID)
	if m.RecordOutcomeFunc != nil {
		return m.RecordOutcomeFunc(ctx, transactionID, status, valID)
	}
	return true, nil
}

// MockRenderer implements CertificateRenderer for testing
type MockRenderer struct {
	RenderFunc func(cert models.Certificate) ([]byte, error)
	Calls      []models.Certificate
}

func (m *MockRenderer) Render(cert models.Certificate) ([]byte, error) {
	m.Calls = append(m.Calls, cert)
	if m.RenderFunc != nil {
		return m.RenderFunc(cert)
	}
	return []byte("%PDF-1.3 test"), nil
}

// MockProfileUpdater implements ProfileUpdater for testing
type MockProfileUpdater struct {
	UpdateUserFunc func(ctx context.Context, user models.User) (*models.User, error)
	Updates        []models.User
}

func (m *MockProfileUpdater) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	m.Updates = append(m.Updates, user)
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, user)
	}
	user.ID = "user-1"
	return &user, nil
}

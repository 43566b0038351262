package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// TransactionStore persists transactions for the status backend.
//
// SetStatus must only move a pending record to a terminal status. When the
// record already holds the requested status it returns it with changed=false
// and no error; when it holds the other terminal status it returns the stored
// record together with models.ErrStatusConflict.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, id string) (*models.Transaction, error)
	SetStatus(ctx context.Context, id string, status models.PaymentStatus) (tx *models.Transaction, changed bool, err error)
	SetScore(ctx context.Context, id string, score decimal.Decimal) (*models.Transaction, error)
	List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Transaction, error)
}

type Gateway interface {
	InitSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
}

// OrderValidator confirms a success callback with the gateway using the
// val_id it posted.
type OrderValidator interface {
	ValidateOrder(ctx context.Context, valID string) (*OrderValidation, error)
}

// TransactionService backs the status store API: it opens gateway sessions
// for new transactions and guards their single terminal transition.
type TransactionService struct {
	store     TransactionStore
	gateway   Gateway
	validator OrderValidator
	appURL    string
	currency  string
	now       func() time.Time
	newID     func() string
}

func NewTransactionService(store TransactionStore, gateway Gateway, appURL, currency string) *TransactionService {
	if currency == "" {
		currency = "BDT"
	}
	return &TransactionService{
		store:    store,
		gateway:  gateway,
		appURL:   strings.TrimRight(appURL, "/"),
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithOrderValidator makes UpdateStatus accept a success only after the
// gateway confirms the val_id sent with it.
func (s *TransactionService) WithOrderValidator(v OrderValidator) *TransactionService {
	s.validator = v
	return s
}

func (s *TransactionService) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitResult, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("amount", "must be positive")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.PackageName = strings.TrimSpace(req.PackageName)
	if req.Email == "" {
		return nil, invalid("email", "is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}

	now := s.now()
	tx := &models.Transaction{
		TransactionID: s.newID(),
		Amount:        req.Amount,
		Currency:      currency,
		Status:        models.StatusPending,
		Name:          req.Name,
		Email:         req.Email,
		PackageName:   req.PackageName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		log.Printf("[statusd] failed to save transaction %s: %v", tx.TransactionID, err)
		return nil, errors.Wrap(err, "save transaction")
	}

	session, err := s.gateway.InitSession(ctx, SessionRequest{
		TransactionID:   tx.TransactionID,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		ProductName:     tx.PackageName,
		CustomerName:    tx.Name,
		CustomerEmail:   tx.Email,
		CustomerAddress: strings.TrimSpace(req.Address),
		CustomerPhone:   strings.TrimSpace(req.Phone),
		SuccessURL:      s.appURL + "/api/payment/success",
		FailURL:         s.appURL + "/api/payment/failed",
		CancelURL:       s.appURL + "/api/payment/cancel",
	})
	if err != nil {
		// The attempt stays on record as failed so it cannot be paid later.
		if _, _, serr := s.store.SetStatus(ctx, tx.TransactionID, models.StatusFailed); serr != nil {
			log.Printf("[statusd] failed to mark %s failed after gateway error: %v", tx.TransactionID, serr)
		}
		return nil, err
	}

	log.Printf("[statusd] payment created: transaction=%s amount=%s %s", tx.TransactionID, tx.Amount, tx.Currency)
	return &models.PaymentInitResult{URL: session.GatewayPageURL, TransactionID: tx.TransactionID}, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	id, err := ValidateTransactionID(id)
	if err != nil {
		return nil, err
	}
	tx, err := s.store.Get(ctx, id)
	if errors.Is(err, models.ErrTransactionNotFound) {
		return nil, &NotFoundError{TransactionID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get transaction %s", id)
	}
	return tx, nil
}

func (s *TransactionService) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Transaction, error) {
	id, err := ValidateTransactionID(id)
	if err != nil {
		return nil, err
	}
	status := models.PaymentStatus(strings.ToLower(string(update.Status)))
	if !status.Terminal() {
		return nil, invalid("status", "must be success or failed")
	}
	if status == models.StatusSuccess && s.validator != nil {
		if err := s.confirmPayment(ctx, id, update.ValID); err != nil {
			return nil, err
		}
	}

	tx, changed, err := s.store.SetStatus(ctx, id, status)
	switch {
	case errors.Is(err, models.ErrTransactionNotFound):
		return nil, &NotFoundError{TransactionID: id}
	case errors.Is(err, models.ErrStatusConflict):
		log.Printf("[statusd] ANOMALY: refused %s for %s, stored status is %s", status, id, tx.Status)
		return tx, &ConflictError{TransactionID: id, Current: tx.Status, Requested: status}
	case err != nil:
		return nil, errors.Wrapf(err, "update transaction %s", id)
	}

	if changed {
		log.Printf("[statusd] transaction %s -> %s", id, status)
	} else {
		log.Printf("[statusd] transaction %s already %s", id, status)
	}
	return tx, nil
}

// confirmPayment checks a pending transaction against the gateway's record of
// val_id. Transactions already out of pending are left to SetStatus.
func (s *TransactionService) confirmPayment(ctx context.Context, id, valID string) error {
	tx, err := s.store.Get(ctx, id)
	if errors.Is(err, models.ErrTransactionNotFound) {
		return &NotFoundError{TransactionID: id}
	}
	if err != nil {
		return errors.Wrapf(err, "get transaction %s", id)
	}
	if tx.Status != models.StatusPending {
		return nil
	}

	valID = strings.TrimSpace(valID)
	if valID == "" {
		log.Printf("[statusd] success for %s without val_id refused", id)
		return invalid("valId", "is required to confirm a payment")
	}
	order, err := s.validator.ValidateOrder(ctx, valID)
	if err != nil {
		log.Printf("[statusd] validation of %s for %s failed: %v", valID, id, err)
		return err
	}
	if reason := order.mismatch(tx); reason != "" {
		log.Printf("[statusd] ANOMALY: val_id %s does not confirm %s: %s", valID, id, reason)
		return &PaymentRequiredError{TransactionID: id, Status: tx.Status}
	}
	return nil
}

var maxBandScore = decimal.NewFromInt(9)

// RecordScore attaches the achieved overall band score (0.0 to 9.0) printed on
// the certificate.
func (s *TransactionService) RecordScore(ctx context.Context, id string, score decimal.Decimal) (*models.Transaction, error) {
	id, err := ValidateTransactionID(id)
	if err != nil {
		return nil, err
	}
	if score.IsNegative() || score.GreaterThan(maxBandScore) {
		return nil, invalid("score", "must be between 0.0 and 9.0")
	}
	tx, err := s.store.SetScore(ctx, id, score)
	if errors.Is(err, models.ErrTransactionNotFound) {
		return nil, &NotFoundError{TransactionID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "record score %s", id)
	}
	log.Printf("[statusd] transaction %s score %s", id, score.StringFixed(1))
	return tx, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, status string, limit int) ([]models.Transaction, error) {
	st := models.PaymentStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, invalid("status", "must be pending, success or failed")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txs, err := s.store.List(ctx, st, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

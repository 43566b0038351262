package services

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// Placeholders used when the store has no name or score for a transaction.
const (
	DefaultCertificateName = "Student Name"
	DefaultScore           = "7.0"
)

// StatusService is the client side of the payment status store.
type StatusService struct {
	backend *BackendClient
}

func NewStatusService(backend *BackendClient) *StatusService {
	return &StatusService{backend: backend}
}

// statusPayload is decoded leniently: backends disagree on whether amount and
// score are numbers or strings.
type statusPayload struct {
	Status        *string         `json:"status"`
	TransactionID string          `json:"transactionId"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PackageName   string          `json:"packageName"`
	Score         json.RawMessage `json:"score"`
}

// GetTransaction fetches the raw record from the store.
func (s *StatusService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transactionID, err := ValidateTransactionID(transactionID)
	if err != nil {
		return nil, err
	}

	code, body, err := s.backend.call(ctx, http.MethodGet, "/payment/"+url.PathEscape(transactionID), nil)
	if err != nil {
		log.Printf("[status] fetch %s failed: %v", transactionID, err)
		return nil, upstream(ErrStatusFetch, "get payment status", err)
	}
	if code == http.StatusNotFound {
		return nil, &NotFoundError{TransactionID: transactionID}
	}
	if !isSuccess(code) {
		log.Printf("[status] fetch %s failed with status %d: %s", transactionID, code, snippet(body))
		return nil, &UpstreamError{Kind: ErrStatusFetch, Op: "get payment status", StatusCode: code}
	}

	var p statusPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, upstream(ErrStatusFetch, "get payment status", errors.Wrap(err, "decode response"))
	}
	if p.Status == nil || strings.TrimSpace(*p.Status) == "" {
		return nil, &UpstreamError{Kind: ErrStatusFetch, Op: "get payment status", Msg: "response has no status"}
	}

	tx := &models.Transaction{
		TransactionID: p.TransactionID,
		Status:        models.PaymentStatus(strings.ToLower(strings.TrimSpace(*p.Status))),
		Currency:      p.Currency,
		Name:          strings.TrimSpace(p.Name),
		Email:         p.Email,
		PackageName:   p.PackageName,
	}
	if amount, ok := parseDecimal(p.Amount); ok {
		tx.Amount = amount
	}
	if score, ok := parseDecimal(p.Score); ok {
		tx.Score = decimal.NullDecimal{Decimal: score, Valid: true}
	}
	if tx.TransactionID == "" {
		tx.TransactionID = transactionID
	}
	return tx, nil
}

// GetPaymentStatus returns the store record with name and score defaulted,
// whatever the status.
func (s *StatusService) GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusView, error) {
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return StatusView(tx), nil
}

// StatusView fills the display defaults for a transaction.
func StatusView(tx *models.Transaction) *models.PaymentStatusView {
	view := &models.PaymentStatusView{
		Status:        tx.Status,
		TransactionID: tx.TransactionID,
		Amount:        tx.Amount,
		Name:          tx.Name,
		Score:         DefaultScore,
	}
	if view.Name == "" {
		view.Name = DefaultCertificateName
	}
	if tx.Score.Valid {
		view.Score = tx.Score.Decimal.StringFixed(1)
	}
	return view
}

// UpdatePaymentStatus writes a terminal status to the store. valID is the
// gateway validation id the store checks before accepting a success.
func (s *StatusService) UpdatePaymentStatus(ctx context.Context, transactionID string, status models.PaymentStatus, valID string) error {
	transactionID, err := ValidateTransactionID(transactionID)
	if err != nil {
		return err
	}
	update := models.StatusUpdate{Status: status, ValID: strings.TrimSpace(valID)}
	code, body, err := s.backend.call(ctx, http.MethodPut, "/payment/"+url.PathEscape(transactionID), update)
	if err != nil {
		log.Printf("[status] update %s -> %s failed: %v", transactionID, status, err)
		return upstream(ErrStatusUpdate, "update payment status", err)
	}

	var p struct {
		Error  string               `json:"error"`
		Status models.PaymentStatus `json:"status"`
	}
	switch {
	case isSuccess(code):
		return nil
	case code == http.StatusBadRequest:
		_ = json.Unmarshal(body, &p)
		if p.Error == "" {
			p.Error = "status update rejected by the store"
		}
		return &ValidationError{Msg: p.Error}
	case code == http.StatusPaymentRequired:
		return &PaymentRequiredError{TransactionID: transactionID, Status: models.StatusPending}
	case code == http.StatusNotFound:
		return &NotFoundError{TransactionID: transactionID}
	case code == http.StatusConflict:
		_ = json.Unmarshal(body, &p)
		return &ConflictError{TransactionID: transactionID, Current: p.Status, Requested: status}
	}
	log.Printf("[status] update %s failed with status %d: %s", transactionID, code, snippet(body))
	return &UpstreamError{Kind: ErrStatusUpdate, Op: "update payment status", StatusCode: code}
}

// RecordOutcome moves a transaction to a terminal status once. Writing the
// status it already has is a no-op; writing the other terminal status is a
// ConflictError and the stored value is left alone. changed reports whether a
// write reached the store.
func (s *StatusService) RecordOutcome(ctx context.Context, transactionID string, status models.PaymentStatus, valID string) (changed bool, err error) {
	transactionID, err = ValidateTransactionID(transactionID)
	if err != nil {
		return false, err
	}
	if !status.Terminal() {
		return false, invalid("status", "must be success or failed")
	}

	current, err := s.GetTransaction(ctx, transactionID)
	var nf *NotFoundError
	switch {
	case err == nil:
		if current.Status == status {
			log.Printf("[status] duplicate %s callback for %s ignored", status, transactionID)
			return false, nil
		}
		if current.Status.Terminal() {
			log.Printf("[status] ANOMALY: %s callback for %s which is already %s", status, transactionID, current.Status)
			return false, &ConflictError{TransactionID: transactionID, Current: current.Status, Requested: status}
		}
	case errors.As(err, &nf):
		// Some stores create the record on first write.
	default:
		return false, err
	}

	if err := s.UpdatePaymentStatus(ctx, transactionID, status, valID); err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			if ce.Current == status {
				return false, nil
			}
			log.Printf("[status] ANOMALY: store rejected %s for %s: %v", status, transactionID, err)
		}
		return false, err
	}
	log.Printf("[status] transaction %s recorded as %s", transactionID, status)
	return true, nil
}

// parseDecimal accepts a JSON number or a numeric string. Absent, null and
// empty values report ok=false.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, false
	}
	s := strings.Trim(string(raw), `"`)
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

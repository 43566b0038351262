package services

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

const DefaultSSLCommerzURL = "https://sandbox.sslcommerz.com"

// Customer fields the gateway requires. Used when the payer left them out.
const (
	placeholderAddress = "N/A"
	placeholderCity    = "Dhaka"
	placeholderPhone   = "01700000000"
)

// SSLCommerzService opens hosted checkout sessions on the SSLCommerz gateway.
type SSLCommerzService struct {
	storeID       string
	storePassword string
	baseURL       string
	client        *http.Client
	timeout       time.Duration
}

type SessionRequest struct {
	TransactionID   string
	Amount          decimal.Decimal
	Currency        string
	ProductName     string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	SuccessURL      string
	FailURL         string
	CancelURL       string
}

type SessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func NewSSLCommerzService(storeID, storePassword, baseURL string, client *http.Client, timeout time.Duration) *SSLCommerzService {
	if baseURL == "" {
		baseURL = DefaultSSLCommerzURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &SSLCommerzService{
		storeID:       storeID,
		storePassword: storePassword,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        client,
		timeout:       timeout,
	}
}

// InitSession registers the transaction with the gateway and returns the
// hosted payment page. It is not retried: a second session for the same
// tran_id could charge the customer twice.
func (s *SSLCommerzService) InitSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("store_id", s.storeID)
	form.Set("store_passwd", s.storePassword)
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_add1", orDefault(req.CustomerAddress, placeholderAddress))
	form.Set("cus_city", placeholderCity)
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", orDefault(req.CustomerPhone, placeholderPhone))
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", "Education")
	form.Set("product_profile", "non-physical-goods")

	log.Printf("[sslcommerz] session request: tran_id=%s amount=%s %s email=%s",
		req.TransactionID, form.Get("total_amount"), req.Currency, maskEmail(req.CustomerEmail))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/gwprocess/v4/api.php", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build session request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		log.Printf("[sslcommerz] session request failed: %v", err)
		return nil, upstream(ErrGateway, "init session", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[sslcommerz] session request failed with status %d", resp.StatusCode)
		return nil, &UpstreamError{Kind: ErrGateway, Op: "init session", StatusCode: resp.StatusCode}
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, upstream(ErrGateway, "init session", errors.Wrap(err, "decode response"))
	}
	if !strings.EqualFold(session.Status, "SUCCESS") || session.GatewayPageURL == "" {
		log.Printf("[sslcommerz] session rejected: status=%s reason=%s", session.Status, session.FailedReason)
		return nil, &UpstreamError{Kind: ErrGateway, Op: "init session", Msg: session.FailedReason}
	}

	log.Printf("[sslcommerz] session opened: tran_id=%s", req.TransactionID)
	return &session, nil
}

// OrderValidation is the gateway's record of a completed checkout.
type OrderValidation struct {
	Status         string `json:"status"`
	TranID         string `json:"tran_id"`
	ValID          string `json:"val_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	CurrencyType   string `json:"currency_type"`
	CurrencyAmount string `json:"currency_amount"`
	RiskLevel      string `json:"risk_level"`
}

// mismatch explains why v does not confirm tx, or returns "".
func (v *OrderValidation) mismatch(tx *models.Transaction) string {
	if !strings.EqualFold(v.Status, "VALID") && !strings.EqualFold(v.Status, "VALIDATED") {
		return "gateway status " + v.Status
	}
	if v.TranID != tx.TransactionID {
		return "issued for transaction " + v.TranID
	}
	amount, currency := v.CurrencyAmount, v.CurrencyType
	if amount == "" {
		amount, currency = v.Amount, v.Currency
	}
	paid, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !paid.Equal(tx.Amount) {
		return "paid amount " + amount
	}
	if currency != "" && tx.Currency != "" && !strings.EqualFold(currency, tx.Currency) {
		return "paid currency " + currency
	}
	return ""
}

// ValidateOrder looks up val_id with the gateway's order validation API.
func (s *SSLCommerzService) ValidateOrder(ctx context.Context, valID string) (*OrderValidation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", s.storeID)
	query.Set("store_passwd", s.storePassword)
	query.Set("v", "1")
	query.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/validator/api/validationserverAPI.php?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build validation request")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		log.Printf("[sslcommerz] validation request failed: %v", err)
		return nil, upstream(ErrGateway, "validate order", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[sslcommerz] validation request failed with status %d", resp.StatusCode)
		return nil, &UpstreamError{Kind: ErrGateway, Op: "validate order", StatusCode: resp.StatusCode}
	}

	var order OrderValidation
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, upstream(ErrGateway, "validate order", errors.Wrap(err, "decode response"))
	}
	log.Printf("[sslcommerz] val_id %s: status=%s tran_id=%s risk=%s", valID, order.Status, order.TranID, order.RiskLevel)
	return &order, nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

package services

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// PaymentService turns a payment intent into a gateway redirect URL by asking
// the payment backend to open a session.
type PaymentService struct {
	backend *BackendClient
	gateway *url.URL
}

// NewPaymentService validates gatewayURL once; every redirect URL returned by
// the backend must share its scheme and host.
func NewPaymentService(backend *BackendClient, gatewayURL string) (*PaymentService, error) {
	u, err := url.Parse(gatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid gateway url %q", gatewayURL)
	}
	return &PaymentService{backend: backend, gateway: u}, nil
}

func (s *PaymentService) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitResult, error) {
	req.PackageName = strings.TrimSpace(req.PackageName)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if !req.Amount.IsPositive() {
		return nil, invalid("amount", "must be positive")
	}
	if req.PackageName == "" {
		return nil, invalid("packageName", "is required")
	}
	if req.Name == "" {
		return nil, invalid("name", "is required")
	}
	if req.Email == "" {
		return nil, invalid("email", "is required")
	}

	log.Printf("[payment] init: amount=%s package=%q email=%s", req.Amount, req.PackageName, maskEmail(req.Email))

	code, body, err := s.backend.call(ctx, http.MethodPost, "/create-payment", req)
	if err != nil {
		log.Printf("[payment] init request failed: %v", err)
		return nil, upstream(ErrPaymentInit, "create payment", err)
	}
	if !isSuccess(code) {
		log.Printf("[payment] init failed with status %d: %s", code, snippet(body))
		return nil, &UpstreamError{Kind: ErrPaymentInit, Op: "create payment", StatusCode: code}
	}

	var result models.PaymentInitResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("[payment] undecodable init response: %s", snippet(body))
		return nil, upstream(ErrPaymentInit, "create payment", errors.Wrap(err, "decode response"))
	}
	if result.URL == "" {
		return nil, &UpstreamError{Kind: ErrPaymentInit, Op: "create payment", Msg: "no redirect url in response"}
	}
	if err := s.checkOrigin(result.URL); err != nil {
		log.Printf("[payment] rejected redirect url %q: %v", result.URL, err)
		return nil, &UpstreamError{Kind: ErrPaymentInit, Op: "create payment", Msg: err.Error()}
	}

	log.Printf("[payment] init ok: transaction=%s", result.TransactionID)
	return &result, nil
}

func (s *PaymentService) checkOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, "parse redirect url")
	}
	if !strings.EqualFold(u.Scheme, s.gateway.Scheme) || !strings.EqualFold(u.Host, s.gateway.Host) {
		return errors.Errorf("unexpected redirect origin %s://%s", u.Scheme, u.Host)
	}
	return nil
}

// maskEmail keeps the first three characters of the local part.
func maskEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return "****"
	}
	if local := []rune(parts[0]); len(local) > 3 {
		return string(local[:3]) + "****@" + parts[1]
	}
	return "****@" + parts[1]
}

package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// Upstream failure kinds. Match them with errors.Is.
var (
	ErrPaymentInit  = errors.New("payment initialization failed")
	ErrStatusFetch  = errors.New("payment status fetch failed")
	ErrStatusUpdate = errors.New("payment status update failed")
	ErrGateway      = errors.New("payment gateway session failed")
	ErrTimeout      = errors.New("upstream request timed out")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

var transactionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateTransactionID trims id and checks it against the alphabet used for
// tran_id values. Ids end up as URL path segments on the status store.
func ValidateTransactionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("transactionId", "is required")
	}
	if !transactionIDPattern.MatchString(id) {
		return "", invalid("transactionId", "must be 1 to 64 letters, digits, '-' or '_'")
	}
	return id, nil
}

// PaymentRequiredError is returned when a certificate is requested for a
// transaction that is not (or no longer) successful.
type PaymentRequiredError struct {
	TransactionID string
	Status        models.PaymentStatus
}

func (e *PaymentRequiredError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("no payment recorded for transaction %s", e.TransactionID)
	}
	return fmt.Sprintf("transaction %s has status %s", e.TransactionID, e.Status)
}

type NotFoundError struct {
	TransactionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.TransactionID)
}

// ConflictError means a terminal status was requested that differs from the
// one already stored.
type ConflictError struct {
	TransactionID string
	Current       models.PaymentStatus
	Requested     models.PaymentStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction %s is already %s, refusing %s", e.TransactionID, e.Current, e.Requested)
}

// UpstreamError wraps a failed call to the status store, the init backend or the gateway.
type UpstreamError struct {
	Kind       error
	Op         string
	StatusCode int
	Msg        string
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == e.Kind || (e.Timeout && target == ErrTimeout)
}

func upstream(kind error, op string, err error) *UpstreamError {
	return &UpstreamError{Kind: kind, Op: op, Err: err, Timeout: isTimeout(err)}
}

// RenderError wraps a certificate generation failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "certificate render failed: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// HTTPStatus maps an error from this package to the response status code.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		pe *PaymentRequiredError
		ne *NotFoundError
		ce *ConflictError
		ue *UpstreamError
		re *RenderError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusPaymentRequired
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ue):
		if ue.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	case errors.As(err, &re):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

// Defaults for the optional fields of a payment init request. The checkout
// page only posts the amount.
const (
	DefaultPackageName = "IELTS Certificate"
	DefaultPayerName   = "IELTS Candidate"
	DefaultPayerEmail  = "candidate@ieltspro.local"
)

type PaymentInitiator interface {
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitResult, error)
}

// StatusRecorder reads and writes the payment status store.
type StatusRecorder interface {
	GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusView, error)
	RecordOutcome(ctx context.Context, transactionID string, status models.PaymentStatus, valID string) (bool, error)
}

type PaymentHandler struct {
	payments PaymentInitiator
	status   StatusRecorder
	appURL   string
}

func NewPaymentHandler(payments PaymentInitiator, status StatusRecorder, appURL string) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		status:   status,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

// Init starts a payment and returns the gateway page the browser must visit.
func (h *PaymentHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PackageName) == "" {
		req.PackageName = DefaultPackageName
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = DefaultPayerName
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email = DefaultPayerEmail
	}

	result, err := h.payments.CreatePayment(r.Context(), req)
	if err != nil {
		log.Printf("[payment] init failed: %v", err)
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, services.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "Payment initialization timed out")
		default:
			writeError(w, http.StatusInternalServerError, "Payment initialization failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": result.URL})
}

// Success handles the gateway's success callback. The user is only sent to
// the success page once the status store has recorded the payment.
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	tranID, ok := h.callbackTransactionID(w, r, "success")
	if !ok {
		return
	}

	valID := strings.TrimSpace(r.PostFormValue("val_id"))
	if _, err := h.status.RecordOutcome(r.Context(), tranID, models.StatusSuccess, valID); err != nil {
		log.Printf("[payment] could not record success for %s: %v", tranID, err)
		var (
			ce *services.ConflictError
			pe *services.PaymentRequiredError
			ve *services.ValidationError
		)
		switch {
		case errors.As(err, &ce):
			writeJSON(w, http.StatusConflict, callbackResult{Error: "Payment was already recorded as " + string(ce.Current)})
		case errors.As(err, &pe), errors.As(err, &ve):
			writeJSON(w, services.HTTPStatus(err), callbackResult{
				Error:    "Payment could not be validated",
				Redirect: h.appURL + "/payment/failed",
			})
		default:
			writeJSON(w, services.HTTPStatus(err), callbackResult{Error: "Payment succeeded but could not be recorded"})
		}
		return
	}

	http.Redirect(w, r, h.appURL+"/payment/success/"+url.PathEscape(tranID), http.StatusSeeOther)
}

// Failed handles the failure and cancel callbacks. The attempt is recorded as
// failed; the user reaches the failure page even if that write does not land.
func (h *PaymentHandler) Failed(w http.ResponseWriter, r *http.Request) {
	tranID, ok := h.callbackTransactionID(w, r, "failure")
	if !ok {
		return
	}

	if _, err := h.status.RecordOutcome(r.Context(), tranID, models.StatusFailed, ""); err != nil {
		log.Printf("[payment] could not record failure for %s: %v", tranID, err)
	}

	http.Redirect(w, r, h.appURL+"/payment/failed/"+url.PathEscape(tranID), http.StatusSeeOther)
}

// Status serves the polling view of a transaction.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	tranID := strings.TrimSpace(mux.Vars(r)["tranId"])
	if tranID == "" {
		writeError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	view, err := h.status.GetPaymentStatus(r.Context(), tranID)
	if err != nil {
		log.Printf("[payment] status %s: %v", tranID, err)
		code := services.HTTPStatus(err)
		switch code {
		case http.StatusNotFound:
			writeError(w, code, "Transaction not found")
		case http.StatusBadRequest:
			writeError(w, code, err.Error())
		default:
			writeError(w, code, "Failed to fetch payment status")
		}
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// callbackTransactionID reads tran_id from the posted form body; the query
// string is ignored. A missing or malformed id is answered with 400 and ok=false.
func (h *PaymentHandler) callbackTransactionID(w http.ResponseWriter, r *http.Request, kind string) (string, bool) {
	raw := r.PostFormValue("tran_id")
	tranID, err := services.ValidateTransactionID(raw)
	if err == nil {
		return tranID, true
	}

	msg := "Invalid transaction ID"
	if strings.TrimSpace(raw) == "" {
		msg = "Transaction ID is required"
	}
	log.Printf("[payment] %s callback rejected: %q: %v", kind, raw, err)
	writeJSON(w, http.StatusBadRequest, callbackResult{
		Error:    msg,
		Redirect: h.appURL + "/payment/failed",
	})
	return "", false
}

package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

// BackendHandler serves the payment status store API used by the web app.
type BackendHandler struct {
	service *services.TransactionService
}

func NewBackendHandler(service *services.TransactionService) *BackendHandler {
	return &BackendHandler{service: service}
}

func (h *BackendHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.CreatePayment(r.Context(), req)
	if err != nil {
		log.Printf("[statusd] create payment failed: %v", err)
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *BackendHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), mux.Vars(r)["transactionId"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *BackendHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var body models.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["transactionId"], body)
	var ce *services.ConflictError
	if errors.As(err, &ce) {
		// The stored status lets the caller tell a replay from a real conflict.
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  ce.Error(),
			"status": string(ce.Current),
		})
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *BackendHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Score *decimal.Decimal `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Score == nil {
		writeError(w, http.StatusBadRequest, "score is required")
		return
	}

	tx, err := h.service.RecordScore(r.Context(), mux.Vars(r)["transactionId"], *body.Score)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *BackendHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	txs, err := h.service.ListTransactions(r.Context(), q.Get("status"), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *BackendHandler) fail(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, services.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Payment gateway timed out")
	case errors.Is(err, services.ErrGateway):
		writeError(w, http.StatusBadGateway, "Payment gateway rejected the session")
	default:
		code := services.HTTPStatus(err)
		if code == http.StatusInternalServerError {
			log.Printf("[statusd] internal error: %v", err)
			writeError(w, code, "Internal server error")
			return
		}
		writeError(w, code, err.Error())
	}
}

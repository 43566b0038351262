package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

type StatusReader interface {
	GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusView, error)
}

// CertificateRenderer produces a complete certificate document. Implementations
// must return either the whole document or an error, never a partial buffer.
type CertificateRenderer interface {
	Render(cert models.Certificate) ([]byte, error)
}

type CertificateHandler struct {
	status   StatusReader
	renderer CertificateRenderer
	now      func() time.Time
}

func NewCertificateHandler(status StatusReader, renderer CertificateRenderer) *CertificateHandler {
	return &CertificateHandler{status: status, renderer: renderer, now: time.Now}
}

// Download re-checks the payment on every call and only then renders the
// certificate.
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tranId")
	tranID, err := services.ValidateTransactionID(raw)
	if err != nil {
		if strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		log.Printf("[certificate] rejected transaction id %q: %v", raw, err)
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	view, err := h.verify(r.Context(), tranID)
	if err != nil {
		log.Printf("[certificate] verification for %s failed: %v", tranID, err)
		code := services.HTTPStatus(err)
		if code == http.StatusPaymentRequired {
			writeError(w, code, "Payment verification failed")
			return
		}
		writeError(w, code, "Could not verify payment")
		return
	}

	pdf, err := h.renderer.Render(models.Certificate{
		Name:          view.Name,
		Score:         view.Score,
		TransactionID: tranID,
		IssueDate:     h.now(),
	})
	if err != nil {
		log.Printf("[certificate] render for %s failed: %v", tranID, err)
		writeError(w, http.StatusInternalServerError, "Certificate generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.CertificateFilename(tranID)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("[certificate] write for %s failed: %v", tranID, err)
		return
	}
	log.Printf("[certificate] issued for %s", tranID)
}

// verify turns anything but a fresh success record into a PaymentRequiredError.
// An unknown transaction has no payment either.
func (h *CertificateHandler) verify(ctx context.Context, tranID string) (*models.PaymentStatusView, error) {
	view, err := h.status.GetPaymentStatus(ctx, tranID)
	var nf *services.NotFoundError
	switch {
	case errors.As(err, &nf):
		return nil, &services.PaymentRequiredError{TransactionID: tranID}
	case err != nil:
		return nil, err
	case view.Status != models.StatusSuccess:
		return nil, &services.PaymentRequiredError{TransactionID: tranID, Status: view.Status}
	}
	return view, nil
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// NewAppRouter wires the browser facing API: payment init, gateway callbacks,
// status polling, certificate download and profile updates.
func NewAppRouter(payments *PaymentHandler, certificates *CertificateHandler, profiles *ProfileHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	router.HandleFunc("/", health).Methods("GET", "HEAD")

	router.HandleFunc("/api/payment/init", payments.Init).Methods("POST")
	router.HandleFunc("/api/payment/success", payments.Success).Methods("POST")
	router.HandleFunc("/api/payment/failed", payments.Failed).Methods("POST")
	router.HandleFunc("/api/payment/cancel", payments.Failed).Methods("POST")
	router.HandleFunc("/api/payment/status/{tranId}", payments.Status).Methods("GET")

	router.HandleFunc("/api/certificate/download", certificates.Download).Methods("GET")

	router.HandleFunc("/api/users/update", profiles.Update).Methods("POST")
	return router
}

// NewBackendRouter wires the status store API. Everything except the health
// check sits behind the service token.
func NewBackendRouter(backend *BackendHandler, users *UserHandler, signer *services.TokenSigner) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	router.HandleFunc("/", health).Methods("GET", "HEAD")

	api := router.NewRoute().Subrouter()
	api.Use(RequireServiceToken(signer))
	api.HandleFunc("/create-payment", backend.CreatePayment).Methods("POST")
	api.HandleFunc("/payments", backend.ListPayments).Methods("GET")
	api.HandleFunc("/payment/{transactionId}", backend.GetPayment).Methods("GET")
	api.HandleFunc("/payment/{transactionId}", backend.UpdatePayment).Methods("PUT", "PATCH")
	api.HandleFunc("/payment/{transactionId}/score", backend.UpdateScore).Methods("PUT")
	api.HandleFunc("/users", users.CreateUser).Methods("POST")
	api.HandleFunc("/users", users.GetUsers).Methods("GET")
	return router
}

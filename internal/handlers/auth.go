package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

// RequireServiceToken rejects requests without a valid service token. With a
// disabled signer every request passes.
func RequireServiceToken(signer *services.TokenSigner) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := signer.Verify(r.Header.Get("Authorization")); err != nil {
				log.Printf("[auth] %s %s rejected: %v", r.Method, r.URL.Path, err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

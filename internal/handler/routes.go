package handler

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, accounts *service.AccountService, guard domain.AuthGuard) {
	h := NewAccountHandler(accounts)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("POST /register", h.HandleRegister)

	mux.Handle("GET /pending-users", RequireAdmin(guard, http.HandlerFunc(h.HandlePendingUsers)))
	mux.Handle("PUT /approve/{id}", RequireAdmin(guard, http.HandlerFunc(h.HandleApprove)))
}

// Wrap applies the server-wide middleware chain. CORS is enabled only when
// allowedOrigins is non-empty.
func Wrap(next http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) > 0 {
		next = cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		})(next)
	}
	return Recover(RequestLogger(SecurityHeaders(next)))
}

// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; business logic never lives here.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authservice "vaultbank/internal/auth/service"
	ledgerservice "vaultbank/internal/ledger/service"
	"vaultbank/internal/platform/middleware"
)

// Handler bundles the services and the privilege gate behind the router.
type Handler struct {
	auth       *authservice.Service
	ledger     *ledgerservice.Service
	gate       *middleware.Gate
	cookieName string
}

func NewHandler(auth *authservice.Service, ledger *ledgerservice.Service, gate *middleware.Gate, cookieName string) *Handler {
	return &Handler{
		auth:       auth,
		ledger:     ledger,
		gate:       gate,
		cookieName: cookieName,
	}
}

// NewRouter wires all endpoints behind the privilege gate layers:
// authenticated for /me, authenticated + active + admin for /admin.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/token", h.handleLogin)
		r.Post("/register", h.handleRegister)
		r.Group(func(r chi.Router) {
			r.Use(h.gate.Authenticate)
			r.Get("/me", h.handleMe)
			r.Post("/logout", h.handleLogout)
		})
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Use(h.gate.RequireActive)
		r.Get("/account", h.handleMyAccount)
		r.Get("/transactions", h.handleMyTransactions)
		r.Get("/deposits", h.handleMyDeposits)
		r.Post("/deposits", h.handleCreateDeposit)
		r.Post("/kyc", h.handleSubmitKYC)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Use(h.gate.RequireActive)
		r.Use(h.gate.RequireAdmin)
		r.Get("/users/{userID}", h.handleGetUser)
		r.Patch("/users/{userID}", h.handleUpdateUser)
		r.Post("/users/{userID}/fund", h.handleFundUser)
		r.Post("/users/{userID}/adjust-balance", h.handleAdjustBalance)
		r.Get("/users/{userID}/deposits", h.handleUserDeposits)
		r.Post("/deposits/{depositID}/approve", h.handleApproveDeposit)
		r.Get("/transactions/{transactionID}", h.handleTransaction)
		r.Post("/transactions/{transactionID}/retry", h.handleRetryTransaction)
		r.Get("/kyc-submissions", h.handleListKYC)
		r.Get("/kyc-submissions/{submissionID}", h.handleGetKYC)
		r.Post("/kyc-submissions/{submissionID}/approve", h.handleApproveKYC)
		r.Post("/kyc-submissions/{submissionID}/reject", h.handleRejectKYC)
	})

	return r
}

package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"vaultbank/internal/platform/middleware"
	dErrors "vaultbank/pkg/domain-errors"
)

func (h *Handler) handleMyAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.IdentityFrom(r.Context())
	acct, err := h.ledger.Account(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *Handler) handleMyTransactions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.IdentityFrom(r.Context())
	limit, offset := pagination(r)
	txns, err := h.ledger.Transactions(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *Handler) handleMyDeposits(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.IdentityFrom(r.Context())
	limit, offset := pagination(r)
	deps, err := h.ledger.Deposits(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

type createDepositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (h *Handler) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.IdentityFrom(r.Context())
	var req createDepositRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dep, err := h.ledger.CreateDeposit(r.Context(), user.ID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

type submitKYCRequest struct {
	DocumentType string `json:"document_type"`
	DocumentRef  string `json:"document_ref"`
}

func (h *Handler) handleSubmitKYC(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.IdentityFrom(r.Context())
	var req submitKYCRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.ledger.SubmitKYC(r.Context(), user.ID, req.DocumentType, req.DocumentRef)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+param)
	}
	return id, nil
}

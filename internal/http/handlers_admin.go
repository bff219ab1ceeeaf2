package httptransport

import (
	"net/http"

	"github.com/shopspring/decimal"

	authmodels "vaultbank/internal/auth/models"
	"vaultbank/internal/ledger/models"
)

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.auth.User(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var patch authmodels.UserUpdate
	if err := decodeStrict(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.UpdateUser(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type fundRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

func (h *Handler) handleFundUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req fundRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	newBalance, err := h.ledger.Fund(r.Context(), userID, req.Amount, req.Currency, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"new_balance": newBalance,
	})
}

type adjustBalanceRequest struct {
	Amount        decimal.Decimal       `json:"amount"`
	OperationType models.AdjustmentType `json:"operation_type"`
	Currency      string                `json:"currency"`
	Description   string                `json:"description"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req adjustBalanceRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	newBalance, err := h.ledger.AdjustBalance(r.Context(), userID, req.Amount, req.OperationType, req.Currency, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"new_balance": newBalance,
	})
}

func (h *Handler) handleUserDeposits(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset := pagination(r)
	deps, err := h.ledger.Deposits(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

func (h *Handler) handleApproveDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "depositID")
	if err != nil {
		writeError(w, err)
		return
	}
	dep, err := h.ledger.ApproveDeposit(r.Context(), depositID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

func (h *Handler) handleTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := pathID(r, "transactionID")
	if err != nil {
		writeError(w, err)
		return
	}
	txn, err := h.ledger.Transaction(r.Context(), transactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *Handler) handleRetryTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := pathID(r, "transactionID")
	if err != nil {
		writeError(w, err)
		return
	}
	txn, err := h.ledger.RetryTransaction(r.Context(), transactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "retrying",
		"transaction_id": txn.ID,
	})
}

func (h *Handler) handleListKYC(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	status := models.KYCStatus(r.URL.Query().Get("status"))
	subs, err := h.ledger.KYCSubmissions(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleGetKYC(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		writeError(w, err)
		return
	}
	sub, err := h.ledger.KYCSubmission(r.Context(), submissionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type kycReviewRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) handleApproveKYC(w http.ResponseWriter, r *http.Request) {
	h.reviewKYC(w, r, models.DecisionApprove)
}

func (h *Handler) handleRejectKYC(w http.ResponseWriter, r *http.Request) {
	h.reviewKYC(w, r, models.DecisionReject)
}

func (h *Handler) reviewKYC(w http.ResponseWriter, r *http.Request, decision models.KYCDecision) {
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req kycReviewRequest
	if r.ContentLength > 0 {
		if err := decodeStrict(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	sub, err := h.ledger.ReviewKYC(r.Context(), submissionID, decision, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        string(sub.Status),
		"submission_id": sub.ID,
	})
}

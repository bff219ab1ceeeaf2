package httptransport

import (
	"encoding/json"
	"net/http"

	authservice "vaultbank/internal/auth/service"
	"vaultbank/internal/platform/middleware"
	dErrors "vaultbank/pkg/domain-errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": result.Token,
		"token_type":   "bearer",
		"expires_at":   result.ExpiresAt,
		"email":        result.User.Email,
		"is_admin":     result.User.IsAdmin,
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authservice.RegisterRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result)
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": result.Token,
		"token_type":   "bearer",
		"expires_at":   result.ExpiresAt,
		"email":        result.User.Email,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "could not validate credentials"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// setSessionCookie bridges the issued token to the cookie transport so
// browser clients authenticate without holding the bearer token.
func (h *Handler) setSessionCookie(w http.ResponseWriter, result *authservice.LoginResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// decodeStrict parses a JSON body, rejecting unknown fields so arbitrary
// attribute patching fails at the boundary.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

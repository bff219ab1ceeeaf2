package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vaultbank/pkg/domain-errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation so every handler returns
// the same JSON error envelope. Wrapped causes never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		message = de.Message
	}
	if code == dErrors.CodeUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": message,
	})
}

// Package middleware holds the privilege gate: a layered chain taking a
// request from anonymous to authenticated, active, and admin. Failure at any
// layer is terminal for the request.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"vaultbank/internal/auth/models"
	dErrors "vaultbank/pkg/domain-errors"
)

// TokenVerifier validates a signed token and returns the subject email.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// IdentityResolver loads the identity for a verified subject, applying the
// admin safeguard before returning.
type IdentityResolver interface {
	Resolve(ctx context.Context, email string) (*models.User, error)
}

type contextKeyIdentity struct{}

// IdentityFrom retrieves the authenticated identity stored by Authenticate.
func IdentityFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKeyIdentity{}).(*models.User)
	return user, ok
}

// Gate bundles the verifier and resolver with the cookie the token may
// arrive in.
type Gate struct {
	verifier   TokenVerifier
	resolver   IdentityResolver
	cookieName string
	logger     *slog.Logger
	failures   prometheus.Counter
}

type GateOption func(*Gate)

// WithFailureCounter counts every gate rejection, across all layers.
func WithFailureCounter(c prometheus.Counter) GateOption {
	return func(g *Gate) {
		g.failures = c
	}
}

func NewGate(verifier TokenVerifier, resolver IdentityResolver, cookieName string, logger *slog.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{
		verifier:   verifier,
		resolver:   resolver,
		cookieName: cookieName,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// tokenFromRequest extracts the access token. The bearer header takes
// precedence over the cookie when both are present.
func (g *Gate) tokenFromRequest(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok && after != "" {
		return after
	}
	if cookie, err := r.Cookie(g.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate moves a request from anonymous to authenticated. The resolved
// identity lands in the request context for downstream gates and handlers.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tok := g.tokenFromRequest(r)
		if tok == "" {
			g.logger.WarnContext(ctx, "unauthorized access - missing token")
			g.reject(w, dErrors.New(dErrors.CodeUnauthorized, "could not validate credentials"))
			return
		}

		email, err := g.verifier.Verify(tok)
		if err != nil {
			g.logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err)
			g.reject(w, err)
			return
		}

		user, err := g.resolver.Resolve(ctx, email)
		if err != nil {
			g.logger.WarnContext(ctx, "unauthorized access - unresolvable identity",
				"email", email,
				"error", err,
			)
			g.reject(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyIdentity{}, user)))
	})
}

// RequireActive fails closed with a terminal error for inactive identities.
func (g *Gate) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := IdentityFrom(r.Context())
		if !ok {
			g.reject(w, dErrors.New(dErrors.CodeUnauthorized, "could not validate credentials"))
			return
		}
		if !user.IsActive {
			g.reject(w, dErrors.New(dErrors.CodeForbidden, "inactive user"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks the post-safeguard admin flag.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := IdentityFrom(r.Context())
		if !ok {
			g.reject(w, dErrors.New(dErrors.CodeUnauthorized, "could not validate credentials"))
			return
		}
		if !user.IsAdmin {
			g.reject(w, dErrors.New(dErrors.CodeForbidden, "not an admin user"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, err error) {
	if g.failures != nil {
		g.failures.Inc()
	}
	writeGateError(w, err)
}

func writeGateError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	if code == dErrors.CodeUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             string(code),
		"error_description": err.Error(),
	})
}

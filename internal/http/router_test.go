package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	authmodels "vaultbank/internal/auth/models"
	"vaultbank/internal/auth/resolver"
	authservice "vaultbank/internal/auth/service"
	userstore "vaultbank/internal/auth/store/user"
	"vaultbank/internal/auth/token"
	ledgerservice "vaultbank/internal/ledger/service"
	"vaultbank/internal/ledger/store/memory"
	"vaultbank/internal/platform/middleware"
)

const (
	testCookieName = "access_token"
	testAdminEmail = "admin@admin.com"
	testPassword   = "correct-horse"
)

type RouterSuite struct {
	suite.Suite
	router     http.Handler
	users      *userstore.InMemoryUserStore
	memberID   int64
	adminToken string
	userToken  string
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	s.users = userstore.New()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	s.Require().NoError(err)

	_, err = s.users.Create(ctx, &authmodels.User{
		Email:          testAdminEmail,
		HashedPassword: string(hashed),
		IsActive:       true,
	})
	s.Require().NoError(err)

	member, err := s.users.Create(ctx, &authmodels.User{
		Email:          "member@example.com",
		HashedPassword: string(hashed),
		IsActive:       true,
	})
	s.Require().NoError(err)
	s.memberID = member.ID

	tokens := token.NewService("test-signing-key", "vaultbank", 30*time.Minute)
	res := resolver.New(s.users, testAdminEmail)
	auth := authservice.New(s.users, res, tokens)

	ledgerStore := memory.New(s.users)
	ledger, err := ledgerservice.New(ledgerStore)
	s.Require().NoError(err)

	gate := middleware.NewGate(tokens, res, testCookieName, nil)
	s.router = NewRouter(NewHandler(auth, ledger, gate, testCookieName))

	s.adminToken = s.login(testAdminEmail)
	s.userToken = s.login("member@example.com")
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(dst))
}

func (s *RouterSuite) login(email string) string {
	rec := s.do(http.MethodPost, "/auth/token", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(rec, &body)
	s.Require().NotEmpty(body.AccessToken)
	return body.AccessToken
}

// TestLoginFlow verifies the token endpoint sets the session cookie and
// reports the safeguarded admin flag.
func (s *RouterSuite) TestLoginFlow() {
	rec := s.do(http.MethodPost, "/auth/token", "", map[string]string{
		"email":    testAdminEmail,
		"password": testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		IsAdmin   bool   `json:"is_admin"`
		TokenType string `json:"token_type"`
	}
	s.decode(rec, &body)
	s.True(body.IsAdmin, "admin email must come back safeguarded")
	s.Equal("bearer", body.TokenType)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			sessionCookie = c
		}
	}
	s.Require().NotNil(sessionCookie)
	s.True(sessionCookie.HttpOnly)
	s.NotEmpty(sessionCookie.Value)
}

func (s *RouterSuite) TestLoginRejectsBadCredentials() {
	rec := s.do(http.MethodPost, "/auth/token", "", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Bearer", rec.Header().Get("WWW-Authenticate"))
}

func (s *RouterSuite) TestRegisterAndInactiveGate() {
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "fresh@example.com",
		"full_name": "Fresh User",
		"password":  "long-enough",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(rec, &body)

	// The new identity authenticates but is inactive, so /me is reachable
	// while the active-gated surface is not.
	rec = s.do(http.MethodGet, "/auth/me", body.AccessToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/me/account", body.AccessToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// Admin activation opens the active-gated surface. 404 afterwards is the
	// account, not the gate: no funding has happened yet.
	var me struct {
		ID int64 `json:"id"`
	}
	rec = s.do(http.MethodGet, "/auth/me", body.AccessToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &me)

	rec = s.do(http.MethodPatch, "/admin/users/"+itoa(me.ID), s.adminToken, map[string]any{"is_active": true})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/me/account", body.AccessToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestCookieAuthentication() {
	rec := s.do(http.MethodPost, "/auth/token", "", map[string]string{
		"email":    "member@example.com",
		"password": testPassword,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	s.Equal(http.StatusOK, out.Code)
}

func (s *RouterSuite) TestAdminSurfaceForbiddenForMembers() {
	rec := s.do(http.MethodPost, "/admin/users/1/fund", s.userToken, map[string]any{"amount": "10"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/admin/users/1/fund", "", map[string]any{"amount": "10"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

// TestFundAndBalanceFlow walks the admin funding path end to end: fund,
// check the member's account, reject overdraft.
func (s *RouterSuite) TestFundAndBalanceFlow() {
	path := "/admin/users/" + itoa(s.memberID) + "/fund"
	rec := s.do(http.MethodPost, path, s.adminToken, map[string]any{"amount": "100"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var fundBody struct {
		Status     string `json:"status"`
		NewBalance string `json:"new_balance"`
	}
	s.decode(rec, &fundBody)
	s.Equal("success", fundBody.Status)
	s.Equal("100", fundBody.NewBalance)

	rec = s.do(http.MethodGet, "/me/account", s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var acct struct {
		Balance string `json:"balance"`
	}
	s.decode(rec, &acct)
	s.Equal("100", acct.Balance)

	adjust := "/admin/users/" + itoa(s.memberID) + "/adjust-balance"
	rec = s.do(http.MethodPost, adjust, s.adminToken, map[string]any{
		"amount":         "150",
		"operation_type": "debit",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/me/transactions", s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var txns []map[string]any
	s.decode(rec, &txns)
	s.Len(txns, 1, "failed debit must not add a ledger entry")
}

func (s *RouterSuite) TestFundValidation() {
	path := "/admin/users/" + itoa(s.memberID) + "/fund"

	rec := s.do(http.MethodPost, path, s.adminToken, map[string]any{"amount": "0"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path, s.adminToken, map[string]any{"amount": "10", "bogus": true})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/users/0/fund", s.adminToken, map[string]any{"amount": "10"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/users/999/fund", s.adminToken, map[string]any{"amount": "10"})
	s.Equal(http.StatusNotFound, rec.Code)
}

// TestDepositFlow walks request, approval, and double-approval conflict.
func (s *RouterSuite) TestDepositFlow() {
	rec := s.do(http.MethodPost, "/me/deposits", s.userToken, map[string]any{"amount": "50"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var dep struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	s.decode(rec, &dep)
	s.Equal("pending", dep.Status)

	approve := "/admin/deposits/" + itoa(dep.ID) + "/approve"
	rec = s.do(http.MethodPost, approve, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, approve, s.adminToken, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/me/account", s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var acct struct {
		Balance string `json:"balance"`
	}
	s.decode(rec, &acct)
	s.Equal("50", acct.Balance)
}

// TestKYCFlow walks submission, admin listing, approval, and the re-review
// conflict.
func (s *RouterSuite) TestKYCFlow() {
	rec := s.do(http.MethodPost, "/me/kyc", s.userToken, map[string]string{
		"document_type": "passport",
		"document_ref":  "doc-123",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var sub struct {
		ID int64 `json:"id"`
	}
	s.decode(rec, &sub)

	rec = s.do(http.MethodGet, "/admin/kyc-submissions?status=pending", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []map[string]any
	s.decode(rec, &list)
	s.Len(list, 1)

	approve := "/admin/kyc-submissions/" + itoa(sub.ID) + "/approve"
	rec = s.do(http.MethodPost, approve, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var review struct {
		Status string `json:"status"`
	}
	s.decode(rec, &review)
	s.Equal("approved", review.Status)

	rec = s.do(http.MethodPost, approve, s.adminToken, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

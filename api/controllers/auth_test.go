package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuth struct {
	login     *auth.LoginResponse
	pair      *auth.TokenPair
	err       error
	register  auth.RegisterRequest
	loggedOut string
	refreshed [2]string
	resetWith [2]string
	forgot    string
}

func (s *stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	s.register = req
	return s.login, s.err
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.login, s.err
}

func (s *stubAuth) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuth) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPair, error) {
	s.refreshed = [2]string{accessToken, refreshToken}
	return s.pair, s.err
}

func (s *stubAuth) ForgotPassword(ctx context.Context, email string) error {
	s.forgot = email
	return s.err
}

func (s *stubAuth) ResetPassword(ctx context.Context, token, password string) error {
	s.resetWith = [2]string{token, password}
	return s.err
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuth{login: &auth.LoginResponse{
		TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User:      &users.UserDTO{ID: uuid.New(), Username: "jane_doe", Role: enums.UserRoleUser},
	}}
	body := `{"username":"  jane_doe ","email":"jane@example.com","password":"secret1"}`

	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "jane_doe", svc.register.Username)

	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "access", envelope.Data.AccessToken)
	require.Equal(t, "refresh", envelope.Data.RefreshToken)
}

func TestAuthRegisterValidatesBody(t *testing.T) {
	svc := &stubAuth{}
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"abc","email":"nope","password":"1"}`)))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "validation failed")
}

func TestAuthLoginForbiddenForBannedUsers(t *testing.T) {
	svc := &stubAuth{err: pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")}
	resp := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"jane@example.com","password":"secret1"}`)))

	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAuthLogoutUsesAccessID(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))

	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "jti-1", svc.loggedOut)
}

func TestAuthLogoutWithoutSession(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthLogout(&stubAuth{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRefresh(t *testing.T) {
	svc := &stubAuth{pair: &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer old-access")

	resp := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, [2]string{"old-access", "old-refresh"}, svc.refreshed)
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthRefresh(&stubAuth{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`)))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthResetPasswordReadsToken(t *testing.T) {
	svc := &stubAuth{}
	r := chi.NewRouter()
	r.Put("/resetpassword/{token}", AuthResetPassword(svc, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/resetpassword/abc123", strings.NewReader(`{"password":"newpass"}`)))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, [2]string{"abc123", "newpass"}, svc.resetWith)
}

func TestAuthForgotPasswordDeliveryFailure(t *testing.T) {
	svc := &stubAuth{err: pkgerrors.New(pkgerrors.CodeDependency, "email could not be sent")}
	resp := httptest.NewRecorder()
	AuthForgotPassword(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgotpassword", strings.NewReader(`{"email":"jane@example.com"}`)))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, "jane@example.com", svc.forgot)
}

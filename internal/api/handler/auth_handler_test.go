package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

type stubAuthService struct {
	login   func(email, password string) (*ports.Session, error)
	refresh func(token string) (*ports.Session, error)
	logout  func(userID string) error
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (*ports.Session, error) {
	return s.login(email, password)
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*ports.Session, error) {
	return s.refresh(token)
}

func (s *stubAuthService) Logout(_ context.Context, userID string) error {
	return s.logout(userID)
}

func (s *stubAuthService) Register(context.Context, string, string, string) (*ports.Session, error) {
	panic("not scripted")
}
func (s *stubAuthService) VerifyEmail(context.Context, string) error { panic("not scripted") }
func (s *stubAuthService) VerifyAccess(context.Context, string) (*domain.User, error) {
	panic("not scripted")
}
func (s *stubAuthService) UpdatePassword(context.Context, string, string, string) (*ports.Session, error) {
	panic("not scripted")
}
func (s *stubAuthService) ForgotPassword(context.Context, string) error { panic("not scripted") }
func (s *stubAuthService) ResetPassword(context.Context, string, string) (*ports.Session, error) {
	panic("not scripted")
}

func testSession() *ports.Session {
	return &ports.Session{
		User: domain.PublicUser{
			ID:    "u1",
			Email: "alice@example.com",
			Name:  "Alice",
			Role:  domain.RoleUser,
		},
		AccessToken:      "access-token",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshToken:     "refresh-token",
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func newTestContext(t *testing.T, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	svc := &stubAuthService{
		login: func(email, password string) (*ports.Session, error) {
			if email != "alice@example.com" || password != "sw0rdfish99" {
				t.Fatalf("unexpected credentials %q/%q", email, password)
			}
			return testSession(), nil
		},
	}
	h := NewAuthHandler(svc, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"sw0rdfish99"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newTestContext(t, req)

	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	byName := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		byName[ck.Name] = ck
	}
	access := byName[AccessTokenCookie]
	if access == nil || access.Value != "access-token" {
		t.Fatalf("access cookie missing or wrong: %+v", access)
	}
	if !access.HttpOnly || access.SameSite != http.SameSiteStrictMode || access.Path != "/" {
		t.Fatalf("access cookie attributes wrong: %+v", access)
	}
	refresh := byName[RefreshTokenCookie]
	if refresh == nil || refresh.Value != "refresh-token" {
		t.Fatalf("refresh cookie missing or wrong: %+v", refresh)
	}

	var body sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.User.Email != "alice@example.com" || body.AccessToken == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLogin_RejectsMalformedPayload(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"not-an-email","password":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newTestContext(t, req)

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRefresh_PrefersCookieOverBody(t *testing.T) {
	svc := &stubAuthService{
		refresh: func(token string) (*ports.Session, error) {
			if token != "cookie-refresh" {
				t.Fatalf("expected cookie token, got %q", token)
			}
			return testSession(), nil
		},
	}
	h := NewAuthHandler(svc, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token",
		strings.NewReader(`{"refresh_token":"body-refresh"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "cookie-refresh"})
	c, rec := newTestContext(t, req)

	if err := h.Refresh(c); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRefresh_StolenTokenReuseClearsCookies(t *testing.T) {
	svc := &stubAuthService{
		refresh: func(string) (*ports.Session, error) {
			return nil, domain.ErrInvalidRefreshToken
		},
	}
	h := NewAuthHandler(svc, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "already-rotated"})
	c, rec := newTestContext(t, req)

	if err := h.Refresh(c); err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}

	cleared := 0
	for _, ck := range rec.Result().Cookies() {
		if ck.Value == "" && ck.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both cookies cleared, got %d", cleared)
	}
}

func TestLogout_ClearsCookiesEvenWithoutServerState(t *testing.T) {
	svc := &stubAuthService{
		logout: func(userID string) error {
			if userID != "u1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return nil
		},
	}
	h := NewAuthHandler(svc, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	c, rec := newTestContext(t, req)
	SetCurrentUser(c, &domain.User{ID: "u1", Role: domain.RoleUser})

	if err := h.Logout(c); err != nil {
		t.Fatalf("logout: %v", err)
	}

	cleared := 0
	for _, ck := range rec.Result().Cookies() {
		if ck.Value == "" && ck.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both cookies cleared, got %d", cleared)
	}
}

func TestMe_ReturnsOnlyPublicFields(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, false)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c, rec := newTestContext(t, req)
	SetCurrentUser(c, &domain.User{
		ID:                  "u1",
		Email:               "alice@example.com",
		Name:                "Alice",
		PasswordHash:        "$2a$10$secret",
		Role:                domain.RoleUser,
		RefreshTokenHash:    "deadbeef",
		FailedLoginAttempts: 3,
	})

	if err := h.Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}

	body := rec.Body.String()
	for _, leak := range []string{"$2a$10$secret", "deadbeef", "password", "failed", "hash"} {
		if strings.Contains(strings.ToLower(body), leak) {
			t.Fatalf("sensitive field leaked in %s", body)
		}
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
}

func TestMe_WithoutGateFails(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, false)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c, _ := newTestContext(t, req)

	if err := h.Me(c); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/api/handler"
	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

// stubAuthService scripts the two methods the gate exercises.
type stubAuthService struct {
	verifyAccess func(token string) (*domain.User, error)
	refresh      func(token string) (*ports.Session, error)
}

func (s *stubAuthService) VerifyAccess(_ context.Context, token string) (*domain.User, error) {
	return s.verifyAccess(token)
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*ports.Session, error) {
	return s.refresh(token)
}

func (s *stubAuthService) Register(context.Context, string, string, string) (*ports.Session, error) {
	panic("not scripted")
}
func (s *stubAuthService) VerifyEmail(context.Context, string) error { panic("not scripted") }
func (s *stubAuthService) Login(context.Context, string, string) (*ports.Session, error) {
	panic("not scripted")
}
func (s *stubAuthService) Logout(context.Context, string) error { panic("not scripted") }
func (s *stubAuthService) UpdatePassword(context.Context, string, string, string) (*ports.Session, error) {
	panic("not scripted")
}
func (s *stubAuthService) ForgotPassword(context.Context, string) error { panic("not scripted") }
func (s *stubAuthService) ResetPassword(context.Context, string, string) (*ports.Session, error) {
	panic("not scripted")
}

func testUser() *domain.User {
	return &domain.User{ID: "u1", Email: "alice@example.com", Role: domain.RoleUser, IsActive: true}
}

func runGate(t *testing.T, svc ports.AuthService, req *http.Request) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Auth(svc, false)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return rec, called, h(c)
}

func TestAuth_ValidBearerToken(t *testing.T) {
	svc := &stubAuthService{
		verifyAccess: func(token string) (*domain.User, error) {
			if token != "good-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return testUser(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	_, called, err := runGate(t, svc, req)
	if err != nil {
		t.Fatalf("gate error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuth_AccessCookieFallback(t *testing.T) {
	svc := &stubAuthService{
		verifyAccess: func(token string) (*domain.User, error) {
			if token != "cookie-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return testUser(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessTokenCookie, Value: "cookie-token"})
	_, called, err := runGate(t, svc, req)
	if err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}
}

func TestAuth_NoTokenNoRefreshCookie(t *testing.T) {
	svc := &stubAuthService{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, called, err := runGate(t, svc, req)
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called {
		t.Fatalf("next called without authentication")
	}
}

func TestAuth_ExpiredTokenRenewsViaRefreshCookie(t *testing.T) {
	refreshed := false
	svc := &stubAuthService{
		verifyAccess: func(token string) (*domain.User, error) {
			if token == "expired-token" {
				return nil, domain.ErrAccessTokenExpired
			}
			if token == "renewed-access" {
				return testUser(), nil
			}
			t.Fatalf("unexpected token %q", token)
			return nil, nil
		},
		refresh: func(token string) (*ports.Session, error) {
			refreshed = true
			if token != "valid-refresh" {
				t.Fatalf("unexpected refresh token %q", token)
			}
			return &ports.Session{
				User:             testUser().Public(),
				AccessToken:      "renewed-access",
				AccessExpiresAt:  time.Now().Add(15 * time.Minute),
				RefreshToken:     "next-refresh",
				RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	req.AddCookie(&http.Cookie{Name: handler.RefreshTokenCookie, Value: "valid-refresh"})

	rec, called, err := runGate(t, svc, req)
	if err != nil {
		t.Fatalf("gate error: %v", err)
	}
	if !refreshed || !called {
		t.Fatalf("expected silent renewal, refreshed=%v called=%v", refreshed, called)
	}

	// The fresh pair rides the response of the original request.
	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, ck := range cookies {
		byName[ck.Name] = ck
	}
	if ck := byName[handler.AccessTokenCookie]; ck == nil || ck.Value != "renewed-access" {
		t.Fatalf("access cookie not renewed: %+v", ck)
	}
	if ck := byName[handler.RefreshTokenCookie]; ck == nil || ck.Value != "next-refresh" {
		t.Fatalf("refresh cookie not rotated: %+v", ck)
	}
}

func TestAuth_MissingTokenRenewsViaRefreshCookie(t *testing.T) {
	svc := &stubAuthService{
		verifyAccess: func(token string) (*domain.User, error) {
			if token != "renewed-access" {
				t.Fatalf("unexpected token %q", token)
			}
			return testUser(), nil
		},
		refresh: func(string) (*ports.Session, error) {
			return &ports.Session{
				User:             testUser().Public(),
				AccessToken:      "renewed-access",
				AccessExpiresAt:  time.Now().Add(15 * time.Minute),
				RefreshToken:     "next-refresh",
				RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.RefreshTokenCookie, Value: "valid-refresh"})
	_, called, err := runGate(t, svc, req)
	if err != nil || !called {
		t.Fatalf("expected renewal pass-through, err=%v called=%v", err, called)
	}
}

func TestAuth_CorruptTokenClearsCookiesWithoutRenewal(t *testing.T) {
	refreshCalled := false
	svc := &stubAuthService{
		verifyAccess: func(string) (*domain.User, error) {
			return nil, domain.ErrUnauthenticated
		},
		refresh: func(string) (*ports.Session, error) {
			refreshCalled = true
			return nil, domain.ErrInvalidRefreshToken
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	req.AddCookie(&http.Cookie{Name: handler.RefreshTokenCookie, Value: "valid-refresh"})

	rec, called, err := runGate(t, svc, req)
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called || refreshCalled {
		t.Fatalf("corrupt token must not get a renewal chance (next=%v refresh=%v)", called, refreshCalled)
	}

	for _, ck := range rec.Result().Cookies() {
		if ck.Value != "" || ck.MaxAge >= 0 {
			t.Fatalf("cookie %q not cleared: %+v", ck.Name, ck)
		}
	}
}

func TestAuth_FailedRotationClearsCookies(t *testing.T) {
	svc := &stubAuthService{
		verifyAccess: func(string) (*domain.User, error) {
			return nil, domain.ErrAccessTokenExpired
		},
		refresh: func(string) (*ports.Session, error) {
			return nil, domain.ErrInvalidRefreshToken
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	req.AddCookie(&http.Cookie{Name: handler.RefreshTokenCookie, Value: "stolen-or-stale"})

	rec, called, err := runGate(t, svc, req)
	if err != domain.ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if called {
		t.Fatalf("next called after failed rotation")
	}

	cleared := 0
	for _, ck := range rec.Result().Cookies() {
		if ck.Value == "" && ck.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both session cookies cleared, got %d", cleared)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/api/handler"
	"github.com/pressmark/blog-platform/internal/core/domain"
)

func runRBAC(t *testing.T, user *domain.User, allowed ...string) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		handler.SetCurrentUser(c, user)
	}

	called := false
	h := RBAC(allowed...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return called, h(c)
}

func TestRBAC_AllowsPermittedRole(t *testing.T) {
	called, err := runRBAC(t, &domain.User{Role: domain.RoleAdmin}, domain.RoleAdmin, domain.RolePublisher)
	if err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}
}

func TestRBAC_DeniesOtherRole(t *testing.T) {
	called, err := runRBAC(t, &domain.User{Role: domain.RoleUser}, domain.RoleAdmin)
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if called {
		t.Fatalf("next called for denied role")
	}
}

func TestRBAC_RequiresAuthenticatedUser(t *testing.T) {
	called, err := runRBAC(t, nil, domain.RoleAdmin)
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called {
		t.Fatalf("next called without user")
	}
}

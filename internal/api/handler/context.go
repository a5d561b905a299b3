package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/core/domain"
)

const userContextKey = "auth.user"

// SetCurrentUser attaches the authenticated user to the request context.
// Called by the session gate after verification or silent renewal.
func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(userContextKey, u)
}

// CurrentUser extracts the authenticated user injected by the session gate.
// Absence proves the middleware did not run (or was bypassed); reject.
func CurrentUser(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(userContextKey).(*domain.User)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/api/handler"
	"github.com/pressmark/blog-platform/internal/core/domain"
)

// RBAC allows the request through only when the authenticated user's role is
// in the permitted set. Must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := handler.CurrentUser(c)
			if err != nil {
				return err
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

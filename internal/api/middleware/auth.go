package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/api/handler"
	"github.com/pressmark/blog-platform/internal/api/metrics"
	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

// Auth is the per-request session gate. It extracts the access token from the
// Authorization header or the accessToken cookie (in that order) and verifies
// it. A missing or expired token does not fail outright when a refresh cookie
// is present: the gate rotates the refresh token inline and proceeds with the
// renewed identity, so the client never sees the renewal as a separate round
// trip. Corrupt or forged tokens clear both cookies and fail immediately.
func Auth(authService ports.AuthService, secureCookies bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractAccessToken(c)

			if token == "" {
				return renewOrFail(c, authService, secureCookies, next, domain.ErrUnauthenticated)
			}

			user, err := authService.VerifyAccess(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAccessTokenExpired) {
					// Expired-only errors get a renewal chance.
					return renewOrFail(c, authService, secureCookies, next, err)
				}
				handler.ClearSessionCookies(c, secureCookies)
				return err
			}

			handler.SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// renewOrFail runs the rotation protocol when a refresh cookie is present,
// then continues the original request as the renewed user. Without a refresh
// cookie, or when rotation fails, the request fails with cause.
func renewOrFail(c echo.Context, authService ports.AuthService, secureCookies bool, next echo.HandlerFunc, cause error) error {
	cookie, err := c.Cookie(handler.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return cause
	}

	session, err := authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		metrics.TokenRotationsTotal.WithLabelValues("invalid").Inc()
		handler.ClearSessionCookies(c, secureCookies)
		return err
	}
	metrics.TokenRotationsTotal.WithLabelValues("success").Inc()

	// The fresh pair rides the response of this same request.
	handler.SetSessionCookies(c, session, secureCookies)

	user, err := authService.VerifyAccess(c.Request().Context(), session.AccessToken)
	if err != nil {
		handler.ClearSessionCookies(c, secureCookies)
		return err
	}

	handler.SetCurrentUser(c, user)
	return next(c)
}

func extractAccessToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(handler.AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

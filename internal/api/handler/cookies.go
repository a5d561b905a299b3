package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/core/ports"
)

const (
	// AccessTokenCookie carries the signed access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the opaque refresh token.
	RefreshTokenCookie = "refreshToken"
)

// SetSessionCookies attaches both session cookies to the response. Secure is
// false only in development.
func SetSessionCookies(c echo.Context, s *ports.Session, secure bool) {
	c.SetCookie(sessionCookie(AccessTokenCookie, s.AccessToken, s.AccessExpiresAt, secure))
	c.SetCookie(sessionCookie(RefreshTokenCookie, s.RefreshToken, s.RefreshExpiresAt, secure))
}

// ClearSessionCookies expires both session cookies, forcing a full re-login.
func ClearSessionCookies(c echo.Context, secure bool) {
	expired := time.Now().Add(-time.Hour)
	c.SetCookie(sessionCookie(AccessTokenCookie, "", expired, secure))
	c.SetCookie(sessionCookie(RefreshTokenCookie, "", expired, secure))
}

func sessionCookie(name, value string, expiresAt time.Time, secure bool) *http.Cookie {
	maxAge := int(time.Until(expiresAt).Seconds())
	if value == "" {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

package domain

import "errors"

// Sentinel errors shared across the core and mapped to HTTP status codes by
// the API error handler.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidCredentials covers a wrong email/password pair. It is
	// deliberately indistinguishable from an unknown email on the login path.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	ErrUserNotFound     = errors.New("user not found")
	ErrAccountLocked    = errors.New("account temporarily locked")
	ErrAccountInactive  = errors.New("account is deactivated")
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrAccessTokenExpired distinguishes an expired-but-otherwise-valid
	// access token from a corrupt one; only the former gets a renewal chance.
	ErrAccessTokenExpired = errors.New("access token expired")

	// ErrPasswordChanged rejects access tokens issued before the user's most
	// recent password change.
	ErrPasswordChanged = errors.New("password changed, re-login required")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access forbidden")

	// ErrInvalidRefreshToken is terminal for the presented token: no stored
	// hash matches, the stored token expired, or the token was already rotated.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

	ErrRateLimited = errors.New("too many requests")
)

package ports

import (
	"context"
	"time"

	"github.com/pressmark/blog-platform/internal/core/domain"
)

// Session is the token pair handed to a client after authentication.
type Session struct {
	User             domain.PublicUser
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*Session, error)

	// Refresh exchanges a refresh token for a new session, invalidating the
	// presented token. Failure is terminal for that token.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	Logout(ctx context.Context, userID string) error

	// VerifyAccess validates an access token and loads its user. Expiry is
	// reported as domain.ErrAccessTokenExpired so the caller can attempt a
	// refresh; any other failure is terminal for the token.
	VerifyAccess(ctx context.Context, accessToken string) (*domain.User, error)

	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*Session, error)
}

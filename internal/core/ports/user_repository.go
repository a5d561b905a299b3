package ports

import (
	"context"
	"time"

	"github.com/pressmark/blog-platform/internal/core/domain"
)

// UserRepository defines the persistence interface for user records.
//
// The user document is the single source of truth for session state; each
// operation touches exactly one document and relies on the store's own
// single-document atomicity.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByResetTokenHash matches a stored password-reset token hash whose
	// expiry is after now.
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)

	FindByVerificationTokenHash(ctx context.Context, hash string) (*domain.User, error)

	// Update persists the full mutable state of the user record.
	Update(ctx context.Context, user *domain.User) error

	// RotateRefreshToken atomically replaces the stored refresh token hash,
	// matching on the currently stored hash and an unexpired window. A miss
	// (already rotated, expired, or unknown) returns
	// domain.ErrInvalidRefreshToken; concurrent rotations therefore succeed
	// at most once.
	RotateRefreshToken(ctx context.Context, oldHash, newHash string, expiresAt, now time.Time) (*domain.User, error)

	// CountByRole reports account totals per role.
	CountByRole(ctx context.Context) (map[string]int64, error)
}

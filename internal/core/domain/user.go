package domain

import "time"

const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// User is the identity and credential record for a platform account.
//
// Every stored token field holds a one-way hash of the token handed to the
// client; the plaintext exists only transiently in memory and in the
// response/cookie.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	Role              string
	IsEmailVerified   bool
	IsActive          bool
	LastLoginAt       time.Time
	PasswordChangedAt time.Time

	RefreshTokenHash      string
	RefreshTokenExpiresAt time.Time

	PasswordResetTokenHash string
	PasswordResetExpiresAt time.Time

	EmailVerificationTokenHash string
	EmailVerificationExpiresAt time.Time

	FailedLoginAttempts int
	LockedUntil         time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the subset of User that may be serialized to clients.
type PublicUser struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	LastLoginAt     time.Time `json:"last_login_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Public returns the client-safe view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

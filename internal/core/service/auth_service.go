package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

const (
	resetTokenTTL        = 10 * time.Minute
	verificationTokenTTL = 24 * time.Hour
	minPasswordLength    = 8
)

// AuthService implements the authentication and session lifecycle: issuance,
// rotation, lockout and the out-of-band verification/reset flows.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenIssuer
	mailer ports.Mailer
	reuse  ports.ReuseDetector
	log    zerolog.Logger

	now func() time.Time
}

func NewAuthService(repo ports.UserRepository, tokens *TokenIssuer, mailer ports.Mailer, reuse ports.ReuseDetector, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		reuse:  reuse,
		log:    log,
		now:    time.Now,
	}
}

// Register creates an unverified active account, queues the verification
// mail and returns a fresh session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*ports.Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || len(password) < minPasswordLength {
		return nil, domain.ErrValidation
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyToken, verifyHash, err := s.tokens.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:                      email,
		Name:                       name,
		PasswordHash:               string(hash),
		Role:                       domain.RoleUser,
		IsActive:                   true,
		EmailVerificationTokenHash: verifyHash,
		EmailVerificationExpiresAt: now.Add(verificationTokenTTL),
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, created.Email, created.Name, verifyToken); err != nil {
		// The account exists either way; the user can request a new mail.
		s.log.Warn().Err(err).Str("email", created.Email).Msg("verification mail delivery failed")
	}

	return s.issueSession(ctx, created)
}

// VerifyEmail consumes a verification token, flipping the account to
// verified exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidVerificationToken
	}

	user, err := s.repo.FindByVerificationTokenHash(ctx, HashToken(token))
	if err != nil {
		if err == domain.ErrUserNotFound {
			return domain.ErrInvalidVerificationToken
		}
		return err
	}

	now := s.now().UTC()
	if now.After(user.EmailVerificationExpiresAt) {
		return domain.ErrInvalidVerificationToken
	}

	user.IsEmailVerified = true
	user.EmailVerificationTokenHash = ""
	user.EmailVerificationExpiresAt = time.Time{}
	user.UpdatedAt = now
	return s.repo.Update(ctx, user)
}

// Login authenticates credentials, enforcing lockout, active and verified
// state, and returns a fresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()

	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	// LoginLocked normalizes an expired lock in place; the normalized state
	// reaches the store through whichever Update this attempt ends in.
	if user.LoginLocked(now) {
		return nil, domain.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.RecordLoginFailure(now)
		user.UpdatedAt = now
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	user.RecordLoginSuccess(now)
	user.UpdatedAt = now

	return s.issueSession(ctx, user)
}

// Refresh exchanges a refresh token for a new session. The presented token
// is invalidated by the rotation itself; a second presentation of the same
// token fails with ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	oldHash := HashToken(refreshToken)
	newToken, newHash, err := s.tokens.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	refreshExpiresAt := now.Add(s.tokens.RefreshTTL())

	user, err := s.repo.RotateRefreshToken(ctx, oldHash, newHash, refreshExpiresAt, now)
	if err != nil {
		if err == domain.ErrInvalidRefreshToken {
			if seen, derr := s.reuse.SeenRetired(ctx, oldHash); derr == nil && seen {
				s.log.Warn().Msg("rotated refresh token replayed")
			}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	if err := s.reuse.MarkRetired(ctx, oldHash, s.tokens.RefreshTTL()); err != nil {
		s.log.Warn().Err(err).Msg("reuse detector unavailable")
	}

	accessToken, accessExpiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	return &ports.Session{
		User:             user.Public(),
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     newToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout clears the stored refresh token so the cookie pair held by the
// client can never be renewed again.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	oldHash := user.RefreshTokenHash
	user.RefreshTokenHash = ""
	user.RefreshTokenExpiresAt = time.Time{}
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	if oldHash != "" {
		if err := s.reuse.MarkRetired(ctx, oldHash, s.tokens.RefreshTTL()); err != nil {
			s.log.Warn().Err(err).Msg("reuse detector unavailable")
		}
	}
	return nil
}

// VerifyAccess validates an access token and loads its user for the request
// gate. Tokens issued before the user's last password change are rejected.
func (s *AuthService) VerifyAccess(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}

	if !user.PasswordChangedAt.IsZero() && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(user.PasswordChangedAt) {
		return nil, domain.ErrPasswordChanged
	}

	return user, nil
}

// UpdatePassword changes the password after checking the current one and
// rotates the session, invalidating every previously issued access token.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*ports.Session, error) {
	if len(newPassword) < minPasswordLength {
		return nil, domain.ErrValidation
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user.PasswordHash = string(hash)
	user.PasswordChangedAt = now
	user.UpdatedAt = now

	return s.issueSession(ctx, user)
}

// ForgotPassword stores a hashed single-use reset token and queues the reset
// mail. An unknown email is reported as success to avoid account enumeration.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.ErrValidation
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil
		}
		return err
	}

	token, hash, err := s.tokens.NewOpaqueToken()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	user.PasswordResetTokenHash = hash
	user.PasswordResetExpiresAt = now.Add(resetTokenTTL)
	user.UpdatedAt = now

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
		s.log.Warn().Err(err).Str("email", user.Email).Msg("reset mail delivery failed")
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and returns a
// fresh session. The lockout state clears: proving mailbox control
// supersedes the failed-attempt history.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*ports.Session, error) {
	if len(newPassword) < minPasswordLength {
		return nil, domain.ErrValidation
	}
	if token == "" {
		return nil, domain.ErrInvalidResetToken
	}

	now := s.now().UTC()
	user, err := s.repo.FindByResetTokenHash(ctx, HashToken(token), now)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.PasswordChangedAt = now
	user.PasswordResetTokenHash = ""
	user.PasswordResetExpiresAt = time.Time{}
	user.FailedLoginAttempts = 0
	user.LockedUntil = time.Time{}
	user.UpdatedAt = now

	return s.issueSession(ctx, user)
}

// issueSession mints the access/refresh pair for user and persists the new
// refresh token hash before any plaintext leaves this function. A persistence
// failure means no token was issued.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*ports.Session, error) {
	accessToken, accessExpiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := s.tokens.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	oldHash := user.RefreshTokenHash
	user.RefreshTokenHash = refreshHash
	user.RefreshTokenExpiresAt = now.Add(s.tokens.RefreshTTL())
	user.UpdatedAt = now

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if oldHash != "" {
		if err := s.reuse.MarkRetired(ctx, oldHash, s.tokens.RefreshTTL()); err != nil {
			s.log.Warn().Err(err).Msg("reuse detector unavailable")
		}
	}

	return &ports.Session{
		User:             user.Public(),
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: user.RefreshTokenExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package handler

import (
	"github.com/pressmark/blog-platform/internal/core/domain"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// sessionResponse is returned by every endpoint that issues a session. The
// token pair also rides the response cookies; the body copy serves non-browser
// clients.
type sessionResponse struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

type userResponse struct {
	User domain.PublicUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newSessionResponse(s *ports.Session) sessionResponse {
	return sessionResponse{
		User:         s.User,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

package service

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"

	"github.com/meridian-commerce/storefront/internal/auth"
)

// LoginInput holds admin login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthService authenticates the store admin. The admin identity is
// configured, not stored; there is a single admin account.
type AuthService struct {
	jwt          *auth.JWTManager
	adminEmail   string
	passwordHash string
	logger       *slog.Logger
}

// NewAuthService creates a new auth service. passwordHash is a bcrypt
// hash of the admin password.
func NewAuthService(jwt *auth.JWTManager, adminEmail, passwordHash string, logger *slog.Logger) *AuthService {
	return &AuthService{
		jwt:          jwt,
		adminEmail:   adminEmail,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

// Login checks credentials and mints an admin token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}

	if input.Email != s.adminEmail || s.passwordHash == "" {
		s.logger.WarnContext(ctx, "failed admin login", slog.String("email", input.Email))
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(input.Password)); err != nil {
		s.logger.WarnContext(ctx, "failed admin login", slog.String("email", input.Email))
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.jwt.GenerateToken(s.adminEmail, "admin")
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "admin logged in", slog.String("email", s.adminEmail))

	return &LoginResult{
		Token: token,
		Email: s.adminEmail,
		Role:  "admin",
	}, nil
}

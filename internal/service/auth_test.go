package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/meridian-commerce/storefront/pkg/errors"

	"github.com/meridian-commerce/storefront/internal/auth"
)

func newTestAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(jwtManager, "admin@example.com", string(hash), newTestLogger())
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(t, "hunter2")

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "admin@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "admin@example.com", result.Email)
	assert.Equal(t, "admin", result.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t, "hunter2")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_WrongEmail(t *testing.T) {
	svc := newTestAuthService(t, "hunter2")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "someone@example.com",
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, "hunter2")

	_, err := svc.Login(context.Background(), LoginInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAuthService_Login_NoHashConfigured(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := NewAuthService(jwtManager, "admin@example.com", "", newTestLogger())

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "admin@example.com",
		Password: "anything",
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/minicrm/internal/crm/auth"
	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"go.uber.org/zap"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type LoginValidator interface {
	ValidateLogin(fields validation.Fields) (*validation.LoginInput, error)
}

// AuthService exchanges credentials for access tokens.
type AuthService struct {
	users         UserRepository
	validator     LoginValidator
	authenticator *auth.Authenticator
	logger        *zap.Logger
}

func NewAuthService(users UserRepository, validator LoginValidator, authenticator *auth.Authenticator, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:         users,
		validator:     validator,
		authenticator: authenticator,
		logger:        logger.Named("auth_service"),
	}
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, fields validation.Fields) (*models.User, string, error) {
	in, err := s.validator.ValidateLogin(fields)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, "", invalidCredentials()
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		s.logger.Info("Rejected login", zap.Uint("user_id", user.ID))
		return nil, "", invalidCredentials()
	}

	token, _, err := s.authenticator.Tokens().Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.authenticator.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func invalidCredentials() error {
	return validation.Errors{"email": {"The provided credentials are incorrect."}}
}

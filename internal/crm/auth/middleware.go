package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator turns a bearer token into the authenticated user.
type Authenticator struct {
	tokens    *Tokens
	blacklist Blacklist
	users     UserLoader
	logger    *zap.Logger
}

func NewAuthenticator(tokens *Tokens, blacklist Blacklist, users UserLoader, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		tokens:    tokens,
		blacklist: blacklist,
		users:     users,
		logger:    logger.Named("auth"),
	}
}

func (a *Authenticator) Tokens() *Tokens {
	return a.tokens
}

// Authenticate validates tokenString and loads its user. Every failure
// wraps ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (*models.User, *Claims, error) {
	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", e.ErrUnauthenticated, err)
	}

	if claims.TokenID != "" {
		revoked, err := a.blacklist.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, nil, fmt.Errorf("%w: token revoked", e.ErrUnauthenticated)
		}
	}

	user, err := a.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown user", e.ErrUnauthenticated)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Revoke blacklists the token until it expires.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}
	return a.blacklist.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}

// Middleware authenticates the request and stores the user in its context.
// abort writes the error response.
func (a *Authenticator) Middleware(abort func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, fmt.Errorf("%w: %v", e.ErrUnauthenticated, err))
			return
		}

		user, claims, err := a.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, e.ErrUnauthenticated) {
				a.logger.Error("authentication failed", zap.Error(err))
			}
			abort(c, err)
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user, claims))
		c.Next()
	}
}

// ExtractToken reads a Bearer token from an Authorization header value.
func ExtractToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header required")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format: empty token")
	}

	return tokenString, nil
}

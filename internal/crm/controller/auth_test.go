package controller

import (
	"context"
	"testing"
	"time"

	"github.com/gartstein/minicrm/internal/crm/auth"
	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAuthService_LoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	user := &models.User{Name: "Test User", Email: "test@example.com", PasswordHash: hash}
	require.NoError(t, f.repo.CreateUser(ctx, user))

	authenticator := auth.NewAuthenticator(auth.NewTokens("secret", time.Hour, "minicrm"), auth.NewMemoryBlacklist(), f.repo, logger)
	service := NewAuthService(f.repo, validation.New(f.repo, upload.DefaultConstraints()), authenticator, logger)

	tests := []struct {
		name   string
		fields validation.Fields
		ok     bool
	}{
		{name: "valid credentials", fields: validation.Fields{"email": "test@example.com", "password": "password"}, ok: true},
		{name: "wrong password", fields: validation.Fields{"email": "test@example.com", "password": "nope"}},
		{name: "unknown email", fields: validation.Fields{"email": "ghost@example.com", "password": "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, token, err := service.Login(ctx, tt.fields)
			if !tt.ok {
				assert.Equal(t, []string{"The provided credentials are incorrect."}, validationErrors(t, err)["email"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)

			authed, claims, err := authenticator.Authenticate(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, user.ID, authed.ID)

			require.NoError(t, service.Logout(ctx, claims))
			_, _, err = authenticator.Authenticate(ctx, token)
			assert.ErrorIs(t, err, e.ErrUnauthenticated)
		})
	}

	_, _, err = service.Login(ctx, validation.Fields{"email": "not-an-email"})
	errs := validationErrors(t, err)
	assert.True(t, errs.Has("email"))
	assert.True(t, errs.Has("password"))
}

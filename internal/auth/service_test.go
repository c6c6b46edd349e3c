package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/hugh/lead-hunter/internal/auth"
	"github.com/hugh/lead-hunter/internal/database/models"
	"github.com/hugh/lead-hunter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*auth.Service, *auth.JWTService) {
	db := testutil.SetupTestDB(t)
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	return auth.NewService(db, jwtService), jwtService
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, jwtService := newService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, auth.RegisterInput{
		Username: " alice ",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)

	claims, err := jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{Username: "other", Email: "alice@example.com", Password: "password1"})
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "new@example.com", Password: "password1"})
		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	})

	t.Run("login", func(t *testing.T) {
		got, err := svc.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, got.User.ID)
		assert.NotEmpty(t, got.Token)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "nope"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		_, err = svc.Login(ctx, auth.LoginInput{Email: "ghost@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_UpdateUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, auth.RegisterInput{Username: "alpha", Email: "alpha@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, auth.RegisterInput{Username: "beta", Email: "beta@example.com", Password: "password1"})
	require.NoError(t, err)

	ptr := func(s string) *string { return &s }

	_, err = svc.UpdateUser(ctx, a.User.ID, auth.UpdateUserInput{Username: ptr("beta")})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	_, err = svc.UpdateUser(ctx, a.User.ID, auth.UpdateUserInput{Email: ptr("beta@example.com")})
	assert.ErrorIs(t, err, auth.ErrUserExists)

	updated, err := svc.UpdateUser(ctx, a.User.ID, auth.UpdateUserInput{
		Username: ptr("alpha2"),
		Password: ptr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha2", updated.Username)

	_, err = svc.Login(ctx, auth.LoginInput{Email: "alpha@example.com", Password: "new-password"})
	assert.NoError(t, err)

	_, err = svc.UpdateUser(ctx, 9999, auth.UpdateUserInput{Username: ptr("x")})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestService_DeleteUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, auth.NewJWTService("test-secret", time.Hour))
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestLead(t, db, owner.ID)
	testutil.CreateTestLead(t, db, owner.ID)
	testutil.CreateTestLead(t, db, other.ID)

	require.NoError(t, svc.DeleteUser(ctx, owner.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.Lead{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	_, err := svc.GetUserByID(ctx, owner.ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, owner.ID), auth.ErrUserNotFound)
}

package services

import (
	"context"
	"testing"
	"time"

	"bioshop/models"
	"bioshop/testutil"
	"bioshop/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuth(t *testing.T) (*AuthService, *testutil.Users, *utils.TokenIssuer) {
	t.Helper()
	users := testutil.NewUsers()
	roles := testutil.NewRoles(models.Role{Name: "editor", Permissions: []string{models.PermBlogWrite, models.PermProductsWrite}})
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(users, roles, tokens, zap.NewNop()), users, tokens
}

func TestAuthService_CreateAndLogin(t *testing.T) {
	auth, _, tokens := newAuth(t)
	ctx := context.Background()

	user, err := auth.CreateUser(ctx, models.UserInput{
		Name: "Meera", Email: "Meera@Example.com", Password: "correct horse", Role: "editor",
	})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEqual(t, "correct horse", user.Password)

	tok, got, err := auth.Login(ctx, "meera@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", claims.Email)
	assert.Equal(t, "editor", claims.Role)

	profile, err := auth.Profile(ctx, "meera@example.com")
	require.NoError(t, err)
	assert.NotNil(t, profile.LastLoginAt)
}

func TestAuthService_LoginFailures(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()
	inactive := false
	_, err := auth.CreateUser(ctx, models.UserInput{Name: "A", Email: "a@example.com", Password: "password1", Role: "admin"})
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, models.UserInput{Name: "B", Email: "b@example.com", Password: "password1", Role: "admin", Active: &inactive})
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = auth.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = auth.Login(ctx, "b@example.com", "password1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_CreateUserRejects(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()
	_, err := auth.CreateUser(ctx, models.UserInput{Name: "A", Email: "a@example.com", Password: "password1", Role: "editor"})
	require.NoError(t, err)

	_, err = auth.CreateUser(ctx, models.UserInput{Name: "A2", Email: "a@example.com", Password: "password1", Role: "editor"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = auth.CreateUser(ctx, models.UserInput{Name: "C", Email: "c@example.com", Password: "password1", Role: "janitor"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.CreateUser(ctx, models.UserInput{Name: "D", Email: "d@example.com", Password: "short", Role: "editor"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_UpdateUserKeepsPassword(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()
	user, err := auth.CreateUser(ctx, models.UserInput{Name: "A", Email: "a@example.com", Password: "password1", Role: "editor"})
	require.NoError(t, err)

	updated, err := auth.UpdateUser(ctx, user.ID.Hex(), models.UserInput{Name: "Anita", Email: "a@example.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "Anita", updated.Name)
	assert.Equal(t, "admin", updated.Role)

	_, _, err = auth.Login(ctx, "a@example.com", "password1")
	assert.NoError(t, err)

	_, err = auth.UpdateUser(ctx, "nope", models.UserInput{Name: "X", Email: "x@example.com", Role: "admin"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthService_HasPermission(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()

	tests := []struct {
		role, perm string
		want       bool
	}{
		{models.RoleAdmin, models.PermBackupsWrite, true},
		{"editor", models.PermBlogWrite, true},
		{"editor", models.PermOrdersWrite, false},
		{"ghost", models.PermBlogWrite, false},
	}
	for _, tt := range tests {
		ok, err := auth.HasPermission(ctx, tt.role, tt.perm)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s/%s", tt.role, tt.perm)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/violation-service/internal/domain"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.auth.Register(ctx, RegisterInput{Name: "Ann Lee", Email: "Ann@X.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	claims, err := f.auth.TokenManager().ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, domain.UserRoleUser, claims.Role)

	login, err := f.auth.Login(ctx, " ANN@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLoginAt)

	_, err = f.auth.Login(ctx, "ann@x.com", "wrong-password")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)
	_, err = f.auth.Login(ctx, "nobody@x.com", "secret1")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)
}

func TestAuthService_SuspendedUserCannotLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)
	_, err := f.users.ApplyAction(ctx, f.admin, ann.ID, domain.UserActionSuspend, "fraud")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ann@x.com", "secret1")
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.citizen(t, "Ann Lee", "ann@x.com", nil)

	err := f.auth.ChangePassword(ctx, ann.ID, "bad", "newsecret")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.ToDomainError(err).Code)
	assert.True(t, apperrors.IsValidation(f.auth.ChangePassword(ctx, ann.ID, "secret1", "123")))

	require.NoError(t, f.auth.ChangePassword(ctx, ann.ID, "secret1", "newsecret"))
	_, err = f.auth.Login(ctx, "ann@x.com", "newsecret")
	require.NoError(t, err)
}

func TestAuthService_EnsureSuperAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	again, err := f.auth.EnsureSuperAdmin(context.Background(), "Root", "ROOT@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, f.superAdmin.ID, again.ID)
	assert.Equal(t, domain.UserRoleSuperAdmin, again.Role)

	none, err := f.auth.EnsureSuperAdmin(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

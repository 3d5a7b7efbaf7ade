package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func seedUser(t *testing.T, repo *Repository, username, email string, role enums.UserRole) uuid.UUID {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	return user.ID
}

func TestRepositoryCreateNormalizesEmail(t *testing.T) {
	_, repo := newTestService(t)
	id := seedUser(t, repo, "alice01", " Alice@Example.COM ", "")

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, enums.UserRoleUser, user.Role)
	assert.Equal(t, enums.UserStatusAllowed, user.Status)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newTestService(t)
	id := seedUser(t, repo, "bobby01", "bob@example.com", enums.UserRoleUser)

	name := "bobby-renamed"
	phone := " 555-0101 "
	out, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{
		Username: &name,
		Phone:    &phone,
		Address:  &types.Address{Street: " 1 Main St ", City: "Springfield"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bobby-renamed", out.Username)
	require.NotNil(t, out.Phone)
	assert.Equal(t, "555-0101", *out.Phone)

	reloaded, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Address)
	assert.Equal(t, "1 Main St", reloaded.Address.Street)
	assert.Equal(t, "bobby-renamed", reloaded.Username)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "carol01", "carol@example.com", enums.UserRoleUser)
	id := seedUser(t, repo, "dave001", "dave@example.com", enums.UserRoleUser)

	email := "carol@example.com"
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Email: &email})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateProfileShortUsername(t *testing.T) {
	svc, repo := newTestService(t)
	id := seedUser(t, repo, "erin001", "erin@example.com", enums.UserRoleUser)

	short := "abc"
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Username: &short})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestToggleStatus(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	id := seedUser(t, repo, "frank01", "frank@example.com", enums.UserRoleUser)

	out, err := svc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.UserStatusBanned, out.Status)

	banned, err := svc.List(ctx, "Banned")
	require.NoError(t, err)
	require.Len(t, banned, 1)
	assert.Equal(t, id, banned[0].ID)

	out, err = svc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.UserStatusAllowed, out.Status)
}

func TestToggleStatusProtectsAdmins(t *testing.T) {
	svc, repo := newTestService(t)
	id := seedUser(t, repo, "admin01", "admin@example.com", enums.UserRoleAdmin)

	_, err := svc.ToggleStatus(context.Background(), id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestGetMissingUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), "Suspended")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestResetTokenLifecycle(t *testing.T) {
	_, repo := newTestService(t)
	ctx := context.Background()
	id := seedUser(t, repo, "grace01", "grace@example.com", enums.UserRoleUser)

	now := time.Now().UTC()
	digest := "abc123"
	expire := now.Add(10 * time.Minute)
	require.NoError(t, repo.SetResetToken(ctx, id, &digest, &expire))

	user, err := repo.FindByResetToken(ctx, digest, now)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = repo.FindByResetToken(ctx, digest, now.Add(11*time.Minute))
	assert.Error(t, err, "expired token must not match")

	require.NoError(t, repo.UpdatePassword(ctx, id, "new-hash"))
	_, err = repo.FindByResetToken(ctx, digest, now)
	assert.Error(t, err, "token is burned after reset")
}

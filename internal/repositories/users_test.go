package repositories_test

import (
	"context"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_UpsertAndGet(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewUserRepository(dbs, testLogger())
	ctx := context.Background()

	user, err := models.NewUser()
	require.NoError(t, err)
	user.DisplayName = "Asha"
	user.Credentials = []webauthn.Credential{{
		ID:        []byte("credential-1"),
		PublicKey: []byte("public-key"),
		Transport: []protocol.AuthenticatorTransport{protocol.Internal, protocol.Hybrid},
	}}
	require.NoError(t, repo.Upsert(ctx, user))

	got, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.DisplayName)
	assert.Equal(t, models.RoleCitizen, got.Role)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, []byte("credential-1"), got.Credentials[0].ID)
	assert.Equal(t,
		[]protocol.AuthenticatorTransport{protocol.Internal, protocol.Hybrid},
		got.Credentials[0].Transport)
}

func TestUserRepository_UpsertKeepsRole(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewUserRepository(dbs, testLogger())
	ctx := context.Background()

	user := seedUser(t, dbs, models.RoleGovernment)

	// A re-registration must not demote an official back to citizen.
	again := *user
	again.Role = models.RoleCitizen
	require.NoError(t, repo.Upsert(ctx, &again))

	role, err := repo.Role(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGovernment, role)
}

func TestUserRepository_SetRole(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewUserRepository(dbs, testLogger())
	ctx := context.Background()

	user := seedUser(t, dbs, models.RoleCitizen)
	require.NoError(t, repo.SetRole(ctx, user.ID, models.RoleAdmin))

	role, err := repo.Role(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	require.Error(t, repo.SetRole(ctx, user.ID, models.Role("emperor")))
	require.ErrorIs(t, repo.SetRole(ctx, []byte("missing"), models.RoleAdmin), repositories.ErrNotFound)
}

func TestUserRepository_Exists(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewUserRepository(dbs, testLogger())
	ctx := context.Background()

	user := seedUser(t, dbs, models.RoleCitizen)

	ok, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

package repositories_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
	"github.com/kishanss4/corrupt-watch/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a new in-memory database for testing purposes.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	dbs, err := sqlite.NewDatabase(context.Background(), ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	return dbs
}

func testLogger() *slog.Logger {
	return testhelpers.NewLogger(io.Discard)
}

// seedUser registers a user with the given role and returns it.
func seedUser(t *testing.T, dbs *sqlite.Database, role models.Role) *models.User {
	t.Helper()
	user, err := models.NewUser()
	require.NoError(t, err)
	user.Role = role
	users := repositories.NewUserRepository(dbs, testLogger())
	require.NoError(t, users.Upsert(context.Background(), user))
	return user
}

// anonymousComplaint returns a valid anonymous complaint ready for Create.
func anonymousComplaint(id string) *models.Complaint {
	return &models.Complaint{
		ID:           id,
		Title:        "Bribe demanded at the permit office",
		Description:  "The clerk refused to process my building application without an unofficial fee paid in cash.",
		Category:     models.CategoryBribery,
		IsAnonymous:  true,
		Location:     "Central permit office",
		UrgencyScore: models.DefaultUrgencyScore,
	}
}

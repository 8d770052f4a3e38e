package repositories_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingCodeFormat = regexp.MustCompile(`^CW-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func TestComplaintRepository_CreateAnonymous(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-1")
	require.NoError(t, repo.Create(ctx, c))

	require.NotNil(t, c.TrackingCode, "anonymous complaint must carry a tracking code")
	assert.Regexp(t, trackingCodeFormat, *c.TrackingCode)
	assert.Equal(t, models.StatusPending, c.Status, "fresh complaint starts at pending")

	got, err := repo.GetByID(ctx, "complaint-1")
	require.NoError(t, err)
	require.NotNil(t, got.TrackingCode)
	assert.Equal(t, *c.TrackingCode, *got.TrackingCode)
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, models.HashList{}, got.EvidenceHashes)
}

func TestComplaintRepository_CreateOwned(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	owner := seedUser(t, dbs, models.RoleCitizen)
	ctx := context.Background()

	c := anonymousComplaint("complaint-2")
	c.IsAnonymous = false
	c.OwnerID = owner.ID
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, "complaint-2")
	require.NoError(t, err)
	assert.Nil(t, got.TrackingCode, "non-anonymous complaint must not carry a tracking code")
	assert.Equal(t, owner.ID, got.OwnerID)
}

func TestComplaintRepository_TrackingCodesStayUnique(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	const n = 50
	codes := map[string]bool{}
	for i := range n {
		c := anonymousComplaint(fmt.Sprintf("complaint-%d", i))
		require.NoError(t, repo.Create(ctx, c))
		require.NotNil(t, c.TrackingCode)
		codes[*c.TrackingCode] = true
	}
	assert.Len(t, codes, n, "expected all tracking codes to be distinct")
}

func TestComplaintRepository_GetByTrackingCode(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-3")
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByTrackingCode(ctx, *c.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, "complaint-3", got.ID)

	_, err = repo.GetByTrackingCode(ctx, "CW-0000-0000")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestComplaintRepository_UpdateStatus(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-4")
	require.NoError(t, repo.Create(ctx, c))

	// Any status is reachable from any other, including moving backwards.
	for _, status := range []models.ComplaintStatus{
		models.StatusResolved, models.StatusInReview, models.StatusRejected,
	} {
		require.NoError(t, repo.UpdateStatus(ctx, c.ID, status))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", models.StatusResolved), repositories.ErrNotFound)
}

func TestComplaintRepository_UpdateEvidenceHashes(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-5")
	require.NoError(t, repo.Create(ctx, c))

	hashes := models.HashList{"h1", "h2"}
	require.NoError(t, repo.UpdateEvidenceHashes(ctx, c.ID, hashes))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, hashes, got.EvidenceHashes)
}

func TestComplaintRepository_UpdateAnalysis(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-6")
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.UpdateAnalysis(ctx, c.ID, 8, []byte(`{"summary":"urgent"}`)))
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.UrgencyScore)
	assert.JSONEq(t, `{"summary":"urgent"}`, string(got.AIMetadata))
}

func TestComplaintRepository_ListVisibility(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	repo := repositories.NewComplaintRepository(dbs, testLogger())
	owner := seedUser(t, dbs, models.RoleCitizen)
	ctx := context.Background()

	anon := anonymousComplaint("complaint-7")
	require.NoError(t, repo.Create(ctx, anon))
	owned := anonymousComplaint("complaint-8")
	owned.IsAnonymous = false
	owned.OwnerID = owner.ID
	require.NoError(t, repo.Create(ctx, owned))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "complaint-8", mine[0].ID)
}

package repositories_test

import (
	"context"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceRepository_PositionsFollowInsertionOrder(t *testing.T) {
	t.Parallel()
	dbs := newTestDB(t)
	complaints := repositories.NewComplaintRepository(dbs, testLogger())
	evidence := repositories.NewEvidenceRepository(dbs, testLogger())
	ctx := context.Background()

	c := anonymousComplaint("complaint-evidence")
	require.NoError(t, complaints.Create(ctx, c))

	for _, f := range []models.EvidenceFile{
		{ComplaintID: c.ID, FileName: "receipt.pdf", URL: "/uploads/a", Hash: "aaa"},
		{ComplaintID: c.ID, FileName: "photo.jpg", URL: "/uploads/b", Hash: "bbb"},
		{ComplaintID: c.ID, FileName: "audio.m4a", URL: "/uploads/c", Hash: "ccc"},
	} {
		require.NoError(t, evidence.Add(ctx, &f))
		assert.NotZero(t, f.ID)
	}

	files, err := evidence.ListByComplaint(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.Equal(t, int64(i), f.Position)
	}
	assert.Equal(t, "receipt.pdf", files[0].FileName)
	assert.Equal(t, "audio.m4a", files[2].FileName)
}

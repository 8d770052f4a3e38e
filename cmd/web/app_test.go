package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/e2etest"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingCodeFormat = regexp.MustCompile(`^CW-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func testLookupEnv(t *testing.T) func(string) (string, bool) {
	t.Helper()
	uploadsDir := t.TempDir()
	return func(key string) (string, bool) {
		switch key {
		case "CORRUPTWATCH_ADDR":
			return "localhost:0", true
		case "CORRUPTWATCH_SQLITE_URL":
			return ":memory:", true
		case "CORRUPTWATCH_UPLOADS_DIR":
			return uploadsDir, true
		default:
			return "", false
		}
	}
}

func startServer(t *testing.T) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(context.Background(), io.Discard, testLookupEnv(t), run)
	require.NoError(t, err)
	return server
}

func newClient(t *testing.T, server *e2etest.Server) *e2etest.Client {
	t.Helper()
	client, err := e2etest.NewClient(server.URL(), "localhost", "http://localhost:0")
	require.NoError(t, err)
	return client
}

func decodeComplaint(t *testing.T, resp *http.Response) models.Complaint {
	t.Helper()
	defer resp.Body.Close()
	var complaint models.Complaint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&complaint))
	return complaint
}

func complaintFields(anonymous string) map[string]string {
	return map[string]string{
		"title":       "Bribe demanded at the permit office",
		"description": "The clerk refused to process my building application without an unofficial fee paid in cash.",
		"category":    "bribery",
		"location":    "Central permit office",
		"isAnonymous": anonymous,
	}
}

func TestAnonymousComplaintLifecycle(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	client := server.Client()
	ctx := context.Background()

	require.NoError(t, client.RefreshCSRFToken(ctx))

	resp, err := client.PostMultipart(ctx, "/api/complaints", complaintFields("true"), []e2etest.FormFile{
		{Field: "evidence", FileName: "receipt.pdf", Contents: "first file"},
		{Field: "evidence", FileName: "photo.jpg", Contents: "second file"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	complaint := decodeComplaint(t, resp)

	require.NotNil(t, complaint.TrackingCode)
	assert.Regexp(t, trackingCodeFormat, *complaint.TrackingCode)
	assert.Equal(t, models.StatusPending, complaint.Status)
	require.Len(t, complaint.EvidenceHashes, 2)

	// Self-service lookup with the tracking code works without a session.
	resp, err = client.Get(ctx, "/api/track/"+*complaint.TrackingCode)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tracked := decodeComplaint(t, resp)
	assert.Equal(t, complaint.ID, tracked.ID)

	// The audit trail records the creation with the joined hashes.
	resp, err = client.Get(ctx, "/api/complaints/"+complaint.ID+"/audit")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []models.AuditLogEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.NoError(t, resp.Body.Close())
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionComplaintCreated, entries[0].Action)
	assert.Equal(t, complaint.EvidenceHashes.Join(), entries[0].MetadataHash)

	// The raw id stays hidden from unauthenticated callers.
	resp, err = client.Get(ctx, "/api/complaints/"+complaint.ID)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The uploaded file is served back.
	resp, err = client.Get(ctx, "/uploads/anonymous/"+complaint.ID+"/receipt.pdf")
	require.NoError(t, err)
	contents, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "first file", string(contents))
}

func TestComplaintValidation(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	client := server.Client()
	ctx := context.Background()

	require.NoError(t, client.RefreshCSRFToken(ctx))

	fields := complaintFields("true")
	fields["title"] = "short"
	fields["description"] = "too short"
	resp, err := client.PostMultipart(ctx, "/api/complaints", fields, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NoError(t, resp.Body.Close())
	assert.Len(t, body.Errors, 2)
}

func TestIdentifiedSubmissionRequiresSession(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	client := server.Client()
	ctx := context.Background()

	require.NoError(t, client.RefreshCSRFToken(ctx))

	resp, err := client.PostMultipart(ctx, "/api/complaints", complaintFields("false"), nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIdentifiedComplaintVisibility(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	ctx := context.Background()

	owner := newClient(t, server)
	require.NoError(t, owner.Register(ctx))

	resp, err := owner.PostMultipart(ctx, "/api/complaints", complaintFields("false"), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	complaint := decodeComplaint(t, resp)
	assert.Nil(t, complaint.TrackingCode, "identified complaints carry no tracking code")

	// The owner sees it by id and in their list.
	resp, err = owner.Get(ctx, "/api/complaints/"+complaint.ID)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = owner.Get(ctx, "/api/complaints")
	require.NoError(t, err)
	var list []models.Complaint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.NoError(t, resp.Body.Close())
	assert.Len(t, list, 1)

	// Another citizen cannot see it.
	stranger := newClient(t, server)
	require.NoError(t, stranger.Register(ctx))
	resp, err = stranger.Get(ctx, "/api/complaints/"+complaint.ID)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Citizens cannot change statuses.
	resp, err = owner.PostJSON(ctx, http.MethodPut, "/api/complaints/"+complaint.ID+"/status", `{"status":"resolved"}`)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPrivilegedEndpointsRequireAuthentication(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	client := server.Client()
	ctx := context.Background()

	require.NoError(t, client.RefreshCSRFToken(ctx))

	for _, urlPath := range []string{
		"/api/complaints/some-id/notes",
		"/api/complaints/some-id/suggest-status",
		"/api/complaints/some-id/draft-note",
		"/api/feed",
	} {
		resp, err := client.Get(ctx, urlPath)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, urlPath)
	}
}

func TestUnauthenticatedListIsRejected(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	client := server.Client()
	ctx := context.Background()

	resp, err := client.Get(ctx, "/api/complaints")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginAfterLogout(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	ctx := context.Background()

	client := newClient(t, server)
	require.NoError(t, client.Register(ctx))
	require.NoError(t, client.Logout(ctx))

	resp, err := client.Get(ctx, "/api/complaints")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, client.Login(ctx))
	resp, err = client.Get(ctx, "/api/complaints")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

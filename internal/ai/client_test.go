package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/ai"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway serves the OpenAI chat completion endpoint with a canned
// handler.
func fakeGateway(t *testing.T, handler http.HandlerFunc) *ai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return ai.NewClientWithBaseURL("test-key", server.URL+"/v1")
}

func completionResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	require.NoError(t, err)
}

func testComplaint() *models.Complaint {
	return &models.Complaint{
		ID:          "complaint-ai",
		Title:       "Bribe demanded at the permit office",
		Description: "The clerk refused to process my building application without an unofficial fee paid in cash.",
		Category:    models.CategoryBribery,
		Location:    "Central permit office",
	}
}

func TestClient_Analyze(t *testing.T) {
	t.Parallel()
	client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		completionResponse(t, w,
			`{"summary":"Clerk demanded a cash bribe.","urgencyScore":8,"keywords":["bribery","permit"]}`)
	})

	analysis, err := client.Analyze(context.Background(), testComplaint())
	require.NoError(t, err)
	assert.Equal(t, "Clerk demanded a cash bribe.", analysis.Summary)
	assert.Equal(t, 8, analysis.UrgencyScore)
	assert.Equal(t, []string{"bribery", "permit"}, analysis.Keywords)
}

func TestClient_AnalyzeUnwrapsCodeFences(t *testing.T) {
	t.Parallel()
	client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		completionResponse(t, w,
			"Here you go:\n```json\n{\"summary\":\"ok\",\"urgencyScore\":3,\"keywords\":[]}\n```")
	})

	analysis, err := client.Analyze(context.Background(), testComplaint())
	require.NoError(t, err)
	assert.Equal(t, "ok", analysis.Summary)
	assert.Equal(t, 3, analysis.UrgencyScore)
}

func TestClient_AnalyzeFallsBackOnMalformedJSON(t *testing.T) {
	t.Parallel()
	client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		completionResponse(t, w, "I'm sorry, I cannot answer that as JSON.")
	})

	analysis, err := client.Analyze(context.Background(), testComplaint())
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultAnalysis(), analysis)
}

func TestClient_AnalyzeFallsBackOnOutOfRangeUrgency(t *testing.T) {
	t.Parallel()
	client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		completionResponse(t, w, `{"summary":"ok","urgencyScore":99,"keywords":[]}`)
	})

	analysis, err := client.Analyze(context.Background(), testComplaint())
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultAnalysis(), analysis)
}

func TestClient_GatewayErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"rate limited", http.StatusTooManyRequests, ai.ErrRateLimited},
		{"payment required", http.StatusPaymentRequired, ai.ErrPaymentRequired},
		{"internal error", http.StatusInternalServerError, ai.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error":{"message":"upstream says no","type":"server_error"}}`))
			})

			_, err := client.Analyze(context.Background(), testComplaint())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_SuggestStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		answer string
		want   models.ComplaintStatus
	}{
		{"plain answer", "in_review", models.StatusInReview},
		{"decorated answer", `"Resolved."`, models.StatusResolved},
		{"nonsense falls back to pending", "escalate to the ombudsman", models.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
				completionResponse(t, w, tt.answer)
			})

			status, err := client.SuggestStatus(context.Background(), testComplaint())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestClient_DraftNote(t *testing.T) {
	t.Parallel()
	client := fakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		completionResponse(t, w, "  Complainant reports a cash demand at the permit desk.\n")
	})

	note, err := client.DraftNote(context.Background(), testComplaint())
	require.NoError(t, err)
	assert.Equal(t, "Complainant reports a cash demand at the permit desk.", note)
}

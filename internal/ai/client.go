// Package ai wraps the OpenAI chat completion API for complaint triage. All
// prompts flow through complete, which maps upstream failures to the
// sentinel errors callers branch on.
package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/sashabaranov/go-openai"
)

var (
	// ErrRateLimited is returned when the gateway answers 429.
	ErrRateLimited = errors.NewSentinel("AI service is rate limited, please try again later")
	// ErrPaymentRequired is returned when the gateway answers 402.
	ErrPaymentRequired = errors.NewSentinel("AI service requires payment, please check the account billing")
	// ErrUpstream covers every other non-2xx answer.
	ErrUpstream = errors.NewSentinel("AI service request failed")
)

const maxTokens = 1024

type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client against the real OpenAI endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, "")
}

// NewClientWithBaseURL creates a client against a custom endpoint such as an
// httptest server. An empty baseURL means the OpenAI default.
func NewClientWithBaseURL(apiKey string, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  openai.GPT3Dot5Turbo1106,
	}
}

// complete sends one system/user prompt pair and returns the raw completion
// text.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		var apiError *openai.APIError
		if errors.As(err, &apiError) {
			switch apiError.HTTPStatusCode {
			case http.StatusTooManyRequests:
				return "", errors.Wrap(ErrRateLimited, "create chat completion")
			case http.StatusPaymentRequired:
				return "", errors.Wrap(ErrPaymentRequired, "create chat completion")
			}
		}
		return "", errors.Join(ErrUpstream, errors.Wrap(err, "create chat completion"))
	}
	if len(completion.Choices) == 0 {
		return "", errors.Join(ErrUpstream, errors.New("completion has no choices"))
	}
	return completion.Choices[0].Message.Content, nil
}

// Analysis is the structured triage result persisted to the complaint.
type Analysis struct {
	Summary      string   `json:"summary"`
	UrgencyScore int      `json:"urgencyScore"`
	Keywords     []string `json:"keywords"`
}

// DefaultAnalysis is the fallback when the model output cannot be parsed.
// The urgency matches the creation-time default so an unparseable response
// never reprioritises a complaint.
func DefaultAnalysis() Analysis {
	return Analysis{
		Summary:      "Automated analysis was inconclusive.",
		UrgencyScore: models.DefaultUrgencyScore,
		Keywords:     []string{},
	}
}

const analyzeSystemPrompt = `You are a triage assistant for a public corruption complaint desk.
Given a complaint, answer with a single JSON object with the keys
"summary" (one sentence), "urgencyScore" (integer 0-10) and "keywords"
(array of lowercase strings). Answer with JSON only, no prose around it.`

// Analyze summarises the complaint and scores its urgency. Gateway errors
// are returned as-is; an answer that does not parse as the expected JSON
// yields DefaultAnalysis instead of an error.
func (c *Client) Analyze(ctx context.Context, complaint *models.Complaint) (Analysis, error) {
	answer, err := c.complete(ctx, analyzeSystemPrompt, complaintPrompt(complaint))
	if err != nil {
		return Analysis{}, err
	}
	var analysis Analysis
	if err := json.Unmarshal(extractJSON(answer), &analysis); err != nil {
		return DefaultAnalysis(), nil
	}
	if analysis.UrgencyScore < 0 || analysis.UrgencyScore > 10 {
		return DefaultAnalysis(), nil
	}
	if analysis.Keywords == nil {
		analysis.Keywords = []string{}
	}
	return analysis, nil
}

const suggestStatusSystemPrompt = `You are a triage assistant for a public corruption complaint desk.
Given a complaint, answer with exactly one word naming the most fitting
status out of: pending, in_review, verified, resolved, rejected.`

// SuggestStatus asks the model for the most fitting status. Unrecognised
// answers fall back to pending.
func (c *Client) SuggestStatus(ctx context.Context, complaint *models.Complaint) (models.ComplaintStatus, error) {
	answer, err := c.complete(ctx, suggestStatusSystemPrompt, complaintPrompt(complaint))
	if err != nil {
		return "", err
	}
	suggestion := models.ComplaintStatus(strings.ToLower(strings.Trim(strings.TrimSpace(answer), `."'`)))
	if !suggestion.Valid() {
		return models.StatusPending, nil
	}
	return suggestion, nil
}

const draftNoteSystemPrompt = `You are drafting an internal case note for a government officer reviewing
a corruption complaint. Answer with a short factual note in plain text,
no salutation and no signature.`

// DraftNote produces a freeform internal note for an officer to edit.
func (c *Client) DraftNote(ctx context.Context, complaint *models.Complaint) (string, error) {
	draft, err := c.complete(ctx, draftNoteSystemPrompt, complaintPrompt(complaint))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(draft), nil
}

func complaintPrompt(complaint *models.Complaint) string {
	var b strings.Builder
	b.WriteString("Title: " + complaint.Title + "\n")
	b.WriteString("Category: " + string(complaint.Category) + "\n")
	b.WriteString("Location: " + complaint.Location + "\n")
	b.WriteString("Description: " + complaint.Description + "\n")
	return b.String()
}

// extractJSON returns the first brace-balanced object in the answer. Models
// like to wrap JSON in code fences or prose despite instructions.
func extractJSON(answer string) []byte {
	start := strings.IndexByte(answer, '{')
	if start == -1 {
		return []byte(answer)
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(answer); i++ {
		switch {
		case escaped:
			escaped = false
		case answer[i] == '\\' && inString:
			escaped = true
		case answer[i] == '"':
			inString = !inString
		case inString:
		case answer[i] == '{':
			depth++
		case answer[i] == '}':
			depth--
			if depth == 0 {
				return []byte(answer[start : i+1])
			}
		}
	}
	return []byte(answer[start:])
}

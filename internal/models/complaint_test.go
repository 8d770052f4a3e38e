package models_test

import (
	"strings"
	"testing"

	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() models.ComplaintSubmission {
	return models.ComplaintSubmission{
		Title:       "Bribe demanded at the permit office",
		Description: strings.Repeat("The clerk refused to process the application without payment. ", 2),
		Category:    models.CategoryBribery,
		Location:    "Central permit office, Main Street",
	}
}

func TestComplaintSubmissionValidate(t *testing.T) {
	outOfRangeLat := 91.0
	tests := []struct {
		name    string
		mutate  func(*models.ComplaintSubmission)
		wantMsg string
	}{
		{
			name:   "valid",
			mutate: func(_ *models.ComplaintSubmission) {},
		},
		{
			name:    "short title",
			mutate:  func(s *models.ComplaintSubmission) { s.Title = "Too short" },
			wantMsg: "title must be between 10 and 200 characters",
		},
		{
			name:    "long title",
			mutate:  func(s *models.ComplaintSubmission) { s.Title = strings.Repeat("a", 201) },
			wantMsg: "title must be between 10 and 200 characters",
		},
		{
			name:    "short description",
			mutate:  func(s *models.ComplaintSubmission) { s.Description = "not enough detail" },
			wantMsg: "description must be between 50 and 5000 characters",
		},
		{
			name:    "unknown category",
			mutate:  func(s *models.ComplaintSubmission) { s.Category = "embezzlement" },
			wantMsg: "unknown category",
		},
		{
			name:    "short location",
			mutate:  func(s *models.ComplaintSubmission) { s.Location = "ab" },
			wantMsg: "location must be at least 3 characters",
		},
		{
			name:    "latitude out of range",
			mutate:  func(s *models.ComplaintSubmission) { s.Latitude = &outOfRangeLat },
			wantMsg: "latitude out of range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := sub.Validate()
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, models.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	sub := models.ComplaintSubmission{Title: "x", Description: "y", Category: "z", Location: ""}
	err := sub.Validate()
	require.ErrorIs(t, err, models.ErrValidation)
	for _, want := range []string{"title", "description", "category", "location"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestHashListJoin(t *testing.T) {
	assert.Equal(t, "", models.HashList{}.Join())
	assert.Equal(t, "h1", models.HashList{"h1"}.Join())
	assert.Equal(t, "h1,h2", models.HashList{"h1", "h2"}.Join())
}

func TestComplaintStatusValid(t *testing.T) {
	for _, s := range models.ComplaintStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, models.ComplaintStatus("archived").Valid())
}

package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

const validRecommendation = `{
  "recommendations": [
    {"team_member_name": "jess parker", "suggested_role": "producer", "suggested_hours": 12,
     "match_reason": "Has the most room this week", "confidence": 0.8, "priority": "primary"},
    {"team_member_name": "Someone Else", "suggested_role": "support", "suggested_hours": 4,
     "match_reason": "Backup", "confidence": 0.4, "priority": "backup"}
  ],
  "team_composition_notes": "Light team for a short job"
}`

func recommendServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RecommendMaxTokens, req.MaxTokens)
		assert.Equal(t, recommendSystemPrompt, req.System)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Project: Legos")
		assert.Contains(t, req.Messages[0].Content, "- Jess Parker (Producer): 28 of 40 hours free this week, on 2 projects")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func recommend(e *AnthropicExtractor, candidates []models.StaffingCandidate) (*models.StaffingRecommendation, error) {
	project := models.Project{ID: uuid.New(), Name: "Legos", Status: models.ProjectStatusActive, Priority: models.PriorityHigh}
	return e.Recommend(context.Background(), project, candidates)
}

func TestRecommend(t *testing.T) {
	jess := models.StaffingCandidate{
		ID:             uuid.New(),
		FullName:       "Jess Parker",
		Role:           "Producer",
		Capacity:       decimal.NewFromInt(40),
		AllocatedHours: decimal.NewFromInt(12),
		AvailableHours: decimal.NewFromInt(28),
		ProjectCount:   2,
	}
	server := recommendServer(t, http.StatusOK, textResponse(validRecommendation))

	result, err := recommend(newExtractor(server.URL), []models.StaffingCandidate{jess})
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 2)
	first := result.Recommendations[0]
	require.NotNil(t, first.TeamMemberID)
	assert.Equal(t, jess.ID, *first.TeamMemberID)
	assert.True(t, decimal.NewFromInt(28).Equal(*first.AvailableHours))
	assert.Equal(t, "producer", first.SuggestedRole)

	assert.Nil(t, result.Recommendations[1].TeamMemberID)
	assert.Equal(t, "Light team for a short job", result.TeamCompositionNotes)
	assert.NotNil(t, result.Warnings)
}

func TestRecommend_RejectsUnknownRole(t *testing.T) {
	jess := models.StaffingCandidate{
		FullName:       "Jess Parker",
		Role:           "Producer",
		Capacity:       decimal.NewFromInt(40),
		AvailableHours: decimal.NewFromInt(28),
		ProjectCount:   2,
	}
	body := `{"recommendations":[{"team_member_name":"Jess Parker","suggested_role":"wizard","suggested_hours":5,"confidence":0.5,"priority":"primary"}]}`
	server := recommendServer(t, http.StatusOK, textResponse(body))

	_, err := recommend(newExtractor(server.URL), []models.StaffingCandidate{jess})
	assert.Equal(t, apperrors.KindMalformedOutput, apperrors.KindOf(err))
}

func TestRecommend_NotConfigured(t *testing.T) {
	_, err := recommend(NewAnthropicExtractor(Config{}, testLogger()), nil)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

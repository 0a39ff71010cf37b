package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

const validExtraction = `{
  "meeting_metadata": {"meeting_type": "wip", "attendees": ["Jess", "Sam"]},
  "projects": [{"name": "Legos", "client": "Lego", "status": "active", "phase": "production",
    "next_milestone": "PPM", "next_milestone_timeframe": "this Friday",
    "context": "Legos is in production", "confidence": 0.9}],
  "assignments": [{"person_name": "Jess", "project_name": "Legos", "role_inferred": "producer",
    "assignment_type": "explicit", "workload_signal": "heavy",
    "context": "Jess is the producer on Legos", "confidence": 0.95}],
  "capacity_signals": [{"person_name": "Sam", "signal_type": "available",
    "description": "Sam has room next week", "timeframe": "next week",
    "context": "I'm pretty free next week", "confidence": 0.7}],
  "deadlines": [{"project_name": "Legos", "milestone": "PPM", "deadline_text": "this Friday",
    "deadline_date_inferred": "2025-01-17", "confidence": 0.8}],
  "overall_confidence": 0.85,
  "extraction_notes": null
}`

var meetingDate = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func textResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	})
	return string(body)
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(context.Background())
		var req messageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		assert.Equal(t, systemPrompt, req.System)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Meeting Date: 2025-01-13")
		assert.Contains(t, req.Messages[0].Content, "Meeting Type: wip")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newExtractor(url string) *AnthropicExtractor {
	return NewAnthropicExtractor(Config{
		APIKey:    "sk-test",
		BaseURL:   url + "/",
		Model:     "test-model",
		MaxTokens: 1000,
		Timeout:   5 * time.Second,
	}, testLogger())
}

func extract(e *AnthropicExtractor) (*models.ExtractionResult, error) {
	return e.Extract(context.Background(), "Jess is the producer on Legos and the PPM is this Friday.", meetingDate, models.MeetingTypeWIP)
}

func TestExtract(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, textResponse(validExtraction))

	result, err := extract(newExtractor(server.URL))
	require.NoError(t, err)

	assert.Equal(t, "/messages", captured.URL.Path)
	assert.Equal(t, "sk-test", captured.Header.Get("x-api-key"))
	assert.Equal(t, DefaultVersion, captured.Header.Get("anthropic-version"))

	require.Len(t, result.Projects, 1)
	assert.Equal(t, "Legos", result.Projects[0].Name)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "explicit", result.Assignments[0].AssignmentType)
	assert.Equal(t, 0.95, result.Assignments[0].Confidence)
	require.Len(t, result.Deadlines, 1)
	assert.Equal(t, "2025-01-17", *result.Deadlines[0].DeadlineDateInferred)
	assert.Equal(t, 0.85, result.OverallConfidence)
}

func TestExtract_FencedOutput(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, textResponse("```json\n"+validExtraction+"\n```"))

	result, err := extract(newExtractor(server.URL))
	require.NoError(t, err)
	assert.Len(t, result.CapacitySignals, 1)
}

func TestExtract_RepairsAlmostJSON(t *testing.T) {
	almost := `{"projects": [{"name": "Legos", "context": "Legos is live", "confidence": 0.9,}], "overall_confidence": 0.6,}`
	server, _ := newServer(t, http.StatusOK, textResponse(almost))

	result, err := extract(newExtractor(server.URL))
	require.NoError(t, err)
	require.Len(t, result.Projects, 1)
	assert.Equal(t, "active", result.Projects[0].Status)
	assert.NotNil(t, result.Assignments)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperrors.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, apperrors.KindUpstreamUnavailable},
		{"server error", http.StatusBadGateway, `oops`, apperrors.KindUpstreamUnavailable},
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"max_tokens too large"}}`, apperrors.KindUpstreamUnavailable},
		{"prose instead of json", http.StatusOK, textResponse("I could not find any projects in this meeting."), apperrors.KindMalformedOutput},
		{"confidence out of range", http.StatusOK, textResponse(`{"projects":[{"name":"Legos","context":"x","confidence":1.5}],"overall_confidence":0.5}`), apperrors.KindMalformedOutput},
		{"unknown enum", http.StatusOK, textResponse(`{"assignments":[{"person_name":"Jess","project_name":"Legos","assignment_type":"rumoured","context":"x","confidence":0.5}],"overall_confidence":0.5}`), apperrors.KindMalformedOutput},
		{"no text block", http.StatusOK, `{"content":[]}`, apperrors.KindMalformedOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newServer(t, tt.status, tt.body)

			_, err := extract(newExtractor(server.URL))
			require.Error(t, err)
			assert.True(t, httperror.IsHTTPError(err))
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestExtract_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := extract(newExtractor(url))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestExtract_NotConfigured(t *testing.T) {
	e := NewAnthropicExtractor(Config{}, testLogger())
	_, err := extract(e)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Equal(t, DefaultModel, e.Model())
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
}

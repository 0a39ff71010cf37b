package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const (
	messagesPath     = "/messages"
	versionHeaderKey = "anthropic-version"
	apiKeyHeaderKey  = "x-api-key"
	maxErrorBodySize = 4096
)

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type AnthropicExtractor struct {
	config     Config
	httpClient *http.Client
	logger     ectologger.Logger
}

func NewAnthropicExtractor(config Config, logger ectologger.Logger) *AnthropicExtractor {
	config = config.withDefaults()
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &AnthropicExtractor{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

func (e *AnthropicExtractor) Model() string {
	return e.config.Model
}

func (e *AnthropicExtractor) Extract(ctx context.Context, text string, meetingDate time.Time, meetingType models.MeetingType) (result *models.ExtractionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "extraction.AnthropicExtractor.Extract")
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.ExtractionDuration.Observe(time.Since(started).Seconds())
		metrics.RecordExtraction(err)
	}()

	if e.config.APIKey == "" {
		return nil, apperrors.UpstreamUnavailable("extraction is not configured")
	}

	answer, err := e.complete(ctx, systemPrompt, userPrompt(text, meetingDate, meetingType), e.config.MaxTokens)
	if err != nil {
		return nil, err
	}

	result, err = parseResult(answer)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Extraction returned unusable output")
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"projects":           len(result.Projects),
		"assignments":        len(result.Assignments),
		"capacity_signals":   len(result.CapacitySignals),
		"deadlines":          len(result.Deadlines),
		"overall_confidence": result.OverallConfidence,
	}).Info("Transcript extracted")

	return result, nil
}

// Recommend asks the model who among candidates should staff project. Names are resolved back
// to candidates case-insensitively; unknown names are kept without an id.
func (e *AnthropicExtractor) Recommend(ctx context.Context, project models.Project, candidates []models.StaffingCandidate) (*models.StaffingRecommendation, error) {
	ctx, span := tracing.StartSpan(ctx, "extraction.AnthropicExtractor.Recommend")
	defer span.End()

	if e.config.APIKey == "" {
		return nil, apperrors.UpstreamUnavailable("recommendations are not configured")
	}

	answer, err := e.complete(ctx, recommendSystemPrompt, recommendPrompt(project, candidates), RecommendMaxTokens)
	if err != nil {
		return nil, err
	}

	recommendation, err := parseRecommendation(answer)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Recommendation returned unusable output")
		return nil, err
	}

	byName := make(map[string]models.StaffingCandidate, len(candidates))
	for _, candidate := range candidates {
		byName[strings.ToLower(strings.TrimSpace(candidate.FullName))] = candidate
	}
	for i := range recommendation.Recommendations {
		rec := &recommendation.Recommendations[i]
		if candidate, ok := byName[strings.ToLower(strings.TrimSpace(rec.TeamMemberName))]; ok {
			id, available := candidate.ID, candidate.AvailableHours
			rec.TeamMemberID = &id
			rec.AvailableHours = &available
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id":      project.ID,
		"candidates":      len(candidates),
		"recommendations": len(recommendation.Recommendations),
	}).Info("Staffing recommended")

	return recommendation, nil
}

// complete sends one user prompt and returns the text of the first text block.
func (e *AnthropicExtractor) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:     e.config.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeaderKey, e.config.APIKey)
	req.Header.Set(versionHeaderKey, e.config.Version)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Extraction request failed")
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperrors.UpstreamUnavailable("extraction service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", e.upstreamError(ctx, resp)
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", apperrors.MalformedOutput("failed to decode extraction response: %v", err)
	}

	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", apperrors.MalformedOutput("extraction response had no text content")
}

func (e *AnthropicExtractor) upstreamError(ctx context.Context, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	message := http.StatusText(resp.StatusCode)
	var decoded errorResponse
	if json.Unmarshal(raw, &decoded) == nil && decoded.Error.Message != "" {
		message = decoded.Error.Message
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"status_code": resp.StatusCode,
		"error":       message,
	}).Error("Extraction service returned an error")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.UpstreamUnavailable("extraction service is rate limited")
	case resp.StatusCode >= http.StatusInternalServerError:
		return apperrors.UpstreamUnavailable("extraction service unavailable (%d)", resp.StatusCode)
	default:
		return apperrors.UpstreamUnavailable("extraction service rejected the request: %s", message)
	}
}

// Package extraction turns meeting transcripts into structured candidate records using the
// Anthropic Messages API.
package extraction

import (
	"context"
	"time"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

// Extractor reads a transcript and returns what it found. Failures are UpstreamUnavailable
// when the model could not be reached and MalformedOutput when its answer could not be used.
type Extractor interface {
	Extract(ctx context.Context, text string, meetingDate time.Time, meetingType models.MeetingType) (*models.ExtractionResult, error)
	Model() string
}

// Recommender proposes team members for a project from a list of candidates.
type Recommender interface {
	Recommend(ctx context.Context, project models.Project, candidates []models.StaffingCandidate) (*models.StaffingRecommendation, error)
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Version   string
	MaxTokens int
	Timeout   time.Duration
}

const (
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultVersion   = "2023-06-01"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4000

	RecommendMaxTokens = 2000
)

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	return c
}

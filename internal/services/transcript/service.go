package transcript

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/extraction"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

// MinTextLength is the shortest transcript, in characters, worth sending for extraction.
const MinTextLength = 50

type TranscriptStore interface {
	Create(ctx context.Context, transcript *models.Transcript) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	List(ctx context.Context, limit, offset int) ([]models.TranscriptSummary, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PersonLister interface {
	List(ctx context.Context) ([]models.Person, error)
}

type ProjectLister interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
}

type ProcessRequest struct {
	Text        string
	MeetingDate *time.Time
	MeetingType models.MeetingType
}

// Unresolved lists extracted names that match no stored team member or project.
type Unresolved struct {
	People   []string `json:"people"`
	Projects []string `json:"projects"`
}

type ProcessResult struct {
	Transcript *models.Transcript
	Unresolved Unresolved
}

type Service struct {
	logger      ectologger.Logger
	transcripts TranscriptStore
	people      PersonLister
	projects    ProjectLister
	extractor   extraction.Extractor
	now         func() time.Time
}

func NewService(logger ectologger.Logger, transcripts TranscriptStore, people PersonLister, projects ProjectLister, extractor extraction.Extractor) *Service {
	return &Service{
		logger:      logger,
		transcripts: transcripts,
		people:      people,
		projects:    projects,
		extractor:   extractor,
		now:         time.Now,
	}
}

// Process extracts structured records from a meeting transcript and stores both. When
// extraction fails the transcript is still stored, with the failure, and the extraction error
// is returned.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	ctx, span := tracing.StartSpan(ctx, "transcript.Process")
	defer span.End()

	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < MinTextLength {
		return nil, apperrors.InvalidInput("transcript text must be at least %d characters", MinTextLength)
	}
	if req.MeetingType == "" {
		req.MeetingType = models.MeetingTypeWIP
	}
	if !req.MeetingType.Valid() {
		return nil, apperrors.InvalidInput("invalid meeting type %q", req.MeetingType)
	}

	meetingDate := s.today()
	if req.MeetingDate != nil {
		meetingDate = dateOf(*req.MeetingDate)
	}

	model := s.extractor.Model()
	result, extractErr := s.extractor.Extract(ctx, req.Text, meetingDate, req.MeetingType)
	processedAt := s.now().UTC()

	transcript := &models.Transcript{
		ID:              uuid.New(),
		MeetingDate:     meetingDate,
		MeetingType:     req.MeetingType,
		RawText:         req.Text,
		ExtractionModel: &model,
		ProcessedAt:     &processedAt,
	}
	if extractErr != nil {
		message := extractErr.Error()
		transcript.ExtractionError = &message
		if err := s.transcripts.Create(ctx, transcript); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to store transcript after extraction failure")
		}
		s.logger.WithContext(ctx).WithError(extractErr).WithFields(map[string]any{
			"transcript_id": transcript.ID,
			"meeting_type":  req.MeetingType,
		}).Warn("Transcript extraction failed")
		return nil, extractErr
	}

	transcript.ExtractedData = database.NewJSONB(*result)
	transcript.ExtractionConfidence = &result.OverallConfidence
	if err := s.transcripts.Create(ctx, transcript); err != nil {
		return nil, err
	}

	unresolved, err := s.unresolved(ctx, result)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"transcript_id":       transcript.ID,
		"meeting_type":        req.MeetingType,
		"projects":            len(result.Projects),
		"assignments":         len(result.Assignments),
		"overall_confidence":  result.OverallConfidence,
		"unresolved_people":   len(unresolved.People),
		"unresolved_projects": len(unresolved.Projects),
	}).Info("Processed transcript")

	return &ProcessResult{Transcript: transcript, Unresolved: unresolved}, nil
}

// unresolved matches extracted names against stored ones, ignoring case.
func (s *Service) unresolved(ctx context.Context, result *models.ExtractionResult) (Unresolved, error) {
	people, err := s.people.List(ctx)
	if err != nil {
		return Unresolved{}, err
	}
	projects, err := s.projects.List(ctx, models.ProjectFilter{})
	if err != nil {
		return Unresolved{}, err
	}

	knownPeople := nameSet(ectolinq.Map(people, func(p models.Person) string { return p.FullName }))
	knownProjects := nameSet(ectolinq.Map(projects, func(p models.Project) string { return p.Name }))

	var personNames, projectNames []string
	for _, a := range result.Assignments {
		personNames = append(personNames, a.PersonName)
		projectNames = append(projectNames, a.ProjectName)
	}
	for _, signal := range result.CapacitySignals {
		personNames = append(personNames, signal.PersonName)
	}
	for _, p := range result.Projects {
		projectNames = append(projectNames, p.Name)
	}

	return Unresolved{
		People:   missing(personNames, knownPeople),
		Projects: missing(projectNames, knownProjects),
	}, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[normalizeName(name)] = true
	}
	return set
}

// missing returns the names not in known, once each, in first-seen order and spelling.
func missing(names []string, known map[string]bool) []string {
	result := []string{}
	seen := map[string]bool{}
	for _, name := range names {
		key := normalizeName(name)
		if key == "" || known[key] || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, name)
	}
	return result
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	ctx, span := tracing.StartSpan(ctx, "transcript.Get")
	defer span.End()

	return s.transcripts.GetByID(ctx, id)
}

// List returns transcripts newest meeting first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.TranscriptSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "transcript.List")
	defer span.End()

	if limit < 1 {
		return nil, apperrors.InvalidInput("limit must be positive")
	}
	if offset < 0 {
		return nil, apperrors.InvalidInput("offset must not be negative")
	}
	return s.transcripts.List(ctx, limit, offset)
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	ctx, span := tracing.StartSpan(ctx, "transcript.Approve")
	defer span.End()

	transcript, err := s.transcripts.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{"transcript_id": id}).Info("Approved transcript")
	return transcript, nil
}

// Delete removes the transcript. Assignments already created from it are kept.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "transcript.Delete")
	defer span.End()

	if err := s.transcripts.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{"transcript_id": id}).Info("Deleted transcript")
	return nil
}

func (s *Service) today() time.Time {
	return dateOf(s.now())
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

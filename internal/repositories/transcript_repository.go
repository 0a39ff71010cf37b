package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const transcriptsTable = "transcripts"

var (
	transcriptStruct        = database.NewStruct(new(models.Transcript))
	transcriptSummaryStruct = database.NewStruct(new(models.TranscriptSummary))
)

// TranscriptRepository handles database operations for meeting transcripts
type TranscriptRepository struct {
	*Repository
}

func NewTranscriptRepository(db database.DB, logger ectologger.Logger) *TranscriptRepository {
	return &TranscriptRepository{
		Repository: NewRepository(db, logger),
	}
}

func (r *TranscriptRepository) Create(ctx context.Context, transcript *models.Transcript) error {
	ctx, span := tracing.StartSpan(ctx, "TranscriptRepository.Create")
	defer span.End()

	if transcript.ID == uuid.Nil {
		transcript.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(transcriptsTable).
		Cols("id", "meeting_date", "meeting_type", "raw_text", "extracted_data", "extraction_model",
			"extraction_confidence", "extraction_error", "processed_at", "approved", "created_at").
		Values(transcript.ID, transcript.MeetingDate.Format(time.DateOnly), transcript.MeetingType, transcript.RawText,
			transcript.ExtractedData, transcript.ExtractionModel, transcript.ExtractionConfidence,
			transcript.ExtractionError, transcript.ProcessedAt, false, database.Now()).
		Returning("created_at")

	query, args := ib.Build()
	if err := r.DB().QueryRowContext(ctx, query, args...).Scan(&transcript.CreatedAt); err != nil {
		return r.fail(ctx, err, map[string]any{"transcript_id": transcript.ID}, "failed to create transcript")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"transcript_id": transcript.ID,
		"meeting_type":  transcript.MeetingType,
		"failed":        transcript.ExtractionError != nil,
	}).Debugf("Created %s", transcriptsTable)
	return nil
}

func (r *TranscriptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	ctx, span := tracing.StartSpan(ctx, "TranscriptRepository.GetByID")
	defer span.End()

	sb := transcriptStruct.SelectFrom(transcriptsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var transcript models.Transcript
	err := r.DB().GetContext(ctx, &transcript, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transcript %s does not exist", id)
	}
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"transcript_id": id}, "failed to get transcript by ID")
	}

	return &transcript, nil
}

// List returns transcript summaries, most recent meeting first.
func (r *TranscriptRepository) List(ctx context.Context, limit, offset int) ([]models.TranscriptSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "TranscriptRepository.List")
	defer span.End()

	sb := transcriptSummaryStruct.SelectFrom(transcriptsTable)
	sb.OrderBy("meeting_date DESC", "created_at DESC").Limit(limit).Offset(offset)

	query, args := sb.Build()
	transcripts := []models.TranscriptSummary{}
	if err := r.DB().SelectContext(ctx, &transcripts, query, args...); err != nil {
		return nil, r.fail(ctx, err, map[string]any{"limit": limit, "offset": offset}, "failed to list transcripts")
	}

	return transcripts, nil
}

// Approve marks a transcript as reviewed. Approving twice keeps the first approval time.
func (r *TranscriptRepository) Approve(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	ctx, span := tracing.StartSpan(ctx, "TranscriptRepository.Approve")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(transcriptsTable).
		Set(
			ub.Assign("approved", true),
			ub.Assign("approved_at", sqlbuilder.Raw("COALESCE(approved_at, NOW())")),
		).
		Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"transcript_id": id}, "failed to approve transcript")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, apperrors.NotFound("transcript %s does not exist", id)
	}

	return r.GetByID(ctx, id)
}

func (r *TranscriptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "TranscriptRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(transcriptsTable).Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"transcript_id": id}, "failed to delete transcript")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NotFound("transcript %s does not exist", id)
	}

	return nil
}

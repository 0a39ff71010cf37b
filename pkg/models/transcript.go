package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
)

// Transcript is a stored meeting transcript. The raw text is kept even when extraction fails.
type Transcript struct {
	ID                   uuid.UUID                        `db:"id" json:"id"`
	MeetingDate          time.Time                        `db:"meeting_date" json:"meeting_date"`
	MeetingType          MeetingType                      `db:"meeting_type" json:"meeting_type"`
	RawText              string                           `db:"raw_text" json:"raw_text"`
	ExtractedData        database.JSONB[ExtractionResult] `db:"extracted_data" json:"extracted_data"`
	ExtractionModel      *string                          `db:"extraction_model" json:"extraction_model,omitempty"`
	ExtractionConfidence *float64                         `db:"extraction_confidence" json:"extraction_confidence"`
	ExtractionError      *string                          `db:"extraction_error" json:"extraction_error,omitempty"`
	ProcessedAt          *time.Time                       `db:"processed_at" json:"processed_at,omitempty"`
	Approved             bool                             `db:"approved" json:"approved"`
	ApprovedAt           *time.Time                       `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt            time.Time                        `db:"created_at" json:"created_at"`
}

func (Transcript) TableName() string {
	return "transcripts"
}

// TranscriptSummary is the list view of a transcript, without text or extraction payload.
type TranscriptSummary struct {
	ID                   uuid.UUID   `db:"id" json:"id"`
	MeetingDate          time.Time   `db:"meeting_date" json:"meeting_date"`
	MeetingType          MeetingType `db:"meeting_type" json:"meeting_type"`
	ExtractionConfidence *float64    `db:"extraction_confidence" json:"extraction_confidence"`
	ProcessedAt          *time.Time  `db:"processed_at" json:"processed_at"`
	Approved             bool        `db:"approved" json:"approved"`
}

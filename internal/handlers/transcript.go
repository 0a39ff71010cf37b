package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	transcriptsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/transcript"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/utils"
)

const defaultTranscriptPageSize = 10

type TranscriptService interface {
	Process(ctx context.Context, req transcriptsvc.ProcessRequest) (*transcriptsvc.ProcessResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	List(ctx context.Context, limit, offset int) ([]models.TranscriptSummary, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TranscriptHandler handles meeting transcript API requests
type TranscriptHandler struct {
	service TranscriptService
}

func NewTranscriptHandler(service TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

type ProcessTranscriptRequest struct {
	TranscriptText string  `json:"transcript_text" validate:"required"`
	MeetingDate    *string `json:"meeting_date" validate:"omitempty,datetime=2006-01-02"`
	MeetingType    string  `json:"meeting_type" validate:"omitempty,oneof=wip planning client-debrief"`
}

type ProcessTranscriptResponse struct {
	TranscriptID         uuid.UUID                `json:"transcript_id"`
	MeetingDate          string                   `json:"meeting_date"`
	MeetingType          models.MeetingType       `json:"meeting_type"`
	ExtractionConfidence *float64                 `json:"extraction_confidence"`
	ExtractedData        models.ExtractionResult  `json:"extracted_data"`
	UnresolvedEntities   transcriptsvc.Unresolved `json:"unresolved_entities"`
}

type TranscriptListResponse struct {
	Transcripts []models.TranscriptSummary `json:"transcripts"`
	Total       int                        `json:"total"`
}

type ApproveTranscriptResponse struct {
	Status       string     `json:"status"`
	TranscriptID uuid.UUID  `json:"transcript_id"`
	ApprovedAt   *time.Time `json:"approved_at"`
}

type DeleteTranscriptResponse struct {
	Status       string    `json:"status"`
	TranscriptID uuid.UUID `json:"transcript_id"`
}

// RegisterRoutes registers the transcript routes
func (h *TranscriptHandler) RegisterRoutes(g *echo.Group) {
	transcripts := g.Group("/transcripts")
	transcripts.POST("/process", h.Process)
	transcripts.GET("", h.List)
	transcripts.GET("/:id", h.Get)
	transcripts.POST("/:id/approve", h.Approve)
	transcripts.DELETE("/:id", h.Delete)
}

// Process handles POST /transcripts/process
func (h *TranscriptHandler) Process(c echo.Context) error {
	req, err := utils.BindRequest[ProcessTranscriptRequest](c)
	if err != nil {
		return err
	}

	result, err := h.service.Process(c.Request().Context(), transcriptsvc.ProcessRequest{
		Text:        req.TranscriptText,
		MeetingDate: parseDate(req.MeetingDate),
		MeetingType: models.MeetingType(req.MeetingType),
	})
	if err != nil {
		return err
	}

	transcript := result.Transcript
	return SuccessResponse(c, ProcessTranscriptResponse{
		TranscriptID:         transcript.ID,
		MeetingDate:          date(transcript.MeetingDate),
		MeetingType:          transcript.MeetingType,
		ExtractionConfidence: transcript.ExtractionConfidence,
		ExtractedData:        transcript.ExtractedData.Data,
		UnresolvedEntities:   result.Unresolved,
	})
}

// List handles GET /transcripts
func (h *TranscriptHandler) List(c echo.Context) error {
	limit, err := QueryInt(c, "limit", defaultTranscriptPageSize)
	if err != nil {
		return err
	}
	offset, err := QueryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	transcripts, err := h.service.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	return SuccessResponse(c, TranscriptListResponse{Transcripts: transcripts, Total: len(transcripts)})
}

// Get handles GET /transcripts/:id
func (h *TranscriptHandler) Get(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	transcript, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, transcript)
}

// Approve handles POST /transcripts/:id/approve
func (h *TranscriptHandler) Approve(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	transcript, err := h.service.Approve(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ApproveTranscriptResponse{Status: "approved", TranscriptID: id, ApprovedAt: transcript.ApprovedAt})
}

// Delete handles DELETE /transcripts/:id
func (h *TranscriptHandler) Delete(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return SuccessResponse(c, DeleteTranscriptResponse{Status: "deleted", TranscriptID: id})
}

package handler

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/actor"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/intake"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// InquiryHandler hands incoming inquiries to the intake worker pool.
type InquiryHandler struct {
	worker intake.IWorker
}

// NewInquiryHandler creates a new inquiry intake handler
func NewInquiryHandler(worker intake.IWorker) *InquiryHandler {
	return &InquiryHandler{
		worker: worker,
	}
}

// HandleEvent decodes an inquiry message and submits it to the worker pool.
// Pool submission failures are retryable: the message is redelivered once the
// pool drains.
func (h *InquiryHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	requestID := uuid.NewString()
	ctx = actor.WithRequestID(ctx, requestID)

	log := logger.FromContext(ctx)
	log.Info("Processing inquiry event", zap.String("type", string(eventType)))

	var inquiry model.InquiryPayload
	if err := json.Unmarshal(rawEvent, &inquiry); err != nil {
		log.Error("Failed to unmarshal inquiry payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal inquiry payload")
	}

	// Subject carries the source when the form omitted it
	if inquiry.SourceType == "" {
		switch eventType {
		case model.V1InquiryProperty:
			inquiry.SourceType = model.SourcePropertyInquiry
		case model.V1InquiryUser:
			inquiry.SourceType = model.SourceUserInquiry
		case model.V1InquiryResearch:
			inquiry.SourceType = model.SourceResearchReport
		case model.V1InquirySaved:
			inquiry.SourceType = model.SourceSavedActivity
		}
	}

	task := intake.TaskData{
		Ctx:          ctx,
		Inquiry:      inquiry,
		MetadataJSON: datatypes.JSON(utils.MustMarshalJSON(metadata.ToLastMetadata())),
	}

	if err := h.worker.SubmitTask(task); err != nil {
		log.Warn("Failed to submit inquiry to intake pool", zap.Error(err))
		return apperrors.NewRetryable(err, "failed to submit inquiry to intake pool")
	}

	return nil
}

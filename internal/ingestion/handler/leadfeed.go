package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/actor"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// BoardApplier folds changefeed mutations into the in-memory board snapshot.
type BoardApplier interface {
	ApplyEvent(ev model.LeadEvent)
}

// LeadFeedHandler processes lead changefeed events
type LeadFeedHandler struct {
	board BoardApplier
}

// NewLeadFeedHandler creates a new lead changefeed handler
func NewLeadFeedHandler(board BoardApplier) *LeadFeedHandler {
	return &LeadFeedHandler{
		board: board,
	}
}

// HandleEvent processes lead changefeed events
func (h *LeadFeedHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	requestID := uuid.NewString()
	ctx = actor.WithRequestID(ctx, requestID)

	log := logger.FromContext(ctx)
	log.Info("Processing lead feed event", zap.String("type", string(eventType)))

	var kind model.LeadEventKind
	switch eventType {
	case model.V1LeadsInsert:
		kind = model.LeadEventInsert
	case model.V1LeadsUpdate:
		kind = model.LeadEventUpdate
	case model.V1LeadsDelete:
		kind = model.LeadEventDelete
	default:
		unsupportedErr := fmt.Errorf("unsupported lead feed event type: %s", eventType)
		log.Error("Unsupported lead feed event type", zap.String("eventType", string(eventType)))
		return apperrors.NewFatal(unsupportedErr, "unsupported lead feed event type")
	}

	var lead model.Lead
	if err := json.Unmarshal(rawEvent, &lead); err != nil {
		log.Error("Failed to unmarshal lead payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal lead payload")
	}

	if lead.ID == "" {
		missingErr := fmt.Errorf("lead ID is required on changefeed events")
		log.Error("Lead feed event validation failed", zap.Error(missingErr))
		return apperrors.NewFatal(missingErr, "lead ID is required on changefeed events")
	}

	log.Debug("Applying lead feed event",
		zap.String("lead_id", lead.ID),
		zap.String("kind", string(kind)),
	)

	h.board.ApplyEvent(model.LeadEvent{Kind: kind, Lead: lead})
	return nil
}

package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// --- Lead Note Repository Methods ---

// SaveNote inserts a lead note. The ID is generated when absent.
func (r *PostgresRepo) SaveNote(ctx context.Context, note model.LeadNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = utils.Now()
	}

	operation := func() error {
		if err := r.db.WithContext(ctx).Create(&note).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveNote", operation)
	observer.ObserveDbOperationDuration("save", "note", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save lead note after retries",
			zap.String("lead_id", note.LeadID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// FindNotesByLeadID returns the notes of a lead, newest first.
func (r *PostgresRepo) FindNotesByLeadID(ctx context.Context, leadID string) ([]model.LeadNote, error) {
	var notes []model.LeadNote

	operation := func() error {
		return r.db.WithContext(ctx).
			Where("lead_id = ?", leadID).
			Order("created_at DESC").
			Find(&notes).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindNotesByLeadID", operation)
	observer.ObserveDbOperationDuration("find_by_lead", "note", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to find notes after retries", zap.String("lead_id", leadID), zap.Error(err))
		return nil, checkConstraintViolation(err)
	}
	return notes, nil
}

package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// --- Lead Repository Methods ---

// FetchAllLeads returns the full lead snapshot ordered most recent first.
func (r *PostgresRepo) FetchAllLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead

	operation := func() error {
		return r.db.WithContext(ctx).Order("created_at DESC").Find(&leads).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FetchAllLeads", operation)
	observer.ObserveDbOperationDuration("fetch_all", "lead", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to fetch leads after retries", zap.Error(err))
		return nil, checkConstraintViolation(err)
	}
	return leads, nil
}

// FindLeadByID returns a single lead or apperrors.ErrNotFound.
func (r *PostgresRepo) FindLeadByID(ctx context.Context, id string) (*model.Lead, error) {
	var lead model.Lead

	operation := func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindLeadByID", operation)
	observer.ObserveDbOperationDuration("find", "lead", time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		logger.FromContext(ctx).Error("Failed to find lead", zap.String("lead_id", id), zap.Error(err))
		return nil, checkConstraintViolation(err)
	}
	return &lead, nil
}

// SaveLead inserts or updates a single lead row keyed by ID.
func (r *PostgresRepo) SaveLead(ctx context.Context, lead model.Lead) error {
	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return checkConstraintViolation(tx.Error)
		}
		var txErr error
		defer func() {
			if rec := recover(); rec != nil {
				tx.Rollback()
				panic(rec)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var existing model.Lead
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", lead.ID).
			First(&existing)
		findErr := result.Error

		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				if createErr := tx.Create(&lead).Error; createErr != nil {
					txErr = checkConstraintViolation(createErr)
					return txErr
				}
			} else {
				txErr = checkConstraintViolation(findErr)
				return txErr
			}
		} else {
			if updateErr := tx.Model(&existing).Updates(lead).Error; updateErr != nil {
				txErr = checkConstraintViolation(updateErr)
				return txErr
			}
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = checkConstraintViolation(commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveLead Commit", operation)
	observer.ObserveDbOperationDuration("save", "lead", time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save lead after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// BulkUpsertLeads inserts leads in one statement, updating the mutable intake
// fields on ID conflicts. Used by the inquiry intake path.
func (r *PostgresRepo) BulkUpsertLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	operation := func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "phone", "email", "property_title", "city", "location",
				"budget_range", "property_type", "purpose", "notes", "tags",
				"updated_at", "last_metadata",
			}),
		}).Create(&leads).Error
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "BulkUpsertLeads", operation)
	observer.ObserveDbOperationDuration("bulk_upsert", "lead", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to bulk upsert leads after retries",
			zap.Int("count", len(leads)),
			zap.Error(err),
		)
		return checkConstraintViolation(err)
	}
	return nil
}

// AssignLeads applies the same assigned admin to every lead in ids as a single
// batched update (WHERE id IN). adminID nil moves them back to the unassigned
// pool. Zero matched rows is an error: the caller is holding a stale snapshot.
func (r *PostgresRepo) AssignLeads(ctx context.Context, ids []string, adminID *string) error {
	if len(ids) == 0 {
		return nil
	}

	var rowsAffected int64
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"assigned_admin_id": adminID,
				"updated_at":        utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		rowsAffected = result.RowsAffected
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "AssignLeads", operation)
	observer.ObserveDbOperationDuration("assign", "lead", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to assign leads after retries",
			zap.Strings("lead_ids", ids),
			zap.Error(err),
		)
		return err
	}
	if rowsAffected == 0 {
		logger.FromContext(ctx).Warn("AssignLeads matched no rows", zap.Strings("lead_ids", ids))
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateLeadStatus moves a single lead to the given pipeline status.
func (r *PostgresRepo) UpdateLeadStatus(ctx context.Context, id string, status model.PipelineStatus) error {
	if !status.Valid() {
		return apperrors.ErrValidation
	}

	var rowsAffected int64
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     status,
				"updated_at": utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		rowsAffected = result.RowsAffected
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "UpdateLeadStatus", operation)
	observer.ObserveDbOperationDuration("update_status", "lead", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update lead status after retries",
			zap.String("lead_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateLeadStatusByPhone moves every lead sharing the phone to the given
// status in one batched update.
func (r *PostgresRepo) UpdateLeadStatusByPhone(ctx context.Context, phone string, status model.PipelineStatus) error {
	if phone == "" {
		return apperrors.ErrBadRequest
	}
	if !status.Valid() {
		return apperrors.ErrValidation
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("phone = ?", phone).
			Updates(map[string]interface{}{
				"status":     status,
				"updated_at": utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			logger.FromContext(ctx).Warn("UpdateLeadStatusByPhone matched no rows", zap.String("phone", phone))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "UpdateLeadStatusByPhone", operation)
	observer.ObserveDbOperationDuration("update_status_by_phone", "lead", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update lead status by phone after retries",
			zap.String("phone", phone),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// LeadExistsBySource reports whether a lead for the phone+source pair exists.
func (r *PostgresRepo) LeadExistsBySource(ctx context.Context, phone, sourceID string) (bool, error) {
	var count int64

	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.Lead{}).
			Where("phone = ? AND source_id = ?", phone, sourceID).
			Count(&count).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "LeadExistsBySource", operation)
	observer.ObserveDbOperationDuration("exists", "lead", time.Since(startTime), err)
	if err != nil {
		return false, checkConstraintViolation(err)
	}
	return count > 0, nil
}

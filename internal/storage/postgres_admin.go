package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// --- Admin Repository Methods ---

// ListActiveAdmins returns every active admin account ordered by username.
func (r *PostgresRepo) ListActiveAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var admins []model.AdminUser

	operation := func() error {
		return r.db.WithContext(ctx).
			Where("is_active = ?", true).
			Order("username ASC").
			Find(&admins).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "ListActiveAdmins", operation)
	observer.ObserveDbOperationDuration("list_active", "admin", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list active admins after retries", zap.Error(err))
		return nil, checkConstraintViolation(err)
	}
	return admins, nil
}

// ListAdminAccounts calls the get_admin_accounts server-side procedure. The
// procedure runs with elevated rights so superadmin dashboards can list every
// account without a direct table grant.
func (r *PostgresRepo) ListAdminAccounts(ctx context.Context) ([]model.AdminUser, error) {
	var admins []model.AdminUser

	operation := func() error {
		return r.db.WithContext(ctx).
			Raw("SELECT id, username, role, is_active, created_at, updated_at FROM get_admin_accounts()").
			Scan(&admins).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "ListAdminAccounts", operation)
	observer.ObserveDbOperationDuration("rpc_list_accounts", "admin", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list admin accounts after retries", zap.Error(err))
		return nil, checkConstraintViolation(err)
	}
	return admins, nil
}

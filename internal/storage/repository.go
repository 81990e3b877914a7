package storage

import (
	"context"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

// LeadRepo defines lead storage operations. This is the full remote surface
// the board depends on; tests substitute a fake implementation.
type LeadRepo interface {
	// FetchAll returns every lead ordered by created_at descending.
	FetchAll(ctx context.Context) ([]model.Lead, error)
	FindByID(ctx context.Context, id string) (*model.Lead, error)
	Save(ctx context.Context, lead model.Lead) error
	BulkUpsert(ctx context.Context, leads []model.Lead) error
	// AssignLeads applies the same assigned admin (or nil to unassign) to every
	// lead whose ID is in ids, as a single batched update.
	AssignLeads(ctx context.Context, ids []string, adminID *string) error
	// UpdateStatus moves a single lead to the given pipeline status.
	UpdateStatus(ctx context.Context, id string, status model.PipelineStatus) error
	// UpdateStatusByPhone moves every lead sharing the phone to the given
	// status in one batched update. Used by the single-admin board variant.
	UpdateStatusByPhone(ctx context.Context, phone string, status model.PipelineStatus) error
	// ExistsBySource reports whether a lead from the given source already
	// exists. Used to confirm dedupe-filter hits during intake.
	ExistsBySource(ctx context.Context, phone, sourceID string) (bool, error)
	Close(ctx context.Context) error
}

// AdminRepo defines read-only admin account operations.
type AdminRepo interface {
	// ListActive returns every active admin, ordered by username.
	ListActive(ctx context.Context) ([]model.AdminUser, error)
	// ListAccounts invokes the server-side get_admin_accounts procedure and
	// returns all accounts regardless of active flag. Superadmin dashboards
	// consume this.
	ListAccounts(ctx context.Context) ([]model.AdminUser, error)
	Close(ctx context.Context) error
}

// NoteRepo defines lead note storage operations.
type NoteRepo interface {
	Save(ctx context.Context, note model.LeadNote) error
	FindByLeadID(ctx context.Context, leadID string) ([]model.LeadNote, error)
	Close(ctx context.Context) error
}

package storage

import (
	"context"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

// LeadRepoAdapter adapts the PostgresRepo to the LeadRepo interface
type LeadRepoAdapter struct {
	postgres *PostgresRepo
}

// NewLeadRepoAdapter creates a new lead repository adapter
func NewLeadRepoAdapter(postgres *PostgresRepo) LeadRepo {
	return &LeadRepoAdapter{postgres: postgres}
}

func (a *LeadRepoAdapter) FetchAll(ctx context.Context) ([]model.Lead, error) {
	return a.postgres.FetchAllLeads(ctx)
}

func (a *LeadRepoAdapter) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	return a.postgres.FindLeadByID(ctx, id)
}

func (a *LeadRepoAdapter) Save(ctx context.Context, lead model.Lead) error {
	return a.postgres.SaveLead(ctx, lead)
}

func (a *LeadRepoAdapter) BulkUpsert(ctx context.Context, leads []model.Lead) error {
	return a.postgres.BulkUpsertLeads(ctx, leads)
}

func (a *LeadRepoAdapter) AssignLeads(ctx context.Context, ids []string, adminID *string) error {
	return a.postgres.AssignLeads(ctx, ids, adminID)
}

func (a *LeadRepoAdapter) UpdateStatus(ctx context.Context, id string, status model.PipelineStatus) error {
	return a.postgres.UpdateLeadStatus(ctx, id, status)
}

func (a *LeadRepoAdapter) UpdateStatusByPhone(ctx context.Context, phone string, status model.PipelineStatus) error {
	return a.postgres.UpdateLeadStatusByPhone(ctx, phone, status)
}

func (a *LeadRepoAdapter) ExistsBySource(ctx context.Context, phone, sourceID string) (bool, error) {
	return a.postgres.LeadExistsBySource(ctx, phone, sourceID)
}

func (a *LeadRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// AdminRepoAdapter adapts the PostgresRepo to the AdminRepo interface
type AdminRepoAdapter struct {
	postgres *PostgresRepo
}

// NewAdminRepoAdapter creates a new admin repository adapter
func NewAdminRepoAdapter(postgres *PostgresRepo) AdminRepo {
	return &AdminRepoAdapter{postgres: postgres}
}

func (a *AdminRepoAdapter) ListActive(ctx context.Context) ([]model.AdminUser, error) {
	return a.postgres.ListActiveAdmins(ctx)
}

func (a *AdminRepoAdapter) ListAccounts(ctx context.Context) ([]model.AdminUser, error) {
	return a.postgres.ListAdminAccounts(ctx)
}

func (a *AdminRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// NoteRepoAdapter adapts the PostgresRepo to the NoteRepo interface
type NoteRepoAdapter struct {
	postgres *PostgresRepo
}

// NewNoteRepoAdapter creates a new note repository adapter
func NewNoteRepoAdapter(postgres *PostgresRepo) NoteRepo {
	return &NoteRepoAdapter{postgres: postgres}
}

func (a *NoteRepoAdapter) Save(ctx context.Context, note model.LeadNote) error {
	return a.postgres.SaveNote(ctx, note)
}

func (a *NoteRepoAdapter) FindByLeadID(ctx context.Context, leadID string) ([]model.LeadNote, error) {
	return a.postgres.FindNotesByLeadID(ctx, leadID)
}

func (a *NoteRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

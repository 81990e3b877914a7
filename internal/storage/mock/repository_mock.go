package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

// --- LeadRepo Mock ---

// LeadRepoMock mocks the LeadRepo interface
type LeadRepoMock struct {
	mock.Mock
}

// FetchAll mocks the FetchAll method
func (m *LeadRepoMock) FetchAll(ctx context.Context) ([]model.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// FindByID mocks the FindByID method
func (m *LeadRepoMock) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

// Save mocks the Save method
func (m *LeadRepoMock) Save(ctx context.Context, lead model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// BulkUpsert mocks the BulkUpsert method
func (m *LeadRepoMock) BulkUpsert(ctx context.Context, leads []model.Lead) error {
	args := m.Called(ctx, leads)
	return args.Error(0)
}

// AssignLeads mocks the AssignLeads method
func (m *LeadRepoMock) AssignLeads(ctx context.Context, ids []string, adminID *string) error {
	args := m.Called(ctx, ids, adminID)
	return args.Error(0)
}

// UpdateStatus mocks the UpdateStatus method
func (m *LeadRepoMock) UpdateStatus(ctx context.Context, id string, status model.PipelineStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// UpdateStatusByPhone mocks the UpdateStatusByPhone method
func (m *LeadRepoMock) UpdateStatusByPhone(ctx context.Context, phone string, status model.PipelineStatus) error {
	args := m.Called(ctx, phone, status)
	return args.Error(0)
}

// ExistsBySource mocks the ExistsBySource method
func (m *LeadRepoMock) ExistsBySource(ctx context.Context, phone, sourceID string) (bool, error) {
	args := m.Called(ctx, phone, sourceID)
	return args.Bool(0), args.Error(1)
}

// Close mocks the Close method
func (m *LeadRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- AdminRepo Mock ---

// AdminRepoMock mocks the AdminRepo interface
type AdminRepoMock struct {
	mock.Mock
}

// ListActive mocks the ListActive method
func (m *AdminRepoMock) ListActive(ctx context.Context) ([]model.AdminUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AdminUser), args.Error(1)
}

// ListAccounts mocks the ListAccounts method
func (m *AdminRepoMock) ListAccounts(ctx context.Context) ([]model.AdminUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AdminUser), args.Error(1)
}

// Close mocks the Close method
func (m *AdminRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- NoteRepo Mock ---

// NoteRepoMock mocks the NoteRepo interface
type NoteRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *NoteRepoMock) Save(ctx context.Context, note model.LeadNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

// FindByLeadID mocks the FindByLeadID method
func (m *NoteRepoMock) FindByLeadID(ctx context.Context, leadID string) ([]model.LeadNote, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeadNote), args.Error(1)
}

// Close mocks the Close method
func (m *NoteRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

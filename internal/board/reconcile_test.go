package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/actor"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

func TestAssign_PatchesLocalSnapshotOnSuccess(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0), leadAt("2", "222", time.Minute)}, nil)

	adminID := "admin-a"
	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1", "2"}, &adminID).Return(nil).Once()

	require.NoError(t, b.Assign(context.Background(), []string{"1", "2"}, &adminID))

	for _, l := range b.SnapshotLeads() {
		require.NotNil(t, l.AssignedAdminID)
		assert.Equal(t, "admin-a", *l.AssignedAdminID)
	}
	leadRepo.AssertExpectations(t)
}

func TestAssign_RemoteFailureLeavesSnapshotUntouched(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	adminID := "admin-a"
	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1"}, &adminID).
		Return(apperrors.NewRetryable(errors.New("connection reset"), "assign failed")).Once()

	err := b.Assign(context.Background(), []string{"1"}, &adminID)
	require.Error(t, err)

	got := b.SnapshotLeads()[0]
	assert.Nil(t, got.AssignedAdminID)
	leadRepo.AssertExpectations(t)
}

func TestAssign_NilUnassigns(t *testing.T) {
	owned := leadAt("1", "111", 0)
	owned.AssignedAdminID = strPtr("admin-a")
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{owned}, nil)

	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1"}, (*string)(nil)).Return(nil).Once()

	require.NoError(t, b.Assign(context.Background(), []string{"1"}, nil))
	assert.Nil(t, b.SnapshotLeads()[0].AssignedAdminID)
}

func TestAssign_AfterCloseDiscardsLocalPatch(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	adminID := "admin-a"
	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1"}, &adminID).Return(nil).Once()

	b.Close()
	require.NoError(t, b.Assign(context.Background(), []string{"1"}, &adminID))

	assert.Nil(t, b.SnapshotLeads()[0].AssignedAdminID)
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	err := b.SetStatus(context.Background(), "1", model.PipelineStatus("archived"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	leadRepo.AssertNotCalled(t, "UpdateStatus", testifymock.Anything, testifymock.Anything, testifymock.Anything)
}

func TestSetStatus_PatchesLocalSnapshot(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	leadRepo.On("UpdateStatus", testifymock.Anything, "1", model.StatusContacted).Return(nil).Once()

	require.NoError(t, b.SetStatus(context.Background(), "1", model.StatusContacted))
	assert.Equal(t, model.StatusContacted, b.SnapshotLeads()[0].Status)
}

func TestHandleDrop_InvalidStatusRejectedBeforeAnyMutation(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "999", 0), leadAt("2", "999", time.Minute)}, nil)

	ctx := actor.WithAdminID(context.Background(), "admin-a")
	err := b.HandleDrop(ctx, GroupedUnassigned{LeadIDs: []string{"1", "2"}}, DropTarget{Status: model.PipelineStatus("archived")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// The group must not be assigned when the status column is bogus.
	leadRepo.AssertNotCalled(t, "AssignLeads", testifymock.Anything, testifymock.Anything, testifymock.Anything)
	leadRepo.AssertNotCalled(t, "UpdateStatus", testifymock.Anything, testifymock.Anything, testifymock.Anything)
	for _, l := range b.SnapshotLeads() {
		assert.Nil(t, l.AssignedAdminID)
	}
}

func TestHandleDrop_GroupOnStatusColumnAssignsThenMoves(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "999", 0), leadAt("2", "999", time.Minute)}, nil)

	var calls []string
	adminID := "admin-a"
	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1", "2"}, &adminID).
		Run(func(args testifymock.Arguments) { calls = append(calls, "assign") }).
		Return(nil).Once()
	leadRepo.On("UpdateStatus", testifymock.Anything, "1", model.StatusQualified).
		Run(func(args testifymock.Arguments) { calls = append(calls, "status-1") }).
		Return(nil).Once()
	leadRepo.On("UpdateStatus", testifymock.Anything, "2", model.StatusQualified).
		Run(func(args testifymock.Arguments) { calls = append(calls, "status-2") }).
		Return(nil).Once()

	ctx := actor.WithAdminID(context.Background(), "admin-a")
	err := b.HandleDrop(ctx, GroupedUnassigned{LeadIDs: []string{"1", "2"}}, DropTarget{Status: model.StatusQualified})
	require.NoError(t, err)

	assert.Equal(t, []string{"assign", "status-1", "status-2"}, calls)

	for _, l := range b.SnapshotLeads() {
		require.NotNil(t, l.AssignedAdminID)
		assert.Equal(t, "admin-a", *l.AssignedAdminID)
		assert.Equal(t, model.StatusQualified, l.Status)
	}
	leadRepo.AssertExpectations(t)
}

func TestHandleDrop_GroupOnStatusWithoutActorFails(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "999", 0)}, nil)

	err := b.HandleDrop(context.Background(), GroupedUnassigned{LeadIDs: []string{"1"}}, DropTarget{Status: model.StatusQualified})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	leadRepo.AssertNotCalled(t, "AssignLeads", testifymock.Anything, testifymock.Anything, testifymock.Anything)
}

func TestHandleDrop_MidLoopFailureKeepsEarlierMoves(t *testing.T) {
	// The assign-then-move sequence has no rollback: members moved before the
	// failure stay moved, the rest keep their old status.
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "999", 0), leadAt("2", "999", time.Minute)}, nil)

	adminID := "admin-a"
	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1", "2"}, &adminID).Return(nil).Once()
	leadRepo.On("UpdateStatus", testifymock.Anything, "1", model.StatusQualified).Return(nil).Once()
	leadRepo.On("UpdateStatus", testifymock.Anything, "2", model.StatusQualified).
		Return(apperrors.NewRetryable(errors.New("timeout"), "update failed")).Once()

	ctx := actor.WithAdminID(context.Background(), "admin-a")
	err := b.HandleDrop(ctx, GroupedUnassigned{LeadIDs: []string{"1", "2"}}, DropTarget{Status: model.StatusQualified})
	require.Error(t, err)

	byID := make(map[string]model.Lead)
	for _, l := range b.SnapshotLeads() {
		byID[l.ID] = l
	}
	assert.Equal(t, model.StatusQualified, byID["1"].Status)
	assert.Equal(t, model.StatusNew, byID["2"].Status)
	// Assignment succeeded for both before the status loop.
	require.NotNil(t, byID["2"].AssignedAdminID)
	leadRepo.AssertExpectations(t)
}

func TestHandleDrop_GroupOnUnassignColumn(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "999", 0)}, nil)

	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1"}, (*string)(nil)).Return(nil).Once()

	// No actor needed to unassign.
	err := b.HandleDrop(context.Background(), GroupedUnassigned{LeadIDs: []string{"1"}}, DropTarget{Unassign: true})
	require.NoError(t, err)
	leadRepo.AssertExpectations(t)
}

func TestHandleDrop_IndividualOnStatusColumn(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	leadRepo.On("UpdateStatus", testifymock.Anything, "1", model.StatusClosed).Return(nil).Once()

	err := b.HandleDrop(context.Background(), IndividualAssigned{LeadID: "1"}, DropTarget{Status: model.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, b.SnapshotLeads()[0].Status)
}

func TestHandleDrop_IndividualOnUnassignColumn(t *testing.T) {
	owned := leadAt("1", "111", 0)
	owned.AssignedAdminID = strPtr("admin-a")
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{owned}, nil)

	leadRepo.On("AssignLeads", testifymock.Anything, []string{"1"}, (*string)(nil)).Return(nil).Once()

	err := b.HandleDrop(context.Background(), IndividualAssigned{LeadID: "1"}, DropTarget{Unassign: true})
	require.NoError(t, err)
	assert.Nil(t, b.SnapshotLeads()[0].AssignedAdminID)
}

func TestDropByPhone_MovesEveryLeadSharingThePhone(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{
		leadAt("1", "999", 0),
		leadAt("2", "999", time.Minute),
		leadAt("3", "111", 2*time.Minute),
	}, nil)

	leadRepo.On("UpdateStatusByPhone", testifymock.Anything, "999", model.StatusContacted).Return(nil).Once()

	require.NoError(t, b.DropByPhone(context.Background(), "999", model.StatusContacted))

	byID := make(map[string]model.Lead)
	for _, l := range b.SnapshotLeads() {
		byID[l.ID] = l
	}
	assert.Equal(t, model.StatusContacted, byID["1"].Status)
	assert.Equal(t, model.StatusContacted, byID["2"].Status)
	assert.Equal(t, model.StatusNew, byID["3"].Status)
}

func TestCreateLead_FillsDefaultsAndInsertsLocally(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{}, nil)

	leadRepo.On("Save", testifymock.Anything, testifymock.AnythingOfType("model.Lead")).Return(nil).Once()

	created, err := b.CreateLead(context.Background(), model.Lead{Name: "Walk In", Phone: "12345"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.SourceManual, created.SourceType)
	assert.Equal(t, model.StatusNew, created.Status)

	leads := b.SnapshotLeads()
	require.Len(t, leads, 1)
	assert.Equal(t, created.ID, leads[0].ID)
}

func TestCreateLead_RemoteFailureDoesNotInsertLocally(t *testing.T) {
	b, leadRepo, _, _ := newTestBoard(t, []model.Lead{}, nil)

	leadRepo.On("Save", testifymock.Anything, testifymock.AnythingOfType("model.Lead")).
		Return(apperrors.NewFatal(errors.New("constraint"), "save failed")).Once()

	_, err := b.CreateLead(context.Background(), model.Lead{Name: "Walk In"})
	require.Error(t, err)
	assert.Empty(t, b.SnapshotLeads())
}

func TestAddNote_RequiresActor(t *testing.T) {
	b, _, _, noteRepo := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	err := b.AddNote(context.Background(), "1", "called, no answer")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	noteRepo.AssertNotCalled(t, "Save", testifymock.Anything, testifymock.Anything)
}

func TestAddNote_SavesWithActingAdmin(t *testing.T) {
	b, _, _, noteRepo := newTestBoard(t, []model.Lead{leadAt("1", "111", 0)}, nil)

	noteRepo.On("Save", testifymock.Anything, testifymock.MatchedBy(func(n model.LeadNote) bool {
		return n.LeadID == "1" && n.AdminID == "admin-a" && n.Note == "called, no answer" && n.ID != ""
	})).Return(nil).Once()

	ctx := actor.WithAdminID(context.Background(), "admin-a")
	require.NoError(t, b.AddNote(ctx, "1", "called, no answer"))
	noteRepo.AssertExpectations(t)
}

package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/actor"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/validator"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// DragItem is what a board card carries when it is picked up. The variant is
// fixed at card creation time so the drop handler never has to re-derive what
// kind of card it is holding from ambient lookup tables.
type DragItem interface {
	isDragItem()
}

// GroupedUnassigned is a consolidated card from the unassigned pool; it
// carries every member lead ID.
type GroupedUnassigned struct {
	LeadIDs []string
}

func (GroupedUnassigned) isDragItem() {}

// IndividualAssigned is a single lead card nested under an admin's column.
type IndividualAssigned struct {
	LeadID string
}

func (IndividualAssigned) isDragItem() {}

// DropTarget is a board column: either the synthetic unassigned target or a
// pipeline status column.
type DropTarget struct {
	Unassign bool
	Status   model.PipelineStatus
}

// Assign applies the same admin (nil to unassign) to every lead in ids via a
// single batched remote update, then patches the local snapshot for exactly
// those ids. On remote failure the snapshot is left untouched and the error
// is returned; the caller surfaces it, nothing retries.
func (b *Board) Assign(ctx context.Context, ids []string, adminID *string) error {
	err := b.leadRepo.AssignLeads(ctx, ids, adminID)
	observer.IncReconcilerMutation("assign", err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to assign leads",
			zap.Strings("lead_ids", ids),
			zap.Error(err),
		)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		// The board was torn down while the call was in flight; discard.
		return nil
	}
	now := utils.Now()
	for _, id := range ids {
		b.snap.Patch(id, func(l *model.Lead) {
			l.AssignedAdminID = adminID
			l.UpdatedAt = now
		})
	}
	return nil
}

// SetStatus moves a single lead to the given pipeline status remotely, then
// patches the local snapshot.
func (b *Board) SetStatus(ctx context.Context, id string, status model.PipelineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown pipeline status %q", apperrors.ErrValidation, status)
	}

	err := b.leadRepo.UpdateStatus(ctx, id, status)
	observer.IncReconcilerMutation("set_status", err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update lead status",
			zap.String("lead_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	now := utils.Now()
	b.snap.Patch(id, func(l *model.Lead) {
		l.Status = status
		l.UpdatedAt = now
	})
	return nil
}

// HandleDrop reconciles a drag gesture on the multi-admin board. The acting
// admin comes from the context.
//
// Dropping a grouped card on a status column self-assigns every member to the
// actor and then moves each member's status one call at a time. The two
// phases are not atomic: when a status call fails partway, the already
// assigned members keep their old status and the error is returned as-is.
func (b *Board) HandleDrop(ctx context.Context, item DragItem, target DropTarget) error {
	// A status column is checked before any remote call so a malformed drop
	// never assigns a group only to fail on the status phase.
	if !target.Unassign && !target.Status.Valid() {
		return fmt.Errorf("%w: unknown pipeline status %q", apperrors.ErrValidation, target.Status)
	}

	switch it := item.(type) {
	case GroupedUnassigned:
		if target.Unassign {
			return b.Assign(ctx, it.LeadIDs, nil)
		}
		actorID, err := actor.FromContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: drop requires an acting admin: %w", apperrors.ErrUnauthorized, err)
		}
		if err := b.Assign(ctx, it.LeadIDs, &actorID); err != nil {
			return err
		}
		for _, id := range it.LeadIDs {
			if err := b.SetStatus(ctx, id, target.Status); err != nil {
				return err
			}
		}
		return nil

	case IndividualAssigned:
		if target.Unassign {
			return b.Assign(ctx, []string{it.LeadID}, nil)
		}
		return b.SetStatus(ctx, it.LeadID, target.Status)

	default:
		return fmt.Errorf("%w: unknown drag item %T", apperrors.ErrBadRequest, item)
	}
}

// DropByPhone reconciles a column drop on the single-admin board: every lead
// sharing the phone moves to the target status in one batched update.
func (b *Board) DropByPhone(ctx context.Context, phone string, status model.PipelineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown pipeline status %q", apperrors.ErrValidation, status)
	}

	err := b.leadRepo.UpdateStatusByPhone(ctx, phone, status)
	observer.IncReconcilerMutation("set_status_by_phone", err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update status by phone",
			zap.String("phone", phone),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	now := utils.Now()
	for _, l := range b.snap.Leads() {
		if l.Phone == phone {
			b.snap.Patch(l.ID, func(l *model.Lead) {
				l.Status = status
				l.UpdatedAt = now
			})
		}
	}
	return nil
}

// CreateLead persists a manually entered lead and inserts it into the local
// snapshot. Missing identifiers and defaults are filled in before validation.
func (b *Board) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.SourceType == "" {
		lead.SourceType = model.SourceManual
	}
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}
	if lead.Priority == "" {
		lead.Priority = model.PriorityMedium
	}
	if err := validator.Validate(&lead); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	err := b.leadRepo.Save(ctx, lead)
	observer.IncReconcilerMutation("create_lead", err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to create lead",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return nil, err
	}

	b.ApplyEvent(model.LeadEvent{Kind: model.LeadEventInsert, Lead: lead})
	return &lead, nil
}

// AddNote records a note against a lead on behalf of the acting admin.
func (b *Board) AddNote(ctx context.Context, leadID, text string) error {
	actorID, err := actor.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: note requires an acting admin: %w", apperrors.ErrUnauthorized, err)
	}
	note := model.LeadNote{
		ID:      uuid.NewString(),
		LeadID:  leadID,
		AdminID: actorID,
		Note:    text,
	}
	if err := b.noteRepo.Save(ctx, note); err != nil {
		logger.FromContext(ctx).Error("Failed to save lead note",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

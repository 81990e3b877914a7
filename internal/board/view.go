package board

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/storage"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// Board holds the live lead snapshot and derives kanban views from it. The
// changefeed goroutine writes through ApplyEvent while API handlers read
// through View/PipelineView; the mutex serializes them. Derivation itself is
// pure and synchronous.
type Board struct {
	mu     sync.RWMutex
	snap   *Snapshot
	admins []model.AdminUser
	search string
	closed bool

	leadRepo  storage.LeadRepo
	adminRepo storage.AdminRepo
	noteRepo  storage.NoteRepo
}

// NewBoard creates a Board over the given repositories. The snapshot starts
// empty; call Refresh to perform the initial full fetch.
func NewBoard(leadRepo storage.LeadRepo, adminRepo storage.AdminRepo, noteRepo storage.NoteRepo) *Board {
	return &Board{
		snap:      NewSnapshot(),
		leadRepo:  leadRepo,
		adminRepo: adminRepo,
		noteRepo:  noteRepo,
	}
}

// Refresh replaces the snapshot and admin list with a full fetch. On error
// the local state is left untouched, so a failed refresh degrades to a stale
// view rather than an empty one.
func (b *Board) Refresh(ctx context.Context) error {
	leads, err := b.leadRepo.FetchAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to refresh lead snapshot", zap.Error(err))
		return err
	}
	admins, err := b.adminRepo.ListActive(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to refresh admin list", zap.Error(err))
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.snap.Load(leads)
	b.admins = admins
	logger.FromContext(ctx).Info("Lead snapshot refreshed",
		zap.Int("leads", len(leads)),
		zap.Int("admins", len(admins)),
	)
	return nil
}

// ApplyEvent folds a changefeed event into the snapshot.
func (b *Board) ApplyEvent(ev model.LeadEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.snap.Apply(ev)
}

// SetSearch updates the free-text search filter.
func (b *Board) SetSearch(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search = s
}

// Search returns the current free-text search filter.
func (b *Board) Search() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.search
}

// Close marks the board as torn down. Late mutation responses and changefeed
// events arriving after Close leave the snapshot untouched.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// AdminColumn is one admin's pipeline, keyed by status.
type AdminColumn map[model.PipelineStatus][]model.Lead

// View is the multi-admin board: consolidated not-fully-assigned groups plus
// one column set per admin.
type View struct {
	// Unassigned holds the consolidated groups with at least one unowned
	// member, in first-seen key order.
	Unassigned []model.ConsolidatedLead `json:"unassigned"`
	// Columns maps admin ID to that admin's per-status lead lists, snapshot
	// order preserved.
	Columns map[string]AdminColumn `json:"columns"`
	// Admins is the assignment target list.
	Admins []model.AdminUser `json:"admins"`
	// Search echoes the filter the view was derived under.
	Search string `json:"search,omitempty"`
}

// PipelineView is the single-admin board: consolidated groups bucketed by
// their primary lead's status.
type PipelineView struct {
	Columns map[model.PipelineStatus][]model.ConsolidatedLead `json:"columns"`
	Search  string                                            `json:"search,omitempty"`
}

// View derives the multi-admin board from the current snapshot and filter.
// The derivation is pure: it never mutates the snapshot and allocates a fresh
// result on every call.
func (b *Board) View(searchOverride ...string) View {
	start := time.Now()

	b.mu.RLock()
	leads := b.snap.Leads()
	admins := append([]model.AdminUser(nil), b.admins...)
	search := b.search
	b.mu.RUnlock()

	if len(searchOverride) > 0 {
		search = searchOverride[0]
	}

	filtered := FilterLeads(leads, search)
	groups := Consolidate(filtered, "")

	unassigned := make([]model.ConsolidatedLead, 0, len(groups))
	for _, g := range groups {
		if !g.IsFullyAssigned {
			unassigned = append(unassigned, g)
		}
	}

	columns := make(map[string]AdminColumn, len(admins))
	for _, admin := range admins {
		col := make(AdminColumn, 4)
		for _, status := range model.PipelineStatuses() {
			var bucket []model.Lead
			for _, l := range filtered {
				if l.Assigned() && *l.AssignedAdminID == admin.ID && l.Status == status {
					bucket = append(bucket, l)
				}
			}
			col[status] = bucket
		}
		columns[admin.ID] = col
	}

	observer.ObserveBoardDerivation(time.Since(start), len(leads))

	return View{
		Unassigned: unassigned,
		Columns:    columns,
		Admins:     admins,
		Search:     search,
	}
}

// PipelineView derives the single-admin board: every consolidated group is
// placed in the column of its primary (most recent) lead's status.
func (b *Board) PipelineView(searchOverride ...string) PipelineView {
	start := time.Now()

	b.mu.RLock()
	leads := b.snap.Leads()
	search := b.search
	b.mu.RUnlock()

	if len(searchOverride) > 0 {
		search = searchOverride[0]
	}

	groups := Consolidate(leads, search)

	columns := make(map[model.PipelineStatus][]model.ConsolidatedLead, 4)
	for _, status := range model.PipelineStatuses() {
		columns[status] = nil
	}
	for _, g := range groups {
		primary := g.Primary()
		if primary == nil {
			continue
		}
		status := primary.Status
		if !status.Valid() {
			status = model.StatusNew
		}
		columns[status] = append(columns[status], g)
	}

	observer.ObserveBoardDerivation(time.Since(start), len(leads))

	return PipelineView{Columns: columns, Search: search}
}

// Admins returns the cached assignment target list.
func (b *Board) Admins() []model.AdminUser {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.AdminUser(nil), b.admins...)
}

// SnapshotLeads returns a copy of the raw snapshot in display order.
func (b *Board) SnapshotLeads() []model.Lead {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.Leads()
}

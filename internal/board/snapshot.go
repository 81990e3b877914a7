package board

import (
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

// Snapshot is the local copy of the lead table, keyed by lead ID with a
// stable display order (newest first). It is mutated only through Load and
// Apply, so duplicate IDs cannot creep in no matter how the changefeed
// interleaves events. Snapshot is not safe for concurrent use; the Board
// serializes access.
type Snapshot struct {
	byID  map[string]model.Lead
	order []string
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		byID: make(map[string]model.Lead),
	}
}

// Load replaces the snapshot contents with a full fetch result, preserving
// the fetch order.
func (s *Snapshot) Load(leads []model.Lead) {
	s.byID = make(map[string]model.Lead, len(leads))
	s.order = s.order[:0]
	for _, l := range leads {
		if _, exists := s.byID[l.ID]; exists {
			continue
		}
		s.byID[l.ID] = l
		s.order = append(s.order, l.ID)
	}
}

// Apply folds a single changefeed event into the snapshot.
// Insert prepends; an insert for a known ID degrades to an update. An update
// for an unknown ID degrades to an insert so a missed insert event still
// converges. Delete removes.
func (s *Snapshot) Apply(ev model.LeadEvent) {
	switch ev.Kind {
	case model.LeadEventInsert, model.LeadEventUpdate:
		if _, exists := s.byID[ev.Lead.ID]; exists {
			s.byID[ev.Lead.ID] = ev.Lead
			return
		}
		s.byID[ev.Lead.ID] = ev.Lead
		s.order = append([]string{ev.Lead.ID}, s.order...)
	case model.LeadEventDelete:
		if _, exists := s.byID[ev.Lead.ID]; !exists {
			return
		}
		delete(s.byID, ev.Lead.ID)
		for i, id := range s.order {
			if id == ev.Lead.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Get returns the lead with the given ID, if present.
func (s *Snapshot) Get(id string) (model.Lead, bool) {
	l, ok := s.byID[id]
	return l, ok
}

// Patch applies fn to the lead with the given ID, when present. Used for
// optimistic local updates after a confirmed remote mutation.
func (s *Snapshot) Patch(id string, fn func(*model.Lead)) {
	l, ok := s.byID[id]
	if !ok {
		return
	}
	fn(&l)
	s.byID[id] = l
}

// Leads returns the snapshot contents in display order.
func (s *Snapshot) Leads() []model.Lead {
	out := make([]model.Lead, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of leads held.
func (s *Snapshot) Len() int {
	return len(s.byID)
}

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

func snapshotIDs(s *Snapshot) []string {
	leads := s.Leads()
	ids := make([]string, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestSnapshot_InsertPrepends(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "old"}})

	s.Apply(model.LeadEvent{Kind: model.LeadEventInsert, Lead: model.Lead{ID: "new"}})

	assert.Equal(t, []string{"new", "old"}, snapshotIDs(s))
}

func TestSnapshot_InsertOnKnownIDDegradesToUpdate(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a", Name: "before"}, {ID: "b"}})

	s.Apply(model.LeadEvent{Kind: model.LeadEventInsert, Lead: model.Lead{ID: "a", Name: "after"}})

	require.Equal(t, 2, s.Len())
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "after", got.Name)
	// Order is unchanged: no duplicate entry was prepended.
	assert.Equal(t, []string{"a", "b"}, snapshotIDs(s))
}

func TestSnapshot_UpdateOnUnknownIDDegradesToInsert(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a"}})

	s.Apply(model.LeadEvent{Kind: model.LeadEventUpdate, Lead: model.Lead{ID: "ghost", Name: "recovered"}})

	got, ok := s.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, "recovered", got.Name)
	assert.Equal(t, []string{"ghost", "a"}, snapshotIDs(s))
}

func TestSnapshot_DeleteRemoves(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	s.Apply(model.LeadEvent{Kind: model.LeadEventDelete, Lead: model.Lead{ID: "b"}})

	assert.Equal(t, []string{"a", "c"}, snapshotIDs(s))
	_, ok := s.Get("b")
	assert.False(t, ok)
}

func TestSnapshot_DeleteUnknownIDIsNoop(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a"}})

	s.Apply(model.LeadEvent{Kind: model.LeadEventDelete, Lead: model.Lead{ID: "ghost"}})

	assert.Equal(t, []string{"a"}, snapshotIDs(s))
}

func TestSnapshot_LoadSkipsDuplicateIDs(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a", Name: "first"}, {ID: "a", Name: "second"}, {ID: "b"}})

	require.Equal(t, 2, s.Len())
	got, _ := s.Get("a")
	assert.Equal(t, "first", got.Name)
}

func TestSnapshot_LoadReplacesContents(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a"}, {ID: "b"}})
	s.Load([]model.Lead{{ID: "c"}})

	assert.Equal(t, []string{"c"}, snapshotIDs(s))
}

func TestSnapshot_PatchMissingIDIsNoop(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a"}})

	called := false
	s.Patch("ghost", func(l *model.Lead) { called = true })
	assert.False(t, called)
}

func TestSnapshot_PatchMutatesCopyInPlace(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a", Status: model.StatusNew}})

	s.Patch("a", func(l *model.Lead) { l.Status = model.StatusQualified })

	got, _ := s.Get("a")
	assert.Equal(t, model.StatusQualified, got.Status)
}

func TestSnapshot_LeadsReturnsCopy(t *testing.T) {
	s := NewSnapshot()
	s.Load([]model.Lead{{ID: "a", Name: "original"}})

	leads := s.Leads()
	leads[0].Name = "mutated"

	got, _ := s.Get("a")
	assert.Equal(t, "original", got.Name)
}

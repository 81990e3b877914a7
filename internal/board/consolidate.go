package board

import (
	"sort"
	"strings"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

// GroupKey returns the contact identity key for a lead: phone when present,
// else email, else a synthetic composite that is unique per raw lead so two
// anonymous leads never merge.
func GroupKey(l *model.Lead) string {
	if l.Phone != "" {
		return l.Phone
	}
	if l.Email != "" {
		return l.Email
	}
	return l.Name + "|" + string(l.SourceType) + "|" + l.ID
}

// MatchesSearch reports whether the case-folded needle occurs in any of the
// lead's searchable fields. An empty needle matches everything; a lead with
// no populated candidate fields matches nothing.
func MatchesSearch(l *model.Lead, needle string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)

	fields := []string{
		l.Name, l.Phone, l.Email, l.Location, l.City,
		l.Purpose, l.PropertyType, l.PropertyTitle,
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	for _, tag := range l.Tags {
		if tag != "" && strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// FilterLeads returns the leads matching the search needle, preserving order.
func FilterLeads(leads []model.Lead, search string) []model.Lead {
	if search == "" {
		return leads
	}
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if MatchesSearch(&l, search) {
			out = append(out, l)
		}
	}
	return out
}

// Consolidate partitions the filtered leads into deduplicated contact groups.
// Every input lead lands in exactly one group; groups appear in first-seen
// key order; members are sorted most-recently-updated first.
func Consolidate(leads []model.Lead, search string) []model.ConsolidatedLead {
	filtered := FilterLeads(leads, search)

	groupIdx := make(map[string]int, len(filtered))
	groups := make([]model.ConsolidatedLead, 0, len(filtered))

	for _, l := range filtered {
		key := GroupKey(&l)
		idx, ok := groupIdx[key]
		if !ok {
			groupIdx[key] = len(groups)
			groups = append(groups, model.ConsolidatedLead{Key: key})
			idx = len(groups) - 1
		}
		groups[idx].Leads = append(groups[idx].Leads, l)
	}

	for i := range groups {
		finalizeGroup(&groups[i])
	}
	return groups
}

// finalizeGroup sorts members by recency and derives the group's flags and
// property references.
func finalizeGroup(g *model.ConsolidatedLead) {
	sort.SliceStable(g.Leads, func(i, j int) bool {
		ui, ci := g.Leads[i].Recency()
		uj, cj := g.Leads[j].Recency()
		if !ui.Equal(uj) {
			return ui.After(uj)
		}
		return ci.After(cj)
	})

	fullyAssigned := true
	var commonAdmin *string
	commonHolds := true

	for i := range g.Leads {
		l := &g.Leads[i]
		if !l.Assigned() {
			fullyAssigned = false
			commonHolds = false
			continue
		}
		if commonAdmin == nil {
			if commonHolds {
				commonAdmin = l.AssignedAdminID
			}
		} else if *commonAdmin != *l.AssignedAdminID {
			commonHolds = false
			commonAdmin = nil
		}
	}
	if !commonHolds {
		commonAdmin = nil
	}

	g.IsFullyAssigned = fullyAssigned && len(g.Leads) > 0
	g.CommonAdminID = commonAdmin

	// Property references, deduplicated by ID in first-seen order.
	seen := make(map[string]struct{})
	for i := range g.Leads {
		l := &g.Leads[i]
		if l.PropertyID == "" {
			continue
		}
		if _, dup := seen[l.PropertyID]; dup {
			continue
		}
		seen[l.PropertyID] = struct{}{}
		g.Properties = append(g.Properties, model.PropertyRef{ID: l.PropertyID, Title: l.PropertyTitle})
	}
}

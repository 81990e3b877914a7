package model

// PropertyRef is a deduplicated reference to a property mentioned by one or
// more member leads of a consolidated group. Checked is UI-local state and is
// never persisted.
type PropertyRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Checked bool   `json:"checked,omitempty"`
}

// ConsolidatedLead is a derived, ephemeral grouping of raw leads that share a
// contact identity. It is recomputed on every snapshot or filter change and
// owns no state beyond a single grouping pass.
type ConsolidatedLead struct {
	// Key is the grouping key: phone if present, else email, else a synthetic
	// composite unique per raw lead.
	Key string `json:"key"`
	// Leads holds the members ordered most-recently-updated first.
	Leads []Lead `json:"leads"`
	// Properties are the deduplicated property references, first-seen order.
	Properties []PropertyRef `json:"properties"`
	// IsFullyAssigned is true iff every member has a non-nil assigned admin.
	IsFullyAssigned bool `json:"is_fully_assigned"`
	// CommonAdminID is the shared admin ID iff all members agree on one.
	CommonAdminID *string `json:"common_admin_id,omitempty"`
}

// Primary returns the most recent member lead, whose display fields represent
// the group in the single-admin board variant. Only valid on non-empty groups.
func (c *ConsolidatedLead) Primary() *Lead {
	if len(c.Leads) == 0 {
		return nil
	}
	return &c.Leads[0]
}

// LeadIDs returns the member lead IDs in display order.
func (c *ConsolidatedLead) LeadIDs() []string {
	ids := make([]string, 0, len(c.Leads))
	for _, l := range c.Leads {
		ids = append(ids, l.ID)
	}
	return ids
}

package model

// LeadEventKind distinguishes the three changefeed mutations.
type LeadEventKind string

const (
	LeadEventInsert LeadEventKind = "insert"
	LeadEventUpdate LeadEventKind = "update"
	LeadEventDelete LeadEventKind = "delete"
)

// LeadEvent is the wire payload of a lead changefeed message. For deletes only
// the ID is guaranteed to be populated.
type LeadEvent struct {
	Kind LeadEventKind `json:"kind" validate:"required,oneof=insert update delete"`
	Lead Lead          `json:"lead"`
}

// InquiryPayload is the wire payload of an inquiry intake message, produced by
// the marketplace's public forms and activity trackers.
type InquiryPayload struct {
	SourceType    SourceType `json:"source_type" validate:"required,lead_source"`
	SourceID      string     `json:"source_id" validate:"required"`
	Name          string     `json:"name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Email         string     `json:"email,omitempty" validate:"omitempty,email"`
	PropertyID    string     `json:"property_id,omitempty"`
	PropertyTitle string     `json:"property_title,omitempty"`
	City          string     `json:"city,omitempty"`
	Location      string     `json:"location,omitempty"`
	BudgetRange   string     `json:"budget_range,omitempty"`
	PropertyType  string     `json:"property_type,omitempty"`
	Purpose       string     `json:"purpose,omitempty"`
	Message       string     `json:"message,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// PipelineStatus is the CRM pipeline state of a lead. The pipeline is ordered
// new -> contacted -> qualified -> closed, but no transition is locked: a
// closed lead can be dragged back to new.
type PipelineStatus string

const (
	StatusNew       PipelineStatus = "new"
	StatusContacted PipelineStatus = "contacted"
	StatusQualified PipelineStatus = "qualified"
	StatusClosed    PipelineStatus = "closed"
)

// PipelineStatuses lists all pipeline states in board column order.
func PipelineStatuses() []PipelineStatus {
	return []PipelineStatus{StatusNew, StatusContacted, StatusQualified, StatusClosed}
}

// Valid reports whether s is one of the four pipeline states.
func (s PipelineStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusClosed:
		return true
	}
	return false
}

// Priority is the lead's follow-up priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SourceType identifies where a lead originated.
type SourceType string

const (
	SourcePropertyInquiry SourceType = "property_inquiry"
	SourceUserInquiry     SourceType = "user_inquiry"
	SourceManual          SourceType = "manual"
	SourceResearchReport  SourceType = "research_report"
	SourceSavedActivity   SourceType = "saved_activity"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourcePropertyInquiry, SourceUserInquiry, SourceManual, SourceResearchReport, SourceSavedActivity:
		return true
	}
	return false
}

// Lead represents a single inquiry record in the PostgreSQL database.
// One row per inquiry event; the same contact may own many rows.
type Lead struct {
	ID            string                      `json:"id" gorm:"primaryKey;type:text" validate:"required"`
	Name          string                      `json:"name,omitempty" gorm:"type:text"`
	Phone         string                      `json:"phone,omitempty" gorm:"index;type:text"`
	Email         string                      `json:"email,omitempty" gorm:"type:text"`
	SourceType    SourceType                  `json:"source_type" gorm:"column:source_type;type:text" validate:"required,lead_source"`
	SourceID      string                      `json:"source_id,omitempty" gorm:"column:source_id;type:text"`
	PropertyID    string                      `json:"property_id,omitempty" gorm:"column:property_id;type:text"`
	PropertyTitle string                      `json:"property_title,omitempty" gorm:"column:property_title;type:text"`
	City          string                      `json:"city,omitempty" gorm:"type:text"`
	Location      string                      `json:"location,omitempty" gorm:"type:text"`
	BudgetRange   string                      `json:"budget_range,omitempty" gorm:"column:budget_range;type:text"`
	PropertyType  string                      `json:"property_type,omitempty" gorm:"column:property_type;type:text"`
	Purpose       string                      `json:"purpose,omitempty" gorm:"type:text"`
	Status        PipelineStatus              `json:"status" gorm:"type:text;default:new" validate:"required,pipeline_status"`
	Priority      Priority                    `json:"priority,omitempty" gorm:"type:text;default:medium" validate:"omitempty,lead_priority"`
	Tags          datatypes.JSONSlice[string] `json:"tags,omitempty" gorm:"type:jsonb"`
	// AssignedAdminID is nil while the lead sits in the unassigned pool.
	AssignedAdminID *string        `json:"assigned_admin_id,omitempty" gorm:"column:assigned_admin_id;index;type:text"`
	Notes           string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	LastContactedAt *time.Time     `json:"last_contacted_at,omitempty" gorm:"column:last_contacted_at"`
	NextFollowUpAt  *time.Time     `json:"next_follow_up_at,omitempty" gorm:"column:next_follow_up_at"`
	LastMetadata    datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
}

// TableName specifies the table name for the Lead model, respecting the Namer.
func (Lead) TableName(namer schema.Namer) string {
	return namer.TableName("leads")
}

// Assigned reports whether the lead has an owner.
func (l *Lead) Assigned() bool {
	return l.AssignedAdminID != nil && *l.AssignedAdminID != ""
}

// Recency is the timestamp used when ordering leads inside a consolidated
// group. UpdatedAt wins, CreatedAt is the tiebreak.
func (l *Lead) Recency() (time.Time, time.Time) {
	return l.UpdatedAt, l.CreatedAt
}

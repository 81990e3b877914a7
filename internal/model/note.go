package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// LeadNote is a freeform note an admin attaches to a single lead.
type LeadNote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	LeadID    string    `json:"lead_id" gorm:"column:lead_id;index;type:text" validate:"required"`
	AdminID   string    `json:"admin_id" gorm:"column:admin_id;type:text" validate:"required"`
	Note      string    `json:"note" gorm:"type:text" validate:"required"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the LeadNote model.
func (LeadNote) TableName(namer schema.Namer) string {
	return namer.TableName("lead_notes")
}

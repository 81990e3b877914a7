package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// AdminRole is the access level of an admin account.
type AdminRole string

const (
	RoleAdmin           AdminRole = "admin"
	RoleSuperAdmin      AdminRole = "superadmin"
	RoleSuperSuperAdmin AdminRole = "super_super_admin"
)

// AdminUser represents an admin account. Consumed read-only here: accounts are
// provisioned elsewhere, the CRM only lists them as assignment targets.
type AdminUser struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:text" validate:"required"`
	Role      AdminRole `json:"role" gorm:"type:text;default:admin"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the AdminUser model.
func (AdminUser) TableName(namer schema.Namer) string {
	return namer.TableName("admin_users")
}

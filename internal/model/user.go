package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleOwner         = "owner"
	RoleStaff         = "staff"
	RolePlatformAdmin = "platform_admin"
)

// User represents a dashboard, POS or super-admin account. Platform admins
// have no tenant.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'staff'"`
	TenantID  *uint          `json:"tenant_id,omitempty" gorm:"index"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

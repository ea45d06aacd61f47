package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer is scoped per tenant and deduplicated by email within that
// tenant. Created lazily on the first order from a given email.
type Customer struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"not null;uniqueIndex:idx_customers_tenant_email"`
	Email      string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_customers_tenant_email"`
	FirstName  string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName   string         `json:"last_name" gorm:"type:varchar(100)"`
	Phone      string         `json:"phone" gorm:"type:varchar(30)"`
	Address    string         `json:"address" gorm:"type:varchar(255)"`
	City       string         `json:"city" gorm:"type:varchar(100)"`
	PostalCode string         `json:"postal_code" gorm:"type:varchar(20)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

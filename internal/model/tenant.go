package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TenantStatus is the lifecycle state of a restaurant account
type TenantStatus string

const (
	TenantTrial     TenantStatus = "TRIAL"
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
	TenantCancelled TenantStatus = "CANCELLED"
)

// CanOrder reports whether the tenant may receive traffic
func (s TenantStatus) CanOrder() bool {
	return s == TenantActive || s == TenantTrial
}

// Valid reports whether the value is a known tenant status
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantTrial, TenantActive, TenantSuspended, TenantCancelled:
		return true
	}
	return false
}

// Tenant represents one onboarded restaurant account, the unit of data
// isolation. Tenants are never hard-deleted; admin actions only move the
// status field.
type Tenant struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain string       `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Status    TenantStatus `json:"status" gorm:"type:varchar(20);not null;default:'TRIAL'"`
	Plan      string       `json:"plan" gorm:"type:varchar(50);default:'starter'"`

	// TaxRate and DeliveryFee override the platform defaults when set.
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty" gorm:"type:decimal(6,4)"`
	DeliveryFee *decimal.Decimal `json:"delivery_fee,omitempty" gorm:"type:decimal(10,2)"`

	// OrderSeq is the per-tenant order number counter. It is only ever moved
	// by an atomic in-database increment; see service.OrderService.
	OrderSeq uint64 `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category represents a tenant-scoped menu section
type Category struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	SortOrder int            `json:"sort_order" gorm:"default:0"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Product represents a menu item belonging to exactly one category and one
// tenant. Price and availability are mutable by restaurant staff; orders
// snapshot name and price at creation time.
type Product struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	TenantID    uint            `json:"tenant_id" gorm:"index;not null"`
	CategoryID  uint            `json:"category_id" gorm:"index;not null"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Active      bool            `json:"active" gorm:"default:true"`
	Popular     bool            `json:"popular" gorm:"default:false"`
	SortOrder   int             `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the order lifecycle state
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// statusOrder is the canonical forward lifecycle, excluding CANCELLED which
// is reachable from any non-terminal state.
var statusOrder = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusCompleted,
}

// Valid reports whether the value is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanAdvanceTo reports whether moving to next is a single canonical forward
// step or a cancellation. Used only when strict transitions are enabled;
// the default policy lets POS clients jump ahead freely.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if next == StatusCancelled {
		return !s.Terminal()
	}
	for i, st := range statusOrder {
		if st == s {
			return i+1 < len(statusOrder) && statusOrder[i+1] == next
		}
	}
	return false
}

// Message returns the customer-facing description for a status
func (s OrderStatus) Message() string {
	switch s {
	case StatusPending:
		return "Your order has been received"
	case StatusConfirmed:
		return "Your order has been confirmed"
	case StatusPreparing:
		return "Your order is being prepared"
	case StatusReady:
		return "Your order is ready"
	case StatusCompleted:
		return "Your order has been completed"
	case StatusCancelled:
		return "Your order has been cancelled"
	}
	return string(s)
}

// OrderType is how the order is fulfilled
type OrderType string

const (
	TypeDelivery OrderType = "DELIVERY"
	TypePickup   OrderType = "PICKUP"
	TypeDineIn   OrderType = "DINE_IN"
)

// Valid reports whether the value is a known order type
func (t OrderType) Valid() bool {
	switch t {
	case TypeDelivery, TypePickup, TypeDineIn:
		return true
	}
	return false
}

// Order represents a placed order. Customer contact and delivery details are
// denormalized at creation time so later edits to the Customer record do not
// alter historical orders. Orders are never deleted, only cancelled.
type Order struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	TenantID   uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_orders_tenant_number"`
	Number     string `json:"number" gorm:"type:varchar(70);not null;uniqueIndex:idx_orders_tenant_number"`
	CustomerID *uint  `json:"customer_id,omitempty" gorm:"index"`

	Status OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Type   OrderType   `json:"type" gorm:"type:varchar(20);not null"`

	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	DeliveryFee decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(10,2);not null"`
	Tax         decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`

	// Snapshot of the customer contact block as submitted with the order
	CustomerFirstName  string `json:"customer_first_name" gorm:"type:varchar(100)"`
	CustomerLastName   string `json:"customer_last_name" gorm:"type:varchar(100)"`
	CustomerEmail      string `json:"customer_email" gorm:"type:varchar(100)"`
	CustomerPhone      string `json:"customer_phone" gorm:"type:varchar(30)"`
	DeliveryAddress    string `json:"delivery_address,omitempty" gorm:"type:varchar(255)"`
	DeliveryCity       string `json:"delivery_city,omitempty" gorm:"type:varchar(100)"`
	DeliveryPostalCode string `json:"delivery_postal_code,omitempty" gorm:"type:varchar(20)"`

	Notes            string `json:"notes,omitempty" gorm:"type:text"`
	EstimatedMinutes int    `json:"estimated_minutes"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// OrderItem snapshots product name and unit price at the time of order to
// preserve historical pricing accuracy independent of menu edits.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Notes     string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time       `json:"created_at"`
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&Location{},
		&User{},
		&Category{},
		&Product{},
		&Customer{},
		&Order{},
		&OrderItem{},
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/internal/notify"
	"fooddupe/internal/pricing"
	"fooddupe/pkg/config"
	"fooddupe/prometheus"
)

// OrderService owns the order lifecycle: validation, pricing, per-tenant
// number allocation, persistence and event publication.
type OrderService struct {
	db     *gorm.DB
	hub    *notify.Hub
	broker *notify.Broker
	cfg    *config.OrderConfig
	logger *zap.Logger
}

// NewOrderService wires the order service. broker may be nil.
func NewOrderService(db *gorm.DB, hub *notify.Hub, broker *notify.Broker, cfg *config.OrderConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:     db,
		hub:    hub,
		broker: broker,
		cfg:    cfg,
		logger: logger,
	}
}

// OrderItemRequest is one cart line referencing a live product
type OrderItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// CustomerRequest is the contact block submitted with an order
type CustomerRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	Type     model.OrderType    `json:"type"`
	Items    []OrderItemRequest `json:"items"`
	Customer CustomerRequest    `json:"customer"`
	Notes    string             `json:"notes,omitempty"`
}

// OrderEvent is the payload published on order creation and status changes
type OrderEvent struct {
	OrderID          uint              `json:"order_id"`
	Number           string            `json:"number"`
	Status           model.OrderStatus `json:"status"`
	Type             model.OrderType   `json:"type"`
	Total            decimal.Decimal   `json:"total"`
	EstimatedMinutes int               `json:"estimated_minutes"`
	Message          string            `json:"message,omitempty"`
}

func (r *CreateOrderRequest) validate() error {
	if !r.Type.Valid() {
		return apperr.Validation("invalid order type %q", r.Type)
	}
	if len(r.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	for _, item := range r.Items {
		if item.Quantity < 1 {
			return apperr.Validation("item quantity must be at least 1")
		}
	}
	if r.Customer.FirstName == "" || r.Customer.Email == "" || r.Customer.Phone == "" {
		return apperr.Validation("customer first name, email and phone are required")
	}
	if r.Type == model.TypeDelivery {
		if r.Customer.Address == "" || r.Customer.City == "" || r.Customer.PostalCode == "" {
			return apperr.Validation("delivery orders require address, city and postal code")
		}
	}
	return nil
}

// Create validates and prices the cart, allocates the next order number for
// the tenant and persists the order with its items in one transaction. The
// new-order event is published only after the transaction commits.
func (s *OrderService) Create(ctx context.Context, tenant *model.Tenant, req *CreateOrderRequest) (*model.Order, error) {
	defer prometheus.TrackDBOperation("order_create")(time.Now())
	prometheus.RecordOrderOperation("create")

	if err := req.validate(); err != nil {
		return nil, err
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := s.resolveProducts(tx, tenant.ID, req.Items)
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, 0, len(req.Items))
		items := make([]model.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			p := products[item.ProductID]
			lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: item.Quantity})
			items = append(items, model.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  item.Quantity,
				Notes:     item.Notes,
			})
		}

		quote := pricing.Compute(lines, req.Type, s.deliveryFee(tenant), s.taxRate(tenant))

		seq, err := s.nextOrderSeq(tx, tenant.ID)
		if err != nil {
			return err
		}

		customer, err := s.resolveCustomer(tx, tenant.ID, &req.Customer)
		if err != nil {
			return err
		}

		order = model.Order{
			TenantID:           tenant.ID,
			Number:             fmt.Sprintf("%s-%04d", strings.ToUpper(tenant.Subdomain), seq),
			CustomerID:         &customer.ID,
			Status:             model.StatusPending,
			Type:               req.Type,
			Subtotal:           quote.Subtotal,
			DeliveryFee:        quote.DeliveryFee,
			Tax:                quote.Tax,
			Total:              quote.Total,
			CustomerFirstName:  req.Customer.FirstName,
			CustomerLastName:   req.Customer.LastName,
			CustomerEmail:      req.Customer.Email,
			CustomerPhone:      req.Customer.Phone,
			DeliveryAddress:    req.Customer.Address,
			DeliveryCity:       req.Customer.City,
			DeliveryPostalCode: req.Customer.PostalCode,
			Notes:              req.Notes,
			EstimatedMinutes:   s.estimatedMinutes(req.Type),
			Items:              items,
		}

		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("failed to create order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("number", order.Number),
		zap.String("tenant", tenant.Subdomain),
		zap.String("type", string(order.Type)),
		zap.String("total", order.Total.StringFixed(2)))
	prometheus.RecordOrderCreated(tenant.Subdomain, string(order.Type))

	event := OrderEvent{
		OrderID:          order.ID,
		Number:           order.Number,
		Status:           order.Status,
		Type:             order.Type,
		Total:            order.Total,
		EstimatedMinutes: order.EstimatedMinutes,
	}
	s.hub.Publish(notify.TenantChannel(tenant.Subdomain), notify.Event{
		Name:    notify.EventNewOrder,
		Payload: event,
	})
	s.broker.PublishOrderCreated(tenant.Subdomain, event)

	return &order, nil
}

// UpdateStatus applies a status change to an order owned by the tenant.
// COMPLETED and CANCELLED are terminal; with strict transitions enabled only
// the canonical next step or a cancellation is accepted, otherwise any
// non-terminal jump is allowed (POS fast-forward).
func (s *OrderService) UpdateStatus(ctx context.Context, tenant *model.Tenant, orderID uint, newStatus model.OrderStatus, estimatedMinutes *int) (*model.Order, error) {
	defer prometheus.TrackDBOperation("order_status_update")(time.Now())
	prometheus.RecordOrderOperation("update_status")

	if !newStatus.Valid() {
		return nil, apperr.Validation("invalid order status %q", newStatus)
	}

	var order model.Order
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenant.ID).
		Preload("Items").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Orders of other tenants are indistinguishable from missing ones
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal("failed to load order", err)
	}

	if order.Status.Terminal() {
		return nil, apperr.Conflict("order is already %s", order.Status)
	}
	if s.cfg.StrictTransitions && !order.Status.CanAdvanceTo(newStatus) {
		return nil, apperr.Validation("cannot transition from %s to %s", order.Status, newStatus)
	}

	updates := map[string]interface{}{"status": newStatus}
	if estimatedMinutes != nil {
		updates["estimated_minutes"] = *estimatedMinutes
	}
	if err := s.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update order status", err)
	}
	order.Status = newStatus
	if estimatedMinutes != nil {
		order.EstimatedMinutes = *estimatedMinutes
	}

	s.logger.Info("Order status updated",
		zap.String("number", order.Number),
		zap.String("tenant", tenant.Subdomain),
		zap.String("status", string(newStatus)))
	prometheus.RecordStatusTransition(string(newStatus))

	event := OrderEvent{
		OrderID:          order.ID,
		Number:           order.Number,
		Status:           order.Status,
		Type:             order.Type,
		Total:            order.Total,
		EstimatedMinutes: order.EstimatedMinutes,
	}
	s.hub.Publish(notify.TenantChannel(tenant.Subdomain), notify.Event{
		Name:    notify.EventStatusUpdated,
		Payload: event,
	})

	tracked := event
	tracked.Message = newStatus.Message()
	s.hub.Publish(notify.OrderChannel(order.Number), notify.Event{
		Name:    notify.EventStatusTrack,
		Payload: tracked,
	})
	s.broker.PublishStatusUpdated(tenant.Subdomain, tracked)

	return &order, nil
}

// List returns the tenant's orders, newest first, optionally filtered by
// status and type.
func (s *OrderService) List(ctx context.Context, tenant *model.Tenant, status, orderType string) ([]model.Order, error) {
	defer prometheus.TrackDBOperation("order_list")(time.Now())

	query := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenant.ID).
		Preload("Items").
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if orderType != "" {
		query = query.Where("type = ?", orderType)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return orders, nil
}

// Get returns one order owned by the tenant
func (s *OrderService) Get(ctx context.Context, tenant *model.Tenant, orderID uint) (*model.Order, error) {
	defer prometheus.TrackDBOperation("order_get")(time.Now())

	var order model.Order
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenant.ID).
		Preload("Items").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal("failed to load order", err)
	}
	return &order, nil
}

// Track returns the public tracking view of an order by its number
func (s *OrderService) Track(ctx context.Context, tenant *model.Tenant, number string) (*model.Order, error) {
	defer prometheus.TrackDBOperation("order_track")(time.Now())
	prometheus.RecordOrderOperation("track")

	var order model.Order
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND number = ?", tenant.ID, number).
		Preload("Items").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal("failed to load order", err)
	}
	return &order, nil
}

// resolveProducts loads all referenced products and verifies each one is
// known, tenant-owned and active. Any miss fails the whole order.
func (s *OrderService) resolveProducts(tx *gorm.DB, tenantID uint, items []OrderItemRequest) (map[uint]model.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []model.Product
	err := tx.Where("tenant_id = ? AND active = ? AND id IN ?", tenantID, true, ids).Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("failed to load products", err)
	}

	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			return nil, apperr.NotFound("product %d not found", item.ProductID)
		}
	}
	return byID, nil
}

// nextOrderSeq atomically advances the tenant's order counter. The UPDATE
// takes a row lock held until commit, so concurrent creations for the same
// tenant serialize here and the counter never repeats or goes backward.
func (s *OrderService) nextOrderSeq(tx *gorm.DB, tenantID uint) (uint64, error) {
	res := tx.Model(&model.Tenant{}).
		Where("id = ?", tenantID).
		UpdateColumn("order_seq", gorm.Expr("order_seq + 1"))
	if res.Error != nil {
		return 0, apperr.Internal("failed to advance order counter", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("tenant not found")
	}

	var tenant model.Tenant
	if err := tx.Select("order_seq").First(&tenant, tenantID).Error; err != nil {
		return 0, apperr.Internal("failed to read order counter", err)
	}
	return tenant.OrderSeq, nil
}

// resolveCustomer finds the tenant's customer by email or creates one from
// the submitted contact block. An existing record is reused as stored:
// repeat orders do not overwrite the saved address, the order snapshot
// carries whatever was submitted this time.
func (s *OrderService) resolveCustomer(tx *gorm.DB, tenantID uint, req *CustomerRequest) (*model.Customer, error) {
	var customer model.Customer
	err := tx.Where("tenant_id = ? AND email = ?", tenantID, req.Email).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to look up customer", err)
	}

	customer = model.Customer{
		TenantID:   tenantID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, apperr.Internal("failed to create customer", err)
	}
	return &customer, nil
}

func (s *OrderService) taxRate(tenant *model.Tenant) decimal.Decimal {
	if tenant.TaxRate != nil {
		return *tenant.TaxRate
	}
	return s.cfg.DefaultTaxRate
}

func (s *OrderService) deliveryFee(tenant *model.Tenant) decimal.Decimal {
	if tenant.DeliveryFee != nil {
		return *tenant.DeliveryFee
	}
	return s.cfg.DefaultDeliveryFee
}

func (s *OrderService) estimatedMinutes(orderType model.OrderType) int {
	switch orderType {
	case model.TypeDelivery:
		return s.cfg.EstimatedDelivery
	case model.TypePickup:
		return s.cfg.EstimatedPickup
	default:
		return s.cfg.EstimatedDineIn
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/internal/notify"
	"fooddupe/internal/testutil"
	"fooddupe/pkg/config"
)

func testOrderConfig() *config.OrderConfig {
	return &config.OrderConfig{
		DefaultTaxRate:     decimal.RequireFromString("0.21"),
		DefaultDeliveryFee: decimal.RequireFromString("2.50"),
		EstimatedDelivery:  45,
		EstimatedPickup:    25,
		EstimatedDineIn:    20,
		NotifyBufferSize:   16,
	}
}

func newTestOrderService(t *testing.T, db *gorm.DB, cfg *config.OrderConfig) (*OrderService, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub(cfg.NotifyBufferSize)
	return NewOrderService(db, hub, nil, cfg, zap.NewNop()), hub
}

func pickupRequest(productID uint, quantity int) *CreateOrderRequest {
	return &CreateOrderRequest{
		Type:  model.TypePickup,
		Items: []OrderItemRequest{{ProductID: productID, Quantity: quantity}},
		Customer: CustomerRequest{
			FirstName: "Jan",
			Email:     "jan@example.com",
			Phone:     "+31 6 1234 5678",
		},
	}
}

func TestCreateOrderPickup(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, hub := newTestOrderService(t, db, testOrderConfig())

	sub := hub.Subscribe(notify.TenantChannel("pizzamario"))
	defer sub.Close()

	order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 2))
	require.NoError(t, err)

	assert.Equal(t, "PIZZAMARIO-0001", order.Number)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, 25, order.EstimatedMinutes)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("25.00")), "subtotal = %s", order.Subtotal)
	assert.True(t, order.DeliveryFee.IsZero(), "fee = %s", order.DeliveryFee)
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("5.25")), "tax = %s", order.Tax)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("30.25")), "total = %s", order.Total)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Margherita", order.Items[0].Name)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 2, order.Items[0].Quantity)

	select {
	case ev := <-sub.C:
		assert.Equal(t, notify.EventNewOrder, ev.Name)
		payload, ok := ev.Payload.(OrderEvent)
		require.True(t, ok)
		assert.Equal(t, "PIZZAMARIO-0001", payload.Number)
		assert.Equal(t, model.StatusPending, payload.Status)
	default:
		t.Fatal("expected new-order event on tenant channel")
	}
}

func TestCreateOrderDelivery(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	req := pickupRequest(margherita.ID, 2)
	req.Type = model.TypeDelivery
	req.Customer.Address = "Hoofdstraat 12"
	req.Customer.City = "Amsterdam"
	req.Customer.PostalCode = "1012 AB"

	order, err := svc.Create(context.Background(), tenant, req)
	require.NoError(t, err)

	assert.Equal(t, 45, order.EstimatedMinutes)
	assert.True(t, order.DeliveryFee.Equal(decimal.RequireFromString("2.50")), "fee = %s", order.DeliveryFee)
	// (25.00 + 2.50) * 0.21 = 5.775 rounds to 5.78
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("5.78")), "tax = %s", order.Tax)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("33.28")), "total = %s", order.Total)
	assert.Equal(t, "Hoofdstraat 12", order.DeliveryAddress)
}

func TestCreateOrderTenantPricingOverrides(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	taxRate := decimal.RequireFromString("0.09")
	fee := decimal.RequireFromString("4.00")
	require.NoError(t, db.Model(tenant).Updates(map[string]interface{}{
		"tax_rate":     taxRate,
		"delivery_fee": fee,
	}).Error)
	tenant.TaxRate = &taxRate
	tenant.DeliveryFee = &fee

	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	req := pickupRequest(margherita.ID, 2)
	req.Type = model.TypeDelivery
	req.Customer.Address = "Hoofdstraat 12"
	req.Customer.City = "Amsterdam"
	req.Customer.PostalCode = "1012 AB"

	order, err := svc.Create(context.Background(), tenant, req)
	require.NoError(t, err)

	assert.True(t, order.DeliveryFee.Equal(fee), "fee = %s", order.DeliveryFee)
	// (25.00 + 4.00) * 0.09 = 2.61
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("2.61")), "tax = %s", order.Tax)
}

func TestCreateOrderNumbersIncrement(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	first, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	assert.Equal(t, "PIZZAMARIO-0001", first.Number)
	assert.Equal(t, "PIZZAMARIO-0002", second.Number)
}

func TestCreateOrderNumbersArePerTenant(t *testing.T) {
	db := testutil.NewDB(t)
	mario := testutil.SeedTenant(t, db, "pizzamario")
	luigi := testutil.SeedTenant(t, db, "pizzaluigi")
	marioPizza := testutil.SeedProduct(t, db, mario.ID, "Margherita", "12.50")
	luigiPizza := testutil.SeedProduct(t, db, luigi.ID, "Diavola", "13.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	marioOrder, err := svc.Create(context.Background(), mario, pickupRequest(marioPizza.ID, 1))
	require.NoError(t, err)
	luigiOrder, err := svc.Create(context.Background(), luigi, pickupRequest(luigiPizza.ID, 1))
	require.NoError(t, err)

	assert.Equal(t, "PIZZAMARIO-0001", marioOrder.Number)
	assert.Equal(t, "PIZZALUIGI-0001", luigiOrder.Number)
}

func TestCreateOrderConcurrentNumbersUnique(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, workers)
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[order.Number] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, workers, "every order must get a distinct number")
	for i := 1; i <= workers; i++ {
		assert.Contains(t, numbers, fmt.Sprintf("PIZZAMARIO-%04d", i))
	}
}

func TestCreateOrderUnknownProductRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	_, err := svc.Create(context.Background(), tenant, pickupRequest(999, 1))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var orders, items, customers int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&items)
	db.Model(&model.Customer{}).Count(&customers)
	assert.Zero(t, orders, "no order row may survive the rollback")
	assert.Zero(t, items)
	assert.Zero(t, customers)

	var fresh model.Tenant
	require.NoError(t, db.First(&fresh, tenant.ID).Error)
	assert.Zero(t, fresh.OrderSeq, "counter advance must roll back with the order")
}

func TestCreateOrderInactiveProductRejected(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	require.NoError(t, db.Model(margherita).Update("active", false).Error)
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	_, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateOrderForeignProductRejected(t *testing.T) {
	db := testutil.NewDB(t)
	mario := testutil.SeedTenant(t, db, "pizzamario")
	luigi := testutil.SeedTenant(t, db, "pizzaluigi")
	luigiPizza := testutil.SeedProduct(t, db, luigi.ID, "Diavola", "13.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	_, err := svc.Create(context.Background(), mario, pickupRequest(luigiPizza.ID, 1))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateOrderValidation(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	cases := map[string]*CreateOrderRequest{
		"empty cart": {
			Type:     model.TypePickup,
			Customer: CustomerRequest{FirstName: "Jan", Email: "jan@example.com", Phone: "+31 6 1234 5678"},
		},
		"zero quantity": {
			Type:     model.TypePickup,
			Items:    []OrderItemRequest{{ProductID: margherita.ID, Quantity: 0}},
			Customer: CustomerRequest{FirstName: "Jan", Email: "jan@example.com", Phone: "+31 6 1234 5678"},
		},
		"missing contact": {
			Type:     model.TypePickup,
			Items:    []OrderItemRequest{{ProductID: margherita.ID, Quantity: 1}},
			Customer: CustomerRequest{FirstName: "Jan"},
		},
		"delivery without address": {
			Type:     model.TypeDelivery,
			Items:    []OrderItemRequest{{ProductID: margherita.ID, Quantity: 1}},
			Customer: CustomerRequest{FirstName: "Jan", Email: "jan@example.com", Phone: "+31 6 1234 5678"},
		},
		"unknown type": {
			Type:     model.OrderType("DRONE_DROP"),
			Items:    []OrderItemRequest{{ProductID: margherita.ID, Quantity: 1}},
			Customer: CustomerRequest{FirstName: "Jan", Email: "jan@example.com", Phone: "+31 6 1234 5678"},
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tenant, req)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateOrderReusesCustomerWithoutUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	first := pickupRequest(margherita.ID, 1)
	first.Type = model.TypeDelivery
	first.Customer.Address = "Hoofdstraat 12"
	first.Customer.City = "Amsterdam"
	first.Customer.PostalCode = "1012 AB"
	_, err := svc.Create(context.Background(), tenant, first)
	require.NoError(t, err)

	second := pickupRequest(margherita.ID, 1)
	second.Type = model.TypeDelivery
	second.Customer.Address = "Zijstraat 99"
	second.Customer.City = "Utrecht"
	second.Customer.PostalCode = "3511 XY"
	order, err := svc.Create(context.Background(), tenant, second)
	require.NoError(t, err)

	var customers []model.Customer
	require.NoError(t, db.Where("tenant_id = ?", tenant.ID).Find(&customers).Error)
	require.Len(t, customers, 1, "repeat orders must not duplicate the customer")
	assert.Equal(t, "Hoofdstraat 12", customers[0].Address, "stored profile keeps the original address")

	assert.Equal(t, "Zijstraat 99", order.DeliveryAddress, "order snapshot carries this checkout's address")
	assert.Equal(t, &customers[0].ID, order.CustomerID)
}

func TestUpdateStatusPublishesEvents(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, hub := newTestOrderService(t, db, testOrderConfig())

	order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	dashboard := hub.Subscribe(notify.TenantChannel("pizzamario"))
	defer dashboard.Close()
	tracker := hub.Subscribe(notify.OrderChannel(order.Number))
	defer tracker.Close()

	updated, err := svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, updated.Status)

	select {
	case ev := <-dashboard.C:
		assert.Equal(t, notify.EventStatusUpdated, ev.Name)
	default:
		t.Fatal("expected status event on tenant channel")
	}

	select {
	case ev := <-tracker.C:
		assert.Equal(t, notify.EventStatusTrack, ev.Name)
		payload, ok := ev.Payload.(OrderEvent)
		require.True(t, ok)
		assert.Equal(t, model.StatusConfirmed.Message(), payload.Message)
	default:
		t.Fatal("expected status event on order channel")
	}

	var persisted model.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.Equal(t, model.StatusConfirmed, persisted.Status)
}

func TestUpdateStatusAllowsJumpsByDefault(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	// POS fast-forward straight to READY
	updated, err := svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusReady, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, updated.Status)
}

func TestUpdateStatusStrictTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	cfg := testOrderConfig()
	cfg.StrictTransitions = true
	svc, _ := newTestOrderService(t, db, cfg)

	order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusReady, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "skipping CONFIRMED must be rejected")

	_, err = svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)

	// Cancellation stays allowed from any non-terminal status
	_, err = svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
}

func TestUpdateStatusTerminalIsFinal(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	for _, terminal := range []model.OrderStatus{model.StatusCompleted, model.StatusCancelled} {
		order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
		require.NoError(t, err)
		_, err = svc.UpdateStatus(context.Background(), tenant, order.ID, terminal, nil)
		require.NoError(t, err)

		_, err = svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusPreparing, nil)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "%s must be final", terminal)
	}
}

func TestUpdateStatusSetsEstimatedMinutes(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	order, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	minutes := 15
	updated, err := svc.UpdateStatus(context.Background(), tenant, order.ID, model.StatusConfirmed, &minutes)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.EstimatedMinutes)
}

func TestUpdateStatusWrongTenant(t *testing.T) {
	db := testutil.NewDB(t)
	mario := testutil.SeedTenant(t, db, "pizzamario")
	luigi := testutil.SeedTenant(t, db, "pizzaluigi")
	margherita := testutil.SeedProduct(t, db, mario.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	order, err := svc.Create(context.Background(), mario, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), luigi, order.ID, model.StatusConfirmed, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListFiltersByStatusAndType(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "pizzamario")
	margherita := testutil.SeedProduct(t, db, tenant.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	first, err := svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), tenant, pickupRequest(margherita.ID, 2))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), tenant, first.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), tenant, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := svc.List(context.Background(), tenant, string(model.StatusConfirmed), "")
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.Number, confirmed[0].Number)

	deliveries, err := svc.List(context.Background(), tenant, "", string(model.TypeDelivery))
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}

func TestTrackByNumber(t *testing.T) {
	db := testutil.NewDB(t)
	mario := testutil.SeedTenant(t, db, "pizzamario")
	luigi := testutil.SeedTenant(t, db, "pizzaluigi")
	margherita := testutil.SeedProduct(t, db, mario.ID, "Margherita", "12.50")
	svc, _ := newTestOrderService(t, db, testOrderConfig())

	order, err := svc.Create(context.Background(), mario, pickupRequest(margherita.ID, 1))
	require.NoError(t, err)

	tracked, err := svc.Track(context.Background(), mario, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, tracked.ID)

	_, err = svc.Track(context.Background(), luigi, order.Number)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "numbers must not resolve across tenants")

	_, err = svc.Track(context.Background(), mario, "PIZZAMARIO-9999")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

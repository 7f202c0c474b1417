package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/payments"
	"github.com/vendorhub/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn       func(context.Context, domain.Order) error
	updateFn       func(context.Context, domain.Order) error
	findFn         func(context.Context, string) (domain.Order, error)
	findByNumberFn func(context.Context, string) (domain.Order, error)
	listFn         func(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	applyVendorFn  func(context.Context, string, repositories.VendorShipmentUpdate) (domain.Order, error)
	trackViewFn    func(context.Context, string, time.Time) error
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if s.findByNumberFn != nil {
		return s.findByNumberFn(ctx, orderNumber)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderRepo) ApplyVendorShipment(ctx context.Context, orderID string, update repositories.VendorShipmentUpdate) (domain.Order, error) {
	if s.applyVendorFn != nil {
		return s.applyVendorFn(ctx, orderID, update)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) TrackView(ctx context.Context, orderID string, viewedAt time.Time) error {
	if s.trackViewFn != nil {
		return s.trackViewFn(ctx, orderID, viewedAt)
	}
	return nil
}

type stubPaymentRepo struct {
	insertFn      func(context.Context, domain.Payment) error
	updateFn      func(context.Context, domain.Payment) error
	findByOrderFn func(context.Context, string) (domain.Payment, error)
}

func (s *stubPaymentRepo) Insert(ctx context.Context, payment domain.Payment) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, payment)
	}
	return nil
}

func (s *stubPaymentRepo) Update(ctx context.Context, payment domain.Payment) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, payment)
	}
	return nil
}

func (s *stubPaymentRepo) FindByOrder(ctx context.Context, orderID string) (domain.Payment, error) {
	if s.findByOrderFn != nil {
		return s.findByOrderFn(ctx, orderID)
	}
	return domain.Payment{}, stubRepoError{notFound: true}
}

type stubCounterRepo struct {
	nextFn func(context.Context, string, int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID, step)
	}
	return 1, nil
}

type stubInventory struct {
	deductFn  func(context.Context, []StockAdjustment) error
	restockFn func(context.Context, []StockAdjustment) error
}

func (s *stubInventory) Deduct(ctx context.Context, adjustments []StockAdjustment) error {
	if s.deductFn != nil {
		return s.deductFn(ctx, adjustments)
	}
	return nil
}

func (s *stubInventory) Restock(ctx context.Context, adjustments []StockAdjustment) error {
	if s.restockFn != nil {
		return s.restockFn(ctx, adjustments)
	}
	return nil
}

type stubGateway struct {
	authorizeFn func(context.Context, payments.AuthorizeRequest) (payments.Transaction, error)
	refundFn    func(context.Context, payments.RefundRequest) (payments.Refund, error)
}

func (s *stubGateway) Name() string { return "stub" }

func (s *stubGateway) Authorize(ctx context.Context, req payments.AuthorizeRequest) (payments.Transaction, error) {
	if s.authorizeFn != nil {
		return s.authorizeFn(ctx, req)
	}
	return payments.Transaction{}, errors.New("not implemented")
}

func (s *stubGateway) Refund(ctx context.Context, req payments.RefundRequest) (payments.Refund, error) {
	if s.refundFn != nil {
		return s.refundFn(ctx, req)
	}
	return payments.Refund{}, errors.New("not implemented")
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureOrderEvents) types() []string {
	types := make([]string, 0, len(c.events))
	for _, event := range c.events {
		types = append(types, event.Type)
	}
	return types
}

type stubUnitOfWork struct {
	runFn func(context.Context, func(context.Context) error) error
}

func (s *stubUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.runFn != nil {
		return s.runFn(ctx, fn)
	}
	return fn(ctx)
}

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

func sequentialIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s%03d", prefix, n)
	}
}

var allOrderStatuses = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusPaymentConfirmed,
	domain.OrderStatusPaymentFailed,
	domain.OrderStatusProcessing,
	domain.OrderStatusReady,
	domain.OrderStatusShipped,
	domain.OrderStatusOutForDelivery,
	domain.OrderStatusDelivered,
	domain.OrderStatusCompleted,
	domain.OrderStatusCancelled,
	domain.OrderStatusRefunded,
	domain.OrderStatusPartiallyRefunded,
}

func fixtureOrder(status domain.OrderStatus, now time.Time) domain.Order {
	return domain.Order{
		ID:          "ord_fixture",
		OrderNumber: "VH-2025-000001",
		CustomerID:  "user-1",
		Status:      status,
		Currency:    "USD",
		Totals:      domain.OrderTotals{Subtotal: 6000, Shipping: 599, Tax: 528, Total: 7127},
		Items: []domain.OrderLineItem{{
			ID:        "itm_001",
			ProductID: "prod-1",
			VendorID:  "vend-1",
			Quantity:  3,
			UnitPrice: 2000,
			Total:     6000,
		}},
		VendorOrders: map[string]domain.VendorOrder{
			"vend-1": {VendorID: "vend-1", Status: domain.VendorOrderStatusPending, ItemIDs: []string{"itm_001"}, Subtotal: 6000},
		},
		Returns: map[string]domain.ReturnRequest{},
		History: []domain.StatusHistoryEntry{{
			Status: domain.OrderStatusPending,
			At:     now.Add(-time.Hour),
			Actor:  &domain.Actor{ID: "user-1", Role: "customer"},
		}},
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

func TestOrderServiceCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	catalog := map[string]domain.Product{
		"prod-1": {ID: "prod-1", VendorID: "vend-1", StoreID: "store-1", SKU: "SKU-1", Name: "Desk Lamp", Price: 1000, Stock: 5, WeightGrams: 1000, Active: true},
		"prod-2": {ID: "prod-2", VendorID: "vend-1", StoreID: "store-1", SKU: "SKU-2", Name: "Side Table", Price: 2500, Stock: 10, WeightGrams: 1000, Active: true},
	}
	products := &stubProductRepo{
		findFn: func(_ context.Context, id string) (domain.Product, error) {
			product, ok := catalog[id]
			if !ok {
				return domain.Product{}, stubRepoError{notFound: true}
			}
			return product, nil
		},
	}

	var inserted []domain.Order
	orderRepo := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = append(inserted, order)
			return nil
		},
	}

	var deducted []StockAdjustment
	inventory := &stubInventory{
		deductFn: func(_ context.Context, adjustments []StockAdjustment) error {
			deducted = adjustments
			return nil
		},
	}

	events := &captureOrderEvents{}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:   orderRepo,
		Products: products,
		Payments: &stubPaymentRepo{},
		Counters: &stubCounterRepo{
			nextFn: func(_ context.Context, counterID string, step int64) (int64, error) {
				if counterID != "orders" {
					t.Fatalf("unexpected counter id %s", counterID)
				}
				if step != 1 {
					t.Fatalf("unexpected step %d", step)
				}
				return 42, nil
			},
		},
		Inventory:   inventory,
		Pricing:     newTestPricingEngine(t, nil, now),
		UnitOfWork:  &stubUnitOfWork{},
		Clock:       func() time.Time { return now },
		IDGenerator: sequentialIDs("TEST"),
		Events:      events,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.Create(ctx, CreateOrderCommand{
		CustomerID: "user-1",
		Items: []OrderItemInput{
			{ProductID: "prod-1", Quantity: 1},
			{ProductID: "prod-2", Quantity: 2},
		},
		ShippingMethod: domain.ShippingStandard,
		ShippingAddress: domain.Address{
			Recipient:  "Pat Doe",
			Line1:      "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		Contact: domain.OrderContact{Name: "Pat Doe", Email: "pat@example.com"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.OrderNumber != "VH-2025-000042" {
		t.Fatalf("unexpected order number %s", order.OrderNumber)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status pending got %s", order.Status)
	}
	if order.Totals.Total != 7127 {
		t.Fatalf("expected total 7127 got %d", order.Totals.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items got %d", len(order.Items))
	}
	if order.Items[0].Name != "Desk Lamp" || order.Items[0].UnitPrice != 1000 {
		t.Fatalf("expected product snapshot on line item, got %+v", order.Items[0])
	}
	vendorOrder, ok := order.VendorOrders["vend-1"]
	if !ok {
		t.Fatalf("expected vendor order for vend-1")
	}
	if vendorOrder.Subtotal != 6000 || len(vendorOrder.ItemIDs) != 2 {
		t.Fatalf("unexpected vendor order %+v", vendorOrder)
	}
	if len(order.History) != 1 || order.History[0].Status != domain.OrderStatusPending {
		t.Fatalf("expected single pending history entry got %+v", order.History)
	}
	if order.History[0].Actor == nil || order.History[0].Actor.ID != "user-1" {
		t.Fatalf("expected customer actor on creation history entry")
	}
	if order.EstimatedDelivery == nil || !order.EstimatedDelivery.Equal(now.AddDate(0, 0, 6)) {
		t.Fatalf("unexpected estimated delivery %v", order.EstimatedDelivery)
	}
	if len(deducted) != 2 || deducted[0].Quantity != 1 || deducted[1].Quantity != 2 {
		t.Fatalf("unexpected deductions %+v", deducted)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected 1 insert got %d", len(inserted))
	}
	if len(events.events) != 1 || events.events[0].Type != orderEventCreated {
		t.Fatalf("expected order.created event got %v", events.types())
	}
}

func TestOrderServiceCreateRejectsBadStock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	catalog := map[string]domain.Product{
		"prod-low":      {ID: "prod-low", VendorID: "vend-1", Price: 1000, Stock: 1, Active: true},
		"prod-inactive": {ID: "prod-inactive", VendorID: "vend-1", Price: 1000, Stock: 10, Active: false},
	}
	products := &stubProductRepo{
		findFn: func(_ context.Context, id string) (domain.Product, error) {
			product, ok := catalog[id]
			if !ok {
				return domain.Product{}, stubRepoError{notFound: true}
			}
			return product, nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    &stubOrderRepo{insertFn: func(context.Context, domain.Order) error { t.Fatal("insert should not run"); return nil }},
		Products:  products,
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	cmd := CreateOrderCommand{
		CustomerID:      "user-1",
		ShippingAddress: domain.Address{Recipient: "P", Line1: "1 Main", City: "S", PostalCode: "1", Country: "US"},
		Contact:         domain.OrderContact{Email: "pat@example.com"},
	}

	cmd.Items = []OrderItemInput{{ProductID: "prod-low", Quantity: 2}}
	if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrInventoryInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	cmd.Items = []OrderItemInput{{ProductID: "prod-inactive", Quantity: 1}}
	if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrInventoryProductUnavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}

	cmd.Items = []OrderItemInput{{ProductID: "prod-missing", Quantity: 1}}
	if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrInventoryProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestOrderServiceCreateRestocksWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	products := &stubProductRepo{
		findFn: func(context.Context, string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", VendorID: "vend-1", Price: 1000, Stock: 5, Active: true}, nil
		},
	}

	var restocked []StockAdjustment
	inventory := &stubInventory{
		restockFn: func(_ context.Context, adjustments []StockAdjustment) error {
			restocked = adjustments
			return nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders: &stubOrderRepo{
			insertFn: func(context.Context, domain.Order) error {
				return stubRepoError{conflict: true}
			},
		},
		Products:  products,
		Counters:  &stubCounterRepo{},
		Inventory: inventory,
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.Create(ctx, CreateOrderCommand{
		CustomerID:      "user-1",
		Items:           []OrderItemInput{{ProductID: "prod-1", Quantity: 2}},
		ShippingAddress: domain.Address{Recipient: "P", Line1: "1 Main", City: "S", PostalCode: "1", Country: "US"},
		Contact:         domain.OrderContact{Email: "pat@example.com"},
	})
	if !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(restocked) != 1 || restocked[0].Quantity != 2 {
		t.Fatalf("expected compensating restock, got %+v", restocked)
	}
}

func TestOrderServiceTransitionTableSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, current := range allOrderStatuses {
		for _, target := range allOrderStatuses {
			name := fmt.Sprintf("%s_to_%s", current, target)
			t.Run(name, func(t *testing.T) {
				var updated *domain.Order
				orderRepo := &stubOrderRepo{
					findFn: func(context.Context, string) (domain.Order, error) {
						return fixtureOrder(current, now), nil
					},
					updateFn: func(_ context.Context, order domain.Order) error {
						updated = &order
						return nil
					},
				}

				svc, err := NewOrderService(OrderServiceDeps{
					Orders:    orderRepo,
					Products:  &stubProductRepo{},
					Counters:  &stubCounterRepo{},
					Inventory: &stubInventory{},
					Pricing:   newTestPricingEngine(t, nil, now),
					Clock:     func() time.Time { return now },
				})
				if err != nil {
					t.Fatalf("new order service: %v", err)
				}

				order, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{
					OrderID:      "ord_fixture",
					TargetStatus: target,
					Actor:        domain.Actor{ID: "admin-1", Role: "admin"},
				})

				restricted := false
				for _, r := range restrictedTransitionTargets {
					if r == target {
						restricted = true
					}
				}
				allowed := canTransition(current, target)

				switch {
				case restricted:
					if !errors.Is(err, ErrOrderInvalidInput) {
						t.Fatalf("expected dedicated-operation rejection, got %v", err)
					}
					if updated != nil {
						t.Fatalf("no update expected for restricted target")
					}
				case allowed:
					if err != nil {
						t.Fatalf("expected transition to succeed: %v", err)
					}
					if order.Status != target {
						t.Fatalf("expected status %s got %s", target, order.Status)
					}
					if len(order.History) != 2 {
						t.Fatalf("expected one appended history entry, got %d", len(order.History))
					}
					if updated == nil || updated.Status != target {
						t.Fatalf("expected persisted status %s", target)
					}
				default:
					if !errors.Is(err, ErrOrderInvalidState) {
						t.Fatalf("expected invalid transition, got %v", err)
					}
					if updated != nil {
						t.Fatalf("failed transition must not persist")
					}
				}
			})
		}
	}
}

func TestOrderServiceConfirmPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	capturedAt := now.Add(-time.Second)

	var updated domain.Order
	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return fixtureOrder(domain.OrderStatusPending, now), nil
		},
		updateFn: func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}

	var insertedPayment domain.Payment
	paymentRepo := &stubPaymentRepo{
		insertFn: func(_ context.Context, payment domain.Payment) error {
			insertedPayment = payment
			return nil
		},
	}

	gateway := &stubGateway{
		authorizeFn: func(_ context.Context, req payments.AuthorizeRequest) (payments.Transaction, error) {
			if req.Amount != 7127 {
				t.Fatalf("expected authorize amount 7127 got %d", req.Amount)
			}
			if req.Currency != "USD" {
				t.Fatalf("expected currency USD got %s", req.Currency)
			}
			return payments.Transaction{
				ID:         "pi_123",
				Provider:   "stripe",
				Method:     "card",
				Amount:     req.Amount,
				Currency:   req.Currency,
				CapturedAt: capturedAt,
			}, nil
		},
	}

	events := &captureOrderEvents{}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      orderRepo,
		Products:    &stubProductRepo{},
		Payments:    paymentRepo,
		Counters:    &stubCounterRepo{},
		Inventory:   &stubInventory{},
		Pricing:     newTestPricingEngine(t, nil, now),
		Gateway:     gateway,
		Clock:       func() time.Time { return now },
		IDGenerator: sequentialIDs("PAY"),
		Events:      events,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.ConfirmPayment(ctx, ConfirmPaymentCommand{
		OrderID:       "ord_fixture",
		Actor:         domain.Actor{ID: "user-1", Role: "customer"},
		PaymentMethod: "pm_card_visa",
	})
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	if order.Status != domain.OrderStatusPaymentConfirmed {
		t.Fatalf("expected payment_confirmed got %s", order.Status)
	}
	if order.PaidAt == nil {
		t.Fatalf("expected paidAt to be set")
	}
	if order.Payment == nil || order.Payment.TransactionID != "pi_123" {
		t.Fatalf("expected payment attached, got %+v", order.Payment)
	}
	if insertedPayment.ID == "" || insertedPayment.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed payment record, got %+v", insertedPayment)
	}
	if !insertedPayment.CapturedAt.Equal(capturedAt) {
		t.Fatalf("expected gateway capture time preserved")
	}
	if updated.Status != domain.OrderStatusPaymentConfirmed {
		t.Fatalf("expected persisted payment_confirmed")
	}
	if len(events.events) != 1 || events.events[0].Type != orderEventPaymentConfirmed {
		t.Fatalf("expected payment confirmed event got %v", events.types())
	}
}

func TestOrderServiceConfirmPaymentDeclined(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)

	var updated domain.Order
	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return fixtureOrder(domain.OrderStatusPending, now), nil
		},
		updateFn: func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}

	paymentRepo := &stubPaymentRepo{
		insertFn: func(context.Context, domain.Payment) error {
			t.Fatal("no payment record for declined attempt")
			return nil
		},
	}

	gateway := &stubGateway{
		authorizeFn: func(context.Context, payments.AuthorizeRequest) (payments.Transaction, error) {
			return payments.Transaction{}, fmt.Errorf("%w: card_declined", payments.ErrPaymentDeclined)
		},
	}

	events := &captureOrderEvents{}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    orderRepo,
		Products:  &stubProductRepo{},
		Payments:  paymentRepo,
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Gateway:   gateway,
		Clock:     func() time.Time { return now },
		Events:    events,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	_, err = svc.ConfirmPayment(ctx, ConfirmPaymentCommand{
		OrderID:       "ord_fixture",
		Actor:         domain.Actor{ID: "user-1", Role: "customer"},
		PaymentMethod: "pm_card_visa",
	})
	if !errors.Is(err, ErrOrderPaymentDeclined) {
		t.Fatalf("expected payment declined, got %v", err)
	}
	if updated.Status != domain.OrderStatusPaymentFailed {
		t.Fatalf("expected payment_failed persisted got %s", updated.Status)
	}
	if len(events.events) != 1 || events.events[0].Type != orderEventPaymentFailed {
		t.Fatalf("expected payment failed event got %v", events.types())
	}
	if events.events[0].Metadata["reason"] == "" {
		t.Fatalf("expected failure reason on event")
	}
}

func TestOrderServiceCancelRestocksAndRefunds(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

	var updated domain.Order
	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return fixtureOrder(domain.OrderStatusPaymentConfirmed, now), nil
		},
		updateFn: func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}

	var updatedPayment domain.Payment
	paymentRepo := &stubPaymentRepo{
		findByOrderFn: func(context.Context, string) (domain.Payment, error) {
			return domain.Payment{
				ID:            "pay_1",
				OrderID:       "ord_fixture",
				TransactionID: "pi_900",
				Status:        domain.PaymentStatusCompleted,
				Amount:        7127,
				Currency:      "USD",
			}, nil
		},
		updateFn: func(_ context.Context, payment domain.Payment) error {
			updatedPayment = payment
			return nil
		},
	}

	var refundReq payments.RefundRequest
	gateway := &stubGateway{
		refundFn: func(_ context.Context, req payments.RefundRequest) (payments.Refund, error) {
			refundReq = req
			return payments.Refund{ID: "re_1", TransactionID: req.TransactionID, Amount: *req.Amount, CreatedAt: now}, nil
		},
	}

	var restocked []StockAdjustment
	inventory := &stubInventory{
		restockFn: func(_ context.Context, adjustments []StockAdjustment) error {
			restocked = adjustments
			return nil
		},
	}

	events := &captureOrderEvents{}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    orderRepo,
		Products:  &stubProductRepo{},
		Payments:  paymentRepo,
		Counters:  &stubCounterRepo{},
		Inventory: inventory,
		Pricing:   newTestPricingEngine(t, nil, now),
		Gateway:   gateway,
		Clock:     func() time.Time { return now },
		Events:    events,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.Cancel(ctx, CancelOrderCommand{
		OrderID: "ord_fixture",
		Actor:   domain.Actor{ID: "user-1", Role: "customer"},
		Reason:  "changed mind",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", order.Status)
	}
	if order.CancelReason == nil || *order.CancelReason != "changed mind" {
		t.Fatalf("expected cancel reason recorded")
	}
	if refundReq.TransactionID != "pi_900" || refundReq.Amount == nil || *refundReq.Amount != 7127 {
		t.Fatalf("expected full refund of 7127, got %+v", refundReq)
	}
	if updatedPayment.Status != domain.PaymentStatusRefunded || updatedPayment.Refunded != 7127 {
		t.Fatalf("expected refunded payment record, got %+v", updatedPayment)
	}
	if order.RefundedTotal != 7127 {
		t.Fatalf("expected refunded total 7127 got %d", order.RefundedTotal)
	}
	if len(restocked) != 1 || restocked[0].ProductID != "prod-1" || restocked[0].Quantity != 3 {
		t.Fatalf("expected restock of 3 units, got %+v", restocked)
	}
	if vo := updated.VendorOrders["vend-1"]; vo.Status != domain.VendorOrderStatusCancelled {
		t.Fatalf("expected vendor order cancelled, got %s", vo.Status)
	}
	if len(events.events) != 1 || events.events[0].Type != orderEventCancelled {
		t.Fatalf("expected cancellation event got %v", events.types())
	}
}

func TestOrderServiceCancelRejectsTerminalStates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusDelivered,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
		domain.OrderStatusRefunded,
	} {
		orderRepo := &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) {
				return fixtureOrder(status, now), nil
			},
			updateFn: func(context.Context, domain.Order) error {
				t.Fatalf("update must not run for status %s", status)
				return nil
			},
		}

		svc, err := NewOrderService(OrderServiceDeps{
			Orders:    orderRepo,
			Products:  &stubProductRepo{},
			Counters:  &stubCounterRepo{},
			Inventory: &stubInventory{},
			Pricing:   newTestPricingEngine(t, nil, now),
			Clock:     func() time.Time { return now },
		})
		if err != nil {
			t.Fatalf("new order service: %v", err)
		}

		if _, err := svc.Cancel(ctx, CancelOrderCommand{OrderID: "ord_fixture"}); !errors.Is(err, ErrOrderNotCancellable) {
			t.Fatalf("status %s: expected not cancellable, got %v", status, err)
		}
	}
}

func TestOrderServiceVendorShipmentDerivation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	repo := newMemOrderRepo()
	base := fixtureOrder(domain.OrderStatusReady, now)
	base.VendorOrders = map[string]domain.VendorOrder{
		"vend-1": {VendorID: "vend-1", Status: domain.VendorOrderStatusReady},
		"vend-2": {VendorID: "vend-2", Status: domain.VendorOrderStatusReady},
	}
	repo.orders[base.ID] = base

	events := &captureOrderEvents{}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    repo,
		Products:  &stubProductRepo{},
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
		Events:    events,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	carrier := "UPS"
	tracking := "1Z999"

	order, err := svc.MarkVendorShipped(ctx, VendorShipmentCommand{
		OrderID:        base.ID,
		VendorID:       "vend-1",
		Actor:          domain.Actor{ID: "vend-1", Role: "vendor"},
		Carrier:        &carrier,
		TrackingNumber: &tracking,
	})
	if err != nil {
		t.Fatalf("ship vend-1: %v", err)
	}
	if order.Status != domain.OrderStatusReady {
		t.Fatalf("main status must not advance while vend-2 is pending, got %s", order.Status)
	}
	if vo := order.VendorOrders["vend-1"]; vo.Status != domain.VendorOrderStatusShipped || vo.TrackingNumber == nil {
		t.Fatalf("expected shipped vendor order with tracking, got %+v", vo)
	}

	order, err = svc.MarkVendorShipped(ctx, VendorShipmentCommand{
		OrderID:  base.ID,
		VendorID: "vend-2",
		Actor:    domain.Actor{ID: "vend-2", Role: "vendor"},
	})
	if err != nil {
		t.Fatalf("ship vend-2: %v", err)
	}
	if order.Status != domain.OrderStatusShipped {
		t.Fatalf("expected derived shipped status, got %s", order.Status)
	}
	if order.ShippedAt == nil {
		t.Fatalf("expected shippedAt stamped on derivation")
	}
	last := order.History[len(order.History)-1]
	if last.Status != domain.OrderStatusShipped || last.Actor != nil {
		t.Fatalf("expected system-actor history entry, got %+v", last)
	}

	// Delivering out of order must fail before shipment.
	if _, err := svc.MarkVendorDelivered(ctx, VendorDeliveryCommand{OrderID: base.ID, VendorID: "vend-missing"}); !errors.Is(err, ErrVendorOrderNotFound) {
		t.Fatalf("expected vendor order not found, got %v", err)
	}

	if _, err := svc.MarkVendorDelivered(ctx, VendorDeliveryCommand{OrderID: base.ID, VendorID: "vend-1"}); err != nil {
		t.Fatalf("deliver vend-1: %v", err)
	}
	order, err = svc.MarkVendorDelivered(ctx, VendorDeliveryCommand{OrderID: base.ID, VendorID: "vend-2"})
	if err != nil {
		t.Fatalf("deliver vend-2: %v", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected derived delivered status, got %s", order.Status)
	}
	if order.DeliveredAt == nil {
		t.Fatalf("expected deliveredAt stamped")
	}
	last = order.History[len(order.History)-1]
	if last.Status != domain.OrderStatusDelivered || last.Actor != nil {
		t.Fatalf("expected system-actor delivered entry, got %+v", last)
	}
}

func TestOrderServiceRequestReturnValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	deliveredAt := now.Add(-5 * 24 * time.Hour)

	makeOrder := func() domain.Order {
		order := fixtureOrder(domain.OrderStatusDelivered, now)
		order.DeliveredAt = &deliveredAt
		order.Items = append(order.Items, domain.OrderLineItem{
			ID:        "itm_002",
			ProductID: "prod-2",
			VendorID:  "vend-2",
			Quantity:  1,
			UnitPrice: 1500,
			Total:     1500,
		})
		return order
	}

	var updated domain.Order
	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return makeOrder(), nil
		},
		updateFn: func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      orderRepo,
		Products:    &stubProductRepo{},
		Counters:    &stubCounterRepo{},
		Inventory:   &stubInventory{},
		Pricing:     newTestPricingEngine(t, nil, now),
		Clock:       func() time.Time { return now },
		IDGenerator: sequentialIDs("RET"),
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	// Quantity above the ordered amount is rejected.
	if _, err := svc.RequestReturn(ctx, RequestReturnCommand{
		OrderID: "ord_fixture",
		Items:   []ReturnItemInput{{LineItemID: "itm_001", Quantity: 4}},
		Reason:  "damaged",
	}); !errors.Is(err, ErrReturnInvalidQuantity) {
		t.Fatalf("expected quantity bound rejection, got %v", err)
	}

	// Lines from two vendors cannot share one return request.
	if _, err := svc.RequestReturn(ctx, RequestReturnCommand{
		OrderID: "ord_fixture",
		Items: []ReturnItemInput{
			{LineItemID: "itm_001", Quantity: 1},
			{LineItemID: "itm_002", Quantity: 1},
		},
		Reason: "damaged",
	}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected single-vendor rejection, got %v", err)
	}

	order, err := svc.RequestReturn(ctx, RequestReturnCommand{
		OrderID: "ord_fixture",
		Actor:   domain.Actor{ID: "user-1", Role: "customer"},
		Items:   []ReturnItemInput{{LineItemID: "itm_001", Quantity: 2}},
		Reason:  "damaged",
	})
	if err != nil {
		t.Fatalf("request return: %v", err)
	}
	if len(order.Returns) != 1 {
		t.Fatalf("expected one return request got %d", len(order.Returns))
	}
	for _, ret := range order.Returns {
		if ret.Status != domain.ReturnStatusRequested {
			t.Fatalf("expected requested status got %s", ret.Status)
		}
		if ret.VendorID != "vend-1" {
			t.Fatalf("expected vendor vend-1 got %s", ret.VendorID)
		}
		if ret.RefundTotal != 4000 {
			t.Fatalf("expected refund total 4000 got %d", ret.RefundTotal)
		}
	}
	if len(updated.Returns) != 1 {
		t.Fatalf("expected persisted return request")
	}
}

func TestOrderServiceRequestReturnOutsideWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	deliveredAt := now.Add(-31 * 24 * time.Hour)

	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			order := fixtureOrder(domain.OrderStatusDelivered, now)
			order.DeliveredAt = &deliveredAt
			return order, nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    orderRepo,
		Products:  &stubProductRepo{},
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	if _, err := svc.RequestReturn(ctx, RequestReturnCommand{
		OrderID: "ord_fixture",
		Items:   []ReturnItemInput{{LineItemID: "itm_001", Quantity: 1}},
		Reason:  "too late",
	}); !errors.Is(err, ErrOrderNotReturnable) {
		t.Fatalf("expected window rejection, got %v", err)
	}
}

func TestOrderServiceReturnLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	deliveredAt := now.Add(-2 * 24 * time.Hour)

	repo := newMemOrderRepo()
	order := fixtureOrder(domain.OrderStatusDelivered, now)
	order.DeliveredAt = &deliveredAt
	order.Returns = map[string]domain.ReturnRequest{
		"ret_1": {
			ID:          "ret_1",
			VendorID:    "vend-1",
			Status:      domain.ReturnStatusRequested,
			Items:       []domain.ReturnItem{{LineItemID: "itm_001", Quantity: 2, UnitPrice: 2000}},
			Reason:      "damaged",
			RefundTotal: 4000,
			RequestedAt: now.Add(-time.Hour),
		},
	}
	repo.orders[order.ID] = order

	var updatedPayment domain.Payment
	paymentRepo := &stubPaymentRepo{
		findByOrderFn: func(context.Context, string) (domain.Payment, error) {
			return domain.Payment{
				ID:            "pay_1",
				OrderID:       order.ID,
				TransactionID: "pi_55",
				Status:        domain.PaymentStatusCompleted,
				Amount:        7127,
			}, nil
		},
		updateFn: func(_ context.Context, payment domain.Payment) error {
			updatedPayment = payment
			return nil
		},
	}

	var refundReq payments.RefundRequest
	gateway := &stubGateway{
		refundFn: func(_ context.Context, req payments.RefundRequest) (payments.Refund, error) {
			refundReq = req
			return payments.Refund{ID: "re_9", TransactionID: req.TransactionID, Amount: *req.Amount, CreatedAt: now}, nil
		},
	}

	var restocked []StockAdjustment
	inventory := &stubInventory{
		restockFn: func(_ context.Context, adjustments []StockAdjustment) error {
			restocked = adjustments
			return nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    repo,
		Products:  &stubProductRepo{},
		Payments:  paymentRepo,
		Counters:  &stubCounterRepo{},
		Inventory: inventory,
		Pricing:   newTestPricingEngine(t, nil, now),
		Gateway:   gateway,
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	actor := domain.Actor{ID: "vend-1", Role: "vendor"}

	// Refund before receipt is rejected.
	if _, err := svc.UpdateReturn(ctx, UpdateReturnCommand{
		OrderID: order.ID, ReturnID: "ret_1", Action: ReturnActionRefund, Actor: actor,
	}); !errors.Is(err, ErrReturnInvalidState) {
		t.Fatalf("expected return state rejection, got %v", err)
	}

	result, err := svc.UpdateReturn(ctx, UpdateReturnCommand{
		OrderID: order.ID, ReturnID: "ret_1", Action: ReturnActionApprove, Actor: actor,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Returns["ret_1"].Status != domain.ReturnStatusApproved {
		t.Fatalf("expected approved got %s", result.Returns["ret_1"].Status)
	}

	result, err = svc.UpdateReturn(ctx, UpdateReturnCommand{
		OrderID: order.ID, ReturnID: "ret_1", Action: ReturnActionReceive, Actor: actor,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(restocked) != 1 || restocked[0].ProductID != "prod-1" || restocked[0].Quantity != 2 {
		t.Fatalf("expected restock on receipt, got %+v", restocked)
	}

	result, err = svc.UpdateReturn(ctx, UpdateReturnCommand{
		OrderID: order.ID, ReturnID: "ret_1", Action: ReturnActionRefund, Actor: actor,
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}

	if refundReq.Amount == nil || *refundReq.Amount != 4000 {
		t.Fatalf("expected refund of 4000, got %+v", refundReq)
	}
	if updatedPayment.Status != domain.PaymentStatusPartiallyRefunded || updatedPayment.Refunded != 4000 {
		t.Fatalf("expected partially refunded payment, got %+v", updatedPayment)
	}
	ret := result.Returns["ret_1"]
	if ret.Status != domain.ReturnStatusRefunded || ret.RefundedAt == nil {
		t.Fatalf("expected refunded return, got %+v", ret)
	}
	if result.RefundedTotal != 4000 {
		t.Fatalf("expected order refunded total 4000 got %d", result.RefundedTotal)
	}
	if result.Status != domain.OrderStatusPartiallyRefunded {
		t.Fatalf("expected partially_refunded status got %s", result.Status)
	}
}

func TestOrderServiceGetOrderHydratesPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return fixtureOrder(domain.OrderStatusPaymentConfirmed, now), nil
		},
	}
	paymentRepo := &stubPaymentRepo{
		findByOrderFn: func(context.Context, string) (domain.Payment, error) {
			return domain.Payment{ID: "pay_1", TransactionID: "pi_1"}, nil
		},
	}

	var viewedOrder string
	orderRepo.trackViewFn = func(_ context.Context, orderID string, viewedAt time.Time) error {
		viewedOrder = orderID
		if !viewedAt.Equal(now) {
			t.Fatalf("expected view time %s got %s", now, viewedAt)
		}
		return nil
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    orderRepo,
		Products:  &stubProductRepo{},
		Payments:  paymentRepo,
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.GetOrder(ctx, "ord_fixture", OrderReadOptions{IncludePayment: true})
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Payment == nil || order.Payment.TransactionID != "pi_1" {
		t.Fatalf("expected payment hydration, got %+v", order.Payment)
	}

	if err := svc.RecordView(ctx, "ord_fixture"); err != nil {
		t.Fatalf("record view: %v", err)
	}
	if viewedOrder != "ord_fixture" {
		t.Fatalf("expected track view call, got %q", viewedOrder)
	}
}

func TestOrderServiceGetOrderResolvesOrderNumber(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	orderRepo := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			t.Fatal("lookup by id should not run for an order number")
			return domain.Order{}, nil
		},
		findByNumberFn: func(_ context.Context, orderNumber string) (domain.Order, error) {
			if orderNumber != "VH-2025-000001" {
				t.Fatalf("unexpected order number %q", orderNumber)
			}
			return fixtureOrder(domain.OrderStatusPaymentConfirmed, now), nil
		},
	}
	paymentRepo := &stubPaymentRepo{
		findByOrderFn: func(_ context.Context, orderID string) (domain.Payment, error) {
			if orderID != "ord_fixture" {
				t.Fatalf("expected payment lookup by order id, got %q", orderID)
			}
			return domain.Payment{ID: "pay_1", TransactionID: "pi_1"}, nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:    orderRepo,
		Products:  &stubProductRepo{},
		Payments:  paymentRepo,
		Counters:  &stubCounterRepo{},
		Inventory: &stubInventory{},
		Pricing:   newTestPricingEngine(t, nil, now),
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.GetOrder(ctx, "VH-2025-000001", OrderReadOptions{IncludePayment: true})
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.ID != "ord_fixture" {
		t.Fatalf("expected order ord_fixture got %q", order.ID)
	}
	if order.Payment == nil || order.Payment.TransactionID != "pi_1" {
		t.Fatalf("expected payment hydration, got %+v", order.Payment)
	}
}

func TestOrderServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

	catalog := map[string]*domain.Product{
		"prod-1": {ID: "prod-1", VendorID: "vend-1", StoreID: "store-1", SKU: "SKU-1", Name: "Bookshelf", Price: 2000, Stock: 10, WeightGrams: 500, Active: true},
	}
	products := &memProductRepo{products: catalog}

	repo := newMemOrderRepo()

	var paymentStore *domain.Payment
	paymentRepo := &stubPaymentRepo{
		insertFn: func(_ context.Context, payment domain.Payment) error {
			paymentStore = &payment
			return nil
		},
		findByOrderFn: func(context.Context, string) (domain.Payment, error) {
			if paymentStore == nil {
				return domain.Payment{}, stubRepoError{notFound: true}
			}
			return *paymentStore, nil
		},
	}

	gateway := &stubGateway{
		authorizeFn: func(_ context.Context, req payments.AuthorizeRequest) (payments.Transaction, error) {
			return payments.Transaction{ID: "pi_e2e", Provider: "stripe", Method: "card", Amount: req.Amount, Currency: req.Currency, CapturedAt: now}, nil
		},
	}

	inventory, err := NewInventoryService(InventoryServiceDeps{Products: products})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      repo,
		Products:    products,
		Payments:    paymentRepo,
		Counters:    &stubCounterRepo{nextFn: func(context.Context, string, int64) (int64, error) { return 7, nil }},
		Inventory:   inventory,
		Pricing:     newTestPricingEngine(t, nil, now),
		Gateway:     gateway,
		Clock:       func() time.Time { return now },
		IDGenerator: sequentialIDs("E2E"),
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	order, err := svc.Create(ctx, CreateOrderCommand{
		CustomerID:     "user-7",
		Items:          []OrderItemInput{{ProductID: "prod-1", Quantity: 3}},
		ShippingMethod: domain.ShippingExpress,
		ShippingAddress: domain.Address{
			Recipient: "Sam Doe", Line1: "2 Oak Ave", City: "Portland", PostalCode: "97201", Country: "US",
		},
		Contact: domain.OrderContact{Name: "Sam Doe", Email: "sam@example.com"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.Totals.Total != 7883 {
		t.Fatalf("expected total 7883 got %d", order.Totals.Total)
	}
	if catalog["prod-1"].Stock != 7 {
		t.Fatalf("expected stock decremented to 7 got %d", catalog["prod-1"].Stock)
	}

	// Captured line price survives later catalog edits.
	catalog["prod-1"].Price = 9999
	reread, err := svc.GetOrder(ctx, order.ID, OrderReadOptions{})
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if reread.Items[0].UnitPrice != 2000 || reread.Totals.Total != 7883 {
		t.Fatalf("line item price must be immutable, got %+v", reread.Items[0])
	}

	if _, err := svc.ConfirmPayment(ctx, ConfirmPaymentCommand{
		OrderID:       order.ID,
		Actor:         domain.Actor{ID: "user-7", Role: "customer"},
		PaymentMethod: "pm_card_visa",
	}); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{
		OrderID:      order.ID,
		TargetStatus: domain.OrderStatusProcessing,
		Actor:        domain.Actor{ID: "admin-1", Role: "admin"},
	}); err != nil {
		t.Fatalf("transition processing: %v", err)
	}

	carrier := "UPS"
	if _, err := svc.MarkVendorShipped(ctx, VendorShipmentCommand{
		OrderID:  order.ID,
		VendorID: "vend-1",
		Actor:    domain.Actor{ID: "vend-1", Role: "vendor"},
		Carrier:  &carrier,
	}); err != nil {
		t.Fatalf("mark shipped: %v", err)
	}

	final, err := svc.MarkVendorDelivered(ctx, VendorDeliveryCommand{
		OrderID:  order.ID,
		VendorID: "vend-1",
		Actor:    domain.Actor{ID: "vend-1", Role: "vendor"},
	})
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	if final.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected main status delivered got %s", final.Status)
	}
	if vo := final.VendorOrders["vend-1"]; vo.Status != domain.VendorOrderStatusDelivered {
		t.Fatalf("expected vendor order delivered got %s", vo.Status)
	}
	if final.Totals.Total != 7883 {
		t.Fatalf("expected total unchanged 7883 got %d", final.Totals.Total)
	}

	// pending, payment_confirmed, processing, shipped (derived), delivered (derived).
	if len(final.History) != 5 {
		t.Fatalf("expected 5 history entries got %d", len(final.History))
	}
	for i := 1; i < len(final.History); i++ {
		if final.History[i].At.Before(final.History[i-1].At) {
			t.Fatalf("history must be monotonic in time")
		}
	}
}

// memOrderRepo is a map-backed order repository for multi-step scenarios.
type memOrderRepo struct {
	orders map[string]domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]domain.Order{}}
}

func (m *memOrderRepo) Insert(_ context.Context, order domain.Order) error {
	if _, ok := m.orders[order.ID]; ok {
		return stubRepoError{conflict: true}
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memOrderRepo) Update(_ context.Context, order domain.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return stubRepoError{notFound: true}
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, stubRepoError{notFound: true}
	}
	return order, nil
}

func (m *memOrderRepo) FindByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, stubRepoError{notFound: true}
}

func (m *memOrderRepo) List(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	return domain.CursorPage[domain.Order]{}, nil
}

func (m *memOrderRepo) ApplyVendorShipment(_ context.Context, orderID string, update repositories.VendorShipmentUpdate) (domain.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, stubRepoError{notFound: true}
	}
	if order.VendorOrders == nil {
		order.VendorOrders = map[string]domain.VendorOrder{}
	}
	order.VendorOrders[update.VendorOrder.VendorID] = update.VendorOrder
	order.UpdatedAt = update.UpdatedAt
	if update.MainStatus != nil {
		order.Status = *update.MainStatus
	}
	if update.HistoryEntry != nil {
		order.History = append(order.History, *update.HistoryEntry)
	}
	if update.ShippedAt != nil {
		order.ShippedAt = update.ShippedAt
	}
	if update.DeliveredAt != nil {
		order.DeliveredAt = update.DeliveredAt
	}
	m.orders[orderID] = order
	return order, nil
}

func (m *memOrderRepo) TrackView(_ context.Context, orderID string, viewedAt time.Time) error {
	order, ok := m.orders[orderID]
	if !ok {
		return stubRepoError{notFound: true}
	}
	order.ViewCount++
	order.LastViewedAt = &viewedAt
	m.orders[orderID] = order
	return nil
}

// memProductRepo applies stock deltas against in-memory products.
type memProductRepo struct {
	products map[string]*domain.Product
}

func (m *memProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, stubRepoError{notFound: true}
	}
	return *product, nil
}

func (m *memProductRepo) AdjustStock(_ context.Context, deltas []repositories.StockDelta) error {
	for _, delta := range deltas {
		product, ok := m.products[delta.ProductID]
		if !ok {
			return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound, delta.ProductID, nil)
		}
		if product.Stock+delta.Delta < 0 {
			return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, delta.ProductID, nil)
		}
	}
	for _, delta := range deltas {
		m.products[delta.ProductID].Stock += delta.Delta
	}
	return nil
}

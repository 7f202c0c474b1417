package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/payments"
	"github.com/vendorhub/api/internal/repositories"
)

const (
	orderEventCreated          = "order.created"
	orderEventStatusChanged    = "order.status.changed"
	orderEventPaymentConfirmed = "order.payment.confirmed"
	orderEventPaymentFailed    = "order.payment.failed"
	orderEventCancelled        = "order.cancelled"
	orderEventVendorShipped    = "order.vendor.shipped"
	orderEventVendorDelivered  = "order.vendor.delivered"
	orderEventReturnRequested  = "order.return.requested"
	orderEventReturnUpdated    = "order.return.updated"

	orderIDPrefix    = "ord_"
	lineItemIDPrefix = "itm_"
	paymentIDPrefix  = "pay_"
	returnIDPrefix   = "ret_"

	orderCounterID    = "orders"
	orderNumberPrefix = "VH-"

	defaultCurrency     = "USD"
	defaultReturnWindow = 30 * 24 * time.Hour
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderNotCancellable indicates the order is past the cancellable window.
	ErrOrderNotCancellable = errors.New("order: cannot be cancelled")
	// ErrOrderNotReturnable indicates the order is outside the returnable window.
	ErrOrderNotReturnable = errors.New("order: cannot be returned")
	// ErrOrderPaymentDeclined indicates the gateway declined the charge.
	ErrOrderPaymentDeclined = errors.New("order: payment declined")
	// ErrVendorOrderNotFound indicates the vendor has no sub-order on this order.
	ErrVendorOrderNotFound = errors.New("order: vendor order not found")
	// ErrReturnNotFound indicates the return request could not be located.
	ErrReturnNotFound = errors.New("order: return not found")
	// ErrReturnInvalidQuantity indicates a return quantity exceeds the ordered quantity.
	ErrReturnInvalidQuantity = errors.New("order: return quantity invalid")
	// ErrReturnInvalidState indicates the return cannot take the requested action.
	ErrReturnInvalidState = errors.New("order: return state invalid")

	errOrderPaymentRepositoryUnavailable = errors.New("order: payment repository not configured")
	errOrderGatewayUnavailable           = errors.New("order: payment gateway not configured")
)

var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:           {domain.OrderStatusPaymentConfirmed, domain.OrderStatusPaymentFailed, domain.OrderStatusCancelled},
	domain.OrderStatusPaymentConfirmed:  {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusPaymentFailed:     {domain.OrderStatusPaymentConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing:        {domain.OrderStatusReady, domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusReady:             {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:           {domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusOutForDelivery:    {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusDelivered:         {domain.OrderStatusCompleted, domain.OrderStatusRefunded, domain.OrderStatusPartiallyRefunded},
	domain.OrderStatusCompleted:         {domain.OrderStatusRefunded, domain.OrderStatusPartiallyRefunded},
	domain.OrderStatusPartiallyRefunded: {domain.OrderStatusRefunded},
}

var cancellableStatuses = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusPaymentConfirmed,
	domain.OrderStatusPaymentFailed,
	domain.OrderStatusProcessing,
	domain.OrderStatusReady,
	domain.OrderStatusShipped,
	domain.OrderStatusOutForDelivery,
}

var returnableStatuses = []domain.OrderStatus{
	domain.OrderStatusDelivered,
	domain.OrderStatusCompleted,
}

// Targets reserved for dedicated operations; a plain status update may not
// reach them because they carry compensation (refunds, restocks).
var restrictedTransitionTargets = []domain.OrderStatus{
	domain.OrderStatusCancelled,
	domain.OrderStatusRefunded,
	domain.OrderStatusPartiallyRefunded,
	domain.OrderStatusPaymentConfirmed,
	domain.OrderStatusPaymentFailed,
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders       repositories.OrderRepository
	Products     repositories.ProductRepository
	Payments     repositories.PaymentRepository
	Counters     repositories.CounterRepository
	Inventory    InventoryService
	Pricing      PricingService
	Gateway      payments.Provider
	UnitOfWork   repositories.UnitOfWork
	Clock        func() time.Time
	IDGenerator  func() string
	Events       OrderEventPublisher
	Logger       func(ctx context.Context, event string, fields map[string]any)
	ReturnWindow time.Duration
	Currency     string
}

type orderService struct {
	orders       repositories.OrderRepository
	products     repositories.ProductRepository
	payments     repositories.PaymentRepository
	counters     repositories.CounterRepository
	inventory    InventoryService
	pricing      PricingService
	gateway      payments.Provider
	unitOfWork   repositories.UnitOfWork
	clock        func() time.Time
	newID        func() string
	events       OrderEventPublisher
	logger       func(context.Context, string, map[string]any)
	returnWindow time.Duration
	currency     string
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("order service: inventory service is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing service is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	window := deps.ReturnWindow
	if window <= 0 {
		window = defaultReturnWindow
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	return &orderService{
		orders:     deps.Orders,
		products:   deps.Products,
		payments:   deps.Payments,
		counters:   deps.Counters,
		inventory:  deps.Inventory,
		pricing:    deps.Pricing,
		gateway:    deps.Gateway,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:        idGen,
		events:       deps.Events,
		logger:       logger,
		returnWindow: window,
		currency:     currency,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Order{}, fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Contact.Email) == "" {
		return Order{}, fmt.Errorf("%w: contact email is required", ErrOrderInvalidInput)
	}
	if err := validateAddress(cmd.ShippingAddress); err != nil {
		return Order{}, err
	}

	method := cmd.ShippingMethod
	if method == "" {
		method = domain.ShippingStandard
	}

	requested, err := mergeItemInputs(cmd.Items)
	if err != nil {
		return Order{}, err
	}

	now := s.now()

	items, err := s.buildLineItems(ctx, requested)
	if err != nil {
		return Order{}, err
	}

	quote, err := s.pricing.Quote(ctx, PricingCommand{
		Items:          pricingLines(items),
		ShippingMethod: method,
		CouponCode:     cloneStringPtr(cmd.CouponCode),
		CustomerID:     customerID,
	})
	if err != nil {
		return Order{}, err
	}

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return Order{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		currency = s.currency
	}

	actor := Actor{ID: customerID, Role: "customer"}
	estimated := quote.EstimatedDelivery

	order := Order{
		ID:              orderIDPrefix + s.newID(),
		OrderNumber:     number,
		CustomerID:      customerID,
		Status:          domain.OrderStatusPending,
		Currency:        currency,
		Totals:          quote.Totals,
		Items:           items,
		VendorOrders:    buildVendorOrders(items, now),
		Returns:         map[string]ReturnRequest{},
		ShippingAddress: cloneAddress(&cmd.ShippingAddress),
		BillingAddress:  cloneAddress(cmd.BillingAddress),
		Contact:         cmd.Contact,
		ShippingMethod:  method,
		CouponCode:      cloneStringPtr(cmd.CouponCode),
		History: []StatusHistoryEntry{{
			Status: domain.OrderStatusPending,
			At:     now,
			Actor:  &actor,
		}},
		CustomerNotes:     cloneStringPtr(cmd.CustomerNotes),
		EstimatedDelivery: &estimated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	deductions := stockAdjustments(order.Items)

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventory.Deduct(txCtx, deductions); err != nil {
			return err
		}
		if err := s.orders.Insert(txCtx, order); err != nil {
			if restockErr := s.inventory.Restock(txCtx, deductions); restockErr != nil {
				s.logger(txCtx, "order.create.restock.failed", map[string]any{
					"order": order.ID,
					"error": restockErr.Error(),
				})
			}
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   vendorIDs(order),
		Status:      order.Status,
		OccurredAt:  now,
	})

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	// Callers may address an order by its human-facing number as well as by id.
	var order Order
	var err error
	if strings.HasPrefix(orderID, orderNumberPrefix) {
		order, err = s.orders.FindByNumber(ctx, orderID)
	} else {
		order, err = s.orders.FindByID(ctx, orderID)
	}
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if opts.IncludePayment {
		if s.payments == nil {
			return Order{}, errOrderPaymentRepositoryUnavailable
		}
		payment, err := s.payments.FindByOrder(ctx, order.ID)
		switch {
		case err == nil:
			order.Payment = &payment
		case isNotFound(err):
			// Unpaid order, nothing to attach.
		default:
			return Order{}, s.mapRepositoryError(err)
		}
	}

	return order, nil
}

// RecordView bumps the view counter outside the read path; failures are logged
// and must never surface to the reader.
func (s *orderService) RecordView(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if err := s.orders.TrackView(ctx, orderID, s.now()); err != nil {
		s.logger(ctx, "order.view.track.failed", map[string]any{
			"order": orderID,
			"error": err.Error(),
		})
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if cmd.TargetStatus == "" {
		return Order{}, fmt.Errorf("%w: target status is required", ErrOrderInvalidInput)
	}
	if slices.Contains(restrictedTransitionTargets, cmd.TargetStatus) {
		return Order{}, fmt.Errorf("%w: status %q requires its dedicated operation", ErrOrderInvalidInput, cmd.TargetStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.now()
	prevStatus := order.Status
	actor := cmd.Actor

	if err := s.applyStatusTransition(&order, cmd.TargetStatus, &actor, cmd.Note, cmd.Location, now); err != nil {
		return Order{}, err
	}

	switch cmd.TargetStatus {
	case domain.OrderStatusShipped:
		stampVendorOrdersShipped(&order, cmd.Carrier, cmd.TrackingNumber, cmd.TrackingURL, now)
	case domain.OrderStatusDelivered:
		stampVendorOrdersDelivered(&order, now)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   vendorIDs(order),
		Status:      order.Status,
		OccurredAt:  now,
		Metadata: map[string]string{
			"previousStatus": string(prevStatus),
			"actor":          actor.ID,
		},
	})

	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if !slices.Contains(cancellableStatuses, order.Status) {
		return Order{}, fmt.Errorf("%w: order status %q", ErrOrderNotCancellable, order.Status)
	}

	now := s.now()
	prevStatus := order.Status
	reason := strings.TrimSpace(cmd.Reason)
	actor := cmd.Actor

	refunded, err := s.refundPayment(ctx, &order, order.Totals.Total, reason, cancelRefundKey(order.ID))
	if err != nil {
		return Order{}, err
	}

	order.CancelReason = optionalString(reason)
	order.CancelledAt = &now
	cancelVendorOrders(&order, now)

	if err := s.applyStatusTransition(&order, domain.OrderStatusCancelled, &actor, optionalString(reason), nil, now); err != nil {
		return Order{}, err
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if restockErr := s.inventory.Restock(ctx, stockAdjustments(order.Items)); restockErr != nil {
		s.logger(ctx, "order.cancel.restock.failed", map[string]any{
			"order": order.ID,
			"error": restockErr.Error(),
		})
	}

	metadata := map[string]string{
		"previousStatus": string(prevStatus),
		"actor":          actor.ID,
	}
	if reason != "" {
		metadata["reason"] = reason
	}
	if refunded > 0 {
		metadata["refunded"] = fmt.Sprintf("%d", refunded)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventCancelled,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   vendorIDs(order),
		Status:      order.Status,
		OccurredAt:  now,
		Metadata:    metadata,
	})

	return order, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.PaymentMethod) == "" {
		return Order{}, fmt.Errorf("%w: payment method is required", ErrOrderInvalidInput)
	}
	if s.gateway == nil {
		return Order{}, errOrderGatewayUnavailable
	}
	if s.payments == nil {
		return Order{}, errOrderPaymentRepositoryUnavailable
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusPaymentFailed {
		return Order{}, fmt.Errorf("%w: order status %q cannot confirm payment", ErrOrderInvalidState, order.Status)
	}

	now := s.now()
	actor := cmd.Actor

	tx, err := s.gateway.Authorize(ctx, payments.AuthorizeRequest{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		Amount:         order.Totals.Total,
		Currency:       order.Currency,
		PaymentMethod:  cmd.PaymentMethod,
		IdempotencyKey: strings.TrimSpace(cmd.IdempotencyKey),
		Metadata:       map[string]string{"orderNumber": order.OrderNumber},
	})
	if err != nil {
		if errors.Is(err, payments.ErrPaymentDeclined) {
			return Order{}, s.recordPaymentFailure(ctx, order, actor, err, now)
		}
		return Order{}, fmt.Errorf("order: authorize payment: %w", err)
	}

	payment := Payment{
		ID:            paymentIDPrefix + s.newID(),
		OrderID:       order.ID,
		Provider:      tx.Provider,
		TransactionID: tx.ID,
		Status:        domain.PaymentStatusCompleted,
		Amount:        tx.Amount,
		Currency:      order.Currency,
		Method:        tx.Method,
		CapturedAt:    tx.CapturedAt,
		UpdatedAt:     now,
	}

	if err := s.applyStatusTransition(&order, domain.OrderStatusPaymentConfirmed, &actor, nil, nil, now); err != nil {
		return Order{}, err
	}
	order.Payment = &payment

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.payments.Insert(txCtx, payment); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventPaymentConfirmed,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   vendorIDs(order),
		Status:      order.Status,
		OccurredAt:  now,
		Metadata:    map[string]string{"transactionId": tx.ID},
	})

	return order, nil
}

// recordPaymentFailure parks the order in payment_failed and surfaces the
// gateway reason. No payment record is written for a declined attempt.
func (s *orderService) recordPaymentFailure(ctx context.Context, order Order, actor Actor, declineErr error, now time.Time) error {
	if order.Status == domain.OrderStatusPending {
		note := declineErr.Error()
		if err := s.applyStatusTransition(&order, domain.OrderStatusPaymentFailed, &actor, &note, nil, now); err != nil {
			return err
		}
		if err := s.runInTx(ctx, func(txCtx context.Context) error {
			if err := s.orders.Update(txCtx, order); err != nil {
				return s.mapRepositoryError(err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventPaymentFailed,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		OccurredAt:  now,
		Metadata:    map[string]string{"reason": declineErr.Error()},
	})

	return fmt.Errorf("%w: %v", ErrOrderPaymentDeclined, declineErr)
}

func (s *orderService) MarkVendorShipped(ctx context.Context, cmd VendorShipmentCommand) (Order, error) {
	return s.updateVendorOrder(ctx, vendorOrderUpdate{
		orderID:        cmd.OrderID,
		vendorID:       cmd.VendorID,
		actor:          cmd.Actor,
		target:         domain.VendorOrderStatusShipped,
		carrier:        cmd.Carrier,
		trackingNumber: cmd.TrackingNumber,
		trackingURL:    cmd.TrackingURL,
		note:           cmd.Note,
		event:          orderEventVendorShipped,
	})
}

func (s *orderService) MarkVendorDelivered(ctx context.Context, cmd VendorDeliveryCommand) (Order, error) {
	return s.updateVendorOrder(ctx, vendorOrderUpdate{
		orderID:  cmd.OrderID,
		vendorID: cmd.VendorID,
		actor:    cmd.Actor,
		target:   domain.VendorOrderStatusDelivered,
		note:     cmd.Note,
		event:    orderEventVendorDelivered,
	})
}

type vendorOrderUpdate struct {
	orderID        string
	vendorID       string
	actor          Actor
	target         domain.VendorOrderStatus
	carrier        *string
	trackingNumber *string
	trackingURL    *string
	note           *string
	event          string
}

func (s *orderService) updateVendorOrder(ctx context.Context, upd vendorOrderUpdate) (Order, error) {
	orderID := strings.TrimSpace(upd.orderID)
	vendorID := strings.TrimSpace(upd.vendorID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if vendorID == "" {
		return Order{}, fmt.Errorf("%w: vendor id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	vendorOrder, ok := order.VendorOrders[vendorID]
	if !ok {
		return Order{}, fmt.Errorf("%w: vendor %s", ErrVendorOrderNotFound, vendorID)
	}
	if !canTransitionVendor(vendorOrder.Status, upd.target) {
		return Order{}, fmt.Errorf("%w: vendor order %s to %s", ErrOrderInvalidState, vendorOrder.Status, upd.target)
	}

	now := s.now()

	vendorOrder.Status = upd.target
	vendorOrder.UpdatedAt = now
	switch upd.target {
	case domain.VendorOrderStatusShipped:
		vendorOrder.ShippedAt = &now
		if upd.carrier != nil {
			vendorOrder.Carrier = cloneStringPtr(upd.carrier)
		}
		if upd.trackingNumber != nil {
			vendorOrder.TrackingNumber = cloneStringPtr(upd.trackingNumber)
		}
		if upd.trackingURL != nil {
			vendorOrder.TrackingURL = cloneStringPtr(upd.trackingURL)
		}
	case domain.VendorOrderStatusDelivered:
		vendorOrder.DeliveredAt = &now
	}
	if upd.note != nil {
		vendorOrder.VendorNotes = cloneStringPtr(upd.note)
	}

	order.VendorOrders[vendorID] = vendorOrder

	write := repositories.VendorShipmentUpdate{
		VendorOrder: vendorOrder,
		UpdatedAt:   now,
	}

	derived := deriveMainStatus(order.Status, order.VendorOrders)
	if derived != nil {
		if canTransition(order.Status, *derived) {
			write.MainStatus = derived
			write.HistoryEntry = &StatusHistoryEntry{
				Status: *derived,
				At:     now,
				Actor:  nil,
			}
			switch *derived {
			case domain.OrderStatusShipped:
				write.ShippedAt = &now
			case domain.OrderStatusDelivered:
				write.DeliveredAt = &now
			}
		} else {
			s.logger(ctx, "order.derive.rejected", map[string]any{
				"order":   order.ID,
				"current": string(order.Status),
				"derived": string(*derived),
			})
			derived = nil
		}
	}

	updated, err := s.orders.ApplyVendorShipment(ctx, order.ID, write)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        upd.event,
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		CustomerID:  updated.CustomerID,
		VendorIDs:   []string{vendorID},
		Status:      updated.Status,
		OccurredAt:  now,
		Metadata:    map[string]string{"vendorStatus": string(upd.target)},
	})
	if derived != nil {
		s.publishEvent(ctx, OrderEvent{
			Type:        orderEventStatusChanged,
			OrderID:     updated.ID,
			OrderNumber: updated.OrderNumber,
			CustomerID:  updated.CustomerID,
			VendorIDs:   vendorIDs(updated),
			Status:      updated.Status,
			OccurredAt:  now,
			Metadata:    map[string]string{"derived": "true"},
		})
	}

	return updated, nil
}

func (s *orderService) RequestReturn(ctx context.Context, cmd RequestReturnCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: at least one return item is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return Order{}, fmt.Errorf("%w: return reason is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.now()
	if err := s.checkReturnable(order, now); err != nil {
		return Order{}, err
	}

	items, vendorID, err := buildReturnItems(order, cmd.Items)
	if err != nil {
		return Order{}, err
	}

	var refundTotal int64
	for _, item := range items {
		refundTotal += item.UnitPrice * int64(item.Quantity)
	}

	ret := ReturnRequest{
		ID:          returnIDPrefix + s.newID(),
		VendorID:    vendorID,
		Status:      domain.ReturnStatusRequested,
		Items:       items,
		Reason:      strings.TrimSpace(cmd.Reason),
		RefundTotal: refundTotal,
		RequestedAt: now,
		UpdatedAt:   now,
	}

	if order.Returns == nil {
		order.Returns = map[string]ReturnRequest{}
	}
	order.Returns[ret.ID] = ret
	order.UpdatedAt = now

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventReturnRequested,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   []string{vendorID},
		Status:      order.Status,
		OccurredAt:  now,
		Metadata:    map[string]string{"returnId": ret.ID},
	})

	return order, nil
}

var returnStateTransitions = map[domain.ReturnStatus][]domain.ReturnStatus{
	domain.ReturnStatusRequested: {domain.ReturnStatusApproved, domain.ReturnStatusRejected},
	domain.ReturnStatusApproved:  {domain.ReturnStatusReceived},
	domain.ReturnStatusReceived:  {domain.ReturnStatusRefunded},
}

var returnActionTargets = map[ReturnAction]domain.ReturnStatus{
	ReturnActionApprove: domain.ReturnStatusApproved,
	ReturnActionReject:  domain.ReturnStatusRejected,
	ReturnActionReceive: domain.ReturnStatusReceived,
	ReturnActionRefund:  domain.ReturnStatusRefunded,
}

func (s *orderService) UpdateReturn(ctx context.Context, cmd UpdateReturnCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	returnID := strings.TrimSpace(cmd.ReturnID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if returnID == "" {
		return Order{}, fmt.Errorf("%w: return id is required", ErrOrderInvalidInput)
	}

	target, ok := returnActionTargets[cmd.Action]
	if !ok {
		return Order{}, fmt.Errorf("%w: unsupported return action %q", ErrOrderInvalidInput, cmd.Action)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	ret, ok := order.Returns[returnID]
	if !ok {
		return Order{}, fmt.Errorf("%w: return %s", ErrReturnNotFound, returnID)
	}

	if !slices.Contains(returnStateTransitions[ret.Status], target) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrReturnInvalidState, ret.Status, target)
	}

	now := s.now()

	switch cmd.Action {
	case ReturnActionReject:
		ret.Resolution = cloneStringPtr(cmd.Resolution)
	case ReturnActionReceive:
		if restockErr := s.inventory.Restock(ctx, returnStockAdjustments(order, ret)); restockErr != nil {
			return Order{}, restockErr
		}
	case ReturnActionRefund:
		refunded, refundErr := s.refundPayment(ctx, &order, ret.RefundTotal, ret.Reason, returnRefundKey(order.ID, ret.ID))
		if refundErr != nil {
			return Order{}, refundErr
		}
		ret.RefundedAt = &now
		s.applyRefundStatus(ctx, &order, now)
		if refunded < ret.RefundTotal {
			s.logger(ctx, "order.return.refund.capped", map[string]any{
				"order":     order.ID,
				"return":    ret.ID,
				"requested": ret.RefundTotal,
				"refunded":  refunded,
			})
		}
	}
	if cmd.Action != ReturnActionReject && cmd.Resolution != nil {
		ret.Resolution = cloneStringPtr(cmd.Resolution)
	}

	ret.Status = target
	ret.UpdatedAt = now
	order.Returns[ret.ID] = ret
	order.UpdatedAt = now

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventReturnUpdated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorIDs:   []string{ret.VendorID},
		Status:      order.Status,
		OccurredAt:  now,
		Metadata: map[string]string{
			"returnId":     ret.ID,
			"returnStatus": string(target),
			"action":       string(cmd.Action),
		},
	})

	return order, nil
}

// refundPayment issues a gateway refund against the order's captured payment,
// capped at the unrefunded remainder. Returns the amount actually refunded; a
// zero means there was nothing to refund (unpaid order or exhausted payment).
func (s *orderService) refundPayment(ctx context.Context, order *Order, amount int64, reason, idempotencyKey string) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}
	if s.payments == nil {
		return 0, nil
	}

	payment, err := s.payments.FindByOrder(ctx, order.ID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, s.mapRepositoryError(err)
	}

	remaining := payment.Amount - payment.Refunded
	if remaining <= 0 {
		return 0, nil
	}
	if amount > remaining {
		amount = remaining
	}

	if s.gateway == nil {
		return 0, errOrderGatewayUnavailable
	}

	refund, err := s.gateway.Refund(ctx, payments.RefundRequest{
		TransactionID:  payment.TransactionID,
		Amount:         &amount,
		Reason:         reason,
		IdempotencyKey: idempotencyKey,
		Metadata:       map[string]string{"orderId": order.ID},
	})
	if err != nil {
		return 0, fmt.Errorf("order: refund payment: %w", err)
	}

	now := s.now()
	payment.Refunded += refund.Amount
	if payment.Refunded >= payment.Amount {
		payment.Status = domain.PaymentStatusRefunded
	} else {
		payment.Status = domain.PaymentStatusPartiallyRefunded
	}
	payment.UpdatedAt = now
	if err := s.payments.Update(ctx, payment); err != nil {
		return 0, s.mapRepositoryError(err)
	}

	order.RefundedTotal += refund.Amount
	order.Payment = &payment

	return refund.Amount, nil
}

// applyRefundStatus advances the main status after a return refund when the
// transition table allows it; a rejected derivation is a logged no-op.
func (s *orderService) applyRefundStatus(ctx context.Context, order *Order, now time.Time) {
	target := domain.OrderStatusPartiallyRefunded
	if order.RefundedTotal >= order.Totals.Total {
		target = domain.OrderStatusRefunded
	}
	if order.Status == target {
		return
	}
	if !canTransition(order.Status, target) {
		s.logger(ctx, "order.refund.status.rejected", map[string]any{
			"order":   order.ID,
			"current": string(order.Status),
			"target":  string(target),
		})
		return
	}
	if err := s.applyStatusTransition(order, target, nil, nil, nil, now); err != nil {
		s.logger(ctx, "order.refund.status.rejected", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) checkReturnable(order Order, now time.Time) error {
	if !slices.Contains(returnableStatuses, order.Status) {
		return fmt.Errorf("%w: order status %q", ErrOrderNotReturnable, order.Status)
	}
	if order.DeliveredAt == nil {
		return fmt.Errorf("%w: order has no delivery timestamp", ErrOrderNotReturnable)
	}
	if now.Sub(*order.DeliveredAt) > s.returnWindow {
		return fmt.Errorf("%w: return window has closed", ErrOrderNotReturnable)
	}
	return nil
}

// applyStatusTransition validates the move against the transition table, sets
// the status, stamps lifecycle timestamps and appends the history entry. A nil
// actor records a system-driven transition.
func (s *orderService) applyStatusTransition(order *Order, target domain.OrderStatus, actor *Actor, note, location *string, now time.Time) error {
	if !canTransition(order.Status, target) {
		return fmt.Errorf("%w: %s to %s", ErrOrderInvalidState, order.Status, target)
	}

	order.Status = target
	order.UpdatedAt = now
	s.updateTimestamps(order, target, now)

	order.History = append(order.History, StatusHistoryEntry{
		Status:   target,
		At:       now,
		Actor:    cloneActor(actor),
		Note:     cloneStringPtr(note),
		Location: cloneStringPtr(location),
	})

	return nil
}

func (s *orderService) updateTimestamps(order *Order, status domain.OrderStatus, now time.Time) {
	switch status {
	case domain.OrderStatusPaymentConfirmed:
		order.PaidAt = &now
	case domain.OrderStatusShipped:
		order.ShippedAt = &now
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &now
	case domain.OrderStatusCompleted:
		order.CompletedAt = &now
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderCounterID, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d-%06d", orderNumberPrefix, now.Year(), seq), nil
}

func (s *orderService) buildLineItems(ctx context.Context, requested []OrderItemInput) ([]OrderLineItem, error) {
	items := make([]OrderLineItem, 0, len(requested))
	for _, input := range requested {
		product, err := s.products.FindByID(ctx, input.ProductID)
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: product %s", ErrInventoryProductNotFound, input.ProductID)
			}
			return nil, s.mapRepositoryError(err)
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: product %s", ErrInventoryProductUnavailable, product.ID)
		}
		if product.Stock < input.Quantity {
			return nil, fmt.Errorf("%w: product %s has %d in stock", ErrInventoryInsufficientStock, product.ID, product.Stock)
		}

		items = append(items, OrderLineItem{
			ID:          lineItemIDPrefix + s.newID(),
			ProductID:   product.ID,
			VendorID:    product.VendorID,
			StoreID:     product.StoreID,
			SKU:         product.SKU,
			Name:        product.Name,
			ImageURL:    cloneStringPtr(product.ImageURL),
			Quantity:    input.Quantity,
			UnitPrice:   product.Price,
			Total:       product.Price * int64(input.Quantity),
			WeightGrams: product.WeightGrams,
		})
	}
	return items, nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": string(event.Status),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func mergeItemInputs(items []OrderItemInput) ([]OrderItemInput, error) {
	merged := make([]OrderItemInput, 0, len(items))
	index := map[string]int{}
	for _, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return nil, fmt.Errorf("%w: product id is required", ErrOrderInvalidInput)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrOrderInvalidInput)
		}
		if pos, ok := index[productID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[productID] = len(merged)
		merged = append(merged, OrderItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	return merged, nil
}

func validateAddress(addr Address) error {
	switch {
	case strings.TrimSpace(addr.Recipient) == "":
		return fmt.Errorf("%w: shipping recipient is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.Line1) == "":
		return fmt.Errorf("%w: shipping address line is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.City) == "":
		return fmt.Errorf("%w: shipping city is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.PostalCode) == "":
		return fmt.Errorf("%w: shipping postal code is required", ErrOrderInvalidInput)
	case strings.TrimSpace(addr.Country) == "":
		return fmt.Errorf("%w: shipping country is required", ErrOrderInvalidInput)
	}
	return nil
}

func buildVendorOrders(items []OrderLineItem, now time.Time) map[string]VendorOrder {
	vendorOrders := map[string]VendorOrder{}
	for _, item := range items {
		vo, ok := vendorOrders[item.VendorID]
		if !ok {
			vo = VendorOrder{
				VendorID:  item.VendorID,
				StoreID:   item.StoreID,
				Status:    domain.VendorOrderStatusPending,
				UpdatedAt: now,
			}
		}
		vo.ItemIDs = append(vo.ItemIDs, item.ID)
		vo.Subtotal += item.Total
		vendorOrders[item.VendorID] = vo
	}
	return vendorOrders
}

func pricingLines(items []OrderLineItem) []PricingLine {
	lines := make([]PricingLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, PricingLine{
			VendorID:    item.VendorID,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			WeightGrams: item.WeightGrams,
		})
	}
	return lines
}

func stockAdjustments(items []OrderLineItem) []StockAdjustment {
	adjustments := make([]StockAdjustment, 0, len(items))
	for _, item := range items {
		adjustments = append(adjustments, StockAdjustment{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return adjustments
}

func returnStockAdjustments(order Order, ret ReturnRequest) []StockAdjustment {
	byLineID := map[string]OrderLineItem{}
	for _, item := range order.Items {
		byLineID[item.ID] = item
	}
	adjustments := make([]StockAdjustment, 0, len(ret.Items))
	for _, item := range ret.Items {
		line, ok := byLineID[item.LineItemID]
		if !ok {
			continue
		}
		adjustments = append(adjustments, StockAdjustment{
			ProductID: line.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return adjustments
}

// buildReturnItems validates quantities against the ordered lines minus any
// quantity already claimed by open or settled returns, and requires every
// requested line to belong to a single vendor.
func buildReturnItems(order Order, inputs []ReturnItemInput) ([]ReturnItem, string, error) {
	byLineID := map[string]OrderLineItem{}
	for _, item := range order.Items {
		byLineID[item.ID] = item
	}

	claimed := map[string]int{}
	for _, existing := range order.Returns {
		if existing.Status == domain.ReturnStatusRejected {
			continue
		}
		for _, item := range existing.Items {
			claimed[item.LineItemID] += item.Quantity
		}
	}

	var vendorID string
	items := make([]ReturnItem, 0, len(inputs))
	for _, input := range inputs {
		lineID := strings.TrimSpace(input.LineItemID)
		line, ok := byLineID[lineID]
		if !ok {
			return nil, "", fmt.Errorf("%w: unknown line item %s", ErrOrderInvalidInput, lineID)
		}
		if input.Quantity <= 0 {
			return nil, "", fmt.Errorf("%w: quantity must be positive", ErrReturnInvalidQuantity)
		}
		if input.Quantity+claimed[lineID] > line.Quantity {
			return nil, "", fmt.Errorf("%w: line %s has %d returnable", ErrReturnInvalidQuantity, lineID, line.Quantity-claimed[lineID])
		}
		if vendorID == "" {
			vendorID = line.VendorID
		} else if vendorID != line.VendorID {
			return nil, "", fmt.Errorf("%w: return items must belong to a single vendor", ErrOrderInvalidInput)
		}
		items = append(items, ReturnItem{
			LineItemID: lineID,
			Quantity:   input.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}

	return items, vendorID, nil
}

// deriveMainStatus decides whether vendor progress should auto-advance the
// main order. Cancelled sub-orders are ignored; the caller still validates
// the result against the transition table.
func deriveMainStatus(current domain.OrderStatus, vendorOrders map[string]VendorOrder) *domain.OrderStatus {
	var active, delivered, shippedOrBeyond int
	for _, vo := range vendorOrders {
		if vo.Status == domain.VendorOrderStatusCancelled {
			continue
		}
		active++
		switch vo.Status {
		case domain.VendorOrderStatusDelivered:
			delivered++
			shippedOrBeyond++
		case domain.VendorOrderStatusShipped:
			shippedOrBeyond++
		}
	}
	if active == 0 {
		return nil
	}
	if delivered == active {
		status := domain.OrderStatusDelivered
		return &status
	}
	if shippedOrBeyond == active && (current == domain.OrderStatusReady || current == domain.OrderStatusProcessing) {
		status := domain.OrderStatusShipped
		return &status
	}
	return nil
}

func stampVendorOrdersShipped(order *Order, carrier, trackingNumber, trackingURL *string, now time.Time) {
	for vendorID, vo := range order.VendorOrders {
		switch vo.Status {
		case domain.VendorOrderStatusShipped, domain.VendorOrderStatusDelivered, domain.VendorOrderStatusCancelled:
			continue
		}
		vo.Status = domain.VendorOrderStatusShipped
		vo.ShippedAt = &now
		vo.UpdatedAt = now
		if carrier != nil {
			vo.Carrier = cloneStringPtr(carrier)
		}
		if trackingNumber != nil {
			vo.TrackingNumber = cloneStringPtr(trackingNumber)
		}
		if trackingURL != nil {
			vo.TrackingURL = cloneStringPtr(trackingURL)
		}
		order.VendorOrders[vendorID] = vo
	}
}

func stampVendorOrdersDelivered(order *Order, now time.Time) {
	for vendorID, vo := range order.VendorOrders {
		if vo.Status == domain.VendorOrderStatusCancelled || vo.Status == domain.VendorOrderStatusDelivered {
			continue
		}
		vo.Status = domain.VendorOrderStatusDelivered
		vo.DeliveredAt = &now
		if vo.ShippedAt == nil {
			vo.ShippedAt = &now
		}
		vo.UpdatedAt = now
		order.VendorOrders[vendorID] = vo
	}
}

func cancelVendorOrders(order *Order, now time.Time) {
	for vendorID, vo := range order.VendorOrders {
		if vo.Status == domain.VendorOrderStatusDelivered || vo.Status == domain.VendorOrderStatusCancelled {
			continue
		}
		vo.Status = domain.VendorOrderStatusCancelled
		vo.UpdatedAt = now
		order.VendorOrders[vendorID] = vo
	}
}

func vendorIDs(order Order) []string {
	ids := make([]string, 0, len(order.VendorOrders))
	for vendorID := range order.VendorOrders {
		ids = append(ids, vendorID)
	}
	sort.Strings(ids)
	return ids
}

func cancelRefundKey(orderID string) string {
	return "refund-cancel-" + orderID
}

func returnRefundKey(orderID, returnID string) string {
	return "refund-return-" + orderID + "-" + returnID
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func cloneActor(actor *Actor) *Actor {
	if actor == nil {
		return nil
	}
	cloned := *actor
	return &cloned
}

func cloneAddress(addr *Address) *Address {
	if addr == nil {
		return nil
	}
	cloned := *addr
	return &cloned
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	ref := *value
	return &ref
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	ref := v
	return &ref
}

func canTransition(current, target domain.OrderStatus) bool {
	next, ok := orderStateTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

var vendorOrderTransitions = map[domain.VendorOrderStatus][]domain.VendorOrderStatus{
	domain.VendorOrderStatusPending:    {domain.VendorOrderStatusProcessing, domain.VendorOrderStatusReady, domain.VendorOrderStatusShipped, domain.VendorOrderStatusCancelled},
	domain.VendorOrderStatusProcessing: {domain.VendorOrderStatusReady, domain.VendorOrderStatusShipped, domain.VendorOrderStatusCancelled},
	domain.VendorOrderStatusReady:      {domain.VendorOrderStatusShipped, domain.VendorOrderStatusCancelled},
	domain.VendorOrderStatusShipped:    {domain.VendorOrderStatusDelivered},
}

func canTransitionVendor(current, target domain.VendorOrderStatus) bool {
	next, ok := vendorOrderTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

package services

import (
	"context"
	"time"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	SortOrder          = domain.SortOrder
	Address            = domain.Address
	Actor              = domain.Actor
	Order              = domain.Order
	OrderStatus        = domain.OrderStatus
	OrderTotals        = domain.OrderTotals
	OrderLineItem      = domain.OrderLineItem
	OrderContact       = domain.OrderContact
	OrderEvent         = domain.OrderEvent
	StatusHistoryEntry = domain.StatusHistoryEntry
	VendorOrder        = domain.VendorOrder
	VendorOrderStatus  = domain.VendorOrderStatus
	ReturnRequest      = domain.ReturnRequest
	ReturnStatus       = domain.ReturnStatus
	ReturnItem         = domain.ReturnItem
	Payment            = domain.Payment
	PaymentStatus      = domain.PaymentStatus
	Product            = domain.Product
	ShippingMethod     = domain.ShippingMethod
)

// OrderService orchestrates the order lifecycle: creation, status transitions,
// payment confirmation, vendor fulfilment, cancellation and returns.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error)
	RecordView(ctx context.Context, orderID string) error
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error)
	MarkVendorShipped(ctx context.Context, cmd VendorShipmentCommand) (Order, error)
	MarkVendorDelivered(ctx context.Context, cmd VendorDeliveryCommand) (Order, error)
	RequestReturn(ctx context.Context, cmd RequestReturnCommand) (Order, error)
	UpdateReturn(ctx context.Context, cmd UpdateReturnCommand) (Order, error)
}

// PricingService computes order totals and the estimated delivery date from a
// snapshot of line items and the selected shipping method.
type PricingService interface {
	Quote(ctx context.Context, cmd PricingCommand) (PricingQuote, error)
}

// InventoryService applies signed stock movements against the product catalog.
type InventoryService interface {
	Deduct(ctx context.Context, adjustments []StockAdjustment) error
	Restock(ctx context.Context, adjustments []StockAdjustment) error
}

// CouponValidator resolves a coupon code into a discount amount in minor units.
// Implementations return 0 for unknown or expired codes rather than an error.
type CouponValidator interface {
	Discount(ctx context.Context, code string, customerID string, subtotal int64) (int64, error)
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderListFilter narrows order listings per caller role.
type OrderListFilter = repositories.OrderListFilter

// OrderReadOptions control optional hydration on order reads.
type OrderReadOptions struct {
	IncludePayment bool
}

// OrderItemInput is one requested purchase line on order creation.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderCommand struct {
	CustomerID      string
	Items           []OrderItemInput
	ShippingMethod  ShippingMethod
	ShippingAddress Address
	BillingAddress  *Address
	Contact         OrderContact
	Currency        string
	CouponCode      *string
	CustomerNotes   *string
}

type OrderStatusTransitionCommand struct {
	OrderID        string
	TargetStatus   OrderStatus
	Actor          Actor
	Note           *string
	Location       *string
	Carrier        *string
	TrackingNumber *string
	TrackingURL    *string
}

type CancelOrderCommand struct {
	OrderID string
	Actor   Actor
	Reason  string
}

type ConfirmPaymentCommand struct {
	OrderID        string
	Actor          Actor
	PaymentMethod  string
	IdempotencyKey string
}

type VendorShipmentCommand struct {
	OrderID        string
	VendorID       string
	Actor          Actor
	Carrier        *string
	TrackingNumber *string
	TrackingURL    *string
	Note           *string
}

type VendorDeliveryCommand struct {
	OrderID  string
	VendorID string
	Actor    Actor
	Note     *string
}

// ReturnItemInput is one requested return line, bounded by the ordered quantity.
type ReturnItemInput struct {
	LineItemID string
	Quantity   int
}

type RequestReturnCommand struct {
	OrderID string
	Actor   Actor
	Items   []ReturnItemInput
	Reason  string
}

// ReturnAction enumerates vendor/admin actions on a return request.
type ReturnAction string

const (
	ReturnActionApprove ReturnAction = "approve"
	ReturnActionReject  ReturnAction = "reject"
	ReturnActionReceive ReturnAction = "receive"
	ReturnActionRefund  ReturnAction = "refund"
)

type UpdateReturnCommand struct {
	OrderID    string
	ReturnID   string
	Action     ReturnAction
	Actor      Actor
	Resolution *string
}

// PricingLine is the pricing-relevant slice of one order line.
type PricingLine struct {
	VendorID    string
	UnitPrice   int64
	Quantity    int
	WeightGrams int
}

type PricingCommand struct {
	Items          []PricingLine
	ShippingMethod ShippingMethod
	CouponCode     *string
	CustomerID     string
}

// PricingQuote is the computed totals snapshot plus the delivery estimate.
type PricingQuote struct {
	Totals            OrderTotals
	EstimatedDelivery time.Time
}

// StockAdjustment is one absolute-quantity stock movement for a product.
type StockAdjustment struct {
	ProductID string
	Quantity  int
}

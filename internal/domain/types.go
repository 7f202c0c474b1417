package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage wraps a page of results together with the next page token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Address stores a postal address snapshot.
type Address struct {
	Recipient  string
	Line1      string
	Line2      *string
	City       string
	State      *string
	PostalCode string
	Country    string
	Phone      *string
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was created and awaits payment.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaymentConfirmed indicates payment was authorised successfully.
	OrderStatusPaymentConfirmed OrderStatus = "payment_confirmed"
	// OrderStatusPaymentFailed indicates the last payment attempt was declined.
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	// OrderStatusProcessing indicates vendors are preparing the order.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusReady indicates all items are packed and awaiting carrier pickup.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusShipped indicates every shipment has left its vendor.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusOutForDelivery indicates the final carrier leg is in progress.
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	// OrderStatusDelivered indicates every shipment reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCompleted indicates the order closed normally after delivery.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was cancelled before delivery.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the full captured amount was returned.
	OrderStatusRefunded OrderStatus = "refunded"
	// OrderStatusPartiallyRefunded indicates part of the captured amount was returned.
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// VendorOrderStatus enumerates states of a single vendor's portion of an order.
type VendorOrderStatus string

const (
	// VendorOrderStatusPending indicates the vendor has not started fulfilment.
	VendorOrderStatusPending VendorOrderStatus = "pending"
	// VendorOrderStatusProcessing indicates the vendor is preparing their items.
	VendorOrderStatusProcessing VendorOrderStatus = "processing"
	// VendorOrderStatusReady indicates the vendor's items are packed.
	VendorOrderStatusReady VendorOrderStatus = "ready"
	// VendorOrderStatusShipped indicates the vendor handed their parcel to a carrier.
	VendorOrderStatusShipped VendorOrderStatus = "shipped"
	// VendorOrderStatusDelivered indicates the vendor's parcel reached the customer.
	VendorOrderStatusDelivered VendorOrderStatus = "delivered"
	// VendorOrderStatusCancelled indicates the vendor's portion was cancelled.
	VendorOrderStatusCancelled VendorOrderStatus = "cancelled"
)

// ReturnStatus enumerates states of a return request.
type ReturnStatus string

const (
	// ReturnStatusRequested indicates the customer filed the return.
	ReturnStatusRequested ReturnStatus = "requested"
	// ReturnStatusApproved indicates the vendor accepted the return.
	ReturnStatusApproved ReturnStatus = "approved"
	// ReturnStatusRejected indicates the vendor declined the return.
	ReturnStatusRejected ReturnStatus = "rejected"
	// ReturnStatusReceived indicates the returned goods arrived back at the vendor.
	ReturnStatusReceived ReturnStatus = "received"
	// ReturnStatusRefunded indicates the return was refunded to the customer.
	ReturnStatusRefunded ReturnStatus = "refunded"
)

// PaymentStatus enumerates states of a captured payment record.
type PaymentStatus string

const (
	// PaymentStatusCompleted indicates the charge was captured in full.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusRefunded indicates the full amount was refunded.
	PaymentStatusRefunded PaymentStatus = "refunded"
	// PaymentStatusPartiallyRefunded indicates part of the amount was refunded.
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// ShippingMethod enumerates supported delivery speeds.
type ShippingMethod string

const (
	// ShippingStandard is the default ground shipping tier.
	ShippingStandard ShippingMethod = "standard"
	// ShippingExpress is the expedited shipping tier.
	ShippingExpress ShippingMethod = "express"
)

// Actor identifies who performed a lifecycle action. A nil actor on a history
// entry denotes the system itself (derived transitions, scheduled jobs).
type Actor struct {
	ID   string
	Role string
}

// Order is the root aggregate for a marketplace purchase spanning one or more vendors.
type Order struct {
	ID                string
	OrderNumber       string
	CustomerID        string
	Status            OrderStatus
	Currency          string
	Totals            OrderTotals
	Items             []OrderLineItem
	VendorOrders      map[string]VendorOrder
	Returns           map[string]ReturnRequest
	ShippingAddress   *Address
	BillingAddress    *Address
	Contact           OrderContact
	ShippingMethod    ShippingMethod
	CouponCode        *string
	History           []StatusHistoryEntry
	CustomerNotes     *string
	InternalNotes     *string
	EstimatedDelivery *time.Time
	Payment           *Payment
	RefundedTotal     int64
	ViewCount         int64
	LastViewedAt      *time.Time
	IsDeleted         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      *string
}

// OrderTotals holds rolled-up monetary fields in the smallest currency unit.
type OrderTotals struct {
	Subtotal int64
	Discount int64
	Shipping int64
	Tax      int64
	Total    int64
}

// OrderLineItem snapshots a purchased product at order creation time. Pricing
// fields never change after creation, regardless of later catalog edits.
type OrderLineItem struct {
	ID          string
	ProductID   string
	VendorID    string
	StoreID     string
	SKU         string
	Name        string
	ImageURL    *string
	Quantity    int
	UnitPrice   int64
	Total       int64
	WeightGrams int
}

// OrderContact stores the customer contact snapshot for notifications.
type OrderContact struct {
	Name  string
	Email string
	Phone *string
}

// StatusHistoryEntry records one transition in the order's append-only history.
type StatusHistoryEntry struct {
	Status   OrderStatus
	At       time.Time
	Actor    *Actor
	Note     *string
	Location *string
}

// VendorOrder is one vendor's slice of an order, keyed by vendor id on the aggregate.
type VendorOrder struct {
	VendorID       string
	StoreID        string
	Status         VendorOrderStatus
	ItemIDs        []string
	Subtotal       int64
	Carrier        *string
	TrackingNumber *string
	TrackingURL    *string
	VendorNotes    *string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	UpdatedAt      time.Time
}

// ReturnRequest tracks a customer-initiated return, keyed by return id on the aggregate.
type ReturnRequest struct {
	ID          string
	VendorID    string
	Status      ReturnStatus
	Items       []ReturnItem
	Reason      string
	Resolution  *string
	RefundTotal int64
	RequestedAt time.Time
	UpdatedAt   time.Time
	RefundedAt  *time.Time
}

// ReturnItem references an ordered line and the quantity coming back.
type ReturnItem struct {
	LineItemID string
	Quantity   int
	UnitPrice  int64
}

// Payment records the captured charge attached to an order.
type Payment struct {
	ID            string
	OrderID       string
	Provider      string
	TransactionID string
	Status        PaymentStatus
	Amount        int64
	Refunded      int64
	Currency      string
	Method        string
	CapturedAt    time.Time
	UpdatedAt     time.Time
}

// Product is the catalog document inventory adjustments run against.
type Product struct {
	ID          string
	VendorID    string
	StoreID     string
	SKU         string
	Name        string
	ImageURL    *string
	Price       int64
	Currency    string
	Stock       int
	WeightGrams int
	Active      bool
	UpdatedAt   time.Time
}

// OrderEvent is the notification payload published after lifecycle changes.
type OrderEvent struct {
	Type        string
	OrderID     string
	OrderNumber string
	CustomerID  string
	VendorIDs   []string
	Status      OrderStatus
	OccurredAt  time.Time
	Metadata    map[string]string
}

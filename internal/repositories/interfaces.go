package repositories

import (
	"context"
	"time"

	domain "github.com/vendorhub/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Products() ProductRepository
	Payments() PaymentRepository
	Counters() CounterRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order aggregates and provides query helpers for customers, vendors and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	// ApplyVendorShipment writes a single vendor sub-order entry and the
	// derived main-status fields without rewriting the rest of the aggregate.
	ApplyVendorShipment(ctx context.Context, orderID string, update VendorShipmentUpdate) (domain.Order, error)
	// TrackView bumps the view counter and last-viewed timestamp. It must not
	// touch any other field and must never fail a read path.
	TrackView(ctx context.Context, orderID string, viewedAt time.Time) error
}

// VendorShipmentUpdate carries the field-level write for one vendor sub-order
// plus the optional main-status derivation decided by the service layer.
type VendorShipmentUpdate struct {
	VendorOrder  domain.VendorOrder
	MainStatus   *domain.OrderStatus
	HistoryEntry *domain.StatusHistoryEntry
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	UpdatedAt    time.Time
}

// ProductRepository reads catalog documents and applies stock movements.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	// AdjustStock applies signed quantity deltas inside one transaction.
	// A decrement that would take any product below zero fails the whole
	// batch with an InventoryError carrying InventoryErrorInsufficientStock.
	AdjustStock(ctx context.Context, deltas []StockDelta) error
}

// StockDelta is one signed stock movement for a product.
type StockDelta struct {
	ProductID string
	Delta     int
}

// PaymentRepository stores captured payment records.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) error
	Update(ctx context.Context, payment domain.Payment) error
	FindByOrder(ctx context.Context, orderID string) (domain.Payment, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// OrderListFilter narrows order listings per caller role.
type OrderListFilter struct {
	CustomerID string
	VendorID   string
	Status     []string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

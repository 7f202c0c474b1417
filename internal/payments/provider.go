package payments

import (
	"context"
	"errors"
	"time"
)

// ErrPaymentDeclined is returned when the gateway rejects the charge. The
// wrapped message carries the gateway's decline reason.
var ErrPaymentDeclined = errors.New("payments: declined")

// AuthorizeRequest captures the payload required to charge an order total.
type AuthorizeRequest struct {
	OrderID        string
	CustomerID     string
	Amount         int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
	Metadata       map[string]string
}

// Transaction is the gateway's record of a captured charge.
type Transaction struct {
	ID         string
	Provider   string
	Method     string
	Amount     int64
	Currency   string
	CapturedAt time.Time
}

// RefundRequest defines a gateway refund attempt. A nil Amount refunds the
// full captured charge.
type RefundRequest struct {
	TransactionID  string
	Amount         *int64
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string
}

// Refund is the gateway's record of a returned amount.
type Refund struct {
	ID            string
	TransactionID string
	Amount        int64
	CreatedAt     time.Time
}

// Provider is the narrow gateway surface the order lifecycle depends on.
// Implementations hold their own clients; nothing here is package-global.
type Provider interface {
	Name() string
	Authorize(ctx context.Context, req AuthorizeRequest) (Transaction, error)
	Refund(ctx context.Context, req RefundRequest) (Refund, error)
}

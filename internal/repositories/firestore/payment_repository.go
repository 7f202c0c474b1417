package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/vendorhub/api/internal/domain"
	pfirestore "github.com/vendorhub/api/internal/platform/firestore"
)

const paymentsCollection = "payments"

type paymentDocument struct {
	OrderID       string    `firestore:"orderId"`
	Provider      string    `firestore:"provider"`
	TransactionID string    `firestore:"transactionId"`
	Status        string    `firestore:"status"`
	Amount        int64     `firestore:"amount"`
	Refunded      int64     `firestore:"refunded"`
	Currency      string    `firestore:"currency"`
	Method        string    `firestore:"method"`
	CapturedAt    time.Time `firestore:"capturedAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

// PaymentRepository stores captured payment records keyed by payment id.
type PaymentRepository struct {
	base *pfirestore.BaseRepository[paymentDocument]
}

// NewPaymentRepository constructs a Firestore-backed payment repository.
func NewPaymentRepository(provider *pfirestore.Provider) (*PaymentRepository, error) {
	if provider == nil {
		return nil, errors.New("payment repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[paymentDocument](provider, paymentsCollection, nil, nil)
	return &PaymentRepository{base: base}, nil
}

// Insert stores a new payment record.
func (r *PaymentRepository) Insert(ctx context.Context, payment domain.Payment) error {
	if r == nil || r.base == nil {
		return errors.New("payment repository not initialised")
	}
	paymentID := strings.TrimSpace(payment.ID)
	if paymentID == "" {
		return errors.New("payment repository: payment id is required")
	}
	ref, err := r.base.DocumentRef(ctx, paymentID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodePaymentDocument(payment)); err != nil {
		return pfirestore.WrapError("payments.insert", err)
	}
	return nil
}

// Update replaces the persisted payment record.
func (r *PaymentRepository) Update(ctx context.Context, payment domain.Payment) error {
	if r == nil || r.base == nil {
		return errors.New("payment repository not initialised")
	}
	paymentID := strings.TrimSpace(payment.ID)
	if paymentID == "" {
		return errors.New("payment repository: payment id is required")
	}
	if _, err := r.base.Set(ctx, paymentID, encodePaymentDocument(payment)); err != nil {
		return err
	}
	return nil
}

// FindByOrder returns the payment record attached to the given order.
func (r *PaymentRepository) FindByOrder(ctx context.Context, orderID string) (domain.Payment, error) {
	if r == nil || r.base == nil {
		return domain.Payment{}, errors.New("payment repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Payment{}, errors.New("payment repository: order id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).Limit(1)
	})
	if err != nil {
		return domain.Payment{}, err
	}
	if len(docs) == 0 {
		return domain.Payment{}, pfirestore.NotFoundError("payments.find_by_order", fmt.Errorf("payment for order %s not found", orderID))
	}
	return decodePaymentDocument(docs[0].ID, docs[0].Data), nil
}

func encodePaymentDocument(payment domain.Payment) paymentDocument {
	return paymentDocument{
		OrderID:       strings.TrimSpace(payment.OrderID),
		Provider:      payment.Provider,
		TransactionID: payment.TransactionID,
		Status:        string(payment.Status),
		Amount:        payment.Amount,
		Refunded:      payment.Refunded,
		Currency:      payment.Currency,
		Method:        payment.Method,
		CapturedAt:    payment.CapturedAt.UTC(),
		UpdatedAt:     payment.UpdatedAt.UTC(),
	}
}

func decodePaymentDocument(id string, doc paymentDocument) domain.Payment {
	return domain.Payment{
		ID:            id,
		OrderID:       doc.OrderID,
		Provider:      doc.Provider,
		TransactionID: doc.TransactionID,
		Status:        domain.PaymentStatus(doc.Status),
		Amount:        doc.Amount,
		Refunded:      doc.Refunded,
		Currency:      doc.Currency,
		Method:        doc.Method,
		CapturedAt:    doc.CapturedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

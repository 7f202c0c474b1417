package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/vendorhub/api/internal/domain"
	pfirestore "github.com/vendorhub/api/internal/platform/firestore"
	"github.com/vendorhub/api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	VendorID    string    `firestore:"vendorId"`
	StoreID     string    `firestore:"storeId"`
	SKU         string    `firestore:"sku"`
	Name        string    `firestore:"name"`
	ImageURL    *string   `firestore:"imageUrl,omitempty"`
	Price       int64     `firestore:"price"`
	Currency    string    `firestore:"currency"`
	Stock       int       `firestore:"stock"`
	WeightGrams int       `firestore:"weightGrams"`
	Active      bool      `firestore:"active"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// ProductRepository reads catalog documents and applies stock movements.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{provider: provider, base: base}, nil
}

// FindByID fetches a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProductDocument(productID, doc.Data), nil
}

// AdjustStock applies all deltas inside one transaction. A decrement that
// would take any product below zero aborts the whole batch, so two competing
// orders can never both claim the last unit.
func (r *ProductRepository) AdjustStock(ctx context.Context, deltas []repositories.StockDelta) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	if len(deltas) == 0 {
		return nil
	}

	now := time.Now().UTC()
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		type pendingWrite struct {
			ref *firestore.DocumentRef
			doc productDocument
		}
		writes := make([]pendingWrite, 0, len(deltas))

		// All reads must precede all writes inside a Firestore transaction.
		for _, delta := range deltas {
			productID := strings.TrimSpace(delta.ProductID)
			if productID == "" {
				return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound, "product id is required", nil)
			}
			ref, err := r.base.DocumentRef(ctx, productID)
			if err != nil {
				return err
			}
			snap, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound, fmt.Sprintf("product %s not found", productID), err)
				}
				return err
			}
			var doc productDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode product %s: %w", productID, err)
			}
			if delta.Delta < 0 && !doc.Active {
				return repositories.NewInventoryError(repositories.InventoryErrorProductInactive, fmt.Sprintf("product %s is not available", productID), nil)
			}
			next := doc.Stock + delta.Delta
			if next < 0 {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, fmt.Sprintf("insufficient stock for product %s", productID), nil)
			}
			doc.Stock = next
			doc.UpdatedAt = now
			writes = append(writes, pendingWrite{ref: ref, doc: doc})
		}

		for _, write := range writes {
			if err := tx.Set(write.ref, write.doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var invErr *repositories.InventoryError
		if errors.As(err, &invErr) {
			return invErr
		}
		return pfirestore.WrapError("products.adjust_stock", err)
	}
	return nil
}

func decodeProductDocument(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:          id,
		VendorID:    doc.VendorID,
		StoreID:     doc.StoreID,
		SKU:         doc.SKU,
		Name:        doc.Name,
		ImageURL:    cloneStringPointer(doc.ImageURL),
		Price:       doc.Price,
		Currency:    doc.Currency,
		Stock:       doc.Stock,
		WeightGrams: doc.WeightGrams,
		Active:      doc.Active,
		UpdatedAt:   doc.UpdatedAt,
	}
}

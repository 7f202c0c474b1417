package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/repositories"
)

type stubProductRepo struct {
	findFn   func(context.Context, string) (domain.Product, error)
	adjustFn func(context.Context, []repositories.StockDelta) error
}

func (s *stubProductRepo) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findFn != nil {
		return s.findFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) AdjustStock(ctx context.Context, deltas []repositories.StockDelta) error {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, deltas)
	}
	return nil
}

func TestInventoryServiceDeductNegatesQuantities(t *testing.T) {
	ctx := context.Background()
	var applied []repositories.StockDelta
	products := &stubProductRepo{
		adjustFn: func(_ context.Context, deltas []repositories.StockDelta) error {
			applied = deltas
			return nil
		},
	}

	svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}

	if err := svc.Deduct(ctx, []StockAdjustment{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", Quantity: 5},
	}); err != nil {
		t.Fatalf("deduct: %v", err)
	}

	if len(applied) != 2 {
		t.Fatalf("expected 2 deltas got %d", len(applied))
	}
	if applied[0].Delta != -2 || applied[1].Delta != -5 {
		t.Fatalf("expected negative deltas got %+v", applied)
	}
}

func TestInventoryServiceRestockUsesPositiveDeltas(t *testing.T) {
	ctx := context.Background()
	var applied []repositories.StockDelta
	products := &stubProductRepo{
		adjustFn: func(_ context.Context, deltas []repositories.StockDelta) error {
			applied = deltas
			return nil
		},
	}

	svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}

	if err := svc.Restock(ctx, []StockAdjustment{{ProductID: "prod-1", Quantity: 3}}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if len(applied) != 1 || applied[0].Delta != 3 {
		t.Fatalf("expected +3 delta got %+v", applied)
	}
}

func TestInventoryServiceMapsRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		code repositories.InventoryErrorCode
		want error
	}{
		{name: "insufficient stock", code: repositories.InventoryErrorInsufficientStock, want: ErrInventoryInsufficientStock},
		{name: "product missing", code: repositories.InventoryErrorProductNotFound, want: ErrInventoryProductNotFound},
		{name: "product inactive", code: repositories.InventoryErrorProductInactive, want: ErrInventoryProductUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			products := &stubProductRepo{
				adjustFn: func(context.Context, []repositories.StockDelta) error {
					return repositories.NewInventoryError(tc.code, "", nil)
				},
			}
			svc, err := NewInventoryService(InventoryServiceDeps{Products: products})
			if err != nil {
				t.Fatalf("new inventory service: %v", err)
			}
			if err := svc.Deduct(ctx, []StockAdjustment{{ProductID: "prod-1", Quantity: 1}}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
		})
	}
}

func TestInventoryServiceRejectsInvalidAdjustments(t *testing.T) {
	ctx := context.Background()
	svc, err := NewInventoryService(InventoryServiceDeps{Products: &stubProductRepo{}})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}

	if err := svc.Deduct(ctx, nil); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for empty adjustments, got %v", err)
	}
	if err := svc.Restock(ctx, []StockAdjustment{{ProductID: "", Quantity: 1}}); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for missing product id, got %v", err)
	}
	if err := svc.Deduct(ctx, []StockAdjustment{{ProductID: "prod-1", Quantity: 0}}); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for zero quantity, got %v", err)
	}
}

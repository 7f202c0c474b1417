package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vendorhub/api/internal/repositories"
)

var (
	// ErrInventoryInvalidInput signals the caller provided invalid arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryInsufficientStock indicates the requested quantity exceeds availability.
	ErrInventoryInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInventoryProductNotFound indicates the product could not be located.
	ErrInventoryProductNotFound = errors.New("inventory: product not found")
	// ErrInventoryProductUnavailable indicates the product is not purchasable.
	ErrInventoryProductUnavailable = errors.New("inventory: product not available")
)

// InventoryServiceDeps bundles the collaborators required to construct an inventory service.
type InventoryServiceDeps struct {
	Products repositories.ProductRepository
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	products repositories.ProductRepository
	logger   func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Products == nil {
		return nil, errors.New("inventory service: product repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{
		products: deps.Products,
		logger:   logger,
	}, nil
}

func (s *inventoryService) Deduct(ctx context.Context, adjustments []StockAdjustment) error {
	deltas, err := buildStockDeltas(adjustments, -1)
	if err != nil {
		return err
	}
	if err := s.products.AdjustStock(ctx, deltas); err != nil {
		return mapInventoryError(err)
	}
	s.logger(ctx, "inventory.deducted", map[string]any{"lines": len(deltas)})
	return nil
}

func (s *inventoryService) Restock(ctx context.Context, adjustments []StockAdjustment) error {
	deltas, err := buildStockDeltas(adjustments, 1)
	if err != nil {
		return err
	}
	if err := s.products.AdjustStock(ctx, deltas); err != nil {
		return mapInventoryError(err)
	}
	s.logger(ctx, "inventory.restocked", map[string]any{"lines": len(deltas)})
	return nil
}

func buildStockDeltas(adjustments []StockAdjustment, sign int) ([]repositories.StockDelta, error) {
	if len(adjustments) == 0 {
		return nil, fmt.Errorf("%w: at least one adjustment is required", ErrInventoryInvalidInput)
	}
	deltas := make([]repositories.StockDelta, 0, len(adjustments))
	for _, adj := range adjustments {
		if adj.ProductID == "" {
			return nil, fmt.Errorf("%w: product id is required", ErrInventoryInvalidInput)
		}
		if adj.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInventoryInvalidInput)
		}
		deltas = append(deltas, repositories.StockDelta{
			ProductID: adj.ProductID,
			Delta:     sign * adj.Quantity,
		})
	}
	return deltas, nil
}

func mapInventoryError(err error) error {
	if err == nil {
		return nil
	}

	var invErr *repositories.InventoryError
	if errors.As(err, &invErr) {
		switch invErr.Code {
		case repositories.InventoryErrorInsufficientStock:
			return fmt.Errorf("%w: %v", ErrInventoryInsufficientStock, err)
		case repositories.InventoryErrorProductNotFound:
			return fmt.Errorf("%w: %v", ErrInventoryProductNotFound, err)
		case repositories.InventoryErrorProductInactive:
			return fmt.Errorf("%w: %v", ErrInventoryProductUnavailable, err)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrInventoryProductNotFound, err)
	}

	return err
}

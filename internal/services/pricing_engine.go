package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/vendorhub/api/internal/domain"
)

var (
	// ErrPricingInvalidInput signals the caller provided invalid pricing inputs.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
)

// MethodRate is the rate card entry for one shipping method. Amounts are minor
// currency units.
type MethodRate struct {
	BaseRate    int64
	VendorRate  int64
	TransitDays int
}

// PricingRates bundles the full rate card the engine computes against.
type PricingRates struct {
	Standard             MethodRate
	Express              MethodRate
	WeightThresholdGrams int
	WeightStepGrams      int
	WeightStepSurcharge  int64
	TaxRateBasisPoints   int
	ProcessingDays       int
}

// PricingEngineDeps bundles collaborators required to construct the pricing engine.
type PricingEngineDeps struct {
	Rates   PricingRates
	Coupons CouponValidator
	Clock   func() time.Time
}

type pricingEngine struct {
	rates   PricingRates
	coupons CouponValidator
	clock   func() time.Time
}

// NewPricingEngine wires dependencies into a concrete PricingService implementation.
func NewPricingEngine(deps PricingEngineDeps) (PricingService, error) {
	if deps.Rates.Standard.TransitDays <= 0 || deps.Rates.Express.TransitDays <= 0 {
		return nil, errors.New("pricing engine: transit days must be positive")
	}
	if deps.Rates.TaxRateBasisPoints < 0 {
		return nil, errors.New("pricing engine: tax rate must not be negative")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &pricingEngine{
		rates:   deps.Rates,
		coupons: deps.Coupons,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (e *pricingEngine) Quote(ctx context.Context, cmd PricingCommand) (PricingQuote, error) {
	if len(cmd.Items) == 0 {
		return PricingQuote{}, fmt.Errorf("%w: at least one line is required", ErrPricingInvalidInput)
	}

	rate, err := e.methodRate(cmd.ShippingMethod)
	if err != nil {
		return PricingQuote{}, err
	}

	var subtotal int64
	var weightGrams int
	vendors := map[string]struct{}{}
	for _, line := range cmd.Items {
		if line.Quantity <= 0 {
			return PricingQuote{}, fmt.Errorf("%w: line quantity must be positive", ErrPricingInvalidInput)
		}
		if line.UnitPrice < 0 {
			return PricingQuote{}, fmt.Errorf("%w: line unit price must not be negative", ErrPricingInvalidInput)
		}
		subtotal += line.UnitPrice * int64(line.Quantity)
		weightGrams += line.WeightGrams * line.Quantity
		if line.VendorID != "" {
			vendors[line.VendorID] = struct{}{}
		}
	}

	shipping := rate.BaseRate
	if extra := len(vendors) - 1; extra > 0 {
		shipping += rate.VendorRate * int64(extra)
	}
	shipping += e.weightSurcharge(weightGrams)

	var discount int64
	if e.coupons != nil && cmd.CouponCode != nil && *cmd.CouponCode != "" {
		discount, err = e.coupons.Discount(ctx, *cmd.CouponCode, cmd.CustomerID, subtotal)
		if err != nil {
			return PricingQuote{}, fmt.Errorf("pricing: validate coupon: %w", err)
		}
		if discount < 0 {
			discount = 0
		}
		if discount > subtotal {
			discount = subtotal
		}
	}

	tax := roundHalfUpBasisPoints(subtotal-discount+shipping, e.rates.TaxRateBasisPoints)

	now := e.clock()
	leadDays := e.rates.ProcessingDays + rate.TransitDays
	estimated := now.AddDate(0, 0, leadDays)

	return PricingQuote{
		Totals: OrderTotals{
			Subtotal: subtotal,
			Discount: discount,
			Shipping: shipping,
			Tax:      tax,
			Total:    subtotal - discount + tax + shipping,
		},
		EstimatedDelivery: estimated,
	}, nil
}

func (e *pricingEngine) methodRate(method ShippingMethod) (MethodRate, error) {
	switch method {
	case domain.ShippingStandard:
		return e.rates.Standard, nil
	case domain.ShippingExpress:
		return e.rates.Express, nil
	default:
		return MethodRate{}, fmt.Errorf("%w: unsupported shipping method %q", ErrPricingInvalidInput, method)
	}
}

// weightSurcharge charges one step for every started step above the threshold.
func (e *pricingEngine) weightSurcharge(totalGrams int) int64 {
	if e.rates.WeightStepGrams <= 0 || totalGrams <= e.rates.WeightThresholdGrams {
		return 0
	}
	over := totalGrams - e.rates.WeightThresholdGrams
	steps := (over + e.rates.WeightStepGrams - 1) / e.rates.WeightStepGrams
	return int64(steps) * e.rates.WeightStepSurcharge
}

// roundHalfUpBasisPoints computes amount*bps/10000 rounded half-up in minor units.
func roundHalfUpBasisPoints(amount int64, bps int) int64 {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*int64(bps) + 5000) / 10000
}

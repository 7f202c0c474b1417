package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/payments"
	"github.com/vendorhub/api/internal/platform/config"
	"github.com/vendorhub/api/internal/platform/notify"
	"github.com/vendorhub/api/internal/repositories"
	"github.com/vendorhub/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete
// implementations are assembled via dependency injection in NewContainer.
type Services struct {
	Orders    services.OrderService
	Inventory services.InventoryService
	Pricing   services.PricingService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

type containerOptions struct {
	gateway payments.Provider
	events  services.OrderEventPublisher
	logger  *zap.Logger
	clock   func() time.Time
}

// Option customises container construction.
type Option func(*containerOptions)

// WithPaymentGateway injects the payment provider used for authorisations and refunds.
func WithPaymentGateway(gateway payments.Provider) Option {
	return func(o *containerOptions) {
		o.gateway = gateway
	}
}

// WithEventDispatcher publishes order lifecycle events through the given dispatcher.
func WithEventDispatcher(dispatcher notify.Dispatcher) Option {
	return func(o *containerOptions) {
		if dispatcher != nil {
			o.events = dispatcherPublisher{dispatcher: dispatcher}
		}
	}
}

// WithEventPublisher injects an already-adapted event publisher, mainly for tests.
func WithEventPublisher(publisher services.OrderEventPublisher) Option {
	return func(o *containerOptions) {
		o.events = publisher
	}
}

// WithLogger attaches the logger services emit structured events through.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// Firestore-backed repositories, while tests can supply in-memory registries.
func NewContainer(_ context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	pricing, err := services.NewPricingEngine(services.PricingEngineDeps{
		Rates: pricingRatesFromConfig(cfg.Shipping),
		Clock: options.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build pricing engine: %w", err)
	}

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Products: reg.Products(),
		Logger:   zapEventLogger(options.logger.Named("inventory")),
	})
	if err != nil {
		return nil, fmt.Errorf("build inventory service: %w", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:       reg.Orders(),
		Products:     reg.Products(),
		Payments:     reg.Payments(),
		Counters:     reg.Counters(),
		Inventory:    inventory,
		Pricing:      pricing,
		Gateway:      options.gateway,
		UnitOfWork:   reg,
		Clock:        options.clock,
		Events:       options.events,
		Logger:       zapEventLogger(options.logger.Named("orders")),
		ReturnWindow: time.Duration(cfg.Returns.WindowDays) * 24 * time.Hour,
		Currency:     cfg.PSP.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("build order service: %w", err)
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services: Services{
			Orders:    orders,
			Inventory: inventory,
			Pricing:   pricing,
		},
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func pricingRatesFromConfig(cfg config.ShippingConfig) services.PricingRates {
	return services.PricingRates{
		Standard: services.MethodRate{
			BaseRate:    cfg.StandardBaseRate,
			VendorRate:  cfg.StandardVendorRate,
			TransitDays: cfg.StandardTransitDays,
		},
		Express: services.MethodRate{
			BaseRate:    cfg.ExpressBaseRate,
			VendorRate:  cfg.ExpressVendorRate,
			TransitDays: cfg.ExpressTransitDays,
		},
		WeightThresholdGrams: cfg.WeightThresholdGrams,
		WeightStepGrams:      cfg.WeightStepGrams,
		WeightStepSurcharge:  cfg.WeightStepSurcharge,
		TaxRateBasisPoints:   cfg.TaxRateBasisPoints,
		ProcessingDays:       cfg.ProcessingDays,
	}
}

func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

type dispatcherPublisher struct {
	dispatcher notify.Dispatcher
}

func (p dispatcherPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	if p.dispatcher == nil {
		return nil
	}
	_, err := p.dispatcher.Publish(ctx, event)
	return err
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeLogger defines the logging contract for Stripe provider operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClients struct {
	intents stripePaymentIntentAPI
	refunds stripeRefundAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey    string
	AccountID string
	Backends  *stripe.Backends
	Logger    StripeLogger
	Clock     func() time.Time
	Clients   *stripeClients
}

// StripeProvider implements the Provider interface using Stripe APIs.
type StripeProvider struct {
	api     stripeClients
	account string
	clock   func() time.Time
	logger  StripeLogger
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider constructs a Stripe Provider using the given configuration.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			intents: sc.PaymentIntents,
			refunds: sc.Refunds,
		}
	}

	if clients.intents == nil || clients.refunds == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{
		api:     clients,
		account: strings.TrimSpace(cfg.AccountID),
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Name identifies the gateway on payment records.
func (p *StripeProvider) Name() string { return "stripe" }

// Authorize creates and immediately confirms a Payment Intent for the order
// total. A card decline surfaces as ErrPaymentDeclined with the gateway reason.
func (p *StripeProvider) Authorize(ctx context.Context, req AuthorizeRequest) (Transaction, error) {
	if p == nil {
		return Transaction{}, errors.New("stripe: provider is nil")
	}
	if req.Amount <= 0 {
		return Transaction{}, errors.New("stripe: amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		Confirm:  stripe.Bool(true),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if p.account != "" {
		params.SetStripeAccount(p.account)
	}
	if method := strings.TrimSpace(req.PaymentMethod); method != "" {
		params.PaymentMethod = stripe.String(method)
	}
	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.OrderID != "" {
		metadata["orderId"] = req.OrderID
	}
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	intent, err := p.api.intents.New(params)
	if err != nil {
		if reason, declined := stripeDeclineReason(err); declined {
			p.logger(ctx, "payments.stripe.intent.declined", map[string]any{
				"orderId": req.OrderID,
				"reason":  reason,
			})
			return Transaction{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, reason)
		}
		return Transaction{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		p.logger(ctx, "payments.stripe.intent.declined", map[string]any{
			"orderId":       req.OrderID,
			"paymentIntent": intent.ID,
			"status":        intent.Status,
		})
		return Transaction{}, fmt.Errorf("%w: intent status %s", ErrPaymentDeclined, intent.Status)
	}

	p.logger(ctx, "payments.stripe.intent.captured", map[string]any{
		"orderId":        req.OrderID,
		"paymentIntent":  intent.ID,
		"amountReceived": intent.AmountReceived,
	})

	capturedAt := p.clock()
	if intent.Created != 0 {
		capturedAt = time.Unix(intent.Created, 0).UTC()
	}

	method := "card"
	if intent.PaymentMethod != nil && intent.PaymentMethod.Type != "" {
		method = string(intent.PaymentMethod.Type)
	}

	return Transaction{
		ID:         intent.ID,
		Provider:   p.Name(),
		Method:     method,
		Amount:     intent.AmountReceived,
		Currency:   strings.ToUpper(string(intent.Currency)),
		CapturedAt: capturedAt,
	}, nil
}

// Refund returns part or all of a captured charge to the customer.
func (p *StripeProvider) Refund(ctx context.Context, req RefundRequest) (Refund, error) {
	if p == nil {
		return Refund{}, errors.New("stripe: provider is nil")
	}
	transactionID := strings.TrimSpace(req.TransactionID)
	if transactionID == "" {
		return Refund{}, errors.New("stripe: transaction id is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if p.account != "" {
		params.SetStripeAccount(p.account)
	}
	if req.Amount != nil {
		params.Amount = stripe.Int64(*req.Amount)
	}
	if reason := mapStripeRefundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	refund, err := p.api.refunds.New(params)
	if err != nil {
		return Refund{}, fmt.Errorf("stripe: refund payment intent: %w", err)
	}

	p.logger(ctx, "payments.stripe.refund.created", map[string]any{
		"paymentIntent": transactionID,
		"refundId":      refund.ID,
		"amount":        refund.Amount,
	})

	createdAt := p.clock()
	if refund.Created != 0 {
		createdAt = time.Unix(refund.Created, 0).UTC()
	}

	return Refund{
		ID:            refund.ID,
		TransactionID: transactionID,
		Amount:        refund.Amount,
		CreatedAt:     createdAt,
	}, nil
}

func stripeDeclineReason(err error) (string, bool) {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return "", false
	}
	if stripeErr.Type != stripe.ErrorTypeCard {
		return "", false
	}
	if stripeErr.DeclineCode != "" {
		return string(stripeErr.DeclineCode), true
	}
	if stripeErr.Msg != "" {
		return stripeErr.Msg, true
	}
	return string(stripeErr.Code), true
}

func mapStripeRefundReason(reason string) string {
	switch strings.TrimSpace(reason) {
	case string(stripe.RefundReasonDuplicate):
		return string(stripe.RefundReasonDuplicate)
	case string(stripe.RefundReasonFraudulent):
		return string(stripe.RefundReasonFraudulent)
	case string(stripe.RefundReasonRequestedByCustomer):
		return string(stripe.RefundReasonRequestedByCustomer)
	default:
		return ""
	}
}

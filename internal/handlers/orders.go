package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/vendorhub/api/internal/domain"
	"github.com/vendorhub/api/internal/platform/auth"
	"github.com/vendorhub/api/internal/platform/httpx"
	"github.com/vendorhub/api/internal/platform/pagination"
	"github.com/vendorhub/api/internal/services"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
	maxOrderBodySize     = 64 * 1024
)

var errBodyTooLarge = errors.New("request body too large")

var validOrderStatuses = map[domain.OrderStatus]struct{}{
	domain.OrderStatusPending:           {},
	domain.OrderStatusPaymentConfirmed:  {},
	domain.OrderStatusPaymentFailed:     {},
	domain.OrderStatusProcessing:        {},
	domain.OrderStatusReady:             {},
	domain.OrderStatusShipped:           {},
	domain.OrderStatusOutForDelivery:    {},
	domain.OrderStatusDelivered:         {},
	domain.OrderStatusCompleted:         {},
	domain.OrderStatusCancelled:         {},
	domain.OrderStatusRefunded:          {},
	domain.OrderStatusPartiallyRefunded: {},
}

var validReturnActions = map[services.ReturnAction]struct{}{
	services.ReturnActionApprove: {},
	services.ReturnActionReject:  {},
	services.ReturnActionReceive: {},
	services.ReturnActionRefund:  {},
}

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	authn       *auth.Authenticator
	orders      services.OrderService
	idempotency func(http.Handler) http.Handler
}

// OrderHandlerOption customises OrderHandlers construction.
type OrderHandlerOption func(*OrderHandlers)

// WithPaymentIdempotency guards the payment confirmation endpoint with the
// given idempotency middleware.
func WithPaymentIdempotency(mw func(http.Handler) http.Handler) OrderHandlerOption {
	return func(h *OrderHandlers) {
		h.idempotency = mw
	}
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, opts ...OrderHandlerOption) *OrderHandlers {
	h := &OrderHandlers{
		authn:  authn,
		orders: orders,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/cancel", h.cancelOrder)
	r.Put("/{orderID}/status", h.updateStatus)
	if h.idempotency != nil {
		r.With(h.idempotency).Post("/{orderID}/payment/confirm", h.confirmPayment)
	} else {
		r.Post("/{orderID}/payment/confirm", h.confirmPayment)
	}
	r.Post("/{orderID}/ship", h.markShipped)
	r.Post("/{orderID}/deliver", h.markDelivered)
	r.Post("/{orderID}/return", h.requestReturn)
	r.Put("/{orderID}/return/{returnID}", h.updateReturn)
}

type addressRequest struct {
	Recipient  string  `json:"recipient"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

type createOrderRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	Shipping struct {
		Method  string         `json:"method"`
		Address addressRequest `json:"address"`
	} `json:"shipping"`
	BillingAddress *addressRequest `json:"billing_address,omitempty"`
	Contact        struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Phone *string `json:"phone,omitempty"`
	} `json:"contact"`
	Currency   string  `json:"currency,omitempty"`
	CouponCode *string `json:"coupon_code,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type updateStatusRequest struct {
	Status         string  `json:"status"`
	Notes          *string `json:"notes,omitempty"`
	Location       *string `json:"location,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	TrackingURL    *string `json:"tracking_url,omitempty"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type confirmPaymentRequest struct {
	PaymentMethod  string `json:"payment_method"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type vendorShipmentRequest struct {
	VendorID       string  `json:"vendor_id,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	TrackingURL    *string `json:"tracking_url,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

type vendorDeliveryRequest struct {
	VendorID string  `json:"vendor_id,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type requestReturnRequest struct {
	Items []struct {
		LineItemID string `json:"line_item_id"`
		Quantity   int    `json:"quantity"`
	} `json:"items"`
	Reason string `json:"reason"`
}

type updateReturnRequest struct {
	Action     string  `json:"action"`
	Resolution *string `json:"resolution,omitempty"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}
	if !perms.IsCustomer() && !perms.IsAdmin() {
		writeNotAuthorized(ctx, w)
		return
	}

	var req createOrderRequest
	if !h.decodeBody(ctx, w, r, &req, true) {
		return
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	cmd := services.CreateOrderCommand{
		CustomerID:      perms.UID(),
		Items:           items,
		ShippingMethod:  services.ShippingMethod(strings.ToLower(strings.TrimSpace(req.Shipping.Method))),
		ShippingAddress: buildAddress(req.Shipping.Address),
		Contact: services.OrderContact{
			Name:  strings.TrimSpace(req.Contact.Name),
			Email: strings.TrimSpace(req.Contact.Email),
			Phone: cloneStringPointer(req.Contact.Phone),
		},
		Currency:      strings.TrimSpace(req.Currency),
		CouponCode:    cloneStringPointer(req.CouponCode),
		CustomerNotes: cloneStringPointer(req.Notes),
	}
	if req.BillingAddress != nil {
		billing := buildAddress(*req.BillingAddress)
		cmd.BillingAddress = &billing
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, createOrderResponse{
		Order:           buildOrderPayload(order, perms),
		PaymentRequired: order.Totals.Total > 0,
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	query := r.URL.Query()
	statusFilters := pagination.FilterValues(query["status"])

	var dateRange domain.RangeQuery[time.Time]
	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := pagination.ParseTime(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := pagination.ParseTime(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.To = &ts
	}

	params, err := pagination.Parse(query, pagination.Options{
		DefaultPageSize: defaultOrderPageSize,
		MaxPageSize:     maxOrderPageSize,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "page_size must be an integer", http.StatusBadRequest))
		return
	}

	filter := services.OrderListFilter{
		Status:    statusFilters,
		DateRange: dateRange,
		Pagination: domain.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}

	// Customers see their own orders, vendors the orders containing their
	// items. Admins may scope by explicit query parameters.
	switch {
	case perms.IsAdmin():
		filter.CustomerID = strings.TrimSpace(query.Get("customer_id"))
		filter.VendorID = strings.TrimSpace(query.Get("vendor_id"))
	case perms.IsVendor():
		filter.VendorID = perms.UID()
	default:
		filter.CustomerID = perms.UID()
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderSummaryPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderSummary(order))
	}

	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{IncludePayment: true})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	if !perms.CanViewOrder(order.CustomerID, orderVendorIDs(order)) {
		writeNotAuthorized(ctx, w)
		return
	}

	// View tracking never blocks or fails the read.
	_ = h.orders.RecordView(ctx, order.ID)

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order, perms)})
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req cancelOrderRequest
	if !h.decodeBody(ctx, w, r, &req, false) {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if !perms.CanCancelOrder(order.CustomerID) {
		writeNotAuthorized(ctx, w)
		return
	}

	cancelled, err := h.orders.Cancel(ctx, services.CancelOrderCommand{
		OrderID: orderID,
		Actor:   actorFromPermissions(perms),
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cancelOrderResponse{
		Order:          buildOrderPayload(cancelled, perms),
		Refunded:       cancelled.RefundedTotal > 0,
		RefundedAmount: cancelled.RefundedTotal,
	})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}
	if !perms.CanUpdateStatus() {
		writeNotAuthorized(ctx, w)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateStatusRequest
	if !h.decodeBody(ctx, w, r, &req, true) {
		return
	}

	status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if _, known := validOrderStatuses[status]; !known {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "status must be a valid order status", http.StatusBadRequest))
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.OrderStatusTransitionCommand{
		OrderID:        orderID,
		TargetStatus:   status,
		Actor:          actorFromPermissions(perms),
		Note:           cloneStringPointer(req.Notes),
		Location:       cloneStringPointer(req.Location),
		Carrier:        cloneStringPointer(req.Carrier),
		TrackingNumber: cloneStringPointer(req.TrackingNumber),
		TrackingURL:    cloneStringPointer(req.TrackingURL),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order, perms)})
}

func (h *OrderHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req confirmPaymentRequest
	if !h.decodeBody(ctx, w, r, &req, true) {
		return
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "payment_method is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if !perms.CanCancelOrder(order.CustomerID) {
		// Same ownership rule as cancellation: the owner or an admin.
		writeNotAuthorized(ctx, w)
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		idempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	}

	confirmed, err := h.orders.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		OrderID:        orderID,
		Actor:          actorFromPermissions(perms),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(confirmed, perms)})
}

func (h *OrderHandlers) markShipped(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req vendorShipmentRequest
	if !h.decodeBody(ctx, w, r, &req, false) {
		return
	}

	vendorID, ok := h.resolveVendorID(ctx, w, perms, req.VendorID)
	if !ok {
		return
	}

	order, err := h.orders.MarkVendorShipped(ctx, services.VendorShipmentCommand{
		OrderID:        orderID,
		VendorID:       vendorID,
		Actor:          actorFromPermissions(perms),
		Carrier:        cloneStringPointer(req.Carrier),
		TrackingNumber: cloneStringPointer(req.TrackingNumber),
		TrackingURL:    cloneStringPointer(req.TrackingURL),
		Note:           cloneStringPointer(req.Notes),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order, perms)})
}

func (h *OrderHandlers) markDelivered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req vendorDeliveryRequest
	if !h.decodeBody(ctx, w, r, &req, false) {
		return
	}

	vendorID, ok := h.resolveVendorID(ctx, w, perms, req.VendorID)
	if !ok {
		return
	}

	order, err := h.orders.MarkVendorDelivered(ctx, services.VendorDeliveryCommand{
		OrderID:  orderID,
		VendorID: vendorID,
		Actor:    actorFromPermissions(perms),
		Note:     cloneStringPointer(req.Notes),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order, perms)})
}

func (h *OrderHandlers) requestReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id is required", http.StatusBadRequest))
		return
	}

	var req requestReturnRequest
	if !h.decodeBody(ctx, w, r, &req, true) {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if !perms.CanCancelOrder(order.CustomerID) {
		writeNotAuthorized(ctx, w)
		return
	}

	items := make([]services.ReturnItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.ReturnItemInput{
			LineItemID: strings.TrimSpace(item.LineItemID),
			Quantity:   item.Quantity,
		})
	}

	updated, err := h.orders.RequestReturn(ctx, services.RequestReturnCommand{
		OrderID: orderID,
		Actor:   actorFromPermissions(perms),
		Items:   items,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(updated, perms)})
}

func (h *OrderHandlers) updateReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	returnID := strings.TrimSpace(chi.URLParam(r, "returnID"))
	if orderID == "" || returnID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "order id and return id are required", http.StatusBadRequest))
		return
	}

	var req updateReturnRequest
	if !h.decodeBody(ctx, w, r, &req, true) {
		return
	}

	action := services.ReturnAction(strings.ToLower(strings.TrimSpace(req.Action)))
	if _, known := validReturnActions[action]; !known {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "action must be one of approve, reject, receive, refund", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	ret, found := order.Returns[returnID]
	if !found {
		httpx.WriteError(ctx, w, httpx.NewError("RETURN_NOT_FOUND", "return request not found", http.StatusNotFound))
		return
	}
	if !perms.CanActForVendor(ret.VendorID) {
		writeNotAuthorized(ctx, w)
		return
	}

	updated, err := h.orders.UpdateReturn(ctx, services.UpdateReturnCommand{
		OrderID:    orderID,
		ReturnID:   returnID,
		Action:     action,
		Actor:      actorFromPermissions(perms),
		Resolution: cloneStringPointer(req.Resolution),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(updated, perms)})
}

// requireService resolves the caller's permissions and guards the handler
// preconditions shared by every endpoint.
func (h *OrderHandlers) requireService(ctx context.Context, w http.ResponseWriter) (auth.Permissions, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_SERVICE_UNAVAILABLE", "order service unavailable", http.StatusServiceUnavailable))
		return auth.Permissions{}, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("UNAUTHENTICATED", "authentication required", http.StatusUnauthorized))
		return auth.Permissions{}, false
	}
	return identity.Permissions(), true
}

// resolveVendorID decides which vendor sub-order a ship/deliver call targets.
// Vendors act on their own sub-order; admins must name one explicitly.
func (h *OrderHandlers) resolveVendorID(ctx context.Context, w http.ResponseWriter, perms auth.Permissions, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if perms.IsVendor() && !perms.IsAdmin() {
		if requested != "" && requested != perms.UID() {
			writeNotAuthorized(ctx, w)
			return "", false
		}
		return perms.UID(), true
	}
	if !perms.IsAdmin() {
		writeNotAuthorized(ctx, w)
		return "", false
	}
	if requested == "" {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "vendor_id is required", http.StatusBadRequest))
		return "", false
	}
	return requested, true
}

func (h *OrderHandlers) decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any, required bool) bool {
	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("PAYLOAD_TOO_LARGE", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		} else {
			httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if required {
			httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "request body is required", http.StatusBadRequest))
			return false
		}
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", "invalid JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

type orderListResponse struct {
	Items         []orderSummaryPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type orderSummaryPayload struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`
	Total       int64  `json:"total"`
	CreatedAt   string `json:"created_at"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type createOrderResponse struct {
	Order orderPayload `json:"order"`
	// PaymentRequired tells the client a capture step is still outstanding.
	PaymentRequired bool `json:"payment_required"`
}

type cancelOrderResponse struct {
	Order          orderPayload `json:"order"`
	Refunded       bool         `json:"refunded"`
	RefundedAmount int64        `json:"refunded_amount,omitempty"`
}

type orderPayload struct {
	ID                string                        `json:"id"`
	OrderNumber       string                        `json:"order_number"`
	CustomerID        string                        `json:"customer_id"`
	Status            string                        `json:"status"`
	Currency          string                        `json:"currency"`
	Totals            orderTotalsPayload            `json:"totals"`
	Items             []orderItemPayload            `json:"items"`
	VendorOrders      map[string]vendorOrderPayload `json:"vendor_orders,omitempty"`
	Returns           map[string]returnPayload      `json:"returns,omitempty"`
	ShippingAddress   *addressPayload               `json:"shipping_address,omitempty"`
	BillingAddress    *addressPayload               `json:"billing_address,omitempty"`
	Contact           *orderContactPayload          `json:"contact,omitempty"`
	ShippingMethod    string                        `json:"shipping_method,omitempty"`
	CouponCode        *string                       `json:"coupon_code,omitempty"`
	History           []historyEntryPayload         `json:"history"`
	CustomerNotes     *string                       `json:"customer_notes,omitempty"`
	InternalNotes     *string                       `json:"internal_notes,omitempty"`
	EstimatedDelivery string                        `json:"estimated_delivery,omitempty"`
	Payment           *paymentPayload               `json:"payment,omitempty"`
	RefundedTotal     int64                         `json:"refunded_total,omitempty"`
	CreatedAt         string                        `json:"created_at"`
	UpdatedAt         string                        `json:"updated_at,omitempty"`
	PaidAt            string                        `json:"paid_at,omitempty"`
	ShippedAt         string                        `json:"shipped_at,omitempty"`
	DeliveredAt       string                        `json:"delivered_at,omitempty"`
	CompletedAt       string                        `json:"completed_at,omitempty"`
	CancelledAt       string                        `json:"cancelled_at,omitempty"`
	CancelReason      *string                       `json:"cancel_reason,omitempty"`
}

type orderTotalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type orderItemPayload struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	VendorID  string  `json:"vendor_id"`
	SKU       string  `json:"sku,omitempty"`
	Name      string  `json:"name,omitempty"`
	ImageURL  *string `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice int64   `json:"unit_price"`
	Total     int64   `json:"total"`
}

type vendorOrderPayload struct {
	VendorID       string   `json:"vendor_id"`
	Status         string   `json:"status"`
	ItemIDs        []string `json:"item_ids"`
	Subtotal       int64    `json:"subtotal"`
	Carrier        *string  `json:"carrier,omitempty"`
	TrackingNumber *string  `json:"tracking_number,omitempty"`
	TrackingURL    *string  `json:"tracking_url,omitempty"`
	VendorNotes    *string  `json:"vendor_notes,omitempty"`
	ShippedAt      string   `json:"shipped_at,omitempty"`
	DeliveredAt    string   `json:"delivered_at,omitempty"`
}

type returnPayload struct {
	ID          string              `json:"id"`
	VendorID    string              `json:"vendor_id"`
	Status      string              `json:"status"`
	Items       []returnItemPayload `json:"items"`
	Reason      string              `json:"reason"`
	Resolution  *string             `json:"resolution,omitempty"`
	RefundTotal int64               `json:"refund_total"`
	RequestedAt string              `json:"requested_at"`
	RefundedAt  string              `json:"refunded_at,omitempty"`
}

type returnItemPayload struct {
	LineItemID string `json:"line_item_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

type historyEntryPayload struct {
	Status   string        `json:"status"`
	At       string        `json:"at"`
	Actor    *actorPayload `json:"actor,omitempty"`
	Note     *string       `json:"note,omitempty"`
	Location *string       `json:"location,omitempty"`
}

type actorPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type paymentPayload struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Refunded      int64  `json:"refunded,omitempty"`
	Currency      string `json:"currency"`
	Method        string `json:"method,omitempty"`
	CapturedAt    string `json:"captured_at,omitempty"`
}

type orderContactPayload struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type addressPayload struct {
	Recipient  string  `json:"recipient"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

func buildOrderSummary(order services.Order) orderSummaryPayload {
	return orderSummaryPayload{
		ID:          strings.TrimSpace(order.ID),
		OrderNumber: strings.TrimSpace(order.OrderNumber),
		CustomerID:  strings.TrimSpace(order.CustomerID),
		Status:      strings.TrimSpace(string(order.Status)),
		Currency:    strings.ToUpper(strings.TrimSpace(order.Currency)),
		Total:       order.Totals.Total,
		CreatedAt:   formatTime(order.CreatedAt),
	}
}

// buildOrderPayload projects the aggregate for the caller. Internal notes are
// admin-only, vendor notes vendor/admin, the payment record owner/admin.
func buildOrderPayload(order services.Order, perms auth.Permissions) orderPayload {
	payload := orderPayload{
		ID:                strings.TrimSpace(order.ID),
		OrderNumber:       strings.TrimSpace(order.OrderNumber),
		CustomerID:        strings.TrimSpace(order.CustomerID),
		Status:            strings.TrimSpace(string(order.Status)),
		Currency:          strings.ToUpper(strings.TrimSpace(order.Currency)),
		ShippingMethod:    string(order.ShippingMethod),
		CouponCode:        cloneStringPointer(order.CouponCode),
		CustomerNotes:     cloneStringPointer(order.CustomerNotes),
		EstimatedDelivery: formatTime(pointerTime(order.EstimatedDelivery)),
		RefundedTotal:     order.RefundedTotal,
		Totals: orderTotalsPayload{
			Subtotal: order.Totals.Subtotal,
			Discount: order.Totals.Discount,
			Shipping: order.Totals.Shipping,
			Tax:      order.Totals.Tax,
			Total:    order.Totals.Total,
		},
		Items:        make([]orderItemPayload, 0, len(order.Items)),
		History:      make([]historyEntryPayload, 0, len(order.History)),
		CreatedAt:    formatTime(order.CreatedAt),
		UpdatedAt:    formatTime(order.UpdatedAt),
		PaidAt:       formatTime(pointerTime(order.PaidAt)),
		ShippedAt:    formatTime(pointerTime(order.ShippedAt)),
		DeliveredAt:  formatTime(pointerTime(order.DeliveredAt)),
		CompletedAt:  formatTime(pointerTime(order.CompletedAt)),
		CancelledAt:  formatTime(pointerTime(order.CancelledAt)),
		CancelReason: cloneStringPointer(order.CancelReason),
	}

	if perms.CanSeeInternalNotes() {
		payload.InternalNotes = cloneStringPointer(order.InternalNotes)
	}

	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			VendorID:  item.VendorID,
			SKU:       item.SKU,
			Name:      item.Name,
			ImageURL:  cloneStringPointer(item.ImageURL),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}

	if len(order.VendorOrders) > 0 {
		payload.VendorOrders = make(map[string]vendorOrderPayload, len(order.VendorOrders))
		for vendorID, vo := range order.VendorOrders {
			entry := vendorOrderPayload{
				VendorID:       vo.VendorID,
				Status:         string(vo.Status),
				ItemIDs:        append([]string(nil), vo.ItemIDs...),
				Subtotal:       vo.Subtotal,
				Carrier:        cloneStringPointer(vo.Carrier),
				TrackingNumber: cloneStringPointer(vo.TrackingNumber),
				TrackingURL:    cloneStringPointer(vo.TrackingURL),
				ShippedAt:      formatTime(pointerTime(vo.ShippedAt)),
				DeliveredAt:    formatTime(pointerTime(vo.DeliveredAt)),
			}
			if perms.CanSeeVendorNotes() {
				entry.VendorNotes = cloneStringPointer(vo.VendorNotes)
			}
			payload.VendorOrders[vendorID] = entry
		}
	}

	if len(order.Returns) > 0 {
		payload.Returns = make(map[string]returnPayload, len(order.Returns))
		for returnID, ret := range order.Returns {
			items := make([]returnItemPayload, 0, len(ret.Items))
			for _, item := range ret.Items {
				items = append(items, returnItemPayload{
					LineItemID: item.LineItemID,
					Quantity:   item.Quantity,
					UnitPrice:  item.UnitPrice,
				})
			}
			payload.Returns[returnID] = returnPayload{
				ID:          ret.ID,
				VendorID:    ret.VendorID,
				Status:      string(ret.Status),
				Items:       items,
				Reason:      ret.Reason,
				Resolution:  cloneStringPointer(ret.Resolution),
				RefundTotal: ret.RefundTotal,
				RequestedAt: formatTime(ret.RequestedAt),
				RefundedAt:  formatTime(pointerTime(ret.RefundedAt)),
			}
		}
	}

	if order.ShippingAddress != nil {
		addr := buildAddressPayload(*order.ShippingAddress)
		payload.ShippingAddress = &addr
	}
	if order.BillingAddress != nil {
		addr := buildAddressPayload(*order.BillingAddress)
		payload.BillingAddress = &addr
	}

	if order.Contact.Name != "" || order.Contact.Email != "" {
		contact := orderContactPayload{
			Name:  strings.TrimSpace(order.Contact.Name),
			Email: strings.TrimSpace(order.Contact.Email),
		}
		if order.Contact.Phone != nil {
			contact.Phone = strings.TrimSpace(*order.Contact.Phone)
		}
		payload.Contact = &contact
	}

	for _, entry := range order.History {
		item := historyEntryPayload{
			Status:   string(entry.Status),
			At:       formatTime(entry.At),
			Note:     cloneStringPointer(entry.Note),
			Location: cloneStringPointer(entry.Location),
		}
		if entry.Actor != nil {
			item.Actor = &actorPayload{ID: entry.Actor.ID, Role: entry.Actor.Role}
		}
		payload.History = append(payload.History, item)
	}

	if order.Payment != nil && (perms.IsAdmin() || perms.UID() == order.CustomerID) {
		payload.Payment = &paymentPayload{
			ID:            order.Payment.ID,
			Provider:      order.Payment.Provider,
			TransactionID: order.Payment.TransactionID,
			Status:        string(order.Payment.Status),
			Amount:        order.Payment.Amount,
			Refunded:      order.Payment.Refunded,
			Currency:      strings.ToUpper(strings.TrimSpace(order.Payment.Currency)),
			Method:        order.Payment.Method,
			CapturedAt:    formatTime(order.Payment.CapturedAt),
		}
	}

	return payload
}

func buildAddressPayload(addr services.Address) addressPayload {
	return addressPayload{
		Recipient:  addr.Recipient,
		Line1:      addr.Line1,
		Line2:      cloneStringPointer(addr.Line2),
		City:       addr.City,
		State:      cloneStringPointer(addr.State),
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      cloneStringPointer(addr.Phone),
	}
}

func buildAddress(req addressRequest) services.Address {
	return services.Address{
		Recipient:  strings.TrimSpace(req.Recipient),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      cloneStringPointer(req.Line2),
		City:       strings.TrimSpace(req.City),
		State:      cloneStringPointer(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(req.Country)),
		Phone:      cloneStringPointer(req.Phone),
	}
}

func actorFromPermissions(perms auth.Permissions) services.Actor {
	role := auth.RoleCustomer
	switch {
	case perms.IsAdmin():
		role = auth.RoleAdmin
	case perms.IsVendor():
		role = auth.RoleVendor
	}
	return services.Actor{ID: perms.UID(), Role: role}
}

func orderVendorIDs(order services.Order) []string {
	if len(order.VendorOrders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(order.VendorOrders))
	for vendorID := range order.VendorOrders {
		ids = append(ids, vendorID)
	}
	return ids
}

func writeNotAuthorized(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("NOT_AUTHORIZED", "caller may not perform this operation", http.StatusForbidden))
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_REQUEST", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrVendorOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrReturnNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("RETURN_NOT_FOUND", "return request not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotCancellable):
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_CANNOT_BE_CANCELLED", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotReturnable):
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_CANNOT_BE_RETURNED", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_STATUS_TRANSITION", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReturnInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_RETURN_STATE", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReturnInvalidQuantity):
		httpx.WriteError(ctx, w, httpx.NewError("INVALID_RETURN_QUANTITY", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderPaymentDeclined):
		httpx.WriteError(ctx, w, httpx.NewError("PAYMENT_FAILED", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("INSUFFICIENT_QUANTITY", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryProductUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("PRODUCT_NOT_AVAILABLE", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_CONFLICT", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("ORDER_ERROR", "failed to process order request", http.StatusInternalServerError))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = maxOrderBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func pointerTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func cloneStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

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
	"github.com/vendorhub/api/internal/platform/pagination"
	"github.com/vendorhub/api/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists order aggregates as single Firestore documents.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{base: base}, nil
}

// Insert stores a new order document. The ID must be unique.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}
	doc := encodeOrderDocument(order)
	if _, err := docRef.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update replaces the persisted aggregate with the provided snapshot.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	doc := encodeOrderDocument(order)
	if _, err := r.base.Set(ctx, orderID, doc); err != nil {
		return err
	}
	return nil
}

// FindByID fetches a single order aggregate.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(orderID, doc.Data), nil
}

// FindByNumber fetches a single order by its human-facing order number.
func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return domain.Order{}, errors.New("order repository: order number is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderNumber", "==", orderNumber).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.NotFoundError("orders.find_by_number", fmt.Errorf("order %s not found", orderNumber))
	}
	return decodeOrderDocument(docs[0].ID, docs[0].Data), nil
}

// List returns orders matching the filter ordered by most recent creation.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: %w", err)
	}
	if !cursor.IsZero() {
		startAfter = []any{cursor.CreatedAt, cursor.ID}
	}

	statusFilters := normaliseStatusFilters(filter.Status)
	customerID := strings.TrimSpace(filter.CustomerID)
	vendorID := strings.TrimSpace(filter.VendorID)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("isDeleted", "==", false)
		if customerID != "" {
			q = q.Where("customerUid", "==", customerID)
		}
		if vendorID != "" {
			q = q.Where("vendorIds", "array-contains", vendorID)
		}

		if len(statusFilters) == 1 {
			q = q.Where("status", "==", statusFilters[0])
		} else if len(statusFilters) > 1 {
			// Firestore in clause supports up to 10 values.
			if len(statusFilters) > 10 {
				statusFilters = statusFilters[:10]
			}
			q = q.Where("status", "in", statusFilters)
		}

		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}

		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		tokenTime := last.Data.CreatedAt
		if tokenTime.IsZero() {
			tokenTime = last.CreateTime
		}
		nextToken, err = pagination.EncodeToken(pagination.Cursor{CreatedAt: tokenTime.UTC(), ID: last.ID})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: %w", err)
		}
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Order, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, decodeOrderDocument(doc.ID, doc.Data))
	}

	return domain.CursorPage[domain.Order]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// ApplyVendorShipment writes one vendor sub-order entry plus the derived
// main-status fields without rewriting the rest of the aggregate, then
// returns the refreshed order.
func (r *OrderRepository) ApplyVendorShipment(ctx context.Context, orderID string, update repositories.VendorShipmentUpdate) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	vendorID := strings.TrimSpace(update.VendorOrder.VendorID)
	if vendorID == "" {
		return domain.Order{}, errors.New("order repository: vendor id is required")
	}

	updatedAt := update.UpdatedAt.UTC()
	updates := []firestore.Update{
		{FieldPath: firestore.FieldPath{"vendorOrders", vendorID}, Value: encodeVendorOrder(update.VendorOrder)},
		{Path: "updatedAt", Value: updatedAt},
	}
	if update.MainStatus != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*update.MainStatus)})
	}
	if update.HistoryEntry != nil {
		updates = append(updates, firestore.Update{
			Path:  "statusHistory",
			Value: firestore.ArrayUnion(encodeHistoryEntry(*update.HistoryEntry)),
		})
	}
	if update.ShippedAt != nil {
		updates = append(updates, firestore.Update{Path: "shippedAt", Value: update.ShippedAt.UTC()})
	}
	if update.DeliveredAt != nil {
		updates = append(updates, firestore.Update{Path: "deliveredAt", Value: update.DeliveredAt.UTC()})
	}

	if _, err := r.base.Update(ctx, orderID, updates); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, orderID)
}

// TrackView bumps the view counter and last-viewed timestamp without touching
// any other field.
func (r *OrderRepository) TrackView(ctx context.Context, orderID string, viewedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	updates := []firestore.Update{
		{Path: "viewCount", Value: firestore.Increment(1)},
		{Path: "lastViewedAt", Value: viewedAt.UTC()},
	}
	if _, err := r.base.Update(ctx, orderID, updates); err != nil {
		return err
	}
	return nil
}

type orderDocument struct {
	OrderNumber       string                            `firestore:"orderNumber"`
	CustomerUID       string                            `firestore:"customerUid"`
	Status            string                            `firestore:"status"`
	Currency          string                            `firestore:"currency"`
	Totals            orderTotalsDocument               `firestore:"totals"`
	Items             []orderLineItemDocument           `firestore:"items"`
	VendorIDs         []string                          `firestore:"vendorIds"`
	VendorOrders      map[string]vendorOrderDocument    `firestore:"vendorOrders"`
	Returns           map[string]returnRequestDocument  `firestore:"returns,omitempty"`
	ShippingAddress   *addressDocument                  `firestore:"shippingAddress,omitempty"`
	BillingAddress    *addressDocument                  `firestore:"billingAddress,omitempty"`
	Contact           orderContactDocument              `firestore:"contact"`
	ShippingMethod    string                            `firestore:"shippingMethod"`
	CouponCode        *string                           `firestore:"couponCode,omitempty"`
	StatusHistory     []statusHistoryEntryDocument      `firestore:"statusHistory"`
	CustomerNotes     *string                           `firestore:"customerNotes,omitempty"`
	InternalNotes     *string                           `firestore:"internalNotes,omitempty"`
	EstimatedDelivery *time.Time                        `firestore:"estimatedDelivery,omitempty"`
	RefundedTotal     int64                             `firestore:"refundedTotal"`
	ViewCount         int64                             `firestore:"viewCount"`
	LastViewedAt      *time.Time                        `firestore:"lastViewedAt,omitempty"`
	IsDeleted         bool                              `firestore:"isDeleted"`
	CreatedAt         time.Time                         `firestore:"createdAt"`
	UpdatedAt         time.Time                         `firestore:"updatedAt"`
	PaidAt            *time.Time                        `firestore:"paidAt,omitempty"`
	ShippedAt         *time.Time                        `firestore:"shippedAt,omitempty"`
	DeliveredAt       *time.Time                        `firestore:"deliveredAt,omitempty"`
	CompletedAt       *time.Time                        `firestore:"completedAt,omitempty"`
	CancelledAt       *time.Time                        `firestore:"cancelledAt,omitempty"`
	CancelReason      *string                           `firestore:"cancelReason,omitempty"`
}

type orderTotalsDocument struct {
	Subtotal int64 `firestore:"subtotal"`
	Discount int64 `firestore:"discount"`
	Shipping int64 `firestore:"shipping"`
	Tax      int64 `firestore:"tax"`
	Total    int64 `firestore:"total"`
}

type orderLineItemDocument struct {
	ID          string  `firestore:"id"`
	ProductID   string  `firestore:"productId"`
	VendorID    string  `firestore:"vendorId"`
	StoreID     string  `firestore:"storeId"`
	SKU         string  `firestore:"sku"`
	Name        string  `firestore:"name"`
	ImageURL    *string `firestore:"imageUrl,omitempty"`
	Quantity    int     `firestore:"quantity"`
	UnitPrice   int64   `firestore:"unitPrice"`
	Total       int64   `firestore:"total"`
	WeightGrams int     `firestore:"weightGrams"`
}

type orderContactDocument struct {
	Name  string  `firestore:"name"`
	Email string  `firestore:"email"`
	Phone *string `firestore:"phone,omitempty"`
}

type statusHistoryEntryDocument struct {
	Status   string         `firestore:"status"`
	At       time.Time      `firestore:"at"`
	Actor    *actorDocument `firestore:"actor,omitempty"`
	Note     *string        `firestore:"note,omitempty"`
	Location *string        `firestore:"location,omitempty"`
}

type actorDocument struct {
	ID   string `firestore:"id"`
	Role string `firestore:"role"`
}

type vendorOrderDocument struct {
	VendorID       string     `firestore:"vendorId"`
	StoreID        string     `firestore:"storeId"`
	Status         string     `firestore:"status"`
	ItemIDs        []string   `firestore:"itemIds"`
	Subtotal       int64      `firestore:"subtotal"`
	Carrier        *string    `firestore:"carrier,omitempty"`
	TrackingNumber *string    `firestore:"trackingNumber,omitempty"`
	TrackingURL    *string    `firestore:"trackingUrl,omitempty"`
	VendorNotes    *string    `firestore:"vendorNotes,omitempty"`
	ShippedAt      *time.Time `firestore:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `firestore:"deliveredAt,omitempty"`
	UpdatedAt      time.Time  `firestore:"updatedAt"`
}

type returnRequestDocument struct {
	VendorID    string               `firestore:"vendorId"`
	Status      string               `firestore:"status"`
	Items       []returnItemDocument `firestore:"items"`
	Reason      string               `firestore:"reason"`
	Resolution  *string              `firestore:"resolution,omitempty"`
	RefundTotal int64                `firestore:"refundTotal"`
	RequestedAt time.Time            `firestore:"requestedAt"`
	UpdatedAt   time.Time            `firestore:"updatedAt"`
	RefundedAt  *time.Time           `firestore:"refundedAt,omitempty"`
}

type returnItemDocument struct {
	LineItemID string `firestore:"lineItemId"`
	Quantity   int    `firestore:"quantity"`
	UnitPrice  int64  `firestore:"unitPrice"`
}

type addressDocument struct {
	Recipient  string  `firestore:"recipient"`
	Line1      string  `firestore:"line1"`
	Line2      *string `firestore:"line2,omitempty"`
	City       string  `firestore:"city"`
	State      *string `firestore:"state,omitempty"`
	PostalCode string  `firestore:"postalCode"`
	Country    string  `firestore:"country"`
	Phone      *string `firestore:"phone,omitempty"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:       strings.TrimSpace(order.OrderNumber),
		CustomerUID:       strings.TrimSpace(order.CustomerID),
		Status:            string(order.Status),
		Currency:          strings.TrimSpace(order.Currency),
		Totals:            orderTotalsDocument(order.Totals),
		Contact:           orderContactDocument{Name: order.Contact.Name, Email: order.Contact.Email, Phone: cloneStringPointer(order.Contact.Phone)},
		ShippingMethod:    string(order.ShippingMethod),
		CouponCode:        cloneStringPointer(order.CouponCode),
		CustomerNotes:     cloneStringPointer(order.CustomerNotes),
		InternalNotes:     cloneStringPointer(order.InternalNotes),
		EstimatedDelivery: normalizeTimePointer(order.EstimatedDelivery),
		RefundedTotal:     order.RefundedTotal,
		ViewCount:         order.ViewCount,
		LastViewedAt:      normalizeTimePointer(order.LastViewedAt),
		IsDeleted:         order.IsDeleted,
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
		PaidAt:            normalizeTimePointer(order.PaidAt),
		ShippedAt:         normalizeTimePointer(order.ShippedAt),
		DeliveredAt:       normalizeTimePointer(order.DeliveredAt),
		CompletedAt:       normalizeTimePointer(order.CompletedAt),
		CancelledAt:       normalizeTimePointer(order.CancelledAt),
		CancelReason:      cloneStringPointer(order.CancelReason),
	}

	doc.Items = make([]orderLineItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderLineItemDocument{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VendorID:    item.VendorID,
			StoreID:     item.StoreID,
			SKU:         item.SKU,
			Name:        item.Name,
			ImageURL:    cloneStringPointer(item.ImageURL),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			WeightGrams: item.WeightGrams,
		})
	}

	doc.VendorOrders = make(map[string]vendorOrderDocument, len(order.VendorOrders))
	doc.VendorIDs = make([]string, 0, len(order.VendorOrders))
	for vendorID, vo := range order.VendorOrders {
		doc.VendorOrders[vendorID] = encodeVendorOrder(vo)
		doc.VendorIDs = append(doc.VendorIDs, vendorID)
	}

	if len(order.Returns) > 0 {
		doc.Returns = make(map[string]returnRequestDocument, len(order.Returns))
		for returnID, ret := range order.Returns {
			doc.Returns[returnID] = encodeReturnRequest(ret)
		}
	}

	doc.StatusHistory = make([]statusHistoryEntryDocument, 0, len(order.History))
	for _, entry := range order.History {
		doc.StatusHistory = append(doc.StatusHistory, encodeHistoryEntry(entry))
	}

	doc.ShippingAddress = encodeAddress(order.ShippingAddress)
	doc.BillingAddress = encodeAddress(order.BillingAddress)
	return doc
}

func decodeOrderDocument(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:                id,
		OrderNumber:       doc.OrderNumber,
		CustomerID:        doc.CustomerUID,
		Status:            domain.OrderStatus(doc.Status),
		Currency:          doc.Currency,
		Totals:            domain.OrderTotals(doc.Totals),
		Contact:           domain.OrderContact{Name: doc.Contact.Name, Email: doc.Contact.Email, Phone: cloneStringPointer(doc.Contact.Phone)},
		ShippingMethod:    domain.ShippingMethod(doc.ShippingMethod),
		CouponCode:        cloneStringPointer(doc.CouponCode),
		CustomerNotes:     cloneStringPointer(doc.CustomerNotes),
		InternalNotes:     cloneStringPointer(doc.InternalNotes),
		EstimatedDelivery: cloneTimePointer(doc.EstimatedDelivery),
		RefundedTotal:     doc.RefundedTotal,
		ViewCount:         doc.ViewCount,
		LastViewedAt:      cloneTimePointer(doc.LastViewedAt),
		IsDeleted:         doc.IsDeleted,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
		PaidAt:            cloneTimePointer(doc.PaidAt),
		ShippedAt:         cloneTimePointer(doc.ShippedAt),
		DeliveredAt:       cloneTimePointer(doc.DeliveredAt),
		CompletedAt:       cloneTimePointer(doc.CompletedAt),
		CancelledAt:       cloneTimePointer(doc.CancelledAt),
		CancelReason:      cloneStringPointer(doc.CancelReason),
	}

	order.Items = make([]domain.OrderLineItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderLineItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VendorID:    item.VendorID,
			StoreID:     item.StoreID,
			SKU:         item.SKU,
			Name:        item.Name,
			ImageURL:    cloneStringPointer(item.ImageURL),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			WeightGrams: item.WeightGrams,
		})
	}

	order.VendorOrders = make(map[string]domain.VendorOrder, len(doc.VendorOrders))
	for vendorID, vo := range doc.VendorOrders {
		order.VendorOrders[vendorID] = decodeVendorOrder(vendorID, vo)
	}

	order.Returns = make(map[string]domain.ReturnRequest, len(doc.Returns))
	for returnID, ret := range doc.Returns {
		order.Returns[returnID] = decodeReturnRequest(returnID, ret)
	}

	order.History = make([]domain.StatusHistoryEntry, 0, len(doc.StatusHistory))
	for _, entry := range doc.StatusHistory {
		order.History = append(order.History, decodeHistoryEntry(entry))
	}

	order.ShippingAddress = decodeAddress(doc.ShippingAddress)
	order.BillingAddress = decodeAddress(doc.BillingAddress)
	return order
}

func encodeVendorOrder(vo domain.VendorOrder) vendorOrderDocument {
	return vendorOrderDocument{
		VendorID:       vo.VendorID,
		StoreID:        vo.StoreID,
		Status:         string(vo.Status),
		ItemIDs:        append([]string(nil), vo.ItemIDs...),
		Subtotal:       vo.Subtotal,
		Carrier:        cloneStringPointer(vo.Carrier),
		TrackingNumber: cloneStringPointer(vo.TrackingNumber),
		TrackingURL:    cloneStringPointer(vo.TrackingURL),
		VendorNotes:    cloneStringPointer(vo.VendorNotes),
		ShippedAt:      normalizeTimePointer(vo.ShippedAt),
		DeliveredAt:    normalizeTimePointer(vo.DeliveredAt),
		UpdatedAt:      vo.UpdatedAt.UTC(),
	}
}

func decodeVendorOrder(vendorID string, doc vendorOrderDocument) domain.VendorOrder {
	vo := domain.VendorOrder{
		VendorID:       doc.VendorID,
		StoreID:        doc.StoreID,
		Status:         domain.VendorOrderStatus(doc.Status),
		ItemIDs:        append([]string(nil), doc.ItemIDs...),
		Subtotal:       doc.Subtotal,
		Carrier:        cloneStringPointer(doc.Carrier),
		TrackingNumber: cloneStringPointer(doc.TrackingNumber),
		TrackingURL:    cloneStringPointer(doc.TrackingURL),
		VendorNotes:    cloneStringPointer(doc.VendorNotes),
		ShippedAt:      cloneTimePointer(doc.ShippedAt),
		DeliveredAt:    cloneTimePointer(doc.DeliveredAt),
		UpdatedAt:      doc.UpdatedAt,
	}
	if vo.VendorID == "" {
		vo.VendorID = vendorID
	}
	return vo
}

func encodeReturnRequest(ret domain.ReturnRequest) returnRequestDocument {
	doc := returnRequestDocument{
		VendorID:    ret.VendorID,
		Status:      string(ret.Status),
		Reason:      ret.Reason,
		Resolution:  cloneStringPointer(ret.Resolution),
		RefundTotal: ret.RefundTotal,
		RequestedAt: ret.RequestedAt.UTC(),
		UpdatedAt:   ret.UpdatedAt.UTC(),
		RefundedAt:  normalizeTimePointer(ret.RefundedAt),
	}
	doc.Items = make([]returnItemDocument, 0, len(ret.Items))
	for _, item := range ret.Items {
		doc.Items = append(doc.Items, returnItemDocument(item))
	}
	return doc
}

func decodeReturnRequest(returnID string, doc returnRequestDocument) domain.ReturnRequest {
	ret := domain.ReturnRequest{
		ID:          returnID,
		VendorID:    doc.VendorID,
		Status:      domain.ReturnStatus(doc.Status),
		Reason:      doc.Reason,
		Resolution:  cloneStringPointer(doc.Resolution),
		RefundTotal: doc.RefundTotal,
		RequestedAt: doc.RequestedAt,
		UpdatedAt:   doc.UpdatedAt,
		RefundedAt:  cloneTimePointer(doc.RefundedAt),
	}
	ret.Items = make([]domain.ReturnItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		ret.Items = append(ret.Items, domain.ReturnItem(item))
	}
	return ret
}

func encodeHistoryEntry(entry domain.StatusHistoryEntry) statusHistoryEntryDocument {
	doc := statusHistoryEntryDocument{
		Status:   string(entry.Status),
		At:       entry.At.UTC(),
		Note:     cloneStringPointer(entry.Note),
		Location: cloneStringPointer(entry.Location),
	}
	if entry.Actor != nil {
		doc.Actor = &actorDocument{ID: entry.Actor.ID, Role: entry.Actor.Role}
	}
	return doc
}

func decodeHistoryEntry(doc statusHistoryEntryDocument) domain.StatusHistoryEntry {
	entry := domain.StatusHistoryEntry{
		Status:   domain.OrderStatus(doc.Status),
		At:       doc.At,
		Note:     cloneStringPointer(doc.Note),
		Location: cloneStringPointer(doc.Location),
	}
	if doc.Actor != nil {
		entry.Actor = &domain.Actor{ID: doc.Actor.ID, Role: doc.Actor.Role}
	}
	return entry
}

func encodeAddress(addr *domain.Address) *addressDocument {
	if addr == nil {
		return nil
	}
	return &addressDocument{
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

func decodeAddress(doc *addressDocument) *domain.Address {
	if doc == nil {
		return nil
	}
	return &domain.Address{
		Recipient:  doc.Recipient,
		Line1:      doc.Line1,
		Line2:      cloneStringPointer(doc.Line2),
		City:       doc.City,
		State:      cloneStringPointer(doc.State),
		PostalCode: doc.PostalCode,
		Country:    doc.Country,
		Phone:      cloneStringPointer(doc.Phone),
	}
}

func normaliseStatusFilters(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(strings.ToLower(value))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func cloneStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func normalizeTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}

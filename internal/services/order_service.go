package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/infra"
	"storefront-service/internal/infra/metrics"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100

	// MaxLineQuantity bounds one product's quantity in an order, after
	// repeated lines are merged.
	MaxLineQuantity = 10000

	publishTimeout = 5 * time.Second
)

// CacheInvalidator drops cached analytics for the given artisans.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, artisanIDs ...uint64)
}

type OrderService struct {
	tx        repository.Transactor
	orders    repository.OrderRepository
	products  repository.ProductRepository
	publisher infra.EventPublisher
	cache     CacheInvalidator
	log       *logrus.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	pub infra.EventPublisher,
	logger *logrus.Logger,
) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		products:  products,
		publisher: pub,
		log:       logger,
		now:       time.Now,
	}
}

func (s *OrderService) SetCacheInvalidator(c CacheInvalidator) {
	s.cache = c
}

// Wait blocks until every event publish started so far has finished.
func (s *OrderService) Wait() {
	s.inflight.Wait()
}

// lineRequest is a request line with repeated product ids merged.
type lineRequest struct {
	productID uint64
	quantity  int64
}

func validateCreate(req domain.CreateOrderRequest) ([]lineRequest, error) {
	if req.CustomerID == 0 {
		return nil, domain.InvalidRequestf("customer id is required")
	}
	if len(req.Items) == 0 {
		return nil, domain.InvalidRequestf("order must contain at least one item")
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, domain.InvalidRequestf("shipping address is required")
	}
	if !domain.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, domain.InvalidRequestf("unsupported payment method %q", req.PaymentMethod)
	}

	lines := make([]lineRequest, 0, len(req.Items))
	index := make(map[uint64]int, len(req.Items))
	for i, it := range req.Items {
		if it.ProductID == 0 {
			return nil, domain.InvalidRequestf("item %d: product id is required", i)
		}
		if it.Quantity < 1 {
			return nil, domain.InvalidRequestf("item %d: quantity must be at least 1", i)
		}
		if it.Quantity > MaxLineQuantity {
			return nil, domain.InvalidRequestf("item %d: quantity must be at most %d", i, MaxLineQuantity)
		}
		if at, ok := index[it.ProductID]; ok {
			if lines[at].quantity > MaxLineQuantity-it.Quantity {
				return nil, domain.InvalidRequestf("product %d: total quantity must be at most %d", it.ProductID, MaxLineQuantity)
			}
			lines[at].quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, lineRequest{productID: it.ProductID, quantity: it.Quantity})
	}
	return lines, nil
}

// CreateOrder validates every line against current stock, then decrements
// stock for all of them and stores the order, all in one transaction. Any
// failure leaves every product's stock as it was.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	lines, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.lockProducts(ctx, lines)
		if err != nil {
			return err
		}

		o := &domain.Order{
			CustomerID:      req.CustomerID,
			Status:          domain.StatusPending,
			PaymentStatus:   domain.PaymentPending,
			PaymentMethod:   strings.ToLower(req.PaymentMethod),
			ShippingAddress: strings.TrimSpace(req.ShippingAddress),
			TotalAmount:     decimal.Zero,
		}
		for _, l := range lines {
			p := locked[l.productID]
			if p == nil {
				return &domain.ProductNotFoundError{ProductID: l.productID}
			}
			if l.quantity > p.Stock {
				return &domain.InsufficientStockError{ProductID: p.ID, Requested: l.quantity, Available: p.Stock}
			}
			item := domain.OrderItem{
				ProductID:   p.ID,
				ArtisanID:   p.ArtisanID,
				ProductName: p.Name,
				Category:    p.Category,
				Quantity:    l.quantity,
				UnitPrice:   p.Price,
			}
			o.Items = append(o.Items, item)
			o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
		}

		if err := s.decrementAll(ctx, lines); err != nil {
			return err
		}

		now := s.now()
		o.CreatedAt, o.UpdatedAt = now, now
		if err := s.orders.Save(ctx, o); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		metrics.RecordOrderOperation("create", false)
		s.log.WithField("customer_id", req.CustomerID).Warnf("Create order failed: %v", err)
		return nil, err
	}

	metrics.RecordOrderOperation("create", true)
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("Order created")

	s.afterOrderWrite(ctx, order, domain.EventOrderCreated)
	return order, nil
}

// lockProducts loads every requested product in ascending id order so that
// concurrent orders acquire row locks in the same sequence.
func (s *OrderService) lockProducts(ctx context.Context, lines []lineRequest) (map[uint64]*domain.Product, error) {
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.productID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[uint64]*domain.Product, len(ids))
	for _, id := range ids {
		p, err := s.products.LockByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", id, err)
		}
		out[id] = p
	}
	return out, nil
}

func (s *OrderService) decrementAll(ctx context.Context, lines []lineRequest) error {
	sorted := append([]lineRequest(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].productID < sorted[j].productID })

	for _, l := range sorted {
		ok, err := s.products.DecrementStock(ctx, l.productID, l.quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", l.productID, err)
		}
		if ok {
			continue
		}
		var available int64
		if p, err := s.products.FindByID(ctx, l.productID); err == nil && p != nil {
			available = p.Stock
		}
		return &domain.InsufficientStockError{ProductID: l.productID, Requested: l.quantity, Available: available}
	}
	return nil
}

// GetOrder returns an order to its customer or to an artisan with items in it.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id uint64) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if !canView(actor, o) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func canView(actor domain.Actor, o *domain.Order) bool {
	if actor.IsCustomer() && o.CustomerID == actor.ID {
		return true
	}
	return actor.IsArtisan() && o.HasArtisan(actor.ID)
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Order, error) {
	if !actor.IsCustomer() {
		return nil, domain.ErrForbidden
	}
	if offset < 0 {
		return nil, domain.InvalidRequestf("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.orders.FindByCustomer(ctx, actor.ID, limit, offset)
}

// TransitionStatus moves an order along its lifecycle. Permission is
// checked before the edge itself.
func (s *OrderService) TransitionStatus(ctx context.Context, actor domain.Actor, req domain.TransitionRequest) (*domain.Order, error) {
	if req.OrderID == 0 {
		return nil, domain.InvalidRequestf("order id is required")
	}
	if !domain.IsValidStatus(req.Status) {
		return nil, domain.InvalidRequestf("unknown status %q", req.Status)
	}
	if req.PaymentStatus != "" && !domain.IsValidPaymentStatus(req.PaymentStatus) {
		return nil, domain.InvalidRequestf("unknown payment status %q", req.PaymentStatus)
	}

	var updated *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, req.OrderID)
		if err != nil {
			return fmt.Errorf("load order %d: %w", req.OrderID, err)
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if !canTransition(actor, o, req.Status) {
			return domain.ErrForbidden
		}
		if !domain.CanTransition(o.Status, req.Status) {
			return &domain.IllegalTransitionError{From: o.Status, To: req.Status}
		}

		o.Status = req.Status
		if req.PaymentStatus != "" {
			o.PaymentStatus = req.PaymentStatus
		}
		if tn := strings.TrimSpace(req.TrackingNumber); tn != "" {
			o.TrackingNumber = tn
		}
		o.UpdatedAt = s.now()
		if err := s.orders.UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("update order %d: %w", o.ID, err)
		}
		updated = o
		return nil
	})
	if err != nil {
		metrics.RecordOrderOperation("transition", false)
		return nil, err
	}

	metrics.RecordOrderOperation("transition", true)
	s.log.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"status":   updated.Status,
		"actor_id": actor.ID,
	}).Info("Order status changed")

	s.afterOrderWrite(ctx, updated, domain.EventOrderStatusChanged)
	return updated, nil
}

func canTransition(actor domain.Actor, o *domain.Order, to domain.OrderStatus) bool {
	switch {
	case actor.IsArtisan():
		return o.HasArtisan(actor.ID)
	case actor.IsCustomer():
		return o.CustomerID == actor.ID && to == domain.StatusCancelled
	default:
		return false
	}
}

// afterOrderWrite drops the affected artisans' cached analytics and
// publishes the event in the background.
func (s *OrderService) afterOrderWrite(ctx context.Context, o *domain.Order, eventType string) {
	evt := domain.OrderEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		ArtisanIDs:    o.ArtisanIDs(),
		OccurredAt:    s.now(),
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, evt.ArtisanIDs...)
	}
	publishAsync(&s.inflight, s.publisher, s.log, eventType, evt)
}

func publishAsync(wg *sync.WaitGroup, pub infra.EventPublisher, log *logrus.Logger, routingKey string, evt any) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		publishEvent(ctx, pub, log, routingKey, evt)
	}()
}

func publishEvent(ctx context.Context, pub infra.EventPublisher, log *logrus.Logger, routingKey string, evt any) {
	if err := pub.Publish(ctx, routingKey, evt); err != nil {
		log.WithField("routing_key", routingKey).Errorf("Failed to publish event: %v", err)
		return
	}
	log.WithField("routing_key", routingKey).Debug("Event published")
}

package services

import (
	"context"
	"io"
	"testing"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/infra"
	"storefront-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	TestArtisanA  = uint64(10)
	TestArtisanB  = uint64(20)
	TestCustomer  = uint64(100)
	TestAddress   = "12 Potters Lane, Jaipur"
	TestPayMethod = "upi"
)

var (
	customer  = domain.Actor{ID: TestCustomer, Role: domain.RoleCustomer}
	artisanA  = domain.Actor{ID: TestArtisanA, Role: domain.RoleArtisan}
	artisanB  = domain.Actor{ID: TestArtisanB, Role: domain.RoleArtisan}
	testClock = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store     *memory.Store
	orders    *OrderService
	reviews   *ReviewService
	products  *ProductService
	analytics *AnalyticsService
}

func newFixture(pub infra.EventPublisher) *fixture {
	if pub == nil {
		pub = infra.NoopPublisher{}
	}
	store := memory.NewStore()
	log := quietLogger()

	f := &fixture{
		store:     store,
		orders:    NewOrderService(store, store.Orders(), store.Products(), pub, log),
		reviews:   NewReviewService(store, store.Reviews(), store.Products(), pub, log),
		products:  NewProductService(store.Products(), log),
		analytics: NewAnalyticsService(store, store.Orders(), store.Products(), log),
	}
	f.orders.SetCacheInvalidator(f.analytics)
	f.products.SetCacheInvalidator(f.analytics)
	f.setClock(testClock)
	return f
}

func (f *fixture) setClock(t time.Time) {
	now := func() time.Time { return t }
	f.store.SetClock(now)
	f.orders.now = now
	f.reviews.now = now
	f.analytics.now = now
}

// seedCatalog creates three products with ids 1, 2 and 3:
// a vase and a scarf owned by artisan A and a ring owned by artisan B.
func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100.00", 3)
	f.seedProduct(t, TestArtisanA, "Wool Scarf", "textiles", "25.50", 0)
	f.seedProduct(t, TestArtisanB, "Silver Ring", "jewelry", "40.00", 10)
}

func (f *fixture) seedProduct(t *testing.T, artisanID uint64, name, category, price string, stock int64) *domain.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), domain.Actor{ID: artisanID, Role: domain.RoleArtisan}, CreateProductRequest{
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID uint64) int64 {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) placeOrder(t *testing.T, customerID uint64, items ...domain.LineItemRequest) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), orderRequest(customerID, items...))
	require.NoError(t, err)
	return o
}

func orderRequest(customerID uint64, items ...domain.LineItemRequest) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: TestAddress,
		PaymentMethod:   TestPayMethod,
	}
}

func line(productID uint64, qty int64) domain.LineItemRequest {
	return domain.LineItemRequest{ProductID: productID, Quantity: qty}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

package analytics

import (
	"testing"
	"time"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	artisanA = uint64(10)
	artisanB = uint64(20)
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func item(productID, artisanID uint64, qty int64, price string) domain.OrderItem {
	return domain.OrderItem{
		ProductID: productID,
		ArtisanID: artisanID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func order(id, customerID uint64, createdAt time.Time, status domain.OrderStatus, items ...domain.OrderItem) domain.Order {
	return domain.Order{ID: id, CustomerID: customerID, CreatedAt: createdAt, Status: status, Items: items}
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		expected float64
	}{
		{name: "both zero", current: 0, previous: 0, expected: 0},
		{name: "from zero", current: 50, previous: 0, expected: 100},
		{name: "fifty percent up", current: 150, previous: 100, expected: 50},
		{name: "down", current: 50, previous: 200, expected: -75},
		{name: "rounded", current: 2, previous: 3, expected: -33.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Growth(tt.current, tt.previous))
		})
	}
}

func TestBuckets_CoverWindow(t *testing.T) {
	tests := []struct {
		tf    domain.TimeFrame
		count int
	}{
		{tf: domain.TimeFrame7Days, count: 7},
		{tf: domain.TimeFrame30Days, count: 4},
		{tf: domain.TimeFrame90Days, count: 3},
		{tf: domain.TimeFrame1Year, count: 12},
	}

	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			buckets := Buckets(tt.tf, now)
			require.Len(t, buckets, tt.count)

			start, end := Window(tt.tf, now)
			assert.Equal(t, start, buckets[0].Start)
			assert.Equal(t, end, buckets[len(buckets)-1].End)
			for i := 1; i < len(buckets); i++ {
				assert.Equal(t, buckets[i-1].End, buckets[i].Start)
				assert.True(t, buckets[i].Start.Before(buckets[i].End))
			}
		})
	}
}

func TestBuckets_Labels(t *testing.T) {
	daily := Buckets(domain.TimeFrame7Days, now)
	assert.Equal(t, "2026-10-17", daily[6].Period)
	assert.Equal(t, "2026-10-11", daily[0].Period)

	weekly := Buckets(domain.TimeFrame30Days, now)
	assert.Equal(t, "Week 1", weekly[0].Period)
	assert.Equal(t, "Week 4", weekly[3].Period)

	monthly := Buckets(domain.TimeFrame1Year, now)
	assert.Equal(t, "Month 12", monthly[11].Period)
}

func TestSalesTrend(t *testing.T) {
	s := Snapshot{
		ArtisanID: artisanA,
		Now:       now,
		Orders: []domain.Order{
			order(1, 1, now.Add(-1*time.Hour), domain.StatusPending,
				item(1, artisanA, 2, "100"), item(9, artisanB, 1, "999")),
			order(2, 2, now.Add(-3*domain.Day), domain.StatusDelivered, item(2, artisanA, 1, "50.50")),
			order(3, 3, now.Add(-7*domain.Day), domain.StatusConfirmed, item(1, artisanA, 1, "100")),
			order(4, 4, now, domain.StatusPending, item(1, artisanA, 1, "10")),
			order(5, 5, now.Add(-2*domain.Day), domain.StatusCancelled, item(1, artisanA, 5, "100")),
			order(6, 6, now.Add(-8*domain.Day), domain.StatusDelivered, item(1, artisanA, 1, "100")),
		},
	}

	buckets := SalesTrend(s, domain.TimeFrame7Days)
	require.Len(t, buckets, 7)

	total := decimal.Zero
	var orders int64
	for _, b := range buckets {
		total = total.Add(b.Revenue)
		orders += b.OrderCount
	}
	assertMoney(t, "360.50", total)
	assert.Equal(t, int64(4), orders)

	assert.Equal(t, int64(1), buckets[0].OrderCount, "window start is inclusive")
	assert.Equal(t, int64(2), buckets[6].OrderCount, "now is inclusive")
	assertMoney(t, "210", buckets[6].Revenue)
}

func TestSalesTrend_EmptyArtisan(t *testing.T) {
	buckets := SalesTrend(Snapshot{ArtisanID: artisanA, Now: now}, domain.TimeFrame30Days)
	require.Len(t, buckets, 4)
	for _, b := range buckets {
		assert.Zero(t, b.OrderCount)
		assert.True(t, b.Revenue.IsZero())
	}
}

func TestTopProducts(t *testing.T) {
	s := Snapshot{
		ArtisanID: artisanA,
		Now:       now,
		Products: []domain.Product{
			{ID: 1, Name: "Vase"},
			{ID: 2, Name: "Bowl"},
			{ID: 3, Name: "Mug"},
			{ID: 4, Name: "Plate"},
		},
		Orders: []domain.Order{
			order(1, 1, now.Add(-domain.Day), domain.StatusPending,
				item(1, artisanA, 1, "100"),
				item(2, artisanA, 4, "25"),
				item(3, artisanA, 2, "50"),
				item(9, artisanB, 10, "1000")),
			order(2, 2, now.Add(-2*domain.Day), domain.StatusPending, item(4, artisanA, 1, "300")),
			order(3, 3, now.Add(-40*domain.Day), domain.StatusPending, item(1, artisanA, 10, "100")),
		},
	}

	top := TopProducts(s, domain.TimeFrame30Days, 0)
	require.Len(t, top, 4)
	assert.Equal(t, []uint64{4, 2, 3, 1}, []uint64{top[0].ProductID, top[1].ProductID, top[2].ProductID, top[3].ProductID})
	assert.Equal(t, "Plate", top[0].Name)
	assertMoney(t, "100", top[1].Revenue)
	assert.Equal(t, int64(4), top[1].UnitsSold)

	limited := TopProducts(s, domain.TimeFrame30Days, 2)
	assert.Len(t, limited, 2)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, ClampLimit(0))
	assert.Equal(t, 10, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, 100, ClampLimit(500))
}

func TestCategoryPerformance(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Category: "pottery"},
		{ID: 2, Category: "textiles"},
		{ID: 3, Category: "jewelry"},
	}

	t.Run("percents sum to 100", func(t *testing.T) {
		s := Snapshot{
			ArtisanID: artisanA,
			Now:       now,
			Products:  products,
			Orders: []domain.Order{
				order(1, 1, now.Add(-400*domain.Day), domain.StatusDelivered,
					item(1, artisanA, 1, "10"), item(2, artisanA, 1, "10"), item(3, artisanA, 1, "10")),
			},
		}
		shares := CategoryPerformance(s)
		require.Len(t, shares, 3)

		sum := 0
		for _, sh := range shares {
			sum += sh.RevenuePercent
		}
		assert.Equal(t, 100, sum)
		assert.Equal(t, "jewelry", shares[0].Category)
		assert.Equal(t, 34, shares[0].RevenuePercent)
	})

	t.Run("zero revenue", func(t *testing.T) {
		shares := CategoryPerformance(Snapshot{ArtisanID: artisanA, Now: now, Products: products})
		require.Len(t, shares, 3)
		for _, sh := range shares {
			assert.Zero(t, sh.RevenuePercent)
		}
	})

	t.Run("ignores other artisans", func(t *testing.T) {
		s := Snapshot{
			ArtisanID: artisanA,
			Now:       now,
			Products:  products[:1],
			Orders: []domain.Order{
				order(1, 1, now, domain.StatusPending, item(1, artisanA, 3, "10"), item(8, artisanB, 1, "500")),
			},
		}
		shares := CategoryPerformance(s)
		require.Len(t, shares, 1)
		assert.Equal(t, 100, shares[0].RevenuePercent)
		assertMoney(t, "30", shares[0].Revenue)
	})
}

func TestCustomerInsightsFor(t *testing.T) {
	s := Snapshot{
		ArtisanID: artisanA,
		Now:       now,
		Orders: []domain.Order{
			order(1, 1, now.Add(-domain.Day), domain.StatusPending, item(1, artisanA, 1, "10")),
			order(2, 1, now.Add(-2*domain.Day), domain.StatusPending, item(1, artisanA, 1, "10")),
			order(3, 2, now.Add(-3*domain.Day), domain.StatusPending, item(1, artisanA, 1, "10")),
			order(4, 3, now.Add(-60*domain.Day), domain.StatusPending, item(1, artisanA, 1, "10")),
			order(5, 4, now.Add(-domain.Day), domain.StatusPending, item(7, artisanB, 1, "10")),
		},
	}

	got := CustomerInsightsFor(s, domain.TimeFrame30Days)
	assert.Equal(t, CustomerInsights{
		TotalCustomers:  2,
		RepeatCustomers: 1,
		TotalOrders:     3,
		RepeatRate:      0.3333,
	}, got)

	empty := CustomerInsightsFor(Snapshot{ArtisanID: artisanA, Now: now}, domain.TimeFrame7Days)
	assert.Equal(t, CustomerInsights{}, empty)
}

func TestInventoryInsights(t *testing.T) {
	s := Snapshot{
		ArtisanID: artisanA,
		Now:       now,
		Products: []domain.Product{
			{ID: 1, Name: "Vase", Stock: 3},
			{ID: 2, Name: "Bowl", Stock: 20},
			{ID: 3, Name: "Mug", Stock: 100},
			{ID: 4, Name: "Plate", Stock: 90},
		},
		Orders: []domain.Order{
			order(1, 1, now.Add(-5*domain.Day), domain.StatusPending, item(2, artisanA, 60, "1")),
			order(2, 1, now.Add(-5*domain.Day), domain.StatusPending, item(4, artisanA, 60, "1")),
			order(3, 1, now.Add(-45*domain.Day), domain.StatusPending, item(3, artisanA, 60, "1")),
		},
	}

	items := InventoryInsights(s)
	require.Len(t, items, 4)

	assert.Equal(t, InventoryLow, items[0].Status)
	assert.Nil(t, items[0].DaysRemaining)
	assert.Equal(t, "sufficient", items[0].StockOutlook)

	assert.Equal(t, 2.0, items[1].SalesVelocity)
	require.NotNil(t, items[1].DaysRemaining)
	assert.Equal(t, 10.0, *items[1].DaysRemaining)
	assert.Equal(t, InventoryMedium, items[1].Status)

	assert.Zero(t, items[2].SalesVelocity)
	assert.Nil(t, items[2].DaysRemaining)
	assert.Equal(t, InventoryGood, items[2].Status)

	require.NotNil(t, items[3].DaysRemaining)
	assert.Equal(t, 45.0, *items[3].DaysRemaining)
	assert.Equal(t, InventoryGood, items[3].Status)
}

func TestOverviewFor(t *testing.T) {
	s := Snapshot{
		ArtisanID: artisanA,
		Now:       now,
		Orders: []domain.Order{
			order(1, 1, now.Add(-domain.Day), domain.StatusPending, item(1, artisanA, 1, "100")),
			order(2, 2, now.Add(-2*domain.Day), domain.StatusPending, item(1, artisanA, 1, "50")),
			order(3, 3, now.Add(-10*domain.Day), domain.StatusPending, item(1, artisanA, 1, "100")),
			order(4, 4, now.Add(-14*domain.Day), domain.StatusCancelled, item(1, artisanA, 1, "999")),
			order(5, 5, now.Add(-20*domain.Day), domain.StatusPending, item(1, artisanA, 1, "1")),
		},
	}

	ov := OverviewFor(s, domain.TimeFrame7Days)
	assertMoney(t, "150", ov.Current.Revenue)
	assert.Equal(t, int64(2), ov.Current.OrderCount)
	assertMoney(t, "75", ov.Current.AverageOrderValue)
	assertMoney(t, "100", ov.Previous.Revenue)
	assert.Equal(t, int64(1), ov.Previous.OrderCount)
	assert.Equal(t, 50.0, ov.Growth.Revenue)
	assert.Equal(t, 100.0, ov.Growth.OrderCount)
	assert.Equal(t, -25.0, ov.Growth.AverageOrderValue)
}

func TestOverviewFor_Empty(t *testing.T) {
	ov := OverviewFor(Snapshot{ArtisanID: artisanA, Now: now}, domain.TimeFrame90Days)
	assert.True(t, ov.Current.Revenue.IsZero())
	assert.True(t, ov.Current.AverageOrderValue.IsZero())
	assert.Equal(t, GrowthRates{}, ov.Growth)
}

func TestLookbackFor(t *testing.T) {
	assert.True(t, LookbackFor(RollupCategories, domain.TimeFrame7Days, now).IsZero())
	assert.Equal(t, now.Add(-14*domain.Day), LookbackFor(RollupOverview, domain.TimeFrame7Days, now))
	assert.Equal(t, now.Add(-30*domain.Day), LookbackFor(RollupInventory, domain.TimeFrame7Days, now))
	assert.Equal(t, now.Add(-90*domain.Day), LookbackFor(RollupTopProducts, domain.TimeFrame90Days, now))
}

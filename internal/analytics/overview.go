package analytics

import (
	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

type PeriodTotals struct {
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int64           `json:"orderCount"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type GrowthRates struct {
	Revenue           float64 `json:"revenue"`
	OrderCount        float64 `json:"orderCount"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type Overview struct {
	TimeFrame domain.TimeFrame `json:"timeFrame"`
	Current   PeriodTotals     `json:"current"`
	Previous  PeriodTotals     `json:"previous"`
	Growth    GrowthRates      `json:"growth"`
}

// OverviewFor compares the window of tf with the window of equal length
// right before it. The previous window excludes its end instant, which
// belongs to the current one.
func OverviewFor(s Snapshot, tf domain.TimeFrame) Overview {
	curStart, curEnd := Window(tf, s.Now)
	prevStart := curStart.Add(-tf.Duration())

	var cur, prev PeriodTotals
	cur.Revenue, prev.Revenue = decimal.Zero, decimal.Zero
	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) || !ownsAny(o, s.ArtisanID) {
			continue
		}
		switch {
		case inRange(o.CreatedAt, curStart, curEnd):
			cur.Revenue = cur.Revenue.Add(ownedRevenue(o, s.ArtisanID))
			cur.OrderCount++
		case !o.CreatedAt.Before(prevStart) && o.CreatedAt.Before(curStart):
			prev.Revenue = prev.Revenue.Add(ownedRevenue(o, s.ArtisanID))
			prev.OrderCount++
		}
	}
	cur.AverageOrderValue = averageOrderValue(cur)
	prev.AverageOrderValue = averageOrderValue(prev)

	return Overview{
		TimeFrame: tf,
		Current:   present(cur),
		Previous:  present(prev),
		Growth: GrowthRates{
			Revenue:           Growth(cur.Revenue.InexactFloat64(), prev.Revenue.InexactFloat64()),
			OrderCount:        Growth(float64(cur.OrderCount), float64(prev.OrderCount)),
			AverageOrderValue: Growth(cur.AverageOrderValue.InexactFloat64(), prev.AverageOrderValue.InexactFloat64()),
		},
	}
}

func averageOrderValue(t PeriodTotals) decimal.Decimal {
	if t.OrderCount == 0 {
		return decimal.Zero
	}
	return t.Revenue.Div(decimal.NewFromInt(t.OrderCount))
}

func present(t PeriodTotals) PeriodTotals {
	t.Revenue = t.Revenue.Round(2)
	t.AverageOrderValue = t.AverageOrderValue.Round(2)
	return t
}

// Dashboard bundles every rollup for one artisan and time frame.
type Dashboard struct {
	TimeFrame   domain.TimeFrame `json:"timeFrame"`
	Overview    Overview         `json:"overview"`
	SalesTrend  []TrendBucket    `json:"salesTrend"`
	TopProducts []ProductSales   `json:"topProducts"`
	Categories  []CategoryShare  `json:"categories"`
	Customers   CustomerInsights `json:"customers"`
	Inventory   []InventoryItem  `json:"inventory"`
}

// Package analytics computes per-artisan sales rollups. Every function is a
// pure read of a Snapshot, so rollups built from one Snapshot agree with
// each other and can run in parallel.
package analytics

import (
	"math"
	"time"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Snapshot is everything a rollup may look at for one artisan. Orders must
// be the orders containing at least one of the artisan's line items.
type Snapshot struct {
	ArtisanID uint64
	Products  []domain.Product
	Orders    []domain.Order
	Now       time.Time
}

// Window resolves tf to [now - duration, now].
func Window(tf domain.TimeFrame, now time.Time) (start, end time.Time) {
	return now.Add(-tf.Duration()), now
}

// LookbackFor is the earliest instant the named rollup reads for tf. A zero
// time means the rollup reads all history.
func LookbackFor(rollup string, tf domain.TimeFrame, now time.Time) time.Time {
	switch rollup {
	case RollupCategories, RollupDashboard:
		return time.Time{}
	case RollupOverview:
		return now.Add(-2 * tf.Duration())
	case RollupInventory:
		return now.Add(-velocityWindow)
	default:
		start, _ := Window(tf, now)
		return start
	}
}

const (
	RollupSalesTrend  = "sales-trend"
	RollupTopProducts = "top-products"
	RollupCategories  = "categories"
	RollupCustomers   = "customers"
	RollupInventory   = "inventory"
	RollupOverview    = "overview"
	RollupDashboard   = "dashboard"
)

// counts reports whether an order contributes to revenue, units and
// customer figures.
func counts(o *domain.Order) bool {
	return o.Status != domain.StatusCancelled
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// ownedRevenue sums the order's line items that belong to artisanID.
func ownedRevenue(o *domain.Order, artisanID uint64) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		if it.ArtisanID == artisanID {
			total = total.Add(it.Subtotal())
		}
	}
	return total
}

func ownsAny(o *domain.Order, artisanID uint64) bool {
	return o.HasArtisan(artisanID)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Growth compares current against previous as a percentage. With no
// previous value it is 100 when current is positive and 0 otherwise.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round((current-previous)/previous*100, 2)
}

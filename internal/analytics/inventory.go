package analytics

import "storefront-service/internal/domain"

const (
	velocityWindow = 30 * domain.Day

	lowStockThreshold   = 5
	mediumDaysThreshold = 15.0
)

type InventoryStatus string

const (
	InventoryLow    InventoryStatus = "low"
	InventoryMedium InventoryStatus = "medium"
	InventoryGood   InventoryStatus = "good"
)

type InventoryItem struct {
	ProductID     uint64  `json:"productId"`
	Name          string  `json:"name"`
	Stock         int64   `json:"stock"`
	SalesVelocity float64 `json:"salesVelocity"`
	// DaysRemaining is nil when nothing sold in the last 30 days.
	DaysRemaining *float64        `json:"daysRemaining"`
	StockOutlook  string          `json:"stockOutlook"`
	Status        InventoryStatus `json:"status"`
}

// InventoryInsights reports, for every product the artisan owns, how fast
// it sold over the last 30 days and how long the stock will last.
func InventoryInsights(s Snapshot) []InventoryItem {
	since := s.Now.Add(-velocityWindow)
	sold := make(map[uint64]int64)
	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) || !inRange(o.CreatedAt, since, s.Now) {
			continue
		}
		for _, it := range o.Items {
			if it.ArtisanID == s.ArtisanID {
				sold[it.ProductID] += it.Quantity
			}
		}
	}

	out := make([]InventoryItem, 0, len(s.Products))
	for _, p := range s.Products {
		velocity := float64(sold[p.ID]) / (float64(velocityWindow) / float64(domain.Day))
		item := InventoryItem{
			ProductID:     p.ID,
			Name:          p.Name,
			Stock:         p.Stock,
			SalesVelocity: round(velocity, 2),
		}
		if velocity > 0 {
			days := round(float64(p.Stock)/velocity, 2)
			item.DaysRemaining = &days
			item.StockOutlook = "limited"
		} else {
			item.StockOutlook = "sufficient"
		}
		item.Status = classify(p.Stock, item.DaysRemaining)
		out = append(out, item)
	}
	return out
}

func classify(stock int64, daysRemaining *float64) InventoryStatus {
	switch {
	case stock < lowStockThreshold:
		return InventoryLow
	case daysRemaining != nil && *daysRemaining < mediumDaysThreshold:
		return InventoryMedium
	default:
		return InventoryGood
	}
}

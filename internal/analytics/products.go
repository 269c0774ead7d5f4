package analytics

import (
	"sort"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopProductsLimit = 10
	MaxTopProductsLimit     = 100
)

type ProductSales struct {
	ProductID uint64          `json:"productId"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
	UnitsSold int64           `json:"unitsSold"`
}

// ClampLimit maps a caller-supplied limit onto 1..MaxTopProductsLimit; a
// non-positive limit means the default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopProductsLimit
	}
	if limit > MaxTopProductsLimit {
		return MaxTopProductsLimit
	}
	return limit
}

// TopProducts ranks the artisan's products by revenue in the window, then
// by units sold, then by ascending product id.
func TopProducts(s Snapshot, tf domain.TimeFrame, limit int) []ProductSales {
	start, end := Window(tf, s.Now)
	names := make(map[uint64]string, len(s.Products))
	for _, p := range s.Products {
		names[p.ID] = p.Name
	}

	byProduct := make(map[uint64]*ProductSales)
	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) || !inRange(o.CreatedAt, start, end) {
			continue
		}
		for _, it := range o.Items {
			if it.ArtisanID != s.ArtisanID {
				continue
			}
			ps, ok := byProduct[it.ProductID]
			if !ok {
				name, known := names[it.ProductID]
				if !known {
					name = it.ProductName
				}
				ps = &ProductSales{ProductID: it.ProductID, Name: name, Revenue: decimal.Zero}
				byProduct[it.ProductID] = ps
			}
			ps.Revenue = ps.Revenue.Add(it.Subtotal())
			ps.UnitsSold += it.Quantity
		}
	}

	out := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ProductID < out[j].ProductID
	})

	if n := ClampLimit(limit); len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out
}

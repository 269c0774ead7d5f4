package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

type CategoryShare struct {
	Category       string          `json:"category"`
	Revenue        decimal.Decimal `json:"revenue"`
	RevenuePercent int             `json:"revenuePercent"`
}

// CategoryPerformance splits the artisan's all-time revenue by product
// category. It ignores the reporting window. Percentages are whole numbers
// that add up to exactly 100, or are all 0 when there is no revenue.
func CategoryPerformance(s Snapshot) []CategoryShare {
	categoryOf := make(map[uint64]string, len(s.Products))
	revenue := make(map[string]decimal.Decimal)
	for _, p := range s.Products {
		categoryOf[p.ID] = p.Category
		if _, ok := revenue[p.Category]; !ok {
			revenue[p.Category] = decimal.Zero
		}
	}

	total := decimal.Zero
	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) {
			continue
		}
		for _, it := range o.Items {
			if it.ArtisanID != s.ArtisanID {
				continue
			}
			cat, ok := categoryOf[it.ProductID]
			if !ok {
				cat = it.Category
			}
			sub := it.Subtotal()
			revenue[cat] = revenue[cat].Add(sub)
			total = total.Add(sub)
		}
	}

	out := make([]CategoryShare, 0, len(revenue))
	for cat, rev := range revenue {
		out = append(out, CategoryShare{Category: cat, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})

	if total.IsPositive() {
		assignPercents(out, total)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out
}

// assignPercents uses largest-remainder rounding. out must be sorted so
// that ties on the remainder go to the earlier entry.
func assignPercents(out []CategoryShare, total decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	remainders := make([]decimal.Decimal, len(out))
	assigned := 0
	for i := range out {
		exact := out[i].Revenue.Mul(hundred).Div(total)
		floor := exact.Floor()
		out[i].RevenuePercent = int(floor.IntPart())
		remainders[i] = exact.Sub(floor)
		assigned += out[i].RevenuePercent
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].Cmp(remainders[order[b]]) > 0
	})
	for k := 0; assigned < 100 && k < len(order); k++ {
		out[order[k]].RevenuePercent++
		assigned++
	}
}

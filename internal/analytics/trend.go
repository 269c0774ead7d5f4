package analytics

import (
	"fmt"
	"time"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

type TrendBucket struct {
	Period     string          `json:"period"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	OrderCount int64           `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type bucketPlan struct {
	count int
	width time.Duration
	label func(i int, start time.Time) string
}

func planFor(tf domain.TimeFrame) bucketPlan {
	switch tf {
	case domain.TimeFrame7Days:
		return bucketPlan{count: 7, width: domain.Day, label: func(_ int, start time.Time) string {
			return start.Format("2006-01-02")
		}}
	case domain.TimeFrame30Days:
		return bucketPlan{count: 4, width: 7 * domain.Day, label: func(i int, _ time.Time) string {
			return fmt.Sprintf("Week %d", i+1)
		}}
	case domain.TimeFrame90Days:
		return bucketPlan{count: 3, width: 30 * domain.Day, label: monthLabel}
	default:
		return bucketPlan{count: 12, width: 30 * domain.Day, label: monthLabel}
	}
}

func monthLabel(i int, _ time.Time) string {
	return fmt.Sprintf("Month %d", i+1)
}

// Buckets partitions the window of tf into contiguous buckets, laid
// backwards from now. The earliest bucket absorbs whatever the fixed
// bucket widths leave over.
func Buckets(tf domain.TimeFrame, now time.Time) []TrendBucket {
	plan := planFor(tf)
	windowStart, _ := Window(tf, now)

	out := make([]TrendBucket, plan.count)
	end := now
	for i := plan.count - 1; i >= 0; i-- {
		start := end.Add(-plan.width)
		if i == 0 {
			start = windowStart
		}
		out[i] = TrendBucket{Start: start, End: end, Revenue: decimal.Zero}
		end = start
	}
	for i := range out {
		out[i].Period = plan.label(i, out[i].Start)
	}
	return out
}

// SalesTrend emits every bucket of the window in chronological order, empty
// ones included. Revenue counts only the artisan's own line items.
func SalesTrend(s Snapshot, tf domain.TimeFrame) []TrendBucket {
	buckets := Buckets(tf, s.Now)
	last := len(buckets) - 1

	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) || !ownsAny(o, s.ArtisanID) {
			continue
		}
		for b := range buckets {
			inBucket := !o.CreatedAt.Before(buckets[b].Start) &&
				(o.CreatedAt.Before(buckets[b].End) || (b == last && o.CreatedAt.Equal(buckets[b].End)))
			if inBucket {
				buckets[b].OrderCount++
				buckets[b].Revenue = buckets[b].Revenue.Add(ownedRevenue(o, s.ArtisanID))
				break
			}
		}
	}

	for i := range buckets {
		buckets[i].Revenue = buckets[i].Revenue.Round(2)
	}
	return buckets
}

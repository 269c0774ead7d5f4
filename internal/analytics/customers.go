package analytics

import "storefront-service/internal/domain"

type CustomerInsights struct {
	TotalCustomers  int64   `json:"totalCustomers"`
	RepeatCustomers int64   `json:"repeatCustomers"`
	TotalOrders     int64   `json:"totalOrders"`
	RepeatRate      float64 `json:"repeatRate"`
}

// CustomerInsightsFor counts distinct and repeat buyers in the window.
// RepeatRate is repeat customers over total orders.
func CustomerInsightsFor(s Snapshot, tf domain.TimeFrame) CustomerInsights {
	start, end := Window(tf, s.Now)
	perCustomer := make(map[uint64]int64)
	var orders int64
	for i := range s.Orders {
		o := &s.Orders[i]
		if !counts(o) || !ownsAny(o, s.ArtisanID) || !inRange(o.CreatedAt, start, end) {
			continue
		}
		perCustomer[o.CustomerID]++
		orders++
	}

	out := CustomerInsights{
		TotalCustomers: int64(len(perCustomer)),
		TotalOrders:    orders,
	}
	for _, n := range perCustomer {
		if n >= 2 {
			out.RepeatCustomers++
		}
	}
	if orders > 0 {
		out.RepeatRate = round(float64(out.RepeatCustomers)/float64(orders), 4)
	}
	return out
}

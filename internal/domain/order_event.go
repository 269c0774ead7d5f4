package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventReviewCreated      = "review.created"
	EventReviewUpdated      = "review.updated"
	EventReviewDeleted      = "review.deleted"
)

type OrderEvent struct {
	EventID       string          `json:"eventId"`
	Type          string          `json:"type"`
	OrderID       uint64          `json:"orderId"`
	CustomerID    uint64          `json:"customerId"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ArtisanIDs    []uint64        `json:"artisanIds"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

type ReviewEvent struct {
	EventID     string    `json:"eventId"`
	Type        string    `json:"type"`
	ReviewID    uint64    `json:"reviewId"`
	ProductID   uint64    `json:"productId"`
	Rating      float64   `json:"rating"`
	ReviewCount int64     `json:"reviewCount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (e OrderEvent) EventKey() string { return "order-" + strconv.FormatUint(e.OrderID, 10) }

func (e ReviewEvent) EventKey() string { return "product-" + strconv.FormatUint(e.ProductID, 10) }

package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// transitions lists every legal edge of the order lifecycle.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

var paymentMethods = map[string]struct{}{
	"card":   {},
	"upi":    {},
	"cod":    {},
	"wallet": {},
}

type Order struct {
	ID              uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID      uint64          `json:"customerId" gorm:"not null;index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:decimal(14,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentMethod   string          `json:"paymentMethod" gorm:"type:varchar(16);not null"`
	ShippingAddress string          `json:"shippingAddress" gorm:"type:varchar(512);not null"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" gorm:"type:varchar(64)"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is one line of an order. UnitPrice, ArtisanID, Category and
// ProductName are captured when the order is placed and never refreshed.
type OrderItem struct {
	ID          uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64          `json:"-" gorm:"not null;index"`
	ProductID   uint64          `json:"productId" gorm:"not null;index"`
	ArtisanID   uint64          `json:"artisanId" gorm:"not null;index"`
	ProductName string          `json:"productName" gorm:"type:varchar(255)"`
	Category    string          `json:"category" gorm:"type:varchar(100)"`
	Quantity    int64           `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// ArtisanIDs returns the distinct owners of the order's line items, ascending.
func (o *Order) ArtisanIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(o.Items))
	out := make([]uint64, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ArtisanID]; ok {
			continue
		}
		seen[it.ArtisanID] = struct{}{}
		out = append(out, it.ArtisanID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (o *Order) HasArtisan(artisanID uint64) bool {
	for _, it := range o.Items {
		if it.ArtisanID == artisanID {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func IsValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

func IsValidPaymentMethod(method string) bool {
	_, ok := paymentMethods[strings.ToLower(method)]
	return ok
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type LineItemRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID      uint64
	Items           []LineItemRequest
	ShippingAddress string
	PaymentMethod   string
}

type TransitionRequest struct {
	OrderID        uint64
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	TrackingNumber string
}

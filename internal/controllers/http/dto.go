package http

import (
	"time"

	"storefront-service/internal/domain"

	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	ProductID uint64 `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

type CreateOrderRequest struct {
	Items           []LineItemRequest `json:"items" binding:"required"`
	ShippingAddress string            `json:"shippingAddress" binding:"required"`
	PaymentMethod   string            `json:"paymentMethod" binding:"required"`
}

type TransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	PaymentStatus  string `json:"paymentStatus"`
	TrackingNumber string `json:"trackingNumber"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type CreateProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type OrderItemResponse struct {
	ProductID   uint64 `json:"productId"`
	ArtisanID   uint64 `json:"artisanId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID              uint64               `json:"id"`
	CustomerID      uint64               `json:"customerId"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentStatus   domain.PaymentStatus `json:"paymentStatus"`
	PaymentMethod   string               `json:"paymentMethod"`
	ShippingAddress string               `json:"shippingAddress"`
	TrackingNumber  string               `json:"trackingNumber,omitempty"`
	TotalAmount     string               `json:"totalAmount"`
	Items           []OrderItemResponse  `json:"items"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   it.ProductID,
			ArtisanID:   it.ArtisanID,
			ProductName: it.ProductName,
			Category:    it.Category,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Subtotal:    it.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type ProductResponse struct {
	ID          uint64  `json:"id"`
	ArtisanID   uint64  `json:"artisanId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       string  `json:"price"`
	Stock       int64   `json:"stock"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"reviewCount"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		ArtisanID:   p.ArtisanID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Rating:      p.DisplayRating(),
		ReviewCount: p.ReviewCount,
	}
}

// ReviewMutationResponse pairs a review with the product's refreshed rating.
type ReviewMutationResponse struct {
	Review  *domain.Review       `json:"review,omitempty"`
	Product domain.RatingSummary `json:"product"`
}

func displaySummary(s domain.RatingSummary) domain.RatingSummary {
	s.Rating = domain.RoundRating(s.Rating)
	return s
}

package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Rating and ReviewCount are a materialized view
// of the product's reviews; repositories never persist them from a Product
// value and only ProductRepository.SetRatingSummary writes them.
type Product struct {
	ID          uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	ArtisanID   uint64          `json:"artisanId" gorm:"not null;index"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int64           `json:"stock" gorm:"not null;default:0"`
	Rating      float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount int64           `json:"reviewCount" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p Product) DisplayRating() float64 {
	return RoundRating(p.Rating)
}

type RatingSummary struct {
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"reviewCount"`
}

func RoundRating(r float64) float64 {
	return math.Round(r*100) / 100
}

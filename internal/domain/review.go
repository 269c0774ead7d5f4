package domain

import "time"

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

type Review struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint64    `json:"productId" gorm:"not null;uniqueIndex:idx_reviews_author_product,priority:2;index"`
	AuthorID  uint64    `json:"authorId" gorm:"not null;uniqueIndex:idx_reviews_author_product,priority:1"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	Helpful   int64     `json:"helpful" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func IsValidRating(r int) bool {
	return r >= MinReviewRating && r <= MaxReviewRating
}

package services

import (
	"context"
	"fmt"
	"strings"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductService struct {
	products repository.ProductRepository
	cache    CacheInvalidator
	log      *logrus.Logger
}

func NewProductService(products repository.ProductRepository, logger *logrus.Logger) *ProductService {
	return &ProductService{products: products, log: logger}
}

func (s *ProductService) SetCacheInvalidator(c CacheInvalidator) {
	s.cache = c
}

type CreateProductRequest struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int64
}

// CreateProduct lists a new product owned by the calling artisan.
func (s *ProductService) CreateProduct(ctx context.Context, actor domain.Actor, req CreateProductRequest) (*domain.Product, error) {
	if !actor.IsArtisan() {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.InvalidRequestf("name is required")
	}
	if !req.Price.IsPositive() {
		return nil, domain.InvalidRequestf("price must be positive")
	}
	if req.Stock < 0 {
		return nil, domain.InvalidRequestf("stock must not be negative")
	}

	p := &domain.Product{
		ArtisanID: actor.ID,
		Name:      name,
		Category:  strings.ToLower(strings.TrimSpace(req.Category)),
		Price:     req.Price.Round(2),
		Stock:     req.Stock,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	// Inventory insights list every product the artisan owns.
	if s.cache != nil {
		s.cache.Invalidate(ctx, actor.ID)
	}
	s.log.WithFields(logrus.Fields{"product_id": p.ID, "artisan_id": actor.ID}).Info("Product created")
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return p, nil
}

// UpdatePrice changes the list price. Orders already placed keep the price
// captured on their line items.
func (s *ProductService) UpdatePrice(ctx context.Context, actor domain.Actor, id uint64, price decimal.Decimal) (*domain.Product, error) {
	if !price.IsPositive() {
		return nil, domain.InvalidRequestf("price must be positive")
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsArtisan() || p.ArtisanID != actor.ID {
		return nil, domain.ErrForbidden
	}
	if err := s.products.UpdatePrice(ctx, id, price.Round(2)); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

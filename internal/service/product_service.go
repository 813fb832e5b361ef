package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
)

const (
	PageSize             = 12
	RelatedLimit         = 4
	DefaultFeaturedLimit = 4
	DefaultCategoryLimit = 8

	featuredCacheKey = "default"
)

type ProductStore interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int64, error)
	ListRelated(ctx context.Context, p *domain.Product, limit int) ([]*domain.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	AddReview(ctx context.Context, id string, review domain.Review) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

type OrderReferences interface {
	ReferencesProduct(ctx context.Context, productID string) (bool, error)
}

type ProductQuery struct {
	Page     int
	Category string
	MinPrice *float64
	MaxPrice *float64
	Keyword  string
	SortBy   string
}

type ProductPage struct {
	Products      []domain.ProductView `json:"products"`
	Page          int                  `json:"page"`
	Pages         int                  `json:"pages"`
	TotalProducts int64                `json:"totalProducts"`
}

type ProductDetail struct {
	domain.ProductView
	RelatedProducts []domain.ProductView `json:"relatedProducts"`
}

// ProductInput carries admin edits. Nil fields keep their current value on update.
type ProductInput struct {
	Name           *string           `json:"name" validate:"omitempty,min=1"`
	Description    *string           `json:"description"`
	Price          *float64          `json:"price" validate:"omitempty,gte=0"`
	Discount       *float64          `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Stock          *int              `json:"stock" validate:"omitempty,gte=0"`
	Category       *string           `json:"category"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
	Featured       *bool             `json:"featured"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

type ProductService struct {
	products ProductStore
	orders   OrderReferences
	featured cache.Cache[[]*domain.Product]
	events   EventPublisher
	logger   *zap.Logger
}

func NewProductService(products ProductStore, orders OrderReferences, featured cache.Cache[[]*domain.Product], events EventPublisher, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		orders:   orders,
		featured: featured,
		events:   events,
		logger:   logger.Named("products"),
	}
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	filter := repository.ProductFilter{
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Keyword:  q.Keyword,
		Page:     max(q.Page, 1),
		PageSize: PageSize,
	}
	if q.Category != "" && q.Category != "all" {
		filter.Category = domain.Category(q.Category)
	}
	switch sort := repository.SortOrder(q.SortBy); sort {
	case repository.SortPriceAsc, repository.SortPriceDesc, repository.SortNameAsc, repository.SortNameDesc:
		filter.Sort = sort
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Products:      views(products),
		Page:          filter.Page,
		Pages:         int(math.Ceil(float64(total) / float64(PageSize))),
		TotalProducts: total,
	}, nil
}

// Get returns the product with related items from the same category.
func (s *ProductService) Get(ctx context.Context, id string) (*ProductDetail, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.products.ListRelated(ctx, p, RelatedLimit)
	if err != nil {
		s.logger.Warn("failed to load related products", zap.String("product_id", id), zap.Error(err))
		related = nil
	}
	s.alertIfLow(p)

	return &ProductDetail{
		ProductView:     domain.NewProductView(p),
		RelatedProducts: views(related),
	}, nil
}

func (s *ProductService) Featured(ctx context.Context, limit int) ([]domain.ProductView, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	if limit != DefaultFeaturedLimit {
		products, err := s.products.ListFeatured(ctx, limit)
		if err != nil {
			return nil, err
		}
		return views(products), nil
	}

	if cached, err := s.featured.Get(ctx, featuredCacheKey); err == nil {
		return views(*cached), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("featured cache get failed", zap.Error(err))
	}

	products, err := s.products.ListFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.featured.Set(ctx, featuredCacheKey, &products); err != nil {
		s.logger.Warn("featured cache set failed", zap.Error(err))
	}
	return views(products), nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string, limit int) ([]domain.ProductView, error) {
	c := domain.Category(category)
	if !c.Valid() {
		return nil, invalid("unknown category %q", category)
	}
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}
	products, err := s.products.ListByCategory(ctx, c, limit)
	if err != nil {
		return nil, err
	}
	return views(products), nil
}

// AddReview records the identity's review. Each user may review a product once.
func (s *ProductService) AddReview(ctx context.Context, id string, who domain.Identity, userName string, in ReviewInput) (*domain.Product, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	p, err := s.products.AddReview(ctx, id, domain.Review{
		UserID:    who.UserID,
		UserName:  userName,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now(),
	})
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return nil, invalid("%v", err)
	case err != nil:
		return nil, err
	}
	s.invalidateFeatured()
	return p, nil
}

// UpdateStock takes quantity units out of stock, refusing to go below zero.
func (s *ProductService) UpdateStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, invalid("quantity is required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Stock < quantity {
		return nil, invalid("insufficient stock: %d available", p.Stock)
	}

	updated, err := s.products.DecrementStock(ctx, id, quantity)
	switch {
	case errors.Is(err, repository.ErrStockConflict):
		return nil, invalid("insufficient stock")
	case errors.Is(err, repository.ErrProductNotFound):
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	case err != nil:
		return nil, err
	}

	s.invalidateFeatured()
	s.alertIfLow(updated)
	return updated, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if in.Name == nil || in.Price == nil || in.Category == nil {
		return nil, invalid("name, price and category are required")
	}
	p := &domain.Product{Images: []string{}}
	if err := applyInput(p, in); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateProduct) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}
	s.invalidateFeatured()
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(p, in); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateProduct):
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, err
	}
	s.invalidateFeatured()
	s.alertIfLow(p)
	return p, nil
}

// Delete removes a product that no order references.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	referenced, err := s.orders.ReferencesProduct(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: product is referenced by existing orders", ErrConflict)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return err
	}
	s.invalidateFeatured()
	return nil
}

func applyInput(p *domain.Product, in ProductInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		c := domain.Category(*in.Category)
		if !c.Valid() {
			return invalid("unknown category %q", *in.Category)
		}
		p.Category = c
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Specifications != nil {
		p.Specifications = in.Specifications
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	return nil
}

func (s *ProductService) load(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) alertIfLow(p *domain.Product) {
	if !p.IsLowStock() {
		return
	}
	s.events.PublishStockAlert(domain.StockAlert{
		ProductID:   p.ID.Hex(),
		ProductName: p.Name,
		Stock:       p.Stock,
	})
}

// InvalidateCatalog drops cached listings after stock moved through checkout.
func (s *ProductService) InvalidateCatalog() {
	s.invalidateFeatured()
}

func (s *ProductService) invalidateFeatured() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.featured.Delete(ctx, featuredCacheKey); err != nil {
		s.logger.Warn("featured cache invalidate failed", zap.Error(err))
	}
}

func views(products []*domain.Product) []domain.ProductView {
	out := make([]domain.ProductView, len(products))
	for i, p := range products {
		out[i] = domain.NewProductView(p)
	}
	return out
}

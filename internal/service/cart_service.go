package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartStore interface {
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type ProductReader interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type CartService struct {
	repo     CartStore
	products ProductReader
	cache    cache.Cache[domain.Cart]
	sfg      singleflight.Group
	logger   *zap.Logger
}

func NewCartService(repo CartStore, products ProductReader, cache cache.Cache[domain.Cart], logger *zap.Logger) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
		logger:   logger.Named("cart"),
	}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		cart, err = s.repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, userID, cart); err != nil {
				s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
			}
		}()
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return nil, err
	}

	if err := s.repo.AddItem(ctx, userID, domain.CartItem{ProductID: productID, Quantity: quantity}); err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, userID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return nil, err
	}

	err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: product is not in the cart", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	err := s.repo.RemoveItem(ctx, userID, productID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, fmt.Errorf("%w: cart not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.ClearCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	s.invalidateCache(userID)
	return nil
}

func (s *CartService) checkStock(ctx context.Context, productID string, quantity int) error {
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return fmt.Errorf("%w: product not found", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if p.Stock < quantity {
		return invalid("insufficient stock: %d available", p.Stock)
	}
	return nil
}

func (s *CartService) afterMutation(ctx context.Context, userID string) (*domain.Cart, error) {
	s.invalidateCache(userID)
	return s.repo.GetOrCreateCart(ctx, userID)
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}

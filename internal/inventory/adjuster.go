// Package inventory reconciles order line items with available product stock.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
)

// Policy selects how the adjuster treats items it cannot fully satisfy.
type Policy string

const (
	// PolicyLenient clamps quantities to available stock, skips unknown
	// products and keeps going when a single write fails.
	PolicyLenient Policy = "lenient"
	// PolicyStrict rejects the whole order and releases what was already taken.
	PolicyStrict Policy = "strict"
)

const maxAttempts = 3

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrStockContention   = errors.New("stock changed concurrently")
	ErrInvalidPolicy     = errors.New("stock policy must be lenient or strict")
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// StockStore is the slice of the catalog the adjuster needs.
type StockStore interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// Adjustment records one stock decrement so it can be released later.
type Adjustment struct {
	ProductID   string
	ProductName string
	Quantity    int
	Remaining   int
}

type Adjuster struct {
	store  StockStore
	policy Policy
	logger *zap.Logger
}

func NewAdjuster(store StockStore, policy Policy, logger *zap.Logger) *Adjuster {
	return &Adjuster{
		store:  store,
		policy: policy,
		logger: logger.Named("inventory"),
	}
}

func (a *Adjuster) Policy() Policy {
	return a.policy
}

// Reserve walks items in order, decrementing stock for each one, and returns the
// resolved items with their possibly clamped quantities.
func (a *Adjuster) Reserve(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, []Adjustment, error) {
	resolved := make([]domain.OrderItem, len(items))
	copy(resolved, items)
	adjustments := make([]Adjustment, 0, len(items))

	for i := range resolved {
		adj, err := a.reserveItem(ctx, &resolved[i])
		if err != nil {
			if a.policy == PolicyStrict {
				a.Release(ctx, adjustments)
				return nil, nil, err
			}
			a.logger.Warn("stock adjustment skipped",
				zap.String("product_id", resolved[i].ProductID),
				zap.Error(err))
			continue
		}
		if adj != nil {
			adjustments = append(adjustments, *adj)
		}
	}
	return resolved, adjustments, nil
}

func (a *Adjuster) reserveItem(ctx context.Context, item *domain.OrderItem) (*Adjustment, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		p, err := a.store.GetByID(ctx, item.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			if a.policy == PolicyStrict {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductID)
			}
			a.logger.Info("ordered product does not exist, leaving item unchanged",
				zap.String("product_id", item.ProductID))
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}

		quantity := item.Quantity
		if p.Stock < quantity {
			if a.policy == PolicyStrict {
				return nil, fmt.Errorf("%w: %s has %d, %d requested", ErrInsufficientStock, p.Name, p.Stock, quantity)
			}
			quantity = max(p.Stock, 1)
		}

		take := min(quantity, p.Stock)
		if take == 0 {
			item.Quantity = quantity
			return nil, nil
		}

		updated, err := a.store.DecrementStock(ctx, item.ProductID, take)
		if errors.Is(err, repository.ErrStockConflict) {
			continue
		}
		if err != nil {
			item.Quantity = quantity
			return nil, fmt.Errorf("failed to decrement stock of %s: %w", item.ProductID, err)
		}

		item.Quantity = quantity
		return &Adjustment{
			ProductID:   item.ProductID,
			ProductName: updated.Name,
			Quantity:    take,
			Remaining:   updated.Stock,
		}, nil
	}
	// item.Quantity is left as requested, so under the lenient policy the line keeps its unclamped quantity.
	return nil, fmt.Errorf("%w: %s lost %d updates", ErrStockContention, item.ProductID, maxAttempts)
}

// Release gives back every adjustment. Failures are logged, not returned.
func (a *Adjuster) Release(ctx context.Context, adjustments []Adjustment) {
	for _, adj := range adjustments {
		if err := a.store.IncrementStock(ctx, adj.ProductID, adj.Quantity); err != nil {
			a.logger.Error("failed to release stock",
				zap.String("product_id", adj.ProductID),
				zap.Int("quantity", adj.Quantity),
				zap.Error(err))
		}
	}
}

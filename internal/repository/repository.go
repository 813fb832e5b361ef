package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	cartsCollection    = "carts"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product with this name already exists")
	// ErrStockConflict means a conditional stock decrement did not match,
	// because the stock changed or is lower than requested.
	ErrStockConflict = errors.New("stock changed or insufficient")

	ErrOrderNotFound = errors.New("order not found")
	ErrDuplicateID   = errors.New("could not allocate a unique order id")

	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

type SortOrder string

const (
	SortNewest    SortOrder = ""
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortNameAsc   SortOrder = "name-asc"
	SortNameDesc  SortOrder = "name-desc"
)

// ProductFilter narrows a catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Category domain.Category
	MinPrice *float64
	MaxPrice *float64
	Keyword  string
	Sort     SortOrder
	Page     int
	PageSize int
}

// ProductRepository defines catalog persistence.
// Consumers define narrower interfaces on top of it.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	ListRelated(ctx context.Context, p *domain.Product, limit int) ([]*domain.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	AddReview(ctx context.Context, id string, review domain.Review) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
	IncrementStock(ctx context.Context, id string, quantity int) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	ReferencesProduct(ctx context.Context, productID string) (bool, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

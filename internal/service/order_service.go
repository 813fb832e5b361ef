package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/mailer"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
}

type StockReserver interface {
	Reserve(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, []inventory.Adjustment, error)
	Release(ctx context.Context, adjustments []inventory.Adjustment)
}

// CatalogInvalidator drops cached catalog listings after stock changes made outside the catalog service.
type CatalogInvalidator interface {
	InvalidateCatalog()
}

type EventPublisher interface {
	PublishOrderStatusChanged(e domain.OrderStatusChanged)
	PublishStockAlert(e domain.StockAlert)
}

type Mailer interface {
	SendAsync(msg mailer.Message)
}

type CreateOrderInput struct {
	Items           []domain.OrderItem     `json:"orderItems" validate:"dive"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
	ItemsPrice      float64                `json:"itemsPrice" validate:"gte=0"`
	TaxPrice        float64                `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   float64                `json:"shippingPrice" validate:"gte=0"`
	TotalPrice      float64                `json:"totalPrice" validate:"gte=0"`
	CouponCode      string                 `json:"couponCode"`
	DiscountAmount  float64                `json:"discountAmount" validate:"gte=0"`
}

type OrderService struct {
	orders  OrderStore
	stock   StockReserver
	catalog CatalogInvalidator
	events  EventPublisher
	mail    Mailer
	logger  *zap.Logger
	now     func() time.Time
}

func NewOrderService(orders OrderStore, stock StockReserver, catalog CatalogInvalidator, events EventPublisher, mail Mailer, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		stock:   stock,
		catalog: catalog,
		events:  events,
		mail:    mail,
		logger:  logger.Named("orders"),
		now:     time.Now,
	}
}

// CreateOrder reserves stock for the items and persists a new order in Procesado.
// Items may come back with smaller quantities than requested, see inventory.Adjuster.
func (s *OrderService) CreateOrder(ctx context.Context, id domain.Identity, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, invalid("no order items")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	discount, total := in.DiscountAmount, in.TotalPrice
	if in.CouponCode != "" {
		res, err := coupon.Evaluate(in.CouponCode, in.ItemsPrice)
		if err != nil {
			return nil, invalid("%v", err)
		}
		discount = res.DiscountAmount
		total = orderTotal(in.ItemsPrice, in.TaxPrice, in.ShippingPrice, discount)
	}

	items, adjustments, err := s.stock.Reserve(ctx, in.Items)
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, inventory.ErrUnknownProduct) {
			return nil, invalid("%v", err)
		}
		if errors.Is(err, inventory.ErrStockContention) {
			return nil, fmt.Errorf("%w: %v, retry the order", ErrConflict, err)
		}
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}
	if len(adjustments) > 0 {
		// runs after a successful save or after Release
		defer s.catalog.InvalidateCatalog()
	}

	order := &domain.Order{
		ID:              domain.NewOrderID(),
		UserID:          id.UserID,
		UserEmail:       id.Email,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      in.ItemsPrice,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      total,
		CouponCode:      in.CouponCode,
		DiscountAmount:  discount,
		Status:          domain.StatusProcessed,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.stock.Release(context.WithoutCancel(ctx), adjustments)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("items", len(order.Items)))

	for _, adj := range adjustments {
		if adj.Remaining > 0 && adj.Remaining <= domain.LowStockThreshold {
			s.events.PublishStockAlert(domain.StockAlert{
				ProductID:   adj.ProductID,
				ProductName: adj.ProductName,
				Stock:       adj.Remaining,
			})
		}
	}
	s.mailOwner(order, mailer.OrderConfirmation)
	return order, nil
}

func orderTotal(items, tax, shipping, discount float64) float64 {
	total := decimal.NewFromFloat(items).
		Add(decimal.NewFromFloat(tax)).
		Add(decimal.NewFromFloat(shipping)).
		Sub(decimal.NewFromFloat(discount)).
		Round(2)
	if total.IsNegative() {
		return 0
	}
	return total.InexactFloat64()
}

func (s *OrderService) ListMyOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, id.UserID)
}

// GetOrderByID returns ErrNotFound both for unknown orders and for orders the identity may not see.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID string, id domain.Identity) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeViewedBy(id) {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.MarkPaid(result, s.now())
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) MarkDelivered(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.MarkDelivered(s.now())
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	s.statusChanged(order)
	return order, nil
}

// SetStatus moves the order to status and notifies the owner's live connections.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status string) (*domain.Order, error) {
	if status == "" {
		return nil, invalid("status is required")
	}
	next := domain.OrderStatus(status)
	if !next.Valid() {
		return nil, invalid("unknown order status %q", status)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.SetStatus(next, s.now())
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	s.statusChanged(order)
	return order, nil
}

func (s *OrderService) ApplyCoupon(code string, subtotal float64) (coupon.Result, error) {
	res, err := coupon.Evaluate(code, subtotal)
	if err != nil {
		return coupon.Result{}, invalid("%v", err)
	}
	return res, nil
}

func (s *OrderService) statusChanged(order *domain.Order) {
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status.String()))
	s.events.PublishOrderStatusChanged(domain.OrderStatusChanged{
		OrderID: order.ID,
		Status:  order.Status,
		UserID:  order.UserID,
	})
	s.mailOwner(order, mailer.OrderStatusUpdate)
}

func (s *OrderService) mailOwner(order *domain.Order, build func(*domain.Order) (mailer.Message, error)) {
	if order.UserEmail == "" {
		return
	}
	msg, err := build(order)
	if err != nil {
		s.logger.Error("failed to build order mail", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	s.mail.SendAsync(msg)
}

func (s *OrderService) load(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) save(ctx context.Context, order *domain.Order) error {
	err := s.orders.Update(ctx, order)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("%w: order not found", ErrNotFound)
	}
	return err
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, id domain.Identity) string {
	t.Helper()
	claims := Claims{
		UserID:  id.UserID,
		Name:    id.Name,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return raw
}

func authed(t *testing.T, r *http.Request, id domain.Identity) *http.Request {
	r.Header.Set("Authorization", "Bearer "+signToken(t, id))
	return r
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }

var (
	alice = domain.Identity{UserID: "u-alice", Name: "Alice", Email: "alice@example.com"}
	admin = domain.Identity{UserID: "u-admin", Name: "Admin", Email: "admin@example.com", IsAdmin: true}
)

type fakeOrders struct {
	order     *domain.Order
	orders    []*domain.Order
	err       error
	gotInput  service.CreateOrderInput
	gotStatus string
	gotID     domain.Identity
}

func (f *fakeOrders) CreateOrder(_ context.Context, id domain.Identity, in service.CreateOrderInput) (*domain.Order, error) {
	f.gotID, f.gotInput = id, in
	return f.order, f.err
}

func (f *fakeOrders) ListMyOrders(_ context.Context, id domain.Identity) ([]*domain.Order, error) {
	f.gotID = id
	return f.orders, f.err
}

func (f *fakeOrders) GetOrderByID(_ context.Context, _ string, id domain.Identity) (*domain.Order, error) {
	f.gotID = id
	return f.order, f.err
}

func (f *fakeOrders) MarkPaid(context.Context, string, domain.PaymentResult) (*domain.Order, error) {
	return f.order, f.err
}

func (f *fakeOrders) MarkDelivered(context.Context, string) (*domain.Order, error) {
	return f.order, f.err
}

func (f *fakeOrders) SetStatus(_ context.Context, _ string, status string) (*domain.Order, error) {
	f.gotStatus = status
	return f.order, f.err
}

func (f *fakeOrders) ApplyCoupon(code string, subtotal float64) (coupon.Result, error) {
	res, err := coupon.Evaluate(code, subtotal)
	if err != nil {
		return coupon.Result{}, fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return res, nil
}

type fakeProducts struct {
	page     *service.ProductPage
	product  *domain.Product
	err      error
	gotQuery service.ProductQuery
	gotLimit int
	deleted  string
}

func (f *fakeProducts) List(_ context.Context, q service.ProductQuery) (*service.ProductPage, error) {
	f.gotQuery = q
	return f.page, f.err
}

func (f *fakeProducts) Get(context.Context, string) (*service.ProductDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ProductDetail{ProductView: domain.NewProductView(f.product)}, nil
}

func (f *fakeProducts) Featured(_ context.Context, limit int) ([]domain.ProductView, error) {
	f.gotLimit = limit
	return nil, f.err
}

func (f *fakeProducts) ByCategory(_ context.Context, _ string, limit int) ([]domain.ProductView, error) {
	f.gotLimit = limit
	return nil, f.err
}

func (f *fakeProducts) AddReview(context.Context, string, domain.Identity, string, service.ReviewInput) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProducts) UpdateStock(context.Context, string, int) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProducts) Create(context.Context, service.ProductInput) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProducts) Update(context.Context, string, service.ProductInput) (*domain.Product, error) {
	return f.product, f.err
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeCart struct {
	cart       *domain.Cart
	err        error
	gotUser    string
	gotProduct string
	gotQty     int
}

func (f *fakeCart) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	f.gotUser = userID
	return f.cart, f.err
}

func (f *fakeCart) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	f.gotUser, f.gotProduct, f.gotQty = userID, productID, quantity
	return f.cart, f.err
}

func (f *fakeCart) UpdateQuantity(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	f.gotUser, f.gotProduct, f.gotQty = userID, productID, quantity
	return f.cart, f.err
}

func (f *fakeCart) RemoveItem(_ context.Context, userID, productID string) (*domain.Cart, error) {
	f.gotUser, f.gotProduct = userID, productID
	return f.cart, f.err
}

func (f *fakeCart) ClearCart(_ context.Context, userID string) error {
	f.gotUser = userID
	return f.err
}

type testServer struct {
	handler  http.Handler
	orders   *fakeOrders
	products *fakeProducts
	cart     *fakeCart
}

func newTestServer(production bool) *testServer {
	ts := &testServer{
		orders:   &fakeOrders{},
		products: &fakeProducts{},
		cart:     &fakeCart{},
	}
	errs := NewErrors(production, zap.NewNop())
	timeout := 5 * time.Second
	ts.handler = NewRouter(RouterConfig{
		JWTSecret:          testSecret,
		RequestTimeout:     timeout,
		MaxRequestBodySize: 1 << 20,
	}, Handlers{
		Products: NewProductHandler(ts.products, errs, timeout),
		Orders:   NewOrdersHandler(ts.orders, errs, timeout),
		Cart:     NewCartHandler(ts.cart, errs, timeout),
	}, zap.NewNop())
	return ts
}

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createOrderJSON = `{
	"orderItems": [{"product": "p1", "name": "Rod", "quantity": 2, "price": 10}],
	"shippingAddress": {"street": "1 Main", "city": "Lima", "state": "LM", "zipCode": "15001", "country": "PE"},
	"paymentMethod": "PayPal",
	"itemsPrice": 20, "taxPrice": 0, "shippingPrice": 5, "totalPrice": 25,
	"couponCode": "WELCOME10"
}`

func TestCreateOrder_Created(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.order = &domain.Order{ID: "ORD-12345", UserID: alice.UserID, Status: domain.StatusProcessed}

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/orders", jsonBody(createOrderJSON)), alice)
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, alice, ts.orders.gotID)
	require.Len(t, ts.orders.gotInput.Items, 1)
	assert.Equal(t, 2, ts.orders.gotInput.Items[0].Quantity)
	assert.Equal(t, "15001", ts.orders.gotInput.ShippingAddress.ZipCode)
	assert.Equal(t, "WELCOME10", ts.orders.gotInput.CouponCode)

	var got domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "ORD-12345", got.ID)
}

func TestCreateOrder_RequiresToken(t *testing.T) {
	ts := newTestServer(true)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", jsonBody(createOrderJSON)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	ts := newTestServer(true)
	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/orders", jsonBody("{")), alice)
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.err = fmt.Errorf("%w: no order items", service.ErrValidation)

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/orders", jsonBody(`{"orderItems": []}`)), alice)
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no order items")
}

func TestGetOrder_NotFoundForStranger(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.err = fmt.Errorf("%w: order not found", service.ErrNotFound)

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodGet, "/api/orders/ORD-12345", nil), alice)
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMyOrders(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.orders = []*domain.Order{{ID: "ORD-10001"}, {ID: "ORD-10002"}}

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil), alice)
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got, 2)
	assert.Equal(t, alice.UserID, ts.orders.gotID.UserID)
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.order = &domain.Order{ID: "ORD-12345", Status: domain.StatusShipped}
	body := `{"status": "Enviado"}`

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodPut, "/api/orders/ORD-12345/status", jsonBody(body)), alice))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.orders.gotStatus)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodPut, "/api/orders/ORD-12345/status", jsonBody(body)), admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Enviado", ts.orders.gotStatus)
}

func TestMarkDelivered_AdminOnly(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.order = &domain.Order{ID: "ORD-12345", IsDelivered: true}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodPut, "/api/orders/ORD-12345/deliver", nil), alice))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, authed(t, httptest.NewRequest(http.MethodPut, "/api/orders/ORD-12345/deliver", nil), admin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMarkPaid(t *testing.T) {
	ts := newTestServer(true)
	ts.orders.order = &domain.Order{ID: "ORD-12345", IsPaid: true}

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPut, "/api/orders/ORD-12345/pay",
		jsonBody(`{"id": "pay-1", "status": "COMPLETED", "update_time": "now", "email_address": "a@b.c"}`)), alice)
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isPaid":true`)
}

func TestApplyCoupon(t *testing.T) {
	ts := newTestServer(true)

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/orders/apply-coupon",
		jsonBody(`{"couponCode": "HUNTER20", "subtotal": 100}`)), alice)
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got coupon.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.True(t, got.Valid)
	assert.Equal(t, 20.0, got.DiscountAmount)
}

func TestApplyCoupon_Unknown(t *testing.T) {
	ts := newTestServer(true)

	rec := httptest.NewRecorder()
	req := authed(t, httptest.NewRequest(http.MethodPost, "/api/orders/apply-coupon",
		jsonBody(`{"couponCode": "NOPE", "subtotal": 100}`)), alice)
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

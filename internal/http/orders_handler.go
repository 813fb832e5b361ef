package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	CreateOrder(ctx context.Context, id domain.Identity, in service.CreateOrderInput) (*domain.Order, error)
	ListMyOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID string, id domain.Identity) (*domain.Order, error)
	MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status string) (*domain.Order, error)
	ApplyCoupon(code string, subtotal float64) (coupon.Result, error)
}

type OrdersHandler struct {
	orders  OrderService
	errors  *Errors
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, errs *Errors, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		errors:  errs,
		timeout: timeout,
	}
}

type ApplyCouponRequestDTO struct {
	Code     string  `json:"couponCode"`
	Subtotal float64 `json:"subtotal"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req service.CreateOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.CreateOrder(ctx, id, req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListMyOrders(ctx, id)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, chi.URLParam(r, "id"), id)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.PaymentResult
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.MarkPaid(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.MarkDelivered(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.SetStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.orders.ApplyCoupon(req.Code, req.Subtotal)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProductService interface {
	List(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error)
	Get(ctx context.Context, id string) (*service.ProductDetail, error)
	Featured(ctx context.Context, limit int) ([]domain.ProductView, error)
	ByCategory(ctx context.Context, category string, limit int) ([]domain.ProductView, error)
	AddReview(ctx context.Context, id string, who domain.Identity, userName string, in service.ReviewInput) (*domain.Product, error)
	UpdateStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
	Create(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in service.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductHandler struct {
	products ProductService
	errors   *Errors
	timeout  time.Duration
}

func NewProductHandler(products ProductService, errs *Errors, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		errors:   errs,
		timeout:  timeout,
	}
}

type UpdateStockRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	query := service.ProductQuery{
		Page:     intParam(q.Get("page"), 1),
		Category: q.Get("category"),
		Keyword:  q.Get("keyword"),
		SortBy:   q.Get("sortBy"),
		MinPrice: floatParam(q.Get("minPrice")),
		MaxPrice: floatParam(q.Get("maxPrice")),
	}

	page, err := h.products.List(ctx, query)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	detail, err := h.products.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.Featured(ctx, intParam(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.ByCategory(ctx, chi.URLParam(r, "category"), intParam(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req service.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.products.AddReview(ctx, chi.URLParam(r, "id"), id, id.Name, req); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "review added"})
}

func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.UpdateStock(ctx, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewProductView(p))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Create(ctx, req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.NewProductView(p))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Update(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewProductView(p))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}

func intParam(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func floatParam(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

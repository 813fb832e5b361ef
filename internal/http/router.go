package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret          []byte
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Products  *ProductHandler
	Orders    *OrdersHandler
	Cart      *CartHandler
	WebSocket http.Handler
}

// NewRouter mounts the public, user and admin route groups.
func NewRouter(cfg RouterConfig, h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// no timeout or compression on the upgrade path
	if h.WebSocket != nil {
		r.Handle("/ws", h.WebSocket)
	}

	auth := AuthMiddleware(cfg.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.Compress(5))
		if cfg.MaxRequestBodySize > 0 {
			r.Use(LimitBody(cfg.MaxRequestBodySize))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/featured", h.Products.Featured)
			r.Get("/category/{category}", h.Products.ByCategory)
			r.Get("/{id}", h.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/{id}/reviews", h.Products.AddReview)
				r.Put("/{id}/stock", h.Products.UpdateStock)

				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)
					r.Post("/", h.Products.Create)
					r.Put("/{id}", h.Products.Update)
					r.Delete("/{id}", h.Products.Delete)
				})
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", h.Cart.GetCart)
			r.Post("/", h.Cart.AddItem)
			r.Delete("/", h.Cart.ClearCart)
			r.Put("/{productId}", h.Cart.UpdateQuantity)
			r.Delete("/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.Orders.CreateOrder)
			r.Get("/myorders", h.Orders.ListMyOrders)
			r.Post("/apply-coupon", h.Orders.ApplyCoupon)
			r.Get("/{id}", h.Orders.GetOrder)
			r.Put("/{id}/pay", h.Orders.MarkPaid)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Put("/{id}/deliver", h.Orders.MarkDelivered)
				r.Put("/{id}/status", h.Orders.UpdateStatus)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

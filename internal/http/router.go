package http

import (
	"net/http"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Reviews  *ReviewHandler
}

// NewRouter mounts the storefront API under /api/v1 and wraps it with
// OpenTelemetry HTTP instrumentation.
func NewRouter(h Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
			r.Get("/{product_id}/reviews", h.Reviews.List)
			r.Post("/{product_id}/reviews", h.Reviews.Post)
		})
		r.Delete("/reviews/{review_id}", h.Reviews.Delete)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.List)
			r.Get("/{order_id}", h.Orders.Get)
		})

		r.Post("/payments/callback", h.Checkout.PaymentCallback)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Patch("/items/{product_id}", h.Cart.ChangeQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.Checkout.Get)
				r.Post("/open", h.Checkout.Open)
				r.Post("/close", h.Checkout.Close)
				r.Put("/contact", h.Checkout.UpdateContact)
				r.Put("/address", h.Checkout.UpdateAddress)
				r.Post("/advance", h.Checkout.Advance)
				r.Post("/back", h.Checkout.Back)
				r.Post("/submit", h.Checkout.Submit)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

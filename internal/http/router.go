package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farm-market/internal/http/handlers"
	"farm-market/pkg/metrics"
)

func NewRouter(h *handlers.Set, authMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		// Gateway redirects come from the buyer's browser without a
		// session; the signed token in the URL is the credential.
		r.Get("/payments/return", h.PaymentReturn)
		r.Get("/payments/cancel", h.PaymentCancel)

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Post("/logout", h.Logout)
			r.Put("/profile", h.UpdateProfile)
			r.Post("/products", h.CreateProduct)
			r.Get("/cart", h.GetCart)
			r.Get("/cart/count", h.CartCount)
			r.Post("/cart/items", h.AddToCart)
			r.Put("/cart/items/{id}", h.UpdateCartItem)
			r.Delete("/cart/items/{id}", h.RemoveCartItem)
			r.Post("/checkout", h.Checkout)
			r.Get("/orders", h.ListOrders)
			r.Post("/payments/{provider}/checkout", h.StartPayment)
		})
	})
	return r
}

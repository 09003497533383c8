package http

import (
	"net/http"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	tokens *auth.TokenManager,
	authHandler *AuthHandler,
	cartHandler *CartHandler,
	ordersHandler *OrdersHandler,
	requestTimeout time.Duration,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddItem)
			r.Delete("/", cartHandler.ClearCart)
			r.Put("/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/{productID}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Post("/", ordersHandler.PlaceOrder)
			r.Get("/{orderID}", ordersHandler.GetOrder)
			r.Put("/{orderID}/cancel", ordersHandler.CancelOrder)
		})
	})

	return r
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommiddleware "github.com/evxeen/shop-backend/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса магазина.
func (h *Handler) SetupRouter(allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/", h.Index)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/telegram", h.TelegramLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.Require)
				r.Get("/me", h.Me)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(h.auth.Optional).Post("/", h.CreateOrder)
			r.With(h.auth.Require).Get("/", h.GetAllOrders)
			r.With(h.auth.Require).Get("/my", h.GetMyOrders)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.auth.Require)

			r.Get("/referral-stats", h.ReferralStats)
			r.Get("/bonus-history", h.BonusHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.auth.RequireAdmin)

			r.Get("/stats", h.AdminStats)
			r.Get("/orders", h.AdminOrders)
			r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
			r.Get("/users", h.AdminUsers)
			r.Get("/products", h.AdminProducts)
			r.Post("/products", h.AdminCreateProduct)
			r.Put("/products/{id}", h.AdminUpdateProduct)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, http.StatusNotFound, "Not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

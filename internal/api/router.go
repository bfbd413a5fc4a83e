package api

import (
	"net/http"

	"github.com/fitcoach/intake-bot/internal/api/handlers"
	"github.com/fitcoach/intake-bot/internal/api/middleware"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/fitcoach/intake-bot/internal/service"
	ws "github.com/fitcoach/intake-bot/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(services *service.Services, repos *repository.Repositories, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	promoHandler := handlers.NewPromoHandler(repos.Promo)
	linkHandler := handlers.NewLinkHandler(services.Link, repos.Attribution)
	submissionHandler := handlers.NewSubmissionHandler(repos.Submission)
	feedHandler := handlers.NewFeedHandler(hub, services.Auth)

	// Live operator feed
	r.Get("/ws/feed", feedHandler.Handle)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/promo-codes", func(r chi.Router) {
				r.Get("/", promoHandler.List)
				r.Post("/", promoHandler.Create)
				r.Put("/{id}", promoHandler.Update)
				r.Delete("/{id}", promoHandler.Delete)
			})

			r.Route("/links", func(r chi.Router) {
				r.Get("/", linkHandler.List)
				r.Post("/", linkHandler.Create)
				r.Put("/{id}", linkHandler.Update)
				r.Delete("/{id}", linkHandler.Delete)
			})

			r.Get("/attribution-stats", linkHandler.AttributionStats)
			r.Get("/submissions/unreported", submissionHandler.ListUnreported)
		})
	})

	return r
}

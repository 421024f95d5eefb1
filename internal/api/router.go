package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/community-market/internal/api/handler"
	customMiddleware "github.com/Rrens/community-market/internal/api/middleware"
	"github.com/Rrens/community-market/internal/config"
	"github.com/Rrens/community-market/internal/repository"
	"github.com/Rrens/community-market/internal/security"
	"github.com/Rrens/community-market/internal/service"
)

// NewRouter creates and configures the HTTP router. slugCache may be nil.
func NewRouter(cfg *config.Config, store *repository.Store, slugCache service.SlugCache) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize services
	membershipService := service.NewMembershipService(store.Spaces, store.Members)
	spaceService := service.NewSpaceService(store.Spaces, store.Members, membershipService, slugCache)
	authService := service.NewAuthService(store.Users, store.Spaces, store.Members, jwtManager, cfg.Bootstrap.SpaceSlug)
	bootstrapper := service.NewBootstrapper(cfg.Bootstrap, store.Spaces, store.Members, store.Users, store.Listings)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	spaceHandler := handler.NewSpaceHandler(spaceService)
	memberHandler := handler.NewMemberHandler(spaceService, membershipService)
	adminHandler := handler.NewAdminHandler(bootstrapper)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(store))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Browsing works anonymously; a token adds the caller's role to each space
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuthenticate)

			r.Get("/spaces", spaceHandler.List)
			r.Get("/spaces/slug/{slug}", spaceHandler.GetBySlug)
			r.With(customMiddleware.SpaceContext).Get("/spaces/{spaceID}", spaceHandler.Get)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/me", authHandler.Me)

			r.Post("/spaces", spaceHandler.Create)
			r.Get("/spaces/mine", spaceHandler.Mine)

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.SpaceContext)

				r.Patch("/spaces/{spaceID}", spaceHandler.Update)
				r.Put("/spaces/{spaceID}/invite-code", spaceHandler.SetInviteCode)
				r.Post("/spaces/{spaceID}/join", memberHandler.Join)
				r.Post("/spaces/{spaceID}/leave", memberHandler.Leave)

				r.Get("/spaces/{spaceID}/members", memberHandler.List)
				r.Patch("/spaces/{spaceID}/members/{userID}", memberHandler.UpdateRole)
				r.Delete("/spaces/{spaceID}/members/{userID}", memberHandler.Remove)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(customMiddleware.RequirePlatformAdmin)
				r.Post("/bootstrap", adminHandler.Bootstrap)
			})
		})
	})

	return r
}

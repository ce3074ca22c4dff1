package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beacon-analytics-service/internal/cache"
	"github.com/beacon-analytics-service/internal/config"
	"github.com/beacon-analytics-service/internal/handler"
	"github.com/beacon-analytics-service/internal/handler/analytics"
	"github.com/beacon-analytics-service/internal/handler/apps"
	"github.com/beacon-analytics-service/internal/middleware"
	"github.com/beacon-analytics-service/internal/service"
	"github.com/beacon-analytics-service/internal/store"
)

type routerDeps struct {
	authSvc      *service.AuthService
	appSvc       *service.ApplicationService
	analyticsSvc *service.AnalyticsService
	googleAuth   *middleware.GoogleAuth
	store        *store.Postgres
	cache        *cache.RedisCache
}

func newRouter(cfg *config.Config, deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireJSON)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	authLimiter := middleware.NewAuthAttemptLimiter(0, 0, 0)
	collectLimit := middleware.NewRateLimiter(cfg.CollectRateMax, cfg.CollectRateWindow)
	queryLimit := middleware.NewRateLimiter(cfg.QueryRateMax, cfg.QueryRateWindow)
	keyMgmtLimit := middleware.NewRateLimiter(cfg.KeyMgmtRateMax, cfg.KeyMgmtRateWindow)

	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(deps.store, deps.store, deps.cache))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.googleAuth.Middleware(authLimiter))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware(keyMgmtLimit, middleware.ByOwner))
			r.Method(http.MethodPost, "/register", apps.NewRegisterHandler(deps.appSvc))
			r.Method(http.MethodGet, "/api-key", apps.NewGetKeyHandler(deps.appSvc))
			r.Method(http.MethodPost, "/revoke", apps.NewRevokeHandler(deps.appSvc))
		})

		r.Method(http.MethodGet, "/applications", apps.NewListHandler(deps.appSvc))
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(deps.authSvc, authLimiter))
			r.Use(middleware.RateLimitMiddleware(collectLimit, middleware.ByIdentity))
			r.Method(http.MethodPost, "/collect", analytics.NewCollectHandler(deps.analyticsSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.googleAuth.Middleware(authLimiter))
			r.Use(middleware.RateLimitMiddleware(queryLimit, middleware.ByOwner))
			r.Method(http.MethodGet, "/summary", analytics.NewSummaryHandler(deps.analyticsSvc))
			r.Method(http.MethodGet, "/users", analytics.NewUserStatsHandler(deps.analyticsSvc))
		})
	})

	return r
}

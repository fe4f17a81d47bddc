package api

import (
	"customer-registry/internal/api/handler"
	mw "customer-registry/internal/api/middleware"
	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	"log/slog"
	"net/http"
	"time"

	_ "customer-registry/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SetupRouter returns the router and the rate limiter so callers can stop
// its cleanup goroutine on shutdown.
func SetupRouter(registry customer.RegistryService, cfg *config.Config, logger *slog.Logger) (*chi.Mux, *mw.RateLimiterMiddleware) {
	router := chi.NewRouter()

	limiter := setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, registry, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router, limiter
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) *mw.RateLimiterMiddleware {
	limiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(limiter.Middleware)
	router.Use(mw.MetricsMiddleware())
	return limiter
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svc customer.RegistryService, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)
	auth := mw.AuthMiddleware(cfg.Server.Auth, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", h.RegisterCustomer)
		r.Get("/", h.ListCustomers)
		r.Route("/{contactID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/status", h.UpdateCustomerStatus)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/accounts/{accountNumber}", h.GetCustomerByAccount)
		r.Get("/registry/stats", h.GetRegistryStats)
	})
}

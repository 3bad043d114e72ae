package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"library-engine/internal/api/handler"
	mw "library-engine/internal/api/middleware"
	"library-engine/internal/config"
	"library-engine/internal/domain/library"
	"library-engine/internal/domain/staff"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP API is a front for.
type Dependencies struct {
	Library   library.Service
	Staff     handler.Authenticator
	Reminders handler.ReminderRunner
}

// SetupRouter builds the HTTP API. ctx bounds the background work started by
// the middleware.
func SetupRouter(ctx context.Context, deps Dependencies, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(deps.Staff, cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.IssueToken)
	})

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		setupCatalogRoutes(r, deps.Library, logger)
		setupUserRoutes(r, deps.Library, logger)
		setupLoanRoutes(r, deps.Library, logger)
		setupReminderRoutes(r, deps.Reminders, logger)
	})

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(ctx, cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupCatalogRoutes(r chi.Router, svc library.Service, logger *slog.Logger) {
	h := handler.NewCatalogHandler(svc, logger)
	adminOnly := mw.RequireRole(staff.RoleAdmin, logger)

	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.ListBooks)
		r.Get("/search", h.SearchBooks)
		r.Get("/{isbn}", h.GetBook)
		r.With(adminOnly).Post("/", h.CreateBook)
	})

	r.Route("/cds", func(r chi.Router) {
		r.Get("/", h.ListCDs)
		r.Get("/search", h.SearchCDs)
		r.Get("/{cdID}", h.GetCD)
		r.With(adminOnly).Post("/", h.CreateCD)
	})
}

func setupUserRoutes(r chi.Router, svc library.Service, logger *slog.Logger) {
	h := handler.NewUserHandler(svc, logger)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.RegisterUser)
		r.Get("/", h.ListUsers)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.With(mw.RequireRole(staff.RoleAdmin, logger)).Delete("/", h.UnregisterUser)
			r.Post("/payments", h.PayFine)
			r.Get("/loans", h.ListLoans)
		})
	})
}

func setupLoanRoutes(r chi.Router, svc library.Service, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	r.Route("/loans", func(r chi.Router) {
		r.Post("/books", h.BorrowBook)
		r.Post("/books/return", h.ReturnBook)
		r.Post("/cds", h.BorrowCD)
		r.Post("/cds/return", h.ReturnCD)
		r.Get("/overdue", h.ListOverdue)
	})
}

func setupReminderRoutes(r chi.Router, runner handler.ReminderRunner, logger *slog.Logger) {
	h := handler.NewReminderHandler(runner, logger)
	r.With(mw.RequireRole(staff.RoleAdmin, logger)).Post("/reminders", h.SendReminders)
}

package routes

import (
	"net/http"

	"github.com/amulyarudresh/CorpCard-Sentinel/app"
	"github.com/amulyarudresh/CorpCard-Sentinel/handlers"
	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger.Named("http")

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(observability.TraceHandler)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(deps.Metrics.InstrumentHandler)
	r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.DB, deps.Policies, deps.Config.Sentinel.FailureMode, logger)
	policies := handlers.NewPolicyHandler(deps.Policies, logger)
	accounts := handlers.NewAccountHandler(deps.Accounts, logger)
	transactions := handlers.NewTransactionHandler(deps.Submissions, logger)
	auth := deps.AuthMiddleware

	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.HandleListAccounts)
			r.Get("/{id}", accounts.HandleGetAccount)
			r.With(auth.RequireAdmin).Post("/", accounts.HandleCreateAccount)
			r.With(auth.RequireAdmin).Post("/{id}/unfreeze", accounts.HandleUnfreeze)
			r.With(auth.RequireAdmin).Get("/{id}/audit-logs", accounts.HandleListAuditLogs)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", policies.HandleListPolicies)
			r.Get("/{id}", policies.HandleGetPolicy)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/", policies.HandleCreatePolicy)
				r.Put("/{id}", policies.HandleUpdatePolicy)
				r.Delete("/{id}", policies.HandleDeletePolicy)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactions.HandleSubmitTransaction)
			r.Get("/", transactions.HandleListTransactions)
			r.Get("/{id}", transactions.HandleGetTransaction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

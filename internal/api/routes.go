package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/zendmap/internal/config"
	"github.com/yegors/zendmap/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(catalog Catalog, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(catalog, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)

		// Runs
		router.Get("/runs/latest", r.handler.GetLatestRun)

		// Stations of the latest run
		router.Get("/stations", r.handler.GetStations)
		router.Get("/stations/{bipt_id}", r.handler.GetStation)

		router.Get("/operators", r.handler.GetOperators)
	})

	return router
}

// Package server provides the HTTP server for the REST API
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/internal/infrastructure/http/handlers"
	"github.com/larderapp/v1/internal/infrastructure/http/middleware"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *chi.Mux
	server *http.Server

	inventoryService inbound.InventoryService
	recipeService    inbound.RecipeService
	storageService   outbound.StorageService
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	inventoryService inbound.InventoryService,
	recipeService inbound.RecipeService,
	storageService outbound.StorageService,
) *Server {
	s := &Server{
		config:           cfg,
		logger:           logger,
		inventoryService: inventoryService,
		recipeService:    recipeService,
		storageService:   storageService,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	}
	r.Use(chimiddleware.Compress(5))

	r.Get("/health", handlers.HealthCheck(s.config.App.Version))

	r.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})

	return r
}

// setupAPIRoutes configures all /api/v1 routes
func (s *Server) setupAPIRoutes(r chi.Router) {
	items := handlers.NewItemHandlers(s.inventoryService, s.logger)
	recipes := handlers.NewRecipeHandlers(s.recipeService, s.logger)
	uploads := handlers.NewUploadHandlers(s.storageService, s.config.Storage, s.logger)

	r.Route("/items", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.Get("/", items.ListItems)
		r.Post("/", items.CreateItems)
		r.Post("/upsert", items.UpsertItem)
		r.Post("/extract", items.ExtractItems)
		r.Post("/categorize", items.CategorizeItems)
		r.Put("/{id}", items.UpdateItem)
		r.Patch("/{id}/quantity", items.AdjustQuantity)
		r.Delete("/{id}", items.DeleteItem)
	})

	r.Route("/equipment", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.Post("/initialize", items.InitializeEquipment)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Use(middleware.JSONOnly())
		r.Get("/", recipes.ListRecipes)
		r.Post("/", recipes.CreateRecipe)
		r.Get("/available", recipes.ListAvailableRecipes)
		r.Post("/generate", recipes.GenerateRecipes)
		r.Put("/{id}/save", recipes.SaveRecipe)
		r.Post("/{id}/cook", recipes.CookRecipe)
		r.Delete("/{id}", recipes.DeleteRecipe)
	})

	// Multipart uploads bypass the JSON content-type check
	r.Post("/uploads", uploads.UploadImage)

	r.Get("/health", handlers.HealthCheck(s.config.App.Version))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

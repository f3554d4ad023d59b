// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	inventoryapp "github.com/larderapp/v1/internal/application/inventory"
	recipeapp "github.com/larderapp/v1/internal/application/recipe"
	"github.com/larderapp/v1/internal/infrastructure/ai/openai"
	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/internal/infrastructure/http/server"
	gormRepo "github.com/larderapp/v1/internal/infrastructure/persistence/gorm"
	"github.com/larderapp/v1/internal/infrastructure/persistence/postgres"
	"github.com/larderapp/v1/internal/infrastructure/persistence/sqlite"
	"github.com/larderapp/v1/internal/infrastructure/storage/s3"
	"github.com/larderapp/v1/internal/ports/inbound"
	"github.com/larderapp/v1/internal/ports/outbound"
	"github.com/larderapp/v1/pkg/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	RepositoryModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the database connection for the configured
// driver
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		logLevel := gormLogger.Silent
		if cfg.App.Debug {
			logLevel = gormLogger.Info
		}

		switch cfg.Database.Driver {
		case "postgres":
			db, err := postgres.SetupDatabase(cfg, logLevel)
			if err != nil {
				return nil, fmt.Errorf("failed to setup PostgreSQL database: %w", err)
			}
			log.Info("Connected to PostgreSQL database",
				zap.String("host", cfg.Database.Host),
				zap.String("database", cfg.Database.Database),
			)
			return db, nil

		default:
			db, err := sqlite.SetupDatabase(cfg.Database.Database, logLevel)
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
			if err := sqlite.SeedDatabase(db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
			log.Info("Connected to SQLite database",
				zap.String("path", cfg.Database.Database),
			)
			return db, nil
		}
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewItemRepository,
	gormRepo.NewRecipeRepository,
)

// ServiceModule provides application services and external adapters
var ServiceModule = fx.Provide(
	// Generation service
	func(cfg *config.Config, log *zap.Logger) outbound.AIService {
		return openai.NewClient(cfg.AI, log)
	},

	// Storage service
	func(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
		return s3.NewService(cfg.AWS, log)
	},

	// Inventory service
	func(
		items outbound.ItemRepository,
		aiService outbound.AIService,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.InventoryService {
		return inventoryapp.NewService(items, aiService, cfg.AITimeout(), log)
	},

	// Recipe service
	func(
		recipes outbound.RecipeRepository,
		items outbound.ItemRepository,
		aiService outbound.AIService,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.RecipeService {
		return recipeapp.NewService(recipes, items, aiService, cfg.AITimeout(), log)
	},
)

// HTTPModule provides the HTTP server
var HTTPModule = fx.Provide(
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	server *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting application",
				zap.String("name", cfg.App.Name),
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down application")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			sqlDB, err := db.DB()
			if err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}

			_ = log.Sync()

			return nil
		},
	})
}

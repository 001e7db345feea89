package server

import (
	"fmt"
	"net/http"
	"time"

	"freezer-inventory/internal/config"
	"freezer-inventory/internal/database"
	custommiddleware "freezer-inventory/internal/middleware"
	"freezer-inventory/internal/repository"
	"freezer-inventory/internal/service"
	"freezer-inventory/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires storage, services and handlers. redisClient may be nil, in
// which case rate limiting is kept in process.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	gormDB, err := database.NewGorm(db.DB())
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
			"status":   health["status"],
			"database": health,
		})
	})

	// Repositories
	categoryRepo := repository.NewCategoryRepository(db.DB())
	itemRepo := repository.NewItemRepository(db.DB())
	settingRepo := repository.NewSettingRepository(gormDB)

	// Services
	codes := service.NewCodeGenerator()
	settingService := service.NewSettingService(settingRepo)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	itemService := service.NewItemService(itemRepo, categoryRepo, settingService, codes, service.ItemServiceConfig{
		ExpiringSoonDays:       cfg.Inventory.ExpiringSoonDays,
		OldestLimit:            cfg.Inventory.OldestLimit,
		CodeGenerationAttempts: cfg.Inventory.CodeGenerationAttempts,
	}, logger)
	transferService := service.NewTransferService(
		itemRepo,
		categoryRepo,
		codes,
		cfg.Inventory.DefaultImportExpirationDays,
		cfg.Inventory.CodeGenerationAttempts,
		logger,
	)

	// Handlers
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	itemHandler := transport.NewItemHandler(itemService, logger)
	settingHandler := transport.NewSettingHandler(settingService, itemService, logger)
	transferHandler := transport.NewTransferHandler(transferService, logger)

	rateLimiter := custommiddleware.NewRateLimiter(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		KeyPrefix:         "freezer_inventory:rate_limit",
	}, logger)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		r.Use(rateLimiter)
		r.Use(custommiddleware.LoggingMiddleware(logger))

		categoryHandler.RegisterRoutes(r)
		itemHandler.RegisterRoutes(r, transferHandler.Mount)
		settingHandler.RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

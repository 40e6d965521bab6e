package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"supplier-catalog/internal/config"
	"supplier-catalog/internal/database"
	"supplier-catalog/internal/metrics"
	custommiddleware "supplier-catalog/internal/middleware"
	"supplier-catalog/internal/scheduler"
	"supplier-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config     *config.Config
	logger     *zap.Logger
	db         database.Service
	redis      *redis.Client
	reimporter *scheduler.Reimporter
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, services *Services) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Redis.Enabled {
		server.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Import.Schedule != "" {
		reimporter, err := scheduler.NewReimporter(cfg.Import.Schedule, services.Repos.Shops, services.Users, services.Catalog, logger)
		if err != nil {
			return nil, err
		}
		server.reimporter = reimporter
	}

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      server.routes(services),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	return server, nil
}

func (s *Server) routes(services *Services) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.CORSMiddleware(s.config.Server.AllowedOrigins, s.config.Server.IsDevelopment()))

	router.Get("/health", s.health)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	authMiddleware := custommiddleware.AuthMiddleware(services.User, s.logger)

	var submissionMiddleware []func(http.Handler) http.Handler
	if s.redis != nil {
		quota := custommiddleware.NewImportQuota(s.redis, custommiddleware.ImportQuotaConfig{
			Submissions: s.config.Redis.RateLimit,
			Window:      s.config.Redis.Window,
			KeyPrefix:   "price_list_quota",
		}, s.logger)
		submissionMiddleware = append(submissionMiddleware, quota.Middleware)
	}

	transport.NewUserHandler(services.User, services.Contacts, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewCatalogHandler(services.Catalog, s.logger).RegisterRoutes(router)
	transport.NewPartnerHandler(services.Catalog, services.Orders, s.config.Import.MaxDocumentBytes, s.logger).
		RegisterRoutes(router, authMiddleware, submissionMiddleware...)
	transport.NewOrderHandler(services.Orders, s.logger).RegisterRoutes(router, authMiddleware)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health["status"] != "up" {
		s.logger.Warn("Database health check failed", zap.String("error", health["error"]))
		custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unavailable",
			"database": health,
		})
		return
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": health,
	})
}

// StartBackground starts the scheduled re-import when one is configured
func (s *Server) StartBackground() {
	if s.reimporter != nil {
		s.reimporter.Start()
	}
}

// Ping checks that redis answers when rate limiting is enabled
func (s *Server) Ping(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Ping(ctx).Err()
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.reimporter != nil {
		s.reimporter.Stop()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
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

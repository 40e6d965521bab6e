package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"supplier-catalog/internal/config"
	"supplier-catalog/internal/pricelist"
	"supplier-catalog/internal/repository"
	"supplier-catalog/internal/service"
	"supplier-catalog/internal/storage"

	"go.uber.org/zap"
)

// Services bundles the repositories and services shared by the HTTP server and the CLI
type Services struct {
	Repos    repository.Repositories
	Users    repository.UserRepository
	User     service.UserService
	Catalog  service.CatalogService
	Contacts service.ContactService
	Orders   service.OrderService
	Archiver *storage.Archiver
}

// NewServices wires repositories and services over db. The price-list archive
// is only set up when storage is configured.
func NewServices(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Services, error) {
	repos := repository.NewRepositories(db)
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	fetcher := pricelist.NewFetcher(pricelist.FetcherConfig{
		Timeout:          cfg.Import.FetchTimeout,
		MaxDocumentBytes: cfg.Import.MaxDocumentBytes,
		RatePerMinute:    cfg.Import.FetchRatePerMinute,
	}, logger)

	s := &Services{
		Repos:    repos,
		Users:    userRepo,
		User:     service.NewUserService(userRepo, tokenRepo, cfg.JWT.Secret),
		Contacts: service.NewContactService(repos.Contacts),
		Orders:   service.NewOrderService(tx, repos, logger),
	}

	var archiver service.DocumentArchiver
	if cfg.Storage.Enabled() {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		s.Archiver = storage.NewArchiver(client, cfg.Storage.Bucket, cfg.Storage.Region, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Archiver.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		archiver = s.Archiver
	}

	s.Catalog = service.NewCatalogService(tx, repos, fetcher, archiver, logger)
	return s, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/metrics"
	"supplier-catalog/internal/pricelist"
	"supplier-catalog/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrSellerOnly       = errors.New("only sellers may manage shops")
	ErrShopConflict     = errors.New("seller already owns a shop with another name")
	ErrUnknownCategory  = errors.New("good references an unknown category")
	ErrConcurrentImport = errors.New("a concurrent import touched the same shop, retry later")

	ErrCategoryConflict = repository.ErrCategoryConflict
	ErrShopNotFound     = repository.ErrShopNotFound
	ErrListingNotFound  = repository.ErrListingNotFound
)

// DocumentFetcher downloads a raw price list
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// DocumentArchiver keeps a copy of every accepted price list
type DocumentArchiver interface {
	Store(ctx context.Context, shopID int64, document []byte) (string, error)
}

// CatalogService defines price-list ingestion and the catalog read side
type CatalogService interface {
	// ImportPriceList reconciles one shop's price list against the stored
	// catalog in a single transaction
	ImportPriceList(ctx context.Context, caller *domain.User, list *domain.PriceList) (*domain.ImportSummary, error)
	// ImportDocument decodes, validates, reconciles and archives a raw document
	ImportDocument(ctx context.Context, caller *domain.User, document []byte, source string) (*domain.PriceList, *domain.ImportSummary, error)
	// ImportFromURL downloads the price list at rawURL and imports it
	ImportFromURL(ctx context.Context, caller *domain.User, rawURL string) (*domain.ImportSummary, error)

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductView, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListShops(ctx context.Context) ([]*domain.Shop, error)
	// GetListing returns one shop's offer of a product with its parameters.
	// Listings of inactive shops are reported as not found.
	GetListing(ctx context.Context, productID, shopID int64) (*domain.ListingView, error)

	// ShopState returns the caller's shop
	ShopState(ctx context.Context, caller *domain.User) (*domain.Shop, error)
	// SetShopState toggles whether the caller's shop accepts orders
	SetShopState(ctx context.Context, caller *domain.User, state bool) (*domain.Shop, error)
}

type catalogService struct {
	tx       repository.Transactor
	repos    repository.Repositories
	fetcher  DocumentFetcher
	archiver DocumentArchiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewCatalogService creates a new instance of CatalogService. archiver may be nil.
func NewCatalogService(
	tx repository.Transactor,
	repos repository.Repositories,
	fetcher DocumentFetcher,
	archiver DocumentArchiver,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		tx:       tx,
		repos:    repos,
		fetcher:  fetcher,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// authorize is evaluated before anything else so rejected callers touch no state
func authorize(caller *domain.User) error {
	if caller == nil || !caller.IsActive {
		return ErrNotAuthenticated
	}
	if !caller.IsSeller() {
		return ErrSellerOnly
	}
	return nil
}

func (s *catalogService) ImportPriceList(ctx context.Context, caller *domain.User, list *domain.PriceList) (*domain.ImportSummary, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}
	if err := pricelist.Validate(list); err != nil {
		return nil, err
	}

	var summary *domain.ImportSummary
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		summary, err = s.reconcile(ctx, repos, caller, list)
		return err
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, fmt.Errorf("%w: %v", ErrConcurrentImport, err)
		}
		return nil, err
	}

	return summary, nil
}

func (s *catalogService) reconcile(ctx context.Context, repos repository.Repositories, caller *domain.User, list *domain.PriceList) (*domain.ImportSummary, error) {
	shop, err := s.resolveShop(ctx, repos.Shops, caller, list)
	if err != nil {
		return nil, err
	}

	summary := &domain.ImportSummary{ShopID: shop.ID}

	// Categories first, goods may only reference known ones
	knownCategories := make(map[int64]bool, len(list.Categories))

	for _, c := range list.Categories {
		category := &domain.Category{ID: c.ID, Name: c.Name}
		if err := repos.Categories.Upsert(ctx, category); err != nil {
			return nil, err
		}
		if err := repos.Categories.AddShop(ctx, c.ID, shop.ID); err != nil {
			return nil, err
		}
		knownCategories[c.ID] = true
		summary.Categories++
	}

	products := make(map[int64]bool, len(list.Goods))
	listings := make(map[int64]bool, len(list.Goods))
	parameterIDs := make(map[string]int64)
	now := s.now()

	for _, good := range list.Goods {
		// Categories declared by an earlier upload are accepted too
		if !knownCategories[good.Category] {
			exists, err := repos.Categories.Exists(ctx, good.Category)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("%w: good %d references category %d", ErrUnknownCategory, good.ID, good.Category)
			}
			knownCategories[good.Category] = true
		}

		// Product identity is (name, category), shared across shops
		product, _, err := repos.Products.GetOrCreate(ctx, good.Name, good.Category)
		if err != nil {
			return nil, err
		}
		products[product.ID] = true

		listing := &domain.Listing{
			ProductID:  product.ID,
			ShopID:     shop.ID,
			ExternalID: good.ID,
			Model:      good.Model,
			Name:       good.Name,
			Quantity:   *good.Quantity,
			Price:      *good.Price,
			PriceRRP:   good.RecommendedPrice(),
			UpdatedAt:  now,
		}
		// Insert or update this shop's offer in place
		if err := repos.Listings.Upsert(ctx, listing); err != nil {
			return nil, err
		}
		listings[listing.ID] = true

		// Stable parameter order keeps statement order deterministic
		names := make([]string, 0, len(good.Parameters))
		for name := range good.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parameterID, ok := parameterIDs[name]
			if !ok {
				parameter, err := repos.Parameters.GetOrCreate(ctx, name)
				if err != nil {
					return nil, err
				}
				parameterID = parameter.ID
				parameterIDs[name] = parameterID
			}

			if err := repos.Parameters.SetValue(ctx, listing.ID, parameterID, good.Parameters[name]); err != nil {
				return nil, err
			}
			summary.Parameters++
		}
	}

	summary.Products = len(products)
	summary.Listings = len(listings)

	return summary, nil
}

// resolveShop finds the caller's shop or creates it. A seller owns one shop.
func (s *catalogService) resolveShop(ctx context.Context, shops repository.ShopRepository, caller *domain.User, list *domain.PriceList) (*domain.Shop, error) {
	shop, err := shops.FindByOwner(ctx, caller.ID)
	switch {
	case err == nil:
		if shop.Name != list.Shop {
			return nil, fmt.Errorf("%w: owns %q, price list names %q", ErrShopConflict, shop.Name, list.Shop)
		}
		if list.URL != "" && list.URL != shop.URL {
			if err := shops.UpdateURL(ctx, shop.ID, list.URL); err != nil {
				return nil, err
			}
			shop.URL = list.URL
		}
		return shop, nil

	case errors.Is(err, repository.ErrShopNotFound):
		now := s.now()
		shop = &domain.Shop{
			Name:      list.Shop,
			URL:       list.URL,
			State:     true,
			UserID:    &caller.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := shops.Create(ctx, shop); err != nil {
			if errors.Is(err, repository.ErrShopOwnerConflict) {
				return nil, ErrConcurrentImport
			}
			return nil, err
		}
		return shop, nil

	default:
		return nil, err
	}
}

func (s *catalogService) ImportDocument(ctx context.Context, caller *domain.User, document []byte, source string) (*domain.PriceList, *domain.ImportSummary, error) {
	return s.importDocument(ctx, caller, document, source, "")
}

func (s *catalogService) importDocument(ctx context.Context, caller *domain.User, document []byte, source, sourceURL string) (*domain.PriceList, *domain.ImportSummary, error) {
	if err := authorize(caller); err != nil {
		return nil, nil, err
	}

	log := logger.FromContext(ctx, s.logger).With(
		zap.String("source", source),
		zap.String("user_id", caller.ID.String()),
	)
	start := s.now()

	list, err := pricelist.Parse(document)
	if err != nil {
		metrics.RecordImport(source, 0, 0, err)
		log.Info("Rejected price list", zap.Error(err))
		return nil, nil, err
	}
	if sourceURL != "" {
		list.URL = sourceURL
	}

	summary, err := s.ImportPriceList(ctx, caller, list)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordImport(source, 0, duration, err)
		log.Warn("Price list import failed", zap.String("shop", list.Shop), zap.Error(err))
		return nil, nil, err
	}
	metrics.RecordImport(source, summary.Listings, duration, nil)

	log.Info("Price list imported",
		zap.Int64("shop_id", summary.ShopID),
		zap.Int("categories", summary.Categories),
		zap.Int("products", summary.Products),
		zap.Int("listings", summary.Listings),
		zap.Int("parameters", summary.Parameters),
		zap.Duration("duration", duration),
	)

	if s.archiver != nil {
		if key, err := s.archiver.Store(ctx, summary.ShopID, document); err != nil {
			metrics.RecordArchiveFailure()
			log.Warn("Failed to archive price list", zap.Int64("shop_id", summary.ShopID), zap.Error(err))
		} else {
			log.Debug("Price list archived", zap.String("key", key))
		}
	}

	return list, summary, nil
}

func (s *catalogService) ImportFromURL(ctx context.Context, caller *domain.User, rawURL string) (*domain.ImportSummary, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}
	if err := pricelist.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	document, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.RecordImport(metrics.SourceURL, 0, 0, err)
		return nil, err
	}

	_, summary, err := s.importDocument(ctx, caller, document, metrics.SourceURL, rawURL)
	return summary, err
}

func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductView, error) {
	products, err := s.repos.Products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	shops, err := s.repos.Shops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

func (s *catalogService) GetListing(ctx context.Context, productID, shopID int64) (*domain.ListingView, error) {
	shop, err := s.repos.Shops.FindByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if !shop.State {
		return nil, ErrListingNotFound
	}

	listing, err := s.repos.Listings.FindByProductAndShop(ctx, productID, shopID)
	if err != nil {
		return nil, err
	}

	parameters, err := s.repos.Parameters.ListForListing(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing parameters: %w", err)
	}

	return &domain.ListingView{
		ID:         listing.ID,
		ShopID:     shop.ID,
		Shop:       shop.Name,
		ExternalID: listing.ExternalID,
		Model:      listing.Model,
		Name:       listing.Name,
		Quantity:   listing.Quantity,
		Price:      listing.Price,
		PriceRRP:   listing.PriceRRP,
		Parameters: parameters,
	}, nil
}

func (s *catalogService) ShopState(ctx context.Context, caller *domain.User) (*domain.Shop, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}
	return s.repos.Shops.FindByOwner(ctx, caller.ID)
}

func (s *catalogService) SetShopState(ctx context.Context, caller *domain.User, state bool) (*domain.Shop, error) {
	shop, err := s.ShopState(ctx, caller)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Shops.UpdateState(ctx, shop.ID, state); err != nil {
		return nil, err
	}
	shop.State = state

	logger.FromContext(ctx, s.logger).Info("Shop state changed",
		zap.Int64("shop_id", shop.ID),
		zap.Bool("state", state),
	)

	return shop, nil
}

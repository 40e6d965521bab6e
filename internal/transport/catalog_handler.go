package transport

import (
	"net/http"
	"strconv"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/middleware"
	"supplier-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public catalog read side
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/products", h.ListProducts)
	r.Get("/api/v1/products/{productID}/shops/{shopID}", h.GetListing)
	r.Get("/api/v1/categories", h.ListCategories)
	r.Get("/api/v1/shops", h.ListShops)
}

// ListProducts returns products with their listings, optionally narrowed by shop_id and category_id
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	var filter domain.ProductFilter
	var ok bool
	if filter.ShopID, ok = queryID(r, "shop_id"); !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "shop_id must be an integer")
		return
	}
	if filter.CategoryID, ok = queryID(r, "category_id"); !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "category_id must be an integer")
		return
	}

	products, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, log, err, "list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetListing returns one shop's offer of a product
func (h *CatalogHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "shop id must be an integer")
		return
	}

	listing, err := h.catalogService.GetListing(r.Context(), productID, shopID)
	if err != nil {
		respondServiceError(w, logger.FromContext(r.Context(), h.logger), err, "get listing")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, listing)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, logger.FromContext(r.Context(), h.logger), err, "list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.catalogService.ListShops(r.Context())
	if err != nil {
		respondServiceError(w, logger.FromContext(r.Context(), h.logger), err, "list shops")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, shops)
}

// queryID parses an optional integer query parameter
func queryID(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}

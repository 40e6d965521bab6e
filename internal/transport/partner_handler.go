package transport

import (
	"errors"
	"io"
	"net/http"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/metrics"
	"supplier-catalog/internal/middleware"
	"supplier-catalog/internal/pricelist"
	"supplier-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateRequest asks for a price list to be downloaded and imported
type UpdateRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// StateRequest toggles the caller's shop
type StateRequest struct {
	State *bool `json:"state" validate:"required"`
}

// PartnerHandler serves the seller side: price-list import, shop state and shop orders
type PartnerHandler struct {
	catalogService service.CatalogService
	orderService   service.OrderService
	maxBodyBytes   int64
	logger         *zap.Logger
}

// NewPartnerHandler creates a new PartnerHandler. Import bodies above maxBodyBytes are rejected.
func NewPartnerHandler(catalogService service.CatalogService, orderService service.OrderService, maxBodyBytes int64, logger *zap.Logger) *PartnerHandler {
	return &PartnerHandler{
		catalogService: catalogService,
		orderService:   orderService,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the partner routes. Import and update perform their
// own role check so non-sellers get the reconciler's error.
func (h *PartnerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, submission ...func(http.Handler) http.Handler) {
	r.Route("/api/v1/partner", func(r chi.Router) {
		r.Use(authMiddleware)

		// Price-list submissions
		r.With(submission...).Post("/import", h.Import)
		r.With(submission...).Post("/update", h.Update)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUserType(domain.UserTypeSeller, h.logger))
			r.Get("/state", h.GetState)
			r.Post("/state", h.SetState)
			r.Get("/orders", h.Orders)
		})
	})
}

// Import reconciles the price list carried in the request body
func (h *PartnerHandler) Import(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	caller, _ := middleware.UserFromContext(r.Context())

	document, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(w, log, pricelist.ErrDocumentTooLarge, "import")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	list, summary, err := h.catalogService.ImportDocument(r.Context(), caller, document, metrics.SourceUpload)
	if err != nil {
		respondServiceError(w, log, err, "import")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{
		"data":    list,
		"summary": summary,
	})
}

// Update downloads the price list at the given URL and imports it
func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	caller, _ := middleware.UserFromContext(r.Context())

	var req UpdateRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	summary, err := h.catalogService.ImportFromURL(r.Context(), caller, req.URL)
	if err != nil {
		respondServiceError(w, log, err, "update")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

func (h *PartnerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	caller, _ := middleware.UserFromContext(r.Context())

	shop, err := h.catalogService.ShopState(r.Context(), caller)
	if err != nil {
		respondServiceError(w, log, err, "shop state")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"shop": shop})
}

func (h *PartnerHandler) SetState(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	caller, _ := middleware.UserFromContext(r.Context())

	var req StateRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	shop, err := h.catalogService.SetShopState(r.Context(), caller, *req.State)
	if err != nil {
		respondServiceError(w, log, err, "shop state")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"shop": shop})
}

// Orders lists placed orders containing the seller's listings
func (h *PartnerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	caller, _ := middleware.UserFromContext(r.Context())

	orders, err := h.orderService.ShopOrders(r.Context(), caller)
	if err != nil {
		respondServiceError(w, log, err, "shop orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

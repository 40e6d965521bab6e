package transport

import (
	"net/http"

	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/middleware"
	"supplier-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BasketItemRequest sets the quantity of one basket line
type BasketItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	ShopID    int64 `json:"shop_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

// BasketRequest represents the add-to-basket payload
type BasketRequest struct {
	Items []BasketItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ConfirmRequest places the basket
type ConfirmRequest struct {
	ContactID uuid.UUID `json:"contact_id" validate:"required"`
}

// OrderHandler handles basket and order requests
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers basket and order routes, all behind authentication
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/api/v1/basket", h.GetBasket)
		r.Post("/api/v1/basket", h.AddToBasket)
		r.Delete("/api/v1/basket/{itemID}", h.RemoveFromBasket)

		r.Get("/api/v1/orders", h.ListOrders)
		r.Post("/api/v1/orders", h.Confirm)
	})
}

func (h *OrderHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	basket, err := h.orderService.Basket(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, logger.FromContext(r.Context(), h.logger), err, "basket")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, basket)
}

func (h *OrderHandler) AddToBasket(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	var req BasketRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	items := make([]service.BasketItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.BasketItemInput(item))
	}

	basket, err := h.orderService.AddItems(r.Context(), user.ID, items)
	if err != nil {
		respondServiceError(w, log, err, "add to basket")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"basket": basket})
}

func (h *OrderHandler) RemoveFromBasket(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, service.ErrItemNotFound.Error())
		return
	}

	if err := h.orderService.RemoveItem(r.Context(), user.ID, itemID); err != nil {
		respondServiceError(w, log, err, "remove from basket")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, nil)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	orders, err := h.orderService.ListOrders(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, logger.FromContext(r.Context(), h.logger), err, "list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Confirm places the basket as a new order
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	var req ConfirmRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	order, err := h.orderService.Confirm(r.Context(), user.ID, req.ContactID)
	if err != nil {
		respondServiceError(w, log, err, "confirm order")
		return
	}

	middleware.RespondWithOK(w, http.StatusCreated, map[string]interface{}{"order": order})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart       = errors.New("basket is empty")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 2147483647")

	ErrItemNotFound       = repository.ErrOrderItemNotFound
	ErrListingUnavailable = repository.ErrListingUnavailable
)

// BasketItemInput sets the quantity of one basket line
type BasketItemInput struct {
	ProductID int64
	ShopID    int64
	Quantity  int
}

// OrderService manages the basket and placed orders
type OrderService interface {
	// Basket returns the open basket with live prices; an absent basket is empty
	Basket(ctx context.Context, userID uuid.UUID) (*domain.OrderView, error)
	// AddItems sets quantities of basket lines, all or nothing
	AddItems(ctx context.Context, userID uuid.UUID, items []BasketItemInput) (*domain.OrderView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	// Confirm places the basket as a new order delivered to contactID
	Confirm(ctx context.Context, userID, contactID uuid.UUID) (*domain.OrderView, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.OrderView, error)
	// ShopOrders lists placed orders containing lines from the seller's shop
	ShopOrders(ctx context.Context, caller *domain.User) ([]*domain.OrderView, error)
}

type orderService struct {
	tx     repository.Transactor
	repos  repository.Repositories
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(tx repository.Transactor, repos repository.Repositories, logger *zap.Logger) OrderService {
	return &orderService{tx: tx, repos: repos, logger: logger}
}

func (s *orderService) Basket(ctx context.Context, userID uuid.UUID) (*domain.OrderView, error) {
	cart, err := s.repos.Orders.FindCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return &domain.OrderView{
				Order: domain.Order{UserID: userID, Status: domain.OrderStatusCart},
				Items: []domain.OrderItemView{},
			}, nil
		}
		return nil, fmt.Errorf("failed to find basket: %w", err)
	}
	return s.view(ctx, s.repos.Orders, cart)
}

func (s *orderService) AddItems(ctx context.Context, userID uuid.UUID, items []BasketItemInput) (*domain.OrderView, error) {
	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > math.MaxInt32 {
			return nil, ErrInvalidQuantity
		}
	}

	var view *domain.OrderView
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		cart, err := repos.Orders.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		for _, item := range items {
			line := &domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   cart.ID,
				ProductID: item.ProductID,
				ShopID:    item.ShopID,
				Quantity:  item.Quantity,
			}
			if err := repos.Orders.UpsertItem(ctx, line); err != nil {
				if errors.Is(err, repository.ErrListingUnavailable) {
					return fmt.Errorf("%w: product %d, shop %d", ErrListingUnavailable, item.ProductID, item.ShopID)
				}
				return err
			}
		}

		view, err = s.view(ctx, repos.Orders, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

func (s *orderService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.repos.Orders.FindCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to find basket: %w", err)
	}
	return s.repos.Orders.DeleteItem(ctx, cart.ID, itemID)
}

func (s *orderService) Confirm(ctx context.Context, userID, contactID uuid.UUID) (*domain.OrderView, error) {
	var view *domain.OrderView
	err := s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		cart, err := repos.Orders.FindCart(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return ErrEmptyCart
			}
			return err
		}

		if _, err := repos.Contacts.FindForUser(ctx, contactID, userID); err != nil {
			return err
		}

		view, err = s.view(ctx, repos.Orders, cart)
		if err != nil {
			return err
		}
		if len(view.Items) == 0 {
			return ErrEmptyCart
		}

		if err := repos.Orders.Confirm(ctx, cart.ID, contactID); err != nil {
			return err
		}
		view.Status = domain.OrderStatusNew
		view.ContactID = &contactID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Order placed",
		zap.String("order_id", view.ID.String()),
		zap.Int("items", len(view.Items)),
		zap.Int("total", view.Total),
	)

	return view, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.OrderView, error) {
	orders, err := s.repos.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	views := make([]*domain.OrderView, 0, len(orders))
	for _, order := range orders {
		view, err := s.view(ctx, s.repos.Orders, order)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *orderService) ShopOrders(ctx context.Context, caller *domain.User) ([]*domain.OrderView, error) {
	if err := authorize(caller); err != nil {
		return nil, err
	}

	shop, err := s.repos.Shops.FindByOwner(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return []*domain.OrderView{}, nil
		}
		return nil, fmt.Errorf("failed to find shop: %w", err)
	}

	orders, err := s.repos.Orders.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop orders: %w", err)
	}

	views := make([]*domain.OrderView, 0, len(orders))
	for _, order := range orders {
		items, err := s.repos.Orders.ListShopItems(ctx, order.ID, shop.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list shop order items: %w", err)
		}
		view := &domain.OrderView{Order: *order, Items: items}
		view.CalculateTotal()
		views = append(views, view)
	}

	return views, nil
}

func (s *orderService) view(ctx context.Context, orders repository.OrderRepository, order *domain.Order) (*domain.OrderView, error) {
	items, err := orders.ListItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	view := &domain.OrderView{Order: *order, Items: items}
	view.CalculateTotal()
	return view, nil
}

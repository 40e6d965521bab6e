package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supplier-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrListingUnavailable = errors.New("product is not offered by this shop")
)

// OrderRepository defines the interface for basket and order data access
type OrderRepository interface {
	// GetOrCreateCart returns the user's open basket, creating it when absent
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	FindCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	// UpsertItem sets the quantity of a basket line, adding the line if needed
	UpsertItem(ctx context.Context, item *domain.OrderItem) error
	DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemView, error)
	// ListByUser returns the user's placed orders, baskets excluded
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// Confirm turns an open basket into a new order delivered to contactID
	Confirm(ctx context.Context, orderID, contactID uuid.UUID) error
	// ListByShop returns placed orders containing at least one line from shopID
	ListByShop(ctx context.Context, shopID int64) ([]*domain.Order, error)
	// ListShopItems returns the lines of an order that belong to shopID
	ListShopItems(ctx context.Context, orderID uuid.UUID, shopID int64) ([]domain.OrderItemView, error)
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, status, contact_id, created_at, updated_at`

func (r *orderRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	now := time.Now()
	query := `
		INSERT INTO orders (id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) WHERE status = 'cart' DO NOTHING
	`

	// Create the basket unless one is already open
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), userID, domain.OrderStatusCart, now); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.FindCart(ctx, userID)
}

func (r *orderRepository) FindCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND status = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, userID, domain.OrderStatusCart))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return order, nil
}

// UpsertItem only accepts lines for products the shop actually lists
func (r *orderRepository) UpsertItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, shop_id, quantity)
		SELECT $1, $2, l.product_id, l.shop_id, $5
		FROM listings l
		JOIN shops s ON s.id = l.shop_id
		WHERE l.product_id = $3 AND l.shop_id = $4 AND s.state = TRUE
		ON CONFLICT ON CONSTRAINT uq_order_items_line DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.ShopID,
		item.Quantity,
	).Scan(&item.ID)

	if err != nil {
		// No row selected: no listing, or its shop is inactive
		if errors.Is(err, sql.ErrNoRows) {
			return ErrListingUnavailable
		}
		return fmt.Errorf("failed to upsert order item: %w", err)
	}

	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return rowsAffected(result, ErrOrderItemNotFound)
}

const orderItemViewQuery = `
	SELECT oi.id, oi.product_id, p.name, oi.shop_id, s.name, oi.quantity, COALESCE(l.price, 0)
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id
	JOIN shops s ON s.id = oi.shop_id
	LEFT JOIN listings l ON l.product_id = oi.product_id AND l.shop_id = oi.shop_id
`

func (r *orderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemView, error) {
	return r.listItems(ctx, orderItemViewQuery+` WHERE oi.order_id = $1 ORDER BY p.name`, orderID)
}

func (r *orderRepository) ListShopItems(ctx context.Context, orderID uuid.UUID, shopID int64) ([]domain.OrderItemView, error) {
	return r.listItems(ctx, orderItemViewQuery+` WHERE oi.order_id = $1 AND oi.shop_id = $2 ORDER BY p.name`, orderID, shopID)
}

func (r *orderRepository) listItems(ctx context.Context, query string, args ...any) ([]domain.OrderItemView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItemView{}
	for rows.Next() {
		var item domain.OrderItemView
		err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Product,
			&item.ShopID,
			&item.Shop,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status <> $2
		ORDER BY created_at DESC
	`
	return r.listOrders(ctx, query, userID, domain.OrderStatusCart)
}

func (r *orderRepository) ListByShop(ctx context.Context, shopID int64) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.status <> $2
		  AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.shop_id = $1)
		ORDER BY o.created_at DESC
	`
	return r.listOrders(ctx, query, shopID, domain.OrderStatusCart)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Confirm(ctx context.Context, orderID, contactID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $3, contact_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, orderID, contactID, domain.OrderStatusNew, domain.OrderStatusCart)
	if err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}
	return rowsAffected(result, ErrOrderNotFound)
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var contactID uuid.NullUUID
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&contactID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if contactID.Valid {
		order.ContactID = &contactID.UUID
	}
	return order, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusCart      OrderStatus = "cart"
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusAssembled OrderStatus = "assembled"
	OrderStatusSent      OrderStatus = "sent"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// Order is a cart-like aggregate. Status "cart" marks the user's open basket.
type Order struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"-" db:"user_id"`
	Status    OrderStatus `json:"status" db:"status"`
	ContactID *uuid.UUID  `json:"contact_id,omitempty" db:"contact_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem references a product offered by a shop. Price is read from the listing
// at query time, no snapshot is kept.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	ShopID    int64     `json:"shop_id" db:"shop_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// OrderItemView is an order line joined with its live listing price
type OrderItemView struct {
	ID        uuid.UUID `json:"id"`
	ProductID int64     `json:"product_id"`
	Product   string    `json:"product"`
	ShopID    int64     `json:"shop_id"`
	Shop      string    `json:"shop"`
	Quantity  int       `json:"quantity"`
	Price     int       `json:"price"`
	Sum       int       `json:"sum"`
}

// OrderView is an order with its lines and total
type OrderView struct {
	Order
	Items []OrderItemView `json:"items"`
	Total int             `json:"total"`
}

// CalculateTotal sums the line totals of the view
func (v *OrderView) CalculateTotal() {
	total := 0
	for i := range v.Items {
		v.Items[i].Sum = v.Items[i].Price * v.Items[i].Quantity
		total += v.Items[i].Sum
	}
	v.Total = total
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Shop represents a seller's storefront. A shop owns its listings.
type Shop struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	URL       string     `json:"url" db:"url"`
	State     bool       `json:"state" db:"state"`
	UserID    *uuid.UUID `json:"-" db:"user_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Category represents a product category shared between shops
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Product is a catalog item shared across shops. Identity is (Name, CategoryID).
type Product struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	CategoryID int64  `json:"category_id" db:"category_id"`
}

// Listing is a shop's offer of a product. At most one listing exists per (product, shop).
type Listing struct {
	ID         int64     `json:"id" db:"id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	ShopID     int64     `json:"shop_id" db:"shop_id"`
	ExternalID int64     `json:"external_id" db:"external_id"`
	Model      string    `json:"model" db:"model"`
	Name       string    `json:"name" db:"name"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      int       `json:"price" db:"price"`
	PriceRRP   int       `json:"price_rrp" db:"price_rrp"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Parameter is a globally shared attribute name such as "color"
type Parameter struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ListingParameter binds a value of one parameter to one listing
type ListingParameter struct {
	ID          int64  `json:"id" db:"id"`
	ListingID   int64  `json:"listing_id" db:"listing_id"`
	ParameterID int64  `json:"parameter_id" db:"parameter_id"`
	Value       string `json:"value" db:"value"`
}

// ParameterValue is the read-side view of a listing parameter
type ParameterValue struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// ListingView is the read-side view of a listing with its shop and parameters
type ListingView struct {
	ID         int64            `json:"id"`
	ShopID     int64            `json:"shop_id"`
	Shop       string           `json:"shop"`
	ExternalID int64            `json:"external_id"`
	Model      string           `json:"model"`
	Name       string           `json:"name"`
	Quantity   int              `json:"quantity"`
	Price      int              `json:"price"`
	PriceRRP   int              `json:"price_rrp"`
	Parameters []ParameterValue `json:"parameters"`
}

// ProductView is a product with every shop listing for it
type ProductView struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Listings []ListingView `json:"listings"`
}

// ProductFilter narrows the product listing
type ProductFilter struct {
	ShopID     *int64
	CategoryID *int64
}

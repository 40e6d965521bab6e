package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact holds postal and phone details owned by one user
type Contact struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	LastName  string    `json:"last_name" db:"last_name"`
	FirstName string    `json:"first_name" db:"first_name"`
	Surname   string    `json:"surname" db:"surname"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	City      string    `json:"city" db:"city"`
	Street    string    `json:"street" db:"street"`
	Building  string    `json:"building" db:"building"`
	Housing   string    `json:"housing" db:"housing"`
	Structure string    `json:"structure" db:"structure"`
	Apartment string    `json:"apartment" db:"apartment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

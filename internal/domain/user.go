package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserType distinguishes sellers from buyers
type UserType string

const (
	UserTypeSeller UserType = "seller"
	UserTypeBuyer  UserType = "buyer"
)

// Valid reports whether t is a known user type
func (t UserType) Valid() bool {
	return t == UserTypeSeller || t == UserTypeBuyer
}

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Company      string    `json:"company" db:"company"`
	Position     string    `json:"position" db:"position"`
	Type         UserType  `json:"type" db:"type"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsSeller reports whether the user may upload price lists
func (u *User) IsSeller() bool {
	return u != nil && u.Type == UserTypeSeller
}

// AuthToken is the single API key issued to a user
type AuthToken struct {
	Key       string    `json:"key" db:"key"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Address is a shipping address owned by a user.
type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	FullName   string    `json:"fullName" db:"full_name"`
	Phone      string    `json:"phone" db:"phone"`
	City       string    `json:"city" db:"city"`
	Line       string    `json:"line" db:"line"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

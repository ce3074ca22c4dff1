package model

import (
	"time"

	"github.com/google/uuid"
)

// Owner is the account that registered one or more applications and manages
// their key lifecycle. Owners are resolved by the identity middleware.
type Owner struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

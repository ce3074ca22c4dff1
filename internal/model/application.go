package model

import (
	"time"

	"github.com/google/uuid"
)

// Application is a registered tenant application. Its API key authorizes
// event submission; the key value is unique across all applications.
type Application struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	WebsiteURL      string     `json:"website_url"`
	APIKey          string     `json:"-"`
	APIKeyExpiresAt *time.Time `json:"api_key_expires_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// KeyExpired reports whether the application's API key has an expiry in the
// past. A key with no expiry never expires.
func (a *Application) KeyExpired(now time.Time) bool {
	return a.APIKeyExpiresAt != nil && now.After(*a.APIKeyExpiresAt)
}

// Identity is the resolved tenant identity handed to downstream handlers
// after successful API key authentication. It is also the snapshot persisted
// in the key cache, so it carries the owner's display name alongside the id.
type Identity struct {
	ApplicationID   uuid.UUID `json:"application_id"`
	ApplicationName string    `json:"application_name"`
	OwnerID         uuid.UUID `json:"owner_id"`
	OwnerName       string    `json:"owner_name,omitempty"`
}

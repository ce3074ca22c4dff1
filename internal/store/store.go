package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/model"
)

// ErrNotFound is returned when a lookup matches no record. Callers must
// distinguish it from infrastructure failures: an absent record rejects a
// credential, a failed store fails the request.
var ErrNotFound = errors.New("record not found")

// ApplicationStore is the system of record for application/key records.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *model.Application) error
	// GetActiveIdentityByKey resolves an API key to a tenant identity,
	// matching only active applications whose key has not expired.
	GetActiveIdentityByKey(ctx context.Context, apiKey string) (*model.Identity, error)
	GetApplicationByOwnerAndID(ctx context.Context, ownerID, appID uuid.UUID) (*model.Application, error)
	GetActiveApplicationByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Application, error)
	ListApplicationsByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*model.Application, int, error)
	// RotateApplicationKey replaces the key value and expiry in one update.
	RotateApplicationKey(ctx context.Context, appID uuid.UUID, newKey string, expiresAt time.Time) error
	// DeactivateApplication is an administrative operation; no API endpoint
	// triggers it.
	DeactivateApplication(ctx context.Context, appID uuid.UUID) error
	CountApplications(ctx context.Context) (int, error)
}

// OwnerStore manages owner accounts resolved by the identity middleware.
type OwnerStore interface {
	UpsertOwnerByEmail(ctx context.Context, email, name string) (*model.Owner, error)
	GetOwnerByID(ctx context.Context, id uuid.UUID) (*model.Owner, error)
}

// EventStore persists and aggregates collected analytics events.
type EventStore interface {
	InsertEvent(ctx context.Context, event *model.AnalyticsEvent) error
	EventSummary(ctx context.Context, appID uuid.UUID, event string, from, to time.Time) (*model.EventSummary, error)
	UserStats(ctx context.Context, appID uuid.UUID, userID string, recentLimit int) (*model.UserStats, error)
}

// Store combines all store interfaces.
type Store interface {
	ApplicationStore
	OwnerStore
	EventStore
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beacon-analytics-service/internal/cache"
	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/store"
	"github.com/beacon-analytics-service/internal/validation"
)

// ApplicationService handles application registration and key lifecycle.
type ApplicationService struct {
	store          store.ApplicationStore
	cache          cache.KeyCache
	rotationExpiry time.Duration
	cacheTimeout   time.Duration
}

// NewApplicationService creates an application service. rotationExpiry is the
// validity horizon applied to replacement keys issued by RevokeKey.
func NewApplicationService(s store.ApplicationStore, c cache.KeyCache, rotationExpiry, cacheTimeout time.Duration) *ApplicationService {
	return &ApplicationService{
		store:          s,
		cache:          c,
		rotationExpiry: rotationExpiry,
		cacheTimeout:   cacheTimeout,
	}
}

// RegisterInput contains the parameters for registering a new application.
type RegisterInput struct {
	Name        string
	Description string
	WebsiteURL  string
}

// Register validates input, generates an API key, and persists a new active
// application for the owner. Name uniqueness is scoped to the owner's active
// applications.
func (s *ApplicationService) Register(ctx context.Context, ownerID uuid.UUID, input RegisterInput) (*model.Application, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, NewBadRequest("invalid_request", "name is required")
	}
	if err := validation.WebsiteURL(input.WebsiteURL); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}

	_, err := s.store.GetActiveApplicationByOwnerAndName(ctx, ownerID, input.Name)
	if err == nil {
		return nil, NewConflict("duplicate_application", "An active application with this name already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("failed to check application name uniqueness")
		return nil, NewUnavailable("store_unavailable", "Failed to register application")
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate API key")
		return nil, NewInternal("internal_error", "Failed to register application")
	}

	app := &model.Application{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		WebsiteURL:  input.WebsiteURL,
		APIKey:      apiKey,
		IsActive:    true,
		OwnerID:     ownerID,
	}

	if err := s.store.CreateApplication(ctx, app); err != nil {
		log.Error().Err(err).Msg("failed to create application")
		return nil, NewUnavailable("store_unavailable", "Failed to register application")
	}

	return app, nil
}

// GetApplication returns the owner's application, including its current key
// and expiry.
func (s *ApplicationService) GetApplication(ctx context.Context, ownerID, appID uuid.UUID) (*model.Application, error) {
	app, err := s.store.GetApplicationByOwnerAndID(ctx, ownerID, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFound("application_not_found", "Application not found")
	}
	if err != nil {
		log.Error().Err(err).Str("app_id", appID.String()).Msg("failed to load application")
		return nil, NewUnavailable("store_unavailable", "Failed to load application")
	}
	return app, nil
}

// RevokeResult contains the replacement credential issued by RevokeKey.
type RevokeResult struct {
	NewKey    string
	ExpiresAt time.Time
}

// RevokeKey invalidates an application's current API key and issues a
// replacement with a bounded expiry. The old key's cache entry is removed
// before the replacement is persisted so that at no point both keys validate.
func (s *ApplicationService) RevokeKey(ctx context.Context, ownerID, appID uuid.UUID) (*RevokeResult, error) {
	app, err := s.store.GetApplicationByOwnerAndID(ctx, ownerID, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFound("application_not_found", "Application not found")
	}
	if err != nil {
		log.Error().Err(err).Str("app_id", appID.String()).Msg("failed to load application for revoke")
		return nil, NewUnavailable("store_unavailable", "Failed to revoke API key")
	}

	s.invalidateKey(ctx, app.APIKey)

	newKey, err := generateAPIKey()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate replacement API key")
		return nil, NewInternal("internal_error", "Failed to revoke API key")
	}

	expiresAt := time.Now().UTC().Add(s.rotationExpiry)
	if err := s.store.RotateApplicationKey(ctx, app.ID, newKey, expiresAt); err != nil {
		log.Error().Err(err).Str("app_id", appID.String()).Msg("failed to rotate API key")
		return nil, NewUnavailable("store_unavailable", "Failed to revoke API key")
	}

	return &RevokeResult{NewKey: newKey, ExpiresAt: expiresAt}, nil
}

// List returns the owner's applications, newest first.
func (s *ApplicationService) List(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*model.Application, int, error) {
	apps, total, err := s.store.ListApplicationsByOwner(ctx, ownerID, page, perPage)
	if err != nil {
		log.Error().Err(err).Msg("failed to list applications")
		return nil, 0, NewUnavailable("store_unavailable", "Failed to list applications")
	}
	return apps, total, nil
}

// invalidateKey removes the key's cache entry. A failed delete is logged but
// does not abort the revoke: if the cache is unreachable, lookups through it
// fail the same way and the stale entry cannot authenticate anything.
func (s *ApplicationService) invalidateKey(ctx context.Context, apiKey string) {
	cacheCtx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.cache.Delete(cacheCtx, apiKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate key cache entry on revoke")
	}
}

// generateAPIKey returns a new opaque credential: the "ak_" prefix followed
// by 64 hex characters from crypto/rand.
func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}
	return "ak_" + hex.EncodeToString(b), nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/store"
	"github.com/beacon-analytics-service/internal/validation"
)

const recentEventsLimit = 10

// AnalyticsService handles event ingestion and aggregate queries.
type AnalyticsService struct {
	events store.EventStore
	apps   store.ApplicationStore
}

func NewAnalyticsService(events store.EventStore, apps store.ApplicationStore) *AnalyticsService {
	return &AnalyticsService{events: events, apps: apps}
}

// CollectInput contains one submitted analytics event.
type CollectInput struct {
	Event     string
	URL       string
	Referrer  string
	Device    string
	IPAddress string
	UserID    string
	SessionID string
	Metadata  map[string]string
	Timestamp time.Time
}

// Collect validates and persists an event on behalf of the authenticated
// application.
func (s *AnalyticsService) Collect(ctx context.Context, identity *model.Identity, input CollectInput) (*model.AnalyticsEvent, error) {
	if err := validation.CollectedEvent(input.Event, input.URL, input.IPAddress); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}

	device := model.Device(input.Device)
	if input.Device == "" {
		device = model.DeviceDesktop
	}
	if !model.ValidDevice(device) {
		return nil, NewBadRequest("invalid_request", "device must be one of: mobile, desktop, tablet, other")
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	event := &model.AnalyticsEvent{
		ApplicationID: identity.ApplicationID,
		Event:         input.Event,
		URL:           input.URL,
		Referrer:      input.Referrer,
		Device:        device,
		IPAddress:     input.IPAddress,
		UserID:        input.UserID,
		SessionID:     input.SessionID,
		Metadata:      input.Metadata,
		Timestamp:     timestamp,
	}

	if err := s.events.InsertEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("application_id", identity.ApplicationID.String()).Msg("failed to insert event")
		return nil, NewUnavailable("store_unavailable", "Failed to collect event")
	}
	return event, nil
}

// Summary aggregates one event type over a time window for an application the
// owner controls.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID, appID uuid.UUID, event string, from, to time.Time) (*model.EventSummary, error) {
	if event == "" {
		return nil, NewBadRequest("invalid_request", "event is required")
	}
	if !to.After(from) {
		return nil, NewBadRequest("invalid_request", "end must be after start")
	}

	if err := s.authorizeOwner(ctx, ownerID, appID); err != nil {
		return nil, err
	}

	summary, err := s.events.EventSummary(ctx, appID, event, from, to)
	if err != nil {
		log.Error().Err(err).Str("application_id", appID.String()).Msg("failed to summarize events")
		return nil, NewUnavailable("store_unavailable", "Failed to summarize events")
	}
	return summary, nil
}

// UserStats returns a single end user's activity within an application the
// owner controls.
func (s *AnalyticsService) UserStats(ctx context.Context, ownerID, appID uuid.UUID, userID string) (*model.UserStats, error) {
	if userID == "" {
		return nil, NewBadRequest("invalid_request", "user_id is required")
	}

	if err := s.authorizeOwner(ctx, ownerID, appID); err != nil {
		return nil, err
	}

	stats, err := s.events.UserStats(ctx, appID, userID, recentEventsLimit)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFound("user_not_found", "No events recorded for this user")
	}
	if err != nil {
		log.Error().Err(err).Str("application_id", appID.String()).Msg("failed to load user stats")
		return nil, NewUnavailable("store_unavailable", "Failed to load user stats")
	}
	return stats, nil
}

func (s *AnalyticsService) authorizeOwner(ctx context.Context, ownerID, appID uuid.UUID) error {
	_, err := s.apps.GetApplicationByOwnerAndID(ctx, ownerID, appID)
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFound("application_not_found", "Application not found")
	}
	if err != nil {
		log.Error().Err(err).Str("app_id", appID.String()).Msg("failed to authorize owner for application")
		return NewUnavailable("store_unavailable", "Failed to load application")
	}
	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/model"
)

func testIdentity() *model.Identity {
	return &model.Identity{
		ApplicationID:   uuid.New(),
		ApplicationName: "Shop",
		OwnerID:         uuid.New(),
	}
}

func TestCollectValidation(t *testing.T) {
	svc := NewAnalyticsService(newMemEventStore(), newMemApplicationStore())
	identity := testIdentity()

	t.Run("rejects missing required fields", func(t *testing.T) {
		_, err := svc.Collect(context.Background(), identity, CollectInput{Event: "page_view"})
		assertRejection(t, err, "invalid_request")
	})

	t.Run("rejects malformed IP address", func(t *testing.T) {
		_, err := svc.Collect(context.Background(), identity, CollectInput{
			Event:     "page_view",
			URL:       "https://shop.example.com",
			IPAddress: "not-an-ip",
		})
		assertRejection(t, err, "invalid_request")
	})

	t.Run("rejects unknown device", func(t *testing.T) {
		_, err := svc.Collect(context.Background(), identity, CollectInput{
			Event:     "page_view",
			URL:       "https://shop.example.com",
			IPAddress: "192.0.2.1",
			Device:    "smartwatch",
		})
		assertRejection(t, err, "invalid_request")
	})
}

func TestCollectDefaults(t *testing.T) {
	events := newMemEventStore()
	svc := NewAnalyticsService(events, newMemApplicationStore())
	identity := testIdentity()

	event, err := svc.Collect(context.Background(), identity, CollectInput{
		Event:     "page_view",
		URL:       "https://shop.example.com",
		IPAddress: "192.0.2.1",
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if event.Device != model.DeviceDesktop {
		t.Fatalf("expected desktop default, got %s", event.Device)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp default")
	}
	if event.ApplicationID != identity.ApplicationID {
		t.Fatalf("expected event tied to authenticated application, got %s", event.ApplicationID)
	}
}

func TestSummaryAggregation(t *testing.T) {
	events := newMemEventStore()
	apps := newMemApplicationStore()
	svc := NewAnalyticsService(events, apps)

	ownerID := uuid.New()
	app := seedApplication(apps, "ak_shop", true, nil)
	app.OwnerID = ownerID
	apps.apps[app.ID] = app

	identity := &model.Identity{ApplicationID: app.ID, ApplicationName: app.Name, OwnerID: ownerID}
	now := time.Now().UTC()

	submissions := []CollectInput{
		{Event: "page_view", URL: "https://a", IPAddress: "192.0.2.1", UserID: "u1", Device: "mobile", Timestamp: now},
		{Event: "page_view", URL: "https://b", IPAddress: "192.0.2.2", UserID: "u1", Device: "desktop", Timestamp: now},
		{Event: "page_view", URL: "https://c", IPAddress: "192.0.2.3", UserID: "u2", Device: "mobile", Timestamp: now},
		{Event: "purchase", URL: "https://d", IPAddress: "192.0.2.4", UserID: "u2", Timestamp: now},
	}
	for _, input := range submissions {
		if _, err := svc.Collect(context.Background(), identity, input); err != nil {
			t.Fatalf("collect: %v", err)
		}
	}

	summary, err := svc.Summary(context.Background(), ownerID, app.ID, "page_view", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 3 {
		t.Fatalf("expected 3 page views, got %d", summary.Count)
	}
	if summary.UniqueUsers != 2 {
		t.Fatalf("expected 2 unique users, got %d", summary.UniqueUsers)
	}
	if summary.DeviceData["mobile"] != 2 || summary.DeviceData["desktop"] != 1 {
		t.Fatalf("unexpected device breakdown: %v", summary.DeviceData)
	}
}

func TestSummaryRejectsForeignApplication(t *testing.T) {
	apps := newMemApplicationStore()
	svc := NewAnalyticsService(newMemEventStore(), apps)

	app := seedApplication(apps, "ak_shop", true, nil)
	otherOwner := uuid.New()

	_, err := svc.Summary(context.Background(), otherOwner, app.ID, "page_view",
		time.Now().Add(-time.Hour), time.Now())
	assertRejection(t, err, "application_not_found")
}

func TestSummaryRejectsInvertedRange(t *testing.T) {
	svc := NewAnalyticsService(newMemEventStore(), newMemApplicationStore())

	now := time.Now()
	_, err := svc.Summary(context.Background(), uuid.New(), uuid.New(), "page_view", now, now.Add(-time.Hour))
	assertRejection(t, err, "invalid_request")
}

func TestUserStats(t *testing.T) {
	events := newMemEventStore()
	apps := newMemApplicationStore()
	svc := NewAnalyticsService(events, apps)

	ownerID := uuid.New()
	app := seedApplication(apps, "ak_shop", true, nil)
	app.OwnerID = ownerID
	apps.apps[app.ID] = app
	identity := &model.Identity{ApplicationID: app.ID, OwnerID: ownerID}

	for i := 0; i < 3; i++ {
		if _, err := svc.Collect(context.Background(), identity, CollectInput{
			Event:     "page_view",
			URL:       "https://shop.example.com",
			IPAddress: "192.0.2.1",
			UserID:    "u1",
			Device:    "mobile",
		}); err != nil {
			t.Fatalf("collect: %v", err)
		}
	}

	stats, err := svc.UserStats(context.Background(), ownerID, app.ID, "u1")
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.TotalEvents != 3 {
		t.Fatalf("expected 3 events, got %d", stats.TotalEvents)
	}
	if len(stats.RecentEvents) != 3 {
		t.Fatalf("expected 3 recent events, got %d", len(stats.RecentEvents))
	}

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UserStats(context.Background(), ownerID, app.ID, "nobody")
		assertRejection(t, err, "user_not_found")
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := svc.UserStats(context.Background(), ownerID, app.ID, "")
		assertRejection(t, err, "invalid_request")
	})
}

//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beacon-analytics-service/internal/model"
)

func setupIntegrationStore(t *testing.T) *Postgres {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	_, thisFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		t.Fatalf("create migrator: %v", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewPostgres(pool)
}

func TestPostgresKeyLifecycleIntegration(t *testing.T) {
	ctx := context.Background()
	pg := setupIntegrationStore(t)

	owner, err := pg.UpsertOwnerByEmail(ctx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()), "Integration Owner")
	if err != nil {
		t.Fatalf("upsert owner: %v", err)
	}

	app := &model.Application{
		Name:       fmt.Sprintf("shop-%s", uuid.NewString()),
		WebsiteURL: "https://shop.example.com",
		APIKey:     "ak_" + uuid.NewString(),
		IsActive:   true,
		OwnerID:    owner.ID,
	}
	if err := pg.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	if app.ID == uuid.Nil {
		t.Fatal("expected generated application ID")
	}

	identity, err := pg.GetActiveIdentityByKey(ctx, app.APIKey)
	if err != nil {
		t.Fatalf("identity by key: %v", err)
	}
	if identity.ApplicationID != app.ID || identity.OwnerID != owner.ID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.OwnerName != owner.Name {
		t.Fatalf("expected owner name %q, got %q", owner.Name, identity.OwnerName)
	}

	oldKey := app.APIKey
	newKey := "ak_" + uuid.NewString()
	if err := pg.RotateApplicationKey(ctx, app.ID, newKey, time.Now().UTC().Add(30*24*time.Hour)); err != nil {
		t.Fatalf("rotate key: %v", err)
	}

	if _, err := pg.GetActiveIdentityByKey(ctx, oldKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old key rejection, got %v", err)
	}
	if _, err := pg.GetActiveIdentityByKey(ctx, newKey); err != nil {
		t.Fatalf("expected new key to resolve, got %v", err)
	}

	if err := pg.DeactivateApplication(ctx, app.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := pg.GetActiveIdentityByKey(ctx, newKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected inactive application rejection, got %v", err)
	}
}

func TestPostgresExpiredKeyIntegration(t *testing.T) {
	ctx := context.Background()
	pg := setupIntegrationStore(t)

	owner, err := pg.UpsertOwnerByEmail(ctx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()), "Integration Owner")
	if err != nil {
		t.Fatalf("upsert owner: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	app := &model.Application{
		Name:            fmt.Sprintf("shop-%s", uuid.NewString()),
		WebsiteURL:      "https://shop.example.com",
		APIKey:          "ak_" + uuid.NewString(),
		APIKeyExpiresAt: &past,
		IsActive:        true,
		OwnerID:         owner.ID,
	}
	if err := pg.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	if _, err := pg.GetActiveIdentityByKey(ctx, app.APIKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key rejection, got %v", err)
	}
}

func TestPostgresEventAggregationIntegration(t *testing.T) {
	ctx := context.Background()
	pg := setupIntegrationStore(t)

	owner, err := pg.UpsertOwnerByEmail(ctx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()), "Integration Owner")
	if err != nil {
		t.Fatalf("upsert owner: %v", err)
	}
	app := &model.Application{
		Name:       fmt.Sprintf("shop-%s", uuid.NewString()),
		WebsiteURL: "https://shop.example.com",
		APIKey:     "ak_" + uuid.NewString(),
		IsActive:   true,
		OwnerID:    owner.ID,
	}
	if err := pg.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	now := time.Now().UTC()
	events := []*model.AnalyticsEvent{
		{ApplicationID: app.ID, Event: "page_view", URL: "https://a", Device: model.DeviceMobile, IPAddress: "192.0.2.1", UserID: "u1", Timestamp: now},
		{ApplicationID: app.ID, Event: "page_view", URL: "https://b", Device: model.DeviceDesktop, IPAddress: "192.0.2.2", UserID: "u1", Timestamp: now,
			Metadata: map[string]string{"browser": "Firefox", "os": "Linux"}},
		{ApplicationID: app.ID, Event: "purchase", URL: "https://c", Device: model.DeviceMobile, IPAddress: "192.0.2.3", UserID: "u2", Timestamp: now},
	}
	for _, ev := range events {
		if err := pg.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	summary, err := pg.EventSummary(ctx, app.ID, "page_view", now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("event summary: %v", err)
	}
	if summary.Count != 2 || summary.UniqueUsers != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.DeviceData["mobile"] != 1 || summary.DeviceData["desktop"] != 1 {
		t.Fatalf("unexpected device data: %v", summary.DeviceData)
	}

	stats, err := pg.UserStats(ctx, app.ID, "u1", 10)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.TotalEvents != 2 || len(stats.RecentEvents) != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := pg.UserStats(ctx, app.ID, "nobody", 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

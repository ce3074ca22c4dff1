package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/cache"
	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/store"
)

// memApplicationStore is an in-memory ApplicationStore for unit tests.
type memApplicationStore struct {
	mu        sync.Mutex
	apps      map[uuid.UUID]*model.Application
	owners    map[uuid.UUID]string
	failAll   error
	keyLookup int // number of GetActiveIdentityByKey calls
	ops       *[]string
}

func newMemApplicationStore() *memApplicationStore {
	return &memApplicationStore{
		apps:   make(map[uuid.UUID]*model.Application),
		owners: make(map[uuid.UUID]string),
	}
}

func (m *memApplicationStore) record(op string) {
	if m.ops != nil {
		*m.ops = append(*m.ops, op)
	}
}

func (m *memApplicationStore) CreateApplication(_ context.Context, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	app.ID = uuid.New()
	app.CreatedAt = time.Now().UTC()
	app.UpdatedAt = app.CreatedAt
	clone := *app
	m.apps[app.ID] = &clone
	m.record("create")
	return nil
}

func (m *memApplicationStore) GetActiveIdentityByKey(_ context.Context, apiKey string) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyLookup++
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, app := range m.apps {
		if app.APIKey != apiKey || !app.IsActive || app.KeyExpired(time.Now()) {
			continue
		}
		return &model.Identity{
			ApplicationID:   app.ID,
			ApplicationName: app.Name,
			OwnerID:         app.OwnerID,
			OwnerName:       m.owners[app.OwnerID],
		}, nil
	}
	return nil, store.ErrNotFound
}

func (m *memApplicationStore) GetApplicationByOwnerAndID(_ context.Context, ownerID, appID uuid.UUID) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	app, ok := m.apps[appID]
	if !ok || app.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (m *memApplicationStore) GetActiveApplicationByOwnerAndName(_ context.Context, ownerID uuid.UUID, name string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, app := range m.apps {
		if app.OwnerID == ownerID && app.Name == name && app.IsActive {
			clone := *app
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memApplicationStore) ListApplicationsByOwner(_ context.Context, ownerID uuid.UUID, page, perPage int) ([]*model.Application, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, 0, m.failAll
	}
	var apps []*model.Application
	for _, app := range m.apps {
		if app.OwnerID == ownerID {
			clone := *app
			apps = append(apps, &clone)
		}
	}
	return apps, len(apps), nil
}

func (m *memApplicationStore) RotateApplicationKey(_ context.Context, appID uuid.UUID, newKey string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	app, ok := m.apps[appID]
	if !ok {
		return store.ErrNotFound
	}
	app.APIKey = newKey
	app.APIKeyExpiresAt = &expiresAt
	app.UpdatedAt = time.Now().UTC()
	m.record("rotate")
	return nil
}

func (m *memApplicationStore) DeactivateApplication(_ context.Context, appID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[appID]
	if !ok {
		return store.ErrNotFound
	}
	app.IsActive = false
	return nil
}

func (m *memApplicationStore) CountApplications(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps), nil
}

// memKeyCache is an in-memory KeyCache with TTL-aware entries and failure
// injection.
type memKeyCache struct {
	mu       sync.Mutex
	entries  map[string]memEntry
	failGet  error
	failSet  error
	failDel  error
	ops      *[]string
	getCalls int
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func newMemKeyCache() *memKeyCache {
	return &memKeyCache{entries: make(map[string]memEntry)}
}

func (c *memKeyCache) record(op string) {
	if c.ops != nil {
		*c.ops = append(*c.ops, op)
	}
}

func (c *memKeyCache) Get(_ context.Context, apiKey string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.failGet != nil {
		return nil, c.failGet
	}
	entry, ok := c.entries[cache.CacheKey(apiKey)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, cache.ErrMiss
	}
	return entry.data, nil
}

func (c *memKeyCache) Set(_ context.Context, apiKey string, snapshot []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet != nil {
		return c.failSet
	}
	c.entries[cache.CacheKey(apiKey)] = memEntry{data: snapshot, expiresAt: time.Now().Add(ttl)}
	c.record("set")
	return nil
}

func (c *memKeyCache) Delete(_ context.Context, apiKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDel != nil {
		return c.failDel
	}
	delete(c.entries, cache.CacheKey(apiKey))
	c.record("delete")
	return nil
}

func (c *memKeyCache) has(apiKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cache.CacheKey(apiKey)]
	return ok && time.Now().Before(entry.expiresAt)
}

// memEventStore is an in-memory EventStore for unit tests.
type memEventStore struct {
	mu     sync.Mutex
	events []*model.AnalyticsEvent
	fail   error
}

func newMemEventStore() *memEventStore {
	return &memEventStore{}
}

func (m *memEventStore) InsertEvent(_ context.Context, event *model.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	clone := *event
	m.events = append(m.events, &clone)
	return nil
}

func (m *memEventStore) EventSummary(_ context.Context, appID uuid.UUID, event string, from, to time.Time) (*model.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	summary := &model.EventSummary{Event: event, DeviceData: map[string]int{}}
	users := make(map[string]struct{})
	for _, ev := range m.events {
		if ev.ApplicationID != appID || ev.Event != event || ev.Timestamp.Before(from) || !ev.Timestamp.Before(to) {
			continue
		}
		summary.Count++
		summary.DeviceData[string(ev.Device)]++
		if ev.UserID != "" {
			users[ev.UserID] = struct{}{}
		}
	}
	summary.UniqueUsers = int64(len(users))
	return summary, nil
}

func (m *memEventStore) UserStats(_ context.Context, appID uuid.UUID, userID string, recentLimit int) (*model.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	stats := &model.UserStats{UserID: userID, Device: model.DeviceDesktop, RecentEvents: []model.UserEvent{}}
	for _, ev := range m.events {
		if ev.ApplicationID != appID || ev.UserID != userID {
			continue
		}
		stats.TotalEvents++
		stats.Device = ev.Device
		stats.IPAddress = ev.IPAddress
		if len(stats.RecentEvents) < recentLimit {
			stats.RecentEvents = append(stats.RecentEvents, model.UserEvent{
				Event: ev.Event, URL: ev.URL, Timestamp: ev.Timestamp,
			})
		}
	}
	if stats.TotalEvents == 0 {
		return nil, store.ErrNotFound
	}
	return stats, nil
}

var errStoreDown = errors.New("store connection refused")

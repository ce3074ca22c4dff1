package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/model"
)

func (p *Postgres) InsertEvent(ctx context.Context, event *model.AnalyticsEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	// user_id / session_id / referrer are nullable
	err := p.pool.QueryRow(ctx, `
		INSERT INTO analytics_events (
			application_id, event, url, referrer, device, ip_address,
			user_id, session_id, metadata, timestamp
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
		RETURNING id, created_at
	`,
		event.ApplicationID, event.Event, event.URL, event.Referrer,
		event.Device, event.IPAddress, event.UserID, event.SessionID,
		metadata, event.Timestamp,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (p *Postgres) EventSummary(ctx context.Context, appID uuid.UUID, event string, from, to time.Time) (*model.EventSummary, error) {
	summary := &model.EventSummary{
		Event:      event,
		DeviceData: map[string]int{},
	}

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM analytics_events
		WHERE application_id = $1 AND event = $2 AND timestamp >= $3 AND timestamp < $4
	`, appID, event, from, to).Scan(&summary.Count, &summary.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("event summary counts: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT device, COUNT(*)
		FROM analytics_events
		WHERE application_id = $1 AND event = $2 AND timestamp >= $3 AND timestamp < $4
		GROUP BY device
	`, appID, event, from, to)
	if err != nil {
		return nil, fmt.Errorf("event summary devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var device string
		var count int
		if err := rows.Scan(&device, &count); err != nil {
			return nil, fmt.Errorf("scan device count: %w", err)
		}
		summary.DeviceData[device] = count
	}
	return summary, nil
}

func (p *Postgres) UserStats(ctx context.Context, appID uuid.UUID, userID string, recentLimit int) (*model.UserStats, error) {
	stats := &model.UserStats{
		UserID:       userID,
		Device:       model.DeviceDesktop,
		RecentEvents: []model.UserEvent{},
	}

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM analytics_events
		WHERE application_id = $1 AND user_id = $2
	`, appID, userID).Scan(&stats.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("count user events: %w", err)
	}
	if stats.TotalEvents == 0 {
		return nil, ErrNotFound
	}

	// Device details come from the most recent event.
	var metadata []byte
	err = p.pool.QueryRow(ctx, `
		SELECT device, ip_address, COALESCE(metadata, 'null'::jsonb)
		FROM analytics_events
		WHERE application_id = $1 AND user_id = $2
		ORDER BY timestamp DESC LIMIT 1
	`, appID, userID).Scan(&stats.Device, &stats.IPAddress, &metadata)
	if err != nil {
		return nil, fmt.Errorf("query latest user event: %w", err)
	}
	var md map[string]string
	if err := json.Unmarshal(metadata, &md); err == nil && md != nil {
		stats.Browser = md["browser"]
		stats.OS = md["os"]
	}

	rows, err := p.pool.Query(ctx, `
		SELECT event, url, timestamp
		FROM analytics_events
		WHERE application_id = $1 AND user_id = $2
		ORDER BY timestamp DESC LIMIT $3
	`, appID, userID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("query recent user events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev model.UserEvent
		if err := rows.Scan(&ev.Event, &ev.URL, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan user event: %w", err)
		}
		stats.RecentEvents = append(stats.RecentEvents, ev)
	}
	return stats, nil
}

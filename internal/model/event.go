package model

import (
	"time"

	"github.com/google/uuid"
)

// Device classifies the client device an event originated from.
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceOther   Device = "other"
)

// ValidDevice reports whether d is one of the supported device classes.
func ValidDevice(d Device) bool {
	switch d {
	case DeviceMobile, DeviceDesktop, DeviceTablet, DeviceOther:
		return true
	}
	return false
}

// AnalyticsEvent is a single collected event, tied to the application whose
// API key authenticated the submission.
type AnalyticsEvent struct {
	ID            uuid.UUID         `json:"id"`
	ApplicationID uuid.UUID         `json:"application_id"`
	Event         string            `json:"event"`
	URL           string            `json:"url"`
	Referrer      string            `json:"referrer,omitempty"`
	Device        Device            `json:"device"`
	IPAddress     string            `json:"ip_address"`
	UserID        string            `json:"user_id,omitempty"`
	SessionID     string            `json:"session_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	CreatedAt     time.Time         `json:"created_at"`
}

// EventSummary aggregates one event type over a time window for a single
// application.
type EventSummary struct {
	Event       string         `json:"event"`
	Count       int64          `json:"count"`
	UniqueUsers int64          `json:"unique_users"`
	DeviceData  map[string]int `json:"device_data"`
}

// UserEvent is one entry in a user's recent activity.
type UserEvent struct {
	Event     string    `json:"event"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStats summarizes a single end user's activity within one application.
type UserStats struct {
	UserID       string      `json:"user_id"`
	TotalEvents  int64       `json:"total_events"`
	Device       Device      `json:"device"`
	Browser      string      `json:"browser,omitempty"`
	OS           string      `json:"os,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	RecentEvents []UserEvent `json:"recent_events"`
}

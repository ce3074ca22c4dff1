package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beacon-analytics-service/internal/store"
)

// Pinger reports connectivity of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     store.ApplicationStore
	storePing Pinger
	cachePing Pinger
	startTime time.Time
}

func NewHealthHandler(s store.ApplicationStore, storePing, cachePing Pinger) *HealthHandler {
	return &HealthHandler{
		store:     s,
		storePing: storePing,
		cachePing: cachePing,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	Store             string `json:"store"`
	Cache             string `json:"cache"`
	TotalApplications int    `json:"total_applications"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Version:       "1.0.0",
		Store:         "ok",
		Cache:         "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	status := http.StatusOK

	if err := h.storePing.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("store health check failed")
		resp.Status = "unhealthy"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}

	// The cache is an optimization: its loss degrades, it does not take the
	// service down.
	if err := h.cachePing.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("cache health check failed")
		resp.Cache = "unreachable"
		if resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}

	if resp.Store == "ok" {
		total, err := h.store.CountApplications(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to count applications")
		} else {
			resp.TotalApplications = total
		}
	}

	RespondJSON(w, status, resp)
}

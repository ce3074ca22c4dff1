package analytics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/handler"
	"github.com/beacon-analytics-service/internal/httputil"
	"github.com/beacon-analytics-service/internal/middleware"
	"github.com/beacon-analytics-service/internal/service"
)

// --- Collect Event ---

type CollectHandler struct {
	svc *service.AnalyticsService
}

func NewCollectHandler(svc *service.AnalyticsService) *CollectHandler {
	return &CollectHandler{svc: svc}
}

type collectRequest struct {
	Event     string            `json:"event"`
	URL       string            `json:"url"`
	Referrer  string            `json:"referrer,omitempty"`
	Device    string            `json:"device,omitempty"`
	IPAddress string            `json:"ipAddress"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

type collectResponse struct {
	Message string    `json:"message"`
	EventID uuid.UUID `json:"eventId"`
}

func (h *CollectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req collectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	event, err := h.svc.Collect(r.Context(), identity, service.CollectInput{
		Event:     req.Event,
		URL:       req.URL,
		Referrer:  req.Referrer,
		Device:    req.Device,
		IPAddress: req.IPAddress,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		service.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusAccepted, collectResponse{
		Message: "Event collected successfully",
		EventID: event.ID,
	})
}

// --- Event Summary ---

type SummaryHandler struct {
	svc *service.AnalyticsService
}

func NewSummaryHandler(svc *service.AnalyticsService) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	appID, err := uuid.Parse(r.URL.Query().Get("app_id"))
	if err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid application ID")
		return
	}

	from, to, err := httputil.ParseTimeRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	summary, err := h.svc.Summary(r.Context(), owner.ID, appID, r.URL.Query().Get("event"), from, to)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, summary)
}

// --- User Stats ---

type UserStatsHandler struct {
	svc *service.AnalyticsService
}

func NewUserStatsHandler(svc *service.AnalyticsService) *UserStatsHandler {
	return &UserStatsHandler{svc: svc}
}

func (h *UserStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	appID, err := uuid.Parse(r.URL.Query().Get("app_id"))
	if err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid application ID")
		return
	}

	stats, err := h.svc.UserStats(r.Context(), owner.ID, appID, r.URL.Query().Get("user_id"))
	if err != nil {
		service.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, stats)
}

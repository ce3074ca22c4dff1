package apps

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-analytics-service/internal/handler"
	"github.com/beacon-analytics-service/internal/httputil"
	"github.com/beacon-analytics-service/internal/middleware"
	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/service"
)

// --- Register Application ---

type RegisterHandler struct {
	svc *service.ApplicationService
}

func NewRegisterHandler(svc *service.ApplicationService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

type registerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	WebsiteURL  string `json:"websiteUrl"`
}

type registerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKey     string    `json:"apiKey"`
	WebsiteURL string    `json:"websiteUrl"`
	CreatedAt  string    `json:"createdAt"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	app, err := h.svc.Register(r.Context(), owner.ID, service.RegisterInput{
		Name:        req.Name,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
	})
	if err != nil {
		service.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, registerResponse{
		ID:         app.ID,
		Name:       app.Name,
		APIKey:     app.APIKey,
		WebsiteURL: app.WebsiteURL,
		CreatedAt:  app.CreatedAt.Format(time.RFC3339),
	})
}

// --- Get API Key ---

type GetKeyHandler struct {
	svc *service.ApplicationService
}

func NewGetKeyHandler(svc *service.ApplicationService) *GetKeyHandler {
	return &GetKeyHandler{svc: svc}
}

type getKeyResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	APIKey          string    `json:"apiKey"`
	APIKeyExpiresAt *string   `json:"apiKeyExpiresAt,omitempty"`
}

func (h *GetKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	appID, err := uuid.Parse(r.URL.Query().Get("app_id"))
	if err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid application ID")
		return
	}

	app, err := h.svc.GetApplication(r.Context(), owner.ID, appID)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	resp := getKeyResponse{
		ID:     app.ID,
		Name:   app.Name,
		APIKey: app.APIKey,
	}
	if app.APIKeyExpiresAt != nil {
		expires := app.APIKeyExpiresAt.Format(time.RFC3339)
		resp.APIKeyExpiresAt = &expires
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// --- Revoke API Key ---

type RevokeHandler struct {
	svc *service.ApplicationService
}

func NewRevokeHandler(svc *service.ApplicationService) *RevokeHandler {
	return &RevokeHandler{svc: svc}
}

type revokeRequest struct {
	AppID uuid.UUID `json:"app_id"`
}

type revokeResponse struct {
	Message   string `json:"message"`
	NewAPIKey string `json:"newApiKey"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	var req revokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil || req.AppID == uuid.Nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", "app_id is required")
		return
	}

	result, err := h.svc.RevokeKey(r.Context(), owner.ID, req.AppID)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, revokeResponse{
		Message:   "API key revoked and new one generated",
		NewAPIKey: result.NewKey,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	})
}

// --- List Applications ---

type ListHandler struct {
	svc *service.ApplicationService
}

func NewListHandler(svc *service.ApplicationService) *ListHandler {
	return &ListHandler{svc: svc}
}

type listResponse struct {
	Applications []applicationListItem `json:"applications"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PerPage      int                   `json:"per_page"`
}

type applicationListItem struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	WebsiteURL      string    `json:"websiteUrl"`
	IsActive        bool      `json:"isActive"`
	APIKeyExpiresAt *string   `json:"apiKeyExpiresAt,omitempty"`
	CreatedAt       string    `json:"createdAt"`
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwner(r.Context())

	page, perPage, err := httputil.ParsePagination(r.URL.Query().Get("page"), r.URL.Query().Get("per_page"))
	if err != nil {
		handler.RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	appsList, total, err := h.svc.List(r.Context(), owner.ID, page, perPage)
	if err != nil {
		service.RespondError(w, err)
		return
	}

	items := make([]applicationListItem, 0, len(appsList))
	for _, app := range appsList {
		items = append(items, toListItem(app))
	}

	handler.RespondJSON(w, http.StatusOK, listResponse{
		Applications: items,
		Total:        total,
		Page:         page,
		PerPage:      perPage,
	})
}

func toListItem(app *model.Application) applicationListItem {
	item := applicationListItem{
		ID:          app.ID,
		Name:        app.Name,
		Description: app.Description,
		WebsiteURL:  app.WebsiteURL,
		IsActive:    app.IsActive,
		CreatedAt:   app.CreatedAt.Format(time.RFC3339),
	}
	if app.APIKeyExpiresAt != nil {
		expires := app.APIKeyExpiresAt.Format(time.RFC3339)
		item.APIKeyExpiresAt = &expires
	}
	return item
}

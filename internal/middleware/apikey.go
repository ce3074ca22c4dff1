package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/service"
)

type contextKey string

const identityContextKey contextKey = "identity"

// GetIdentity extracts the authenticated tenant identity from the request
// context.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// Authenticator resolves a presented API key to a tenant identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// APIKeyAuth returns middleware that authenticates requests via the X-API-Key
// header or a Bearer token, injecting the resolved identity into the request
// context.
func APIKeyAuth(auth Authenticator, limiter *AuthAttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attemptKey := clientIPKey(r, "api_key")
			if limiter != nil && !limiter.allow(attemptKey) {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication failures")
				return
			}

			identity, err := auth.Authenticate(r.Context(), extractAPIKey(r))
			if err != nil {
				var svcErr *service.Error
				if limiter != nil && errors.As(err, &svcErr) && svcErr.Kind == service.ErrUnauthorized {
					limiter.registerFailure(attemptKey)
				}
				service.RespondError(w, err)
				return
			}

			if limiter != nil {
				limiter.registerSuccess(attemptKey)
			}
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey returns the credential from the request. The dedicated
// X-API-Key header takes precedence over a bearer-style Authorization header.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return extractBearerToken(r)
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

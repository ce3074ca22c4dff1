package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"

	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/store"
)

type ownerKey struct{}

// GetOwner extracts the authenticated owner from the request context.
func GetOwner(ctx context.Context) *model.Owner {
	owner, _ := ctx.Value(ownerKey{}).(*model.Owner)
	return owner
}

// IDClaims holds the verified claims from a Google ID token.
type IDClaims struct {
	Email         string
	EmailVerified bool
	Name          string
}

// TokenVerifier verifies an ID token and returns its claims.
type TokenVerifier interface {
	VerifyClaims(ctx context.Context, rawToken string) (*IDClaims, error)
}

// googleTokenVerifier implements TokenVerifier using go-oidc.
type googleTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *googleTokenVerifier) VerifyClaims(ctx context.Context, rawToken string) (*IDClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &IDClaims{
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// GoogleAuth resolves owner identities from Google ID tokens, creating the
// owner account on first sight.
type GoogleAuth struct {
	verifier TokenVerifier
	owners   store.OwnerStore
}

// NewGoogleAuth creates a GoogleAuth middleware that verifies tokens against
// Google's JWKS. It must be called at server startup (it fetches Google's
// OIDC discovery document).
func NewGoogleAuth(clientID string, owners store.OwnerStore) (*GoogleAuth, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("create Google OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	return NewGoogleAuthWithVerifier(&googleTokenVerifier{verifier: verifier}, owners), nil
}

// NewGoogleAuthWithVerifier creates a GoogleAuth with a custom TokenVerifier.
func NewGoogleAuthWithVerifier(verifier TokenVerifier, owners store.OwnerStore) *GoogleAuth {
	return &GoogleAuth{verifier: verifier, owners: owners}
}

// Middleware returns an http middleware that authenticates owner requests via
// Google ID tokens.
func (g *GoogleAuth) Middleware(limiter *AuthAttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attemptKey := clientIPKey(r, "owner")
			if limiter != nil && !limiter.allow(attemptKey) {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication failures")
				return
			}

			token := extractBearerToken(r)
			if token == "" {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "Missing authorization token")
				return
			}

			claims, err := g.verifier.VerifyClaims(r.Context(), token)
			if err != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "Invalid ID token")
				return
			}

			if !claims.EmailVerified {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusForbidden, "forbidden", "Email not verified")
				return
			}

			owner, err := g.owners.UpsertOwnerByEmail(r.Context(), claims.Email, claims.Name)
			if err != nil {
				log.Error().Err(err).Msg("failed to resolve owner account")
				respondError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to resolve owner account")
				return
			}

			if limiter != nil {
				limiter.registerSuccess(attemptKey)
			}
			ctx := context.WithValue(r.Context(), ownerKey{}, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

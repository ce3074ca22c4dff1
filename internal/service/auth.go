package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/beacon-analytics-service/internal/cache"
	"github.com/beacon-analytics-service/internal/model"
	"github.com/beacon-analytics-service/internal/store"
)

var authResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_key_auth_results_total",
		Help: "Total number of API key authentication attempts by result",
	},
	[]string{"result"},
)

// AuthService resolves presented API keys to tenant identities. It consults
// the key cache first and falls back to the store on a miss, repopulating
// the cache with a TTL-bound snapshot.
//
// The cache is never required for correctness: any cache failure degrades to
// a store-only lookup. A store failure, by contrast, fails the request —
// an authentication gate must never fabricate an identity.
type AuthService struct {
	store        store.ApplicationStore
	cache        cache.KeyCache
	cacheTTL     time.Duration
	cacheTimeout time.Duration
	storeTimeout time.Duration
}

// NewAuthService creates an authentication service. cacheTTL bounds snapshot
// freshness; cacheTimeout and storeTimeout bound the individual I/O calls.
func NewAuthService(s store.ApplicationStore, c cache.KeyCache, cacheTTL, cacheTimeout, storeTimeout time.Duration) *AuthService {
	return &AuthService{
		store:        s,
		cache:        c,
		cacheTTL:     cacheTTL,
		cacheTimeout: cacheTimeout,
		storeTimeout: storeTimeout,
	}
}

// Authenticate maps a presented credential to a resolved identity or a typed
// rejection: credential_missing, credential_invalid_or_expired, or
// store_unavailable.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		authResultsTotal.WithLabelValues("missing").Inc()
		return nil, NewUnauthorized("credential_missing", "API key is required")
	}

	if identity := s.cachedIdentity(ctx, token); identity != nil {
		authResultsTotal.WithLabelValues("cache_hit").Inc()
		return identity, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	identity, err := s.store.GetActiveIdentityByKey(storeCtx, token)
	if errors.Is(err, store.ErrNotFound) {
		authResultsTotal.WithLabelValues("rejected").Inc()
		return nil, NewUnauthorized("credential_invalid_or_expired", "Invalid or expired API key")
	}
	if err != nil {
		authResultsTotal.WithLabelValues("store_error").Inc()
		log.Error().Err(err).Msg("key store lookup failed during authentication")
		return nil, NewUnavailable("store_unavailable", "Authentication backend is unavailable")
	}

	s.cacheIdentity(ctx, token, identity)
	authResultsTotal.WithLabelValues("store_hit").Inc()
	return identity, nil
}

// cachedIdentity returns the snapshot for token, or nil on miss or any cache
// failure.
func (s *AuthService) cachedIdentity(ctx context.Context, token string) *model.Identity {
	cacheCtx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	data, err := s.cache.Get(cacheCtx, token)
	if errors.Is(err, cache.ErrMiss) {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("key cache lookup failed, falling back to store")
		return nil
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		log.Warn().Err(err).Msg("discarding undecodable key cache entry")
		return nil
	}
	return &identity
}

// cacheIdentity writes the snapshot best-effort; a failed write only costs
// the next request a store lookup.
func (s *AuthService) cacheIdentity(ctx context.Context, token string, identity *model.Identity) {
	snapshot, err := json.Marshal(identity)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode identity snapshot")
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.cache.Set(cacheCtx, token, snapshot, s.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to populate key cache")
	}
}

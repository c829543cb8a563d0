package geocoding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geo"
)

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the upstream geocoder.
	Provider Provider

	// Region filters matches. Defaults to Greater London.
	Region *geo.Region

	// CacheTTL is how long a filtered result is reused for the same query (default: 10 minutes).
	// A negative value disables caching.
	CacheTTL time.Duration

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service resolves queries through a Provider and keeps only matches inside the coverage region.
type Service struct {
	provider Provider
	region   geo.Region
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// maxCacheEntries bounds the cache; expired entries are swept when it fills.
const maxCacheEntries = 1024

type cacheKey struct {
	query string
	limit int
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	region := geo.GreaterLondon()
	if cfg.Region != nil {
		region = *cfg.Region
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &Service{
		provider: cfg.Provider,
		region:   region,
		cacheTTL: cacheTTL,
		logger:   cfg.Logger,
		now:      time.Now,
		cache:    make(map[cacheKey]cacheEntry),
	}
}

// Search trims query, asks the provider for up to limit matches and drops those outside coverage.
// A limit outside 1..MaxLimit is replaced by DefaultLimit.
// When nothing survives the filter the result carries NotAvailableMessage.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrInvalidQuery
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	key := cacheKey{query: strings.ToLower(q), limit: limit}
	if cached, ok := s.cached(key); ok {
		return cached, nil
	}

	places, err := s.provider.Search(ctx, q, limit)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("geocoding failed")
		return nil, fmt.Errorf("geocode %q: %w", q, err)
	}

	result := &Result{Places: make([]Place, 0, len(places))}
	for _, p := range places {
		if !s.region.Contains(p.Lat, p.Lon) {
			continue
		}
		if p.DisplayName == "" {
			p.DisplayName = q
		}
		result.Places = append(result.Places, p)
	}
	if len(result.Places) == 0 {
		result.Message = NotAvailableMessage
	}

	s.logger.Debug().
		Str("query", q).
		Int("matches", len(places)).
		Int("in_coverage", len(result.Places)).
		Msg("geocoded query")

	s.store(key, result)
	return result, nil
}

func (s *Service) cached(key cacheKey) (*Result, bool) {
	if s.cacheTTL < 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.result, true
}

func (s *Service) store(key cacheKey, result *Result) {
	if s.cacheTTL < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= maxCacheEntries {
		now := s.now()
		for k, e := range s.cache {
			if !now.Before(e.expiresAt) {
				delete(s.cache, k)
			}
		}
		if len(s.cache) >= maxCacheEntries {
			clear(s.cache)
		}
	}
	s.cache[key] = cacheEntry{result: result, expiresAt: s.now().Add(s.cacheTTL)}
}

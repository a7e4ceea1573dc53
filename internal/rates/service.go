package rates

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"keepsake/internal/domain"
	applog "keepsake/internal/log"
)

const DefaultTTL = 30 * time.Minute

// fetchTimeout bounds a shared fetch, which outlives the request that started it.
const fetchTimeout = 15 * time.Second

const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Quote is what callers get back; Rates is never empty.
type Quote struct {
	Rates     domain.Rates `json:"rates"`
	Source    string       `json:"source"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

// Service serves rates from the cache while the window is open, refreshes
// from the source on a miss and degrades to the fallback table on failure.
type Service struct {
	src   Source
	cache Cache
	sfg   singleflight.Group
	cb    *gobreaker.CircuitBreaker[domain.Rates]
	now   func() time.Time
}

func NewService(src Source, cache Cache) *Service {
	return &Service{
		src:   src,
		cache: cache,
		now:   time.Now,
		cb: gobreaker.NewCircuitBreaker[domain.Rates](gobreaker.Settings{
			Name:    "rates-source",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				applog.Warn(nil, "rates.breaker", nil, map[string]any{"from": from.String(), "to": to.String()})
			},
		}),
	}
}

func (s *Service) Latest(ctx context.Context) Quote {
	snap, err := s.cache.Get(ctx)
	if err == nil {
		return Quote{Rates: snap.Rates, Source: SourceCache, FetchedAt: snap.FetchedAt}
	}
	if !errors.Is(err, ErrCacheMiss) {
		applog.Warn(nil, "rates.cache.get", err, nil)
	}

	v, _, _ := s.sfg.Do(cacheKey, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		rates, err := s.cb.Execute(func() (domain.Rates, error) {
			return s.src.Fetch(fctx)
		})
		if err != nil {
			applog.Warn(nil, "rates.fetch.fallback", err, nil)
			return Quote{Rates: domain.FallbackRates(), Source: SourceFallback, FetchedAt: s.now()}, nil
		}

		snap := &Snapshot{Rates: rates, FetchedAt: s.now()}
		if err := s.cache.Set(fctx, snap); err != nil {
			applog.Warn(nil, "rates.cache.set", err, nil)
		}
		return Quote{Rates: rates, Source: SourceLive, FetchedAt: snap.FetchedAt}, nil
	})
	return v.(Quote)
}

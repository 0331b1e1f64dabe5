package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"nps_survey/internal/adapters/observability"
	"nps_survey/internal/domain"
)

// Analytics endpoints, used for cache keys and metric labels.
const (
	EndpointNPS          = "nps"
	EndpointAverage      = "average"
	EndpointDistribution = "distribution"
)

// generationKey is bumped on every write. Aggregates are cached under the
// generation they were computed for, so a write makes every older entry unreachable.
const generationKey = "analytics:gen"

type AnalyticsService struct {
	repo     domain.SurveyRepository
	cache    domain.Cache // optional
	cacheTTL time.Duration
}

func NewAnalyticsService(r domain.SurveyRepository, c domain.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *AnalyticsService) GetNPS(ctx context.Context) (float64, error) {
	return cachedRead(ctx, s, EndpointNPS, func(ctx context.Context) (float64, error) {
		ratings, err := s.repo.AllRatings(ctx)
		if err != nil {
			return 0, err
		}
		return domain.CalculateNPS(ratings), nil
	})
}

func (s *AnalyticsService) GetAverage(ctx context.Context) (float64, error) {
	return cachedRead(ctx, s, EndpointAverage, func(ctx context.Context) (float64, error) {
		avg, err := s.repo.AverageRating(ctx)
		if err != nil {
			return 0, err
		}
		return domain.Round2(avg), nil
	})
}

func (s *AnalyticsService) GetDistribution(ctx context.Context) (domain.Distribution, error) {
	return cachedRead(ctx, s, EndpointDistribution, func(ctx context.Context) (domain.Distribution, error) {
		return s.repo.RatingDistribution(ctx)
	})
}

// Summary reads all three aggregates in parallel.
func (s *AnalyticsService) Summary(ctx context.Context) (domain.AggregateView, error) {
	var out domain.AggregateView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.NPS, err = s.GetNPS(gctx); return })
	g.Go(func() (err error) { out.Average, err = s.GetAverage(gctx); return })
	g.Go(func() (err error) { out.Distribution, err = s.GetDistribution(gctx); return })
	if err := g.Wait(); err != nil {
		return domain.AggregateView{}, err
	}
	return out, nil
}

// Invalidate moves the cache to a new generation. No-op without a cache.
func (s *AnalyticsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.cache.Incr(ctx, generationKey)
	return err
}

// Refresh recomputes every aggregate, warming the cache for the current generation.
func (s *AnalyticsService) Refresh(ctx context.Context) error {
	_, err := s.Summary(ctx)
	return err
}

// cacheKey returns the generation-scoped key, or ok=false when the cache is
// absent or the generation can't be read; callers then go straight to the store.
func (s *AnalyticsService) cacheKey(ctx context.Context, endpoint string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	var gen int64
	if _, err := s.cache.Get(ctx, generationKey, &gen); err != nil {
		log.Debug().Err(err).Msg("analytics cache generation unavailable")
		return "", false
	}
	return fmt.Sprintf("analytics:%s:g%d", endpoint, gen), true
}

func cachedRead[T any](ctx context.Context, s *AnalyticsService, endpoint string, compute func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	key, useCache := s.cacheKey(ctx, endpoint)
	if useCache {
		var v T
		if ok, _ := s.cache.Get(ctx, key, &v); ok {
			observability.ObserveAnalytics(endpoint, observability.OutcomeSuccess, time.Since(start))
			return v, nil
		}
	}

	v, err := compute(ctx)
	if err != nil {
		observability.ObserveAnalytics(endpoint, observability.OutcomeFailure, time.Since(start))
		var zero T
		return zero, domain.Persist(endpoint, err)
	}
	if useCache {
		if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("analytics cache set failed")
		}
	}
	observability.ObserveAnalytics(endpoint, observability.OutcomeSuccess, time.Since(start))
	return v, nil
}

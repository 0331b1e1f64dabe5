// Command seeder submits synthetic surveys to a running API through the
// client data layer, exercising validation, retries and analytics refresh.
package main

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"nps_survey/internal/adapters/observability"
	"nps_survey/internal/client"
	"nps_survey/internal/domain"
	"nps_survey/internal/shared"
)

var comments = []string{
	"Great service, will come back",
	"Checkout took too long",
	"Friendly staff",
	"Okay overall",
	"",
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.APIBaseURL).
		Int("workers", cfg.SeedWorkers).
		Int("count", cfg.SeedCount).
		Msg("seeder starting")

	c, err := client.New(cfg.APIBaseURL,
		client.WithRateLimit(cfg.SeedRPS),
		client.WithOperatorKey(cfg.TestingHeader, cfg.TestingSecret),
		client.WithValidator(domain.Validator{AllowPunctuation: cfg.AllowCommentPunctuation}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize survey client")
	}
	defer c.Close()

	if cfg.SeedReset {
		if err := c.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("reset failed; is the API running with TESTING_ENABLED and the same TESTING_SECRET?")
		}
		log.Info().Msg("existing surveys cleared")
	}

	sem := semaphore.NewWeighted(int64(max(cfg.SeedWorkers, 1)))
	var wg sync.WaitGroup
	var ok, failed atomic.Int64

	for i := 0; i < cfg.SeedCount; i++ {
		sub := domain.Submission{
			LikelihoodToRecommend: rand.Intn(11),
			Comments:              comments[rand.Intn(len(comments))],
		}
		if i%3 == 0 {
			sub.Email = "seed" + string(rune('a'+i%26)) + "@example.com"
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int, sub domain.Submission) {
			defer wg.Done()
			defer sem.Release(1)

			id, err := c.Submit(ctx, sub)
			if err != nil {
				failed.Add(1)
				log.Warn().Int("n", n).Err(err).Msg("submit failed")
				return
			}
			ok.Add(1)
			log.Debug().Int("n", n).Str("id", id).Msg("submit ok")
		}(i, sub)
	}

	wg.Wait()
	c.RefreshAnalytics(ctx)
	snap := c.Snapshot()
	log.Info().
		Int64("ok", ok.Load()).
		Int64("failed", failed.Load()).
		Float64("nps", snap.NPS).
		Float64("average", snap.Average).
		Interface("distribution", snap.Distribution).
		Msg("seeding completed")
}

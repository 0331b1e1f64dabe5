package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nps_survey/internal/app"
	"nps_survey/internal/domain"
)

func submitAll(t *testing.T, svc *app.SubmissionService, ratings ...int) {
	t.Helper()
	for _, r := range ratings {
		_, err := svc.Submit(context.Background(), domain.Submission{LikelihoodToRecommend: r})
		require.NoError(t, err)
	}
	svc.Wait()
}

func TestAnalytics_EndToEnd(t *testing.T) {
	for name, cache := range map[string]domain.Cache{"no cache": nil, "cache": &fakeCache{}} {
		t.Run(name, func(t *testing.T) {
			repo := newFlakyRepo()
			q := app.NewAnalyticsService(repo, cache, time.Minute)
			svc := app.NewSubmissionService(repo, domain.DefaultValidator, q)
			ctx := context.Background()

			submitAll(t, svc, 10, 9, 8, 7, 6, 5)

			nps, err := q.GetNPS(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0.0, nps)

			avg, err := q.GetAverage(ctx)
			require.NoError(t, err)
			assert.Equal(t, 7.5, avg)

			dist, err := q.GetDistribution(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Distribution{10: 1, 9: 1, 8: 1, 7: 1, 6: 1, 5: 1}, dist)

			again, err := q.GetDistribution(ctx)
			require.NoError(t, err)
			assert.Equal(t, dist, again)
		})
	}
}

func TestAnalytics_EmptyStore(t *testing.T) {
	q := app.NewAnalyticsService(newFlakyRepo(), nil, time.Minute)
	ctx := context.Background()

	view, err := q.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, view.NPS)
	assert.Zero(t, view.Average)
	assert.Empty(t, view.Distribution)
}

func TestAnalytics_AverageRoundedTo2dp(t *testing.T) {
	repo := newFlakyRepo()
	q := app.NewAnalyticsService(repo, nil, time.Minute)
	svc := app.NewSubmissionService(repo, domain.DefaultValidator, q)
	submitAll(t, svc, 10, 10, 9) // 29/3 = 9.666...

	avg, err := q.GetAverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9.67, avg)
}

func TestAnalytics_CachedValuesNeverOutliveWrites(t *testing.T) {
	repo := newFlakyRepo()
	cache := &fakeCache{}
	q := app.NewAnalyticsService(repo, cache, time.Hour)
	svc := app.NewSubmissionService(repo, domain.DefaultValidator, q)
	ctx := context.Background()

	submitAll(t, svc, 10)
	nps, err := q.GetNPS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, nps)

	submitAll(t, svc, 0)
	nps, err = q.GetNPS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, nps)

	require.NoError(t, svc.Reset(ctx))
	dist, err := q.GetDistribution(ctx)
	require.NoError(t, err)
	assert.Empty(t, dist)
}

func TestAnalytics_ServesFromCacheWithinGeneration(t *testing.T) {
	repo := newFlakyRepo()
	cache := &fakeCache{}
	q := app.NewAnalyticsService(repo, cache, time.Hour)
	ctx := context.Background()

	_, err := repo.Append(ctx, domain.SurveyRecord{Rating: 8})
	require.NoError(t, err)
	avg, err := q.GetAverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8.0, avg)

	// write behind the service's back: no invalidation, so the cached value stands
	_, err = repo.Append(ctx, domain.SurveyRecord{Rating: 2})
	require.NoError(t, err)
	avg, err = q.GetAverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8.0, avg)

	require.NoError(t, q.Invalidate(ctx))
	avg, err = q.GetAverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestAnalytics_FailuresAreIndependent(t *testing.T) {
	repo := newFlakyRepo()
	repo.failAverage = true
	q := app.NewAnalyticsService(repo, nil, time.Minute)
	ctx := context.Background()
	_, err := repo.Append(ctx, domain.SurveyRecord{Rating: 9})
	require.NoError(t, err)

	_, err = q.GetAverage(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	nps, err := q.GetNPS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, nps)

	dist, err := q.GetDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Distribution{9: 1}, dist)

	_, err = q.Summary(ctx)
	assert.Error(t, err)
}

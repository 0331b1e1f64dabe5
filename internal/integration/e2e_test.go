package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nps_survey/internal/client"
	"nps_survey/internal/domain"
	"nps_survey/internal/storage/memory"
)

// runScenario is shared by the memory and MySQL backed suites.
func runScenario(t *testing.T, c *client.Client) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	for _, r := range []int{10, 9, 8, 7, 6} {
		_, err := c.Submit(ctx, domain.Submission{LikelihoodToRecommend: r})
		require.NoError(t, err)
	}
	id, err := c.Submit(ctx, domain.Submission{
		LikelihoodToRecommend: 5,
		Comments:              "Checkout was slow",
		Email:                 "Someone@Example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// Submit refreshed the snapshot from the server
	snap := c.Snapshot()
	assert.Equal(t, 0.0, snap.NPS)
	assert.Equal(t, 7.5, snap.Average)
	assert.Equal(t, domain.Distribution{10: 1, 9: 1, 8: 1, 7: 1, 6: 1, 5: 1}, snap.Distribution)

	nps, err := c.GetNPS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, nps)

	avg, err := c.GetAverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.5, avg)

	d1, err := c.GetDistribution(ctx)
	require.NoError(t, err)
	d2, err := c.GetDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	// a new write is visible immediately despite the cache
	_, err = c.Submit(ctx, domain.Submission{LikelihoodToRecommend: 10})
	require.NoError(t, err)
	nps, err = c.GetNPS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14.29, nps) // 3 promoters, 2 detractors, 7 total

	// markup is rejected before any request is sent
	_, err = c.Submit(ctx, domain.Submission{LikelihoodToRecommend: 4, Comments: "<img onerror=x>"})
	var ce *client.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, client.CategoryBadRequest, ce.Category)

	n, err := c.Seed(ctx, []domain.Submission{{LikelihoodToRecommend: 0}, {LikelihoodToRecommend: 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	dist, err := c.GetDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dist[0])

	require.NoError(t, c.Reset(ctx))
	nps, err = c.GetNPS(ctx)
	require.NoError(t, err)
	assert.Zero(t, nps)
}

func TestHTTP_EndToEnd_MemoryStore(t *testing.T) {
	ts := startAPI(t, memory.New())
	runScenario(t, newClient(t, ts.URL))
}

func TestHTTP_WrongOperatorKey(t *testing.T) {
	ts := startAPI(t, memory.New())
	c, err := client.New(ts.URL, client.WithOperatorKey(operatorHeader, "guess"))
	require.NoError(t, err)
	defer c.Close()

	err = c.Reset(context.Background())
	var ce *client.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, client.CategoryForbidden, ce.Category)
	assert.Equal(t, 401, ce.Status)
}

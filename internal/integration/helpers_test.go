package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	server "nps_survey/internal/adapters/http_server"
	redisad "nps_survey/internal/adapters/redis"
	"nps_survey/internal/app"
	"nps_survey/internal/client"
	"nps_survey/internal/domain"
)

const (
	operatorHeader = "X-Testing-Key"
	operatorSecret = "e2e-secret"
)

// startAPI wires the production router around repo with a miniredis-backed cache.
func startAPI(t *testing.T, repo domain.SurveyRepository) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	q := app.NewAnalyticsService(repo, cache, time.Minute)
	s := app.NewSubmissionService(repo, domain.DefaultValidator, q)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{S: s, Q: q})
	srv.MountTesting(&server.TestingHandlers{S: s, Header: operatorHeader, Secret: operatorSecret})

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(func() {
		ts.Close()
		s.Wait()
	})
	return ts
}

func newClient(t *testing.T, base string) *client.Client {
	t.Helper()
	c, err := client.New(base,
		client.WithOperatorKey(operatorHeader, operatorSecret),
		client.WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

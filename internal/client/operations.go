package client

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"nps_survey/internal/domain"
)

// Submit pre-checks the submission locally, posts it and, on success,
// refreshes the analytics snapshot. A failed refresh never fails Submit.
func (c *Client) Submit(ctx context.Context, sub domain.Submission) (string, error) {
	if res := c.validator.Validate(sub); !res.Valid {
		err := &Error{Op: OpSubmit, Category: CategoryBadRequest, Fields: res.FieldErrors, Err: res.Err()}
		c.setState(OpSubmit, State{Phase: PhaseExhausted, Err: err.Message()})
		return "", err
	}

	var out domain.CreatedResponse
	if err := c.do(ctx, call{op: OpSubmit, method: http.MethodPost, path: "/api/survey", body: sub, out: &out}); err != nil {
		return "", err
	}
	c.RefreshAnalytics(ctx)
	return out.ID, nil
}

func (c *Client) GetNPS(ctx context.Context) (float64, error) {
	var out domain.NPSResponse
	if err := c.do(ctx, call{op: OpNPS, method: http.MethodGet, path: "/api/survey/nps", out: &out}); err != nil {
		return 0, err
	}
	c.updateSnapshot(func(s *Snapshot) { s.NPS = out.NPS })
	return out.NPS, nil
}

func (c *Client) GetAverage(ctx context.Context) (float64, error) {
	var out domain.AverageResponse
	if err := c.do(ctx, call{op: OpAverage, method: http.MethodGet, path: "/api/survey/average", out: &out}); err != nil {
		return 0, err
	}
	c.updateSnapshot(func(s *Snapshot) { s.Average = out.Average })
	return out.Average, nil
}

func (c *Client) GetDistribution(ctx context.Context) (domain.Distribution, error) {
	out := domain.Distribution{}
	if err := c.do(ctx, call{op: OpDistribution, method: http.MethodGet, path: "/api/survey/distribution", out: &out}); err != nil {
		return nil, err
	}
	c.updateSnapshot(func(s *Snapshot) { s.Distribution = out })
	return out, nil
}

// RefreshAnalytics fetches NPS, average and distribution in parallel.
// Failures are logged and left in each operation's State.
func (c *Client) RefreshAnalytics(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { _, err := c.GetNPS(ctx); return err })
	g.Go(func() error { _, err := c.GetAverage(ctx); return err })
	g.Go(func() error { _, err := c.GetDistribution(ctx); return err })
	if err := g.Wait(); err != nil {
		c.log.Debug().Err(err).Msg("analytics refresh incomplete")
	}
}

// Seed posts submissions to the test-support seed endpoint.
func (c *Client) Seed(ctx context.Context, subs []domain.Submission) (int, error) {
	var out domain.SeedResponse
	if err := c.do(ctx, call{op: OpSeed, method: http.MethodPost, path: "/testing/seed", body: subs, out: &out, header: c.operatorHeader()}); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Reset clears every record through the test-support reset endpoint.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, call{op: OpReset, method: http.MethodPost, path: "/testing/reset", header: c.operatorHeader()})
}

func (c *Client) operatorHeader() http.Header {
	if c.opHeader == "" {
		return nil
	}
	h := http.Header{}
	h.Set(c.opHeader, c.opSecret)
	return h
}

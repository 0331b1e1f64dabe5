package client

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"nps_survey/internal/domain"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// SleepFunc waits d or returns ctx.Err() if ctx ends first.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option { return func(c *Client) { c.baseDelay = d } }

// WithSleep replaces the backoff wait, e.g. to record delays in tests.
func WithSleep(f SleepFunc) Option { return func(c *Client) { c.sleep = f } }

// WithRateLimit caps outbound requests per second; rps <= 0 means unlimited.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rl = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// WithOperatorKey sets the credential header sent with Seed and Reset.
func WithOperatorKey(header, secret string) Option {
	return func(c *Client) { c.opHeader, c.opSecret = header, secret }
}

// WithValidator sets the pre-check; it should match the server's policy.
func WithValidator(v domain.Validator) Option { return func(c *Client) { c.validator = v } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

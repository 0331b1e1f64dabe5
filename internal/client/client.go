package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"nps_survey/internal/adapters/observability"
	"nps_survey/internal/domain"
)

const serviceName = "survey_api"

// Client talks to the survey API with a uniform retry policy and keeps
// per-operation loading/error state plus the last analytics it fetched.
type Client struct {
	base        string
	hc          *http.Client
	rl          *rate.Limiter
	sleep       SleepFunc
	maxAttempts int
	baseDelay   time.Duration
	validator   domain.Validator
	opHeader    string
	opSecret    string
	log         zerolog.Logger

	mu     sync.Mutex
	states map[Operation]State
	snap   Snapshot
	closed atomic.Bool
}

func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", base)
	}
	c := &Client{
		base:        strings.TrimRight(base, "/"),
		hc:          &http.Client{Timeout: 20 * time.Second},
		rl:          rate.NewLimiter(rate.Inf, 0),
		sleep:       sleepCtx,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		validator:   domain.DefaultValidator,
		log:         log.Logger,
		states:      map[Operation]State{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Close releases idle connections. Later calls fail with ErrClosed.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.hc.CloseIdleConnections()
}

// State returns the current state of op; unknown operations are Idle.
func (c *Client) State(op Operation) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[op]
}

func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	if s.Distribution != nil {
		s.Distribution = make(domain.Distribution, len(c.snap.Distribution))
		for k, v := range c.snap.Distribution {
			s.Distribution[k] = v
		}
	}
	return s
}

func (c *Client) setState(op Operation, s State) {
	c.mu.Lock()
	c.states[op] = s
	c.mu.Unlock()
}

func (c *Client) updateSnapshot(f func(*Snapshot)) {
	c.mu.Lock()
	f(&c.snap)
	c.snap.UpdatedAt = time.Now()
	c.mu.Unlock()
}

type call struct {
	op     Operation
	method string
	path   string
	body   any
	out    any
	header http.Header
}

// do runs the retry state machine for one call.
func (c *Client) do(ctx context.Context, cl call) error {
	if c.closed.Load() {
		err := &Error{Op: cl.op, Category: CategoryUnknown, Err: ErrClosed}
		c.setState(cl.op, State{Phase: PhaseExhausted, Err: err.Message()})
		return err
	}

	attempt := 1
	phase := PhaseAttempting
	var last *Error
	for {
		switch phase {
		case PhaseAttempting:
			c.setState(cl.op, State{Phase: PhaseAttempting, Loading: true, Attempts: attempt})
			last = c.once(ctx, cl)
			phase = next(attempt, c.maxAttempts, last)
			if ctx.Err() != nil && last != nil {
				phase = PhaseExhausted
			}

		case PhaseBackingOff:
			delay := Backoff(c.baseDelay, attempt)
			c.setState(cl.op, State{Phase: PhaseBackingOff, Loading: true, Attempts: attempt})
			c.log.Debug().
				Str("op", string(cl.op)).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(last).
				Msg("retrying survey api call")
			if err := c.sleep(ctx, delay); err != nil {
				last = &Error{Op: cl.op, Category: CategoryNetwork, Err: err}
				phase = PhaseExhausted
				continue
			}
			attempt++
			phase = PhaseAttempting

		case PhaseSucceeded:
			c.setState(cl.op, State{Phase: PhaseSucceeded, Attempts: attempt})
			return nil

		case PhaseExhausted:
			c.setState(cl.op, State{Phase: PhaseExhausted, Attempts: attempt, Err: last.Message()})
			c.log.Warn().
				Str("op", string(cl.op)).
				Int("attempts", attempt).
				Str("category", last.Category.String()).
				Err(last.Err).
				Msg("survey api call failed")
			return last
		}
	}
}

// once performs a single HTTP round trip.
func (c *Client) once(ctx context.Context, cl call) *Error {
	fail := func(cat Category, status int, err error) *Error {
		return &Error{Op: cl.op, Category: cat, Status: status, Err: err}
	}

	if err := c.rl.Wait(ctx); err != nil {
		return fail(CategoryNetwork, 0, err)
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fail(CategoryBadRequest, 0, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.base+cl.path, body)
	if err != nil {
		return fail(CategoryUnknown, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nps-survey-client/1.0")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(serviceName, string(cl.op), 0, time.Since(start))
		return fail(CategoryNetwork, 0, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(serviceName, string(cl.op), resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if cl.out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
			e := fail(CategoryUnknown, resp.StatusCode, fmt.Errorf("decode response: %w", err))
			e.delivered = true
			return e
		}
		return nil
	}

	// read a small problem body for diagnostics and field errors
	var p struct {
		Title  string              `json:"title"`
		Detail string              `json:"detail"`
		Errors map[string][]string `json:"errors"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &p)
	msg := p.Title
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	e := fail(CategoryForStatus(resp.StatusCode), resp.StatusCode, fmt.Errorf("remote %d: %s", resp.StatusCode, msg))
	e.Fields = p.Errors
	return e
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

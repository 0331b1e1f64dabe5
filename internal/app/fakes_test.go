package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"nps_survey/internal/domain"
	"nps_survey/internal/storage/memory"
)

// ---- fakes ----

// flakyRepo wraps the memory store and fails selected operations.
type flakyRepo struct {
	*memory.Store
	failAppend  bool
	failAverage bool
	appends     int
}

var errDisk = errors.New("disk on fire: /var/lib/mysql/ibdata1")

func newFlakyRepo() *flakyRepo { return &flakyRepo{Store: memory.New()} }

func (f *flakyRepo) Append(ctx context.Context, r domain.SurveyRecord) (domain.SurveyRecord, error) {
	f.appends++
	if f.failAppend {
		return domain.SurveyRecord{}, domain.Persist("append", errDisk)
	}
	return f.Store.Append(ctx, r)
}

func (f *flakyRepo) AverageRating(ctx context.Context) (float64, error) {
	if f.failAverage {
		return 0, domain.Persist("average", errDisk)
	}
	return f.Store.AverageRating(ctx)
}

// fakeCache stores JSON like the redis adapter so typed reads round-trip.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	failInc bool
	gets    int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failInc {
		return 0, errors.New("redis down")
	}
	var n int64
	if b, ok := c.store[key]; ok {
		_ = json.Unmarshal(b, &n)
	}
	n++
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key], _ = json.Marshal(n)
	return n, nil
}

func ptr[T any](v T) *T { return &v }

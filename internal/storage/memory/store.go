// Package memory is an in-process SurveyRepository for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"nps_survey/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	records []domain.SurveyRecord
	now     func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Append(ctx context.Context, r domain.SurveyRecord) (domain.SurveyRecord, error) {
	out, err := s.AppendBatch(ctx, []domain.SurveyRecord{r})
	if err != nil {
		return domain.SurveyRecord{}, err
	}
	return out[0], nil
}

func (s *Store) AppendBatch(ctx context.Context, rs []domain.SurveyRecord) ([]domain.SurveyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Persist("append", err)
	}
	out := make([]domain.SurveyRecord, len(rs))
	for i, r := range rs {
		r.ID = uuid.NewString()
		r.CreatedAt = s.now()
		out[i] = r
	}
	s.mu.Lock()
	s.records = append(s.records, out...)
	s.mu.Unlock()
	return out, nil
}

func (s *Store) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) AllRatings(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Persist("all ratings", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.records))
	for i, r := range s.records {
		out[i] = r.Rating
	}
	return out, nil
}

func (s *Store) AverageRating(ctx context.Context) (float64, error) {
	ratings, err := s.AllRatings(ctx)
	if err != nil || len(ratings) == 0 {
		return 0, err
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings)), nil
}

func (s *Store) RatingDistribution(ctx context.Context) (domain.Distribution, error) {
	ratings, err := s.AllRatings(ctx)
	if err != nil {
		return nil, err
	}
	out := domain.Distribution{}
	for _, r := range ratings {
		out[r]++
	}
	return out, nil
}

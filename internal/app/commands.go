package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"nps_survey/internal/adapters/observability"
	"nps_survey/internal/domain"
)

const refreshTimeout = 10 * time.Second

type SubmissionService struct {
	repo      domain.SurveyRepository
	validator domain.Validator
	analytics *AnalyticsService // optional

	bg sync.WaitGroup
}

func NewSubmissionService(r domain.SurveyRepository, v domain.Validator, a *AnalyticsService) *SubmissionService {
	return &SubmissionService{repo: r, validator: v, analytics: a}
}

// Submit validates the raw submission, sanitizes it and appends it.
// Invalid input never reaches the store.
func (s *SubmissionService) Submit(ctx context.Context, sub domain.Submission) (domain.SurveyRecord, error) {
	start := time.Now()
	if err := s.validator.Validate(sub).Err(); err != nil {
		observability.ObserveSubmission(observability.OutcomeValidationError, time.Since(start))
		return domain.SurveyRecord{}, err
	}

	rec, err := s.repo.Append(ctx, NewRecord(sub))
	if err != nil {
		observability.ObserveSubmission(observability.OutcomeFailure, time.Since(start))
		log.Error().Err(err).Msg("survey append failed")
		return domain.SurveyRecord{}, domain.Persist("submit", err)
	}

	s.afterWrite(ctx)
	observability.ObserveSubmission(observability.OutcomeSuccess, time.Since(start))
	log.Debug().Str("id", rec.ID).Int("rating", rec.Rating).Msg("survey stored")
	return rec, nil
}

// Seed validates every submission first and stores them in one batch.
// Field errors are keyed "[i].field".
func (s *SubmissionService) Seed(ctx context.Context, subs []domain.Submission) (int, error) {
	fields := map[string][]string{}
	recs := make([]domain.SurveyRecord, 0, len(subs))
	for i, sub := range subs {
		res := s.validator.Validate(sub)
		for f, msgs := range res.FieldErrors {
			key := fmt.Sprintf("[%d].%s", i, f)
			fields[key] = append(fields[key], msgs...)
		}
		recs = append(recs, NewRecord(sub))
	}
	if len(fields) > 0 {
		return 0, domain.NewValidationError(fields)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	if _, err := s.repo.AppendBatch(ctx, recs); err != nil {
		log.Error().Err(err).Int("count", len(recs)).Msg("survey seed failed")
		return 0, domain.Persist("seed", err)
	}
	s.afterWrite(ctx)
	return len(recs), nil
}

// Reset deletes every record. Test support only.
func (s *SubmissionService) Reset(ctx context.Context) error {
	if err := s.repo.ResetAll(ctx); err != nil {
		log.Error().Err(err).Msg("survey reset failed")
		return domain.Persist("reset", err)
	}
	if s.analytics != nil {
		if err := s.analytics.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("analytics invalidate after reset failed")
		}
	}
	return nil
}

// Wait blocks until background analytics refreshes have finished.
func (s *SubmissionService) Wait() { s.bg.Wait() }

// afterWrite invalidates cached aggregates and warms them in the background.
// Neither step can fail the write that triggered it.
func (s *SubmissionService) afterWrite(ctx context.Context) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("analytics invalidate failed; cached aggregates live until TTL")
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		if err := s.analytics.Refresh(rctx); err != nil {
			log.Warn().Err(err).Msg("analytics refresh failed")
		}
	}()
}

// NewRecord builds a record from an already validated submission.
func NewRecord(sub domain.Submission) domain.SurveyRecord {
	rec := domain.SurveyRecord{
		Rating: sub.LikelihoodToRecommend,
		Email:  domain.SanitizeEmail(sub.Email),
	}
	if c := domain.SanitizeText(sub.Comments); c != "" {
		rec.Comment = &c
	}
	return rec
}

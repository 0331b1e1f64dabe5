package domain

import "context"

type SurveyRepository interface {
	// Write paths
	Append(ctx context.Context, r SurveyRecord) (SurveyRecord, error)
	AppendBatch(ctx context.Context, rs []SurveyRecord) ([]SurveyRecord, error)
	ResetAll(ctx context.Context) error

	// Read paths
	AllRatings(ctx context.Context) ([]int, error)
	AverageRating(ctx context.Context) (float64, error)
	RatingDistribution(ctx context.Context) (Distribution, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
}

package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"nps_survey/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo { return &Repo{db: db, now: func() time.Time { return time.Now().UTC() }} }

// stamp assigns the store-owned fields. Caller-provided ID/CreatedAt are ignored.
func (r *Repo) stamp(rec domain.SurveyRecord) domain.SurveyRecord {
	rec.ID = uuid.NewString()
	// MySQL DATETIME(6) keeps microseconds; truncate so reads compare equal.
	rec.CreatedAt = r.now().Truncate(time.Microsecond)
	return rec
}

func (r *Repo) Append(ctx context.Context, rec domain.SurveyRecord) (domain.SurveyRecord, error) {
	out, err := r.AppendBatch(ctx, []domain.SurveyRecord{rec})
	if err != nil {
		return domain.SurveyRecord{}, err
	}
	return out[0], nil
}

// AppendBatch writes all records in one transaction; either every row is
// visible to readers or none is. Rows go out in chunks of insertChunkSize so
// a statement stays under MySQL's placeholder limit.
func (r *Repo) AppendBatch(ctx context.Context, rs []domain.SurveyRecord) ([]domain.SurveyRecord, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	out := make([]domain.SurveyRecord, 0, len(rs))
	for _, rec := range rs {
		out = append(out, r.stamp(rec))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Persist("append: begin", err)
	}
	for i := 0; i < len(out); i += insertChunkSize {
		query, args := insertChunk(out[i:min(i+insertChunkSize, len(out))])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return nil, domain.Persist("append: insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, domain.Persist("append: commit", err)
	}
	return out, nil
}

func insertChunk(rs []domain.SurveyRecord) (string, []any) {
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*surveyColumns)
	for _, rec := range rs {
		values = append(values, surveyValues)
		args = append(args,
			rec.ID,
			rec.Rating,
			valStr(rec.Comment),
			valStr(rec.Email),
			rec.CreatedAt,
		)
	}
	return insertSurveyPrefix + strings.Join(values, ","), args
}

func (r *Repo) ResetAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, resetSQL)
	return domain.Persist("reset", err)
}

func (r *Repo) AllRatings(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, allRatingsSQL)
	if err != nil {
		return nil, domain.Persist("all ratings", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, domain.Persist("all ratings: scan", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persist("all ratings: rows", err)
	}
	return out, nil
}

func (r *Repo) AverageRating(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, averageRatingSQL).Scan(&avg); err != nil {
		return 0, domain.Persist("average", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (r *Repo) RatingDistribution(ctx context.Context) (domain.Distribution, error) {
	rows, err := r.db.QueryContext(ctx, distributionSQL)
	if err != nil {
		return nil, domain.Persist("distribution", err)
	}
	defer rows.Close()

	out := domain.Distribution{}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, domain.Persist("distribution: scan", err)
		}
		out[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persist("distribution: rows", err)
	}
	return out, nil
}

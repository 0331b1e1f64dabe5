package domain

import "time"

const (
	MinRating        = 0
	MaxRating        = 10
	MaxCommentLength = 1000
	MaxEmailLength   = 255
)

// SurveyRecord is one stored response. ID and CreatedAt are assigned by the store.
type SurveyRecord struct {
	ID        string    `json:"id"`
	Rating    int       `json:"likelihoodToRecommend"`
	Comment   *string   `json:"comments,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is the request body for POST /api/survey, shared by the API and the client.
type Submission struct {
	LikelihoodToRecommend int    `json:"likelihoodToRecommend"`
	Comments              string `json:"comments,omitempty"`
	Email                 string `json:"email,omitempty"`
}

// Response shapes
type CreatedResponse struct {
	ID string `json:"id"`
}

type NPSResponse struct {
	NPS float64 `json:"nps"`
}

type AverageResponse struct {
	Average float64 `json:"average"`
}

type SeedResponse struct {
	Count int `json:"count"`
}

// Distribution maps a rating (0-10) to the number of records with it.
// Ratings nobody gave are absent.
type Distribution map[int]int

type AggregateView struct {
	Distribution Distribution `json:"ratingsDistribution"`
	Average      float64      `json:"average"`
	NPS          float64      `json:"nps"`
}

package entities

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating belongs to exactly one completed Trip. DriverID is copied from the
// trip when the rating is created; a trip's driver never changes, so the copy
// stays consistent and aggregation does not need to join back to trips.
type Rating struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip"`
	DriverID  string    `json:"driver_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRating(id string, trip *Trip, score int, comment string) *Rating {
	now := time.Now()
	return &Rating{
		ID:        id,
		TripID:    trip.ID,
		DriverID:  trip.DriverID,
		Score:     score,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidScore reports whether score is within the accepted range.
func ValidScore(score int) bool {
	return score >= MinRatingScore && score <= MaxRatingScore
}

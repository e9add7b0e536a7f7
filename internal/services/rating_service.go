package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"rides/internal/domain/entities"
	"rides/internal/repository"
	"rides/pkg/utils"
)

// DriverScore is one row of the top-drivers ranking.
type DriverScore struct {
	DriverID     string  `json:"driver_id"`
	AverageScore float64 `json:"average_score"`
	RatingCount  int     `json:"rating_count"`
}

// DriverSummary is a driver together with its average, nil when unrated.
type DriverSummary struct {
	*entities.User
	AverageScore *float64 `json:"average_score"`
}

// RatingService records passenger ratings of completed trips and aggregates
// them per driver. Averages are always recomputed from the stored ratings.
type RatingService struct {
	ratingRepo repository.RatingRepository
	tripRepo   repository.TripRepository
	userRepo   repository.UserRepository
	logger     *zap.Logger
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		tripRepo:   tripRepo,
		userRepo:   userRepo,
		logger:     logger.Named("ratings"),
	}
}

// AverageScore is the arithmetic mean of every rating of driverID's trips, or
// nil when there is none. Trips without a rating do not count.
func (s *RatingService) AverageScore(ctx context.Context, driverID string) (*float64, error) {
	ratings, err := s.ratingRepo.ListByDriverID(ctx, driverID)
	if err != nil {
		return nil, storeError("rating", "", err, nil)
	}
	if len(ratings) == 0 {
		return nil, nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg, nil
}

// TopDrivers ranks rated drivers by average descending, ties by driver ID
// ascending, and keeps the first n. n must be positive.
func (s *RatingService) TopDrivers(ctx context.Context, n int) ([]DriverScore, error) {
	if n <= 0 {
		return nil, newError(ErrBadRequest, "n", "", nil)
	}
	ratings, err := s.ratingRepo.List(ctx)
	if err != nil {
		return nil, storeError("rating", "", err, nil)
	}

	type acc struct{ sum, count int }
	byDriver := make(map[string]*acc)
	for _, r := range ratings {
		a, ok := byDriver[r.DriverID]
		if !ok {
			a = &acc{}
			byDriver[r.DriverID] = a
		}
		a.sum += r.Score
		a.count++
	}

	scores := make([]DriverScore, 0, len(byDriver))
	for id, a := range byDriver {
		scores = append(scores, DriverScore{
			DriverID:     id,
			AverageScore: float64(a.sum) / float64(a.count),
			RatingCount:  a.count,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].AverageScore != scores[j].AverageScore {
			return scores[i].AverageScore > scores[j].AverageScore
		}
		return scores[i].DriverID < scores[j].DriverID
	})
	if len(scores) > n {
		scores = scores[:n]
	}
	return scores, nil
}

// ListDrivers returns every driver, available or not, with its average.
func (s *RatingService) ListDrivers(ctx context.Context) ([]DriverSummary, error) {
	drivers, err := s.userRepo.ListDrivers(ctx)
	if err != nil {
		return nil, storeError("driver", "", err, nil)
	}
	out := make([]DriverSummary, 0, len(drivers))
	for _, d := range drivers {
		avg, err := s.AverageScore(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DriverSummary{User: d, AverageScore: avg})
	}
	return out, nil
}

// SubmitRating records passengerID's rating of tripID. Checks run in this
// order: the trip exists, the caller is its passenger, it is COMPLETED, the
// score is within range, and it has not been rated yet.
func (s *RatingService) SubmitRating(ctx context.Context, passengerID, tripID string, score int, comment string) (*entities.Rating, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, storeError("trip", tripID, err, repository.ErrTripNotFound)
	}
	if trip.PassengerID != passengerID {
		return nil, newError(ErrForbidden, "trip", tripID, nil)
	}
	if trip.Status != entities.TripStatusCompleted {
		return nil, newError(ErrInvalidTransition, "trip", tripID, nil)
	}
	if !entities.ValidScore(score) {
		return nil, newError(ErrBadRequest, "score", "", nil)
	}

	rating := entities.NewRating(utils.GenerateID(), trip, score, comment)
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, storeError("rating", tripID, err, nil)
	}
	s.logger.Info("trip rated",
		zap.String("trip_id", tripID),
		zap.String("driver_id", rating.DriverID),
		zap.Int("score", score),
	)
	return rating, nil
}

// UpdateRating changes the score and/or comment of an existing rating; a nil
// field is left as stored. Only the rated trip's passenger may do so.
func (s *RatingService) UpdateRating(ctx context.Context, passengerID, ratingID string, score *int, comment *string) (*entities.Rating, error) {
	rating, err := s.GetRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	trip, err := s.tripRepo.GetByID(ctx, rating.TripID)
	if err != nil {
		return nil, storeError("trip", rating.TripID, err, repository.ErrTripNotFound)
	}
	if trip.PassengerID != passengerID {
		return nil, newError(ErrForbidden, "rating", ratingID, nil)
	}
	if score != nil && !entities.ValidScore(*score) {
		return nil, newError(ErrBadRequest, "score", "", nil)
	}
	if score == nil && comment == nil {
		return rating, nil
	}

	if score != nil {
		rating.Score = *score
	}
	if comment != nil {
		rating.Comment = *comment
	}
	rating.UpdatedAt = time.Now()
	if err := s.ratingRepo.Update(ctx, rating); err != nil {
		return nil, storeError("rating", ratingID, err, repository.ErrRatingNotFound)
	}
	return rating, nil
}

func (s *RatingService) GetRating(ctx context.Context, ratingID string) (*entities.Rating, error) {
	rating, err := s.ratingRepo.GetByID(ctx, ratingID)
	if err != nil {
		return nil, storeError("rating", ratingID, err, repository.ErrRatingNotFound)
	}
	return rating, nil
}

// RatingForTrip returns the trip's rating, or nil when it has none.
func (s *RatingService) RatingForTrip(ctx context.Context, tripID string) (*entities.Rating, error) {
	rating, err := s.ratingRepo.GetByTripID(ctx, tripID)
	switch {
	case err == nil:
		return rating, nil
	case errors.Is(err, repository.ErrRatingNotFound):
		return nil, nil
	default:
		return nil, storeError("rating", tripID, err, nil)
	}
}

func (s *RatingService) ListRatings(ctx context.Context) ([]*entities.Rating, error) {
	ratings, err := s.ratingRepo.List(ctx)
	if err != nil {
		return nil, storeError("rating", "", err, nil)
	}
	return ratings, nil
}

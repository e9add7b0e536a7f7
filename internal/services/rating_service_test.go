package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rides/internal/domain/entities"
)

// rate stores one completed trip of driverID per score and rates it as
// seed-passenger.
func (env *testEnv) rate(t *testing.T, driverID string, scores ...int) {
	t.Helper()
	ctx := context.Background()
	for _, score := range scores {
		env.seq++
		trip := entities.NewTrip(fmt.Sprintf("rated-%d", env.seq), "seed-passenger", driverID, time.Now())
		trip.Status = entities.TripStatusCompleted
		if err := env.trips.Create(ctx, trip); err != nil {
			t.Fatalf("seed rated trip: %v", err)
		}
		if _, err := env.ratingSvc.SubmitRating(ctx, "seed-passenger", trip.ID, score, ""); err != nil {
			t.Fatalf("SubmitRating(%d): %v", score, err)
		}
	}
}

func TestRatingService_AverageScore(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	env.rate(t, "d-1", 5, 4, 3)
	env.rate(t, "d-2", 5, 4)

	avg, err := env.ratingSvc.AverageScore(ctx, "d-1")
	if err != nil {
		t.Fatalf("AverageScore failed: %v", err)
	}
	if avg == nil || *avg != 4.0 {
		t.Errorf("expected 4.0, got %v", avg)
	}

	avg, _ = env.ratingSvc.AverageScore(ctx, "d-2")
	if avg == nil || *avg != 4.5 {
		t.Errorf("expected 4.5, got %v", avg)
	}

	avg, err = env.ratingSvc.AverageScore(ctx, "unrated")
	if err != nil || avg != nil {
		t.Errorf("expected nil average for unrated driver, got %v, %v", avg, err)
	}
}

func TestRatingService_UnratedTripsAreExcluded(t *testing.T) {
	env := setupServices(t)
	env.rate(t, "d-1", 4)
	env.addTrips(t, "d-1", 3, entities.TripStatusCompleted)

	avg, _ := env.ratingSvc.AverageScore(context.Background(), "d-1")
	if avg == nil || *avg != 4.0 {
		t.Errorf("expected 4.0, got %v", avg)
	}
}

func TestRatingService_TopDrivers(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	env.rate(t, "d-c", 5)
	env.rate(t, "d-a", 4, 4)
	env.rate(t, "d-b", 5, 3)
	env.rate(t, "d-d", 2)
	env.addDriver(t, "d-unrated", true)

	top, err := env.ratingSvc.TopDrivers(ctx, 3)
	if err != nil {
		t.Fatalf("TopDrivers failed: %v", err)
	}
	want := []string{"d-c", "d-a", "d-b"}
	if len(top) != len(want) {
		t.Fatalf("expected %d drivers, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].DriverID != id {
			t.Errorf("rank %d: got %s, want %s", i, top[i].DriverID, id)
		}
	}
	if top[1].AverageScore != 4.0 || top[1].RatingCount != 2 {
		t.Errorf("unexpected score row %+v", top[1])
	}

	all, _ := env.ratingSvc.TopDrivers(ctx, 100)
	if len(all) != 4 {
		t.Errorf("expected only the 4 rated drivers, got %d", len(all))
	}

	if _, err := env.ratingSvc.TopDrivers(ctx, 0); !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest for n=0, got %v", err)
	}
}

func TestRatingService_SubmitRatingRules(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.addPassenger(t, "p-1")
	env.addPassenger(t, "p-2")
	env.addDriver(t, "d-1", true)

	open, _ := env.dispatch.RequestTrip(ctx, "p-1")
	done, _ := env.dispatch.RequestTrip(ctx, "p-1")
	env.tripSvc.StartTrip(ctx, done.ID)
	env.tripSvc.CompleteTrip(ctx, done.ID)

	tests := []struct {
		name      string
		passenger string
		tripID    string
		score     int
		want      error
	}{
		{name: "unknown trip", passenger: "p-1", tripID: "missing", score: 5, want: ErrNotFound},
		{name: "someone else's trip", passenger: "p-2", tripID: done.ID, score: 5, want: ErrForbidden},
		{name: "trip not completed", passenger: "p-1", tripID: open.ID, score: 5, want: ErrInvalidTransition},
		{name: "score too low", passenger: "p-1", tripID: done.ID, score: 0, want: ErrBadRequest},
		{name: "score too high", passenger: "p-1", tripID: done.ID, score: 6, want: ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ratingSvc.SubmitRating(ctx, tt.passenger, tt.tripID, tt.score, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	rating, err := env.ratingSvc.SubmitRating(ctx, "p-1", done.ID, 5, "smooth ride")
	if err != nil {
		t.Fatalf("SubmitRating failed: %v", err)
	}
	if rating.DriverID != "d-1" || rating.TripID != done.ID {
		t.Errorf("unexpected rating %+v", rating)
	}
	if _, err := env.ratingSvc.SubmitRating(ctx, "p-1", done.ID, 4, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on second rating, got %v", err)
	}

	got, err := env.ratingSvc.RatingForTrip(ctx, done.ID)
	if err != nil || got == nil || got.ID != rating.ID {
		t.Errorf("RatingForTrip = %v, %v", got, err)
	}
	none, err := env.ratingSvc.RatingForTrip(ctx, open.ID)
	if err != nil || none != nil {
		t.Errorf("expected no rating for open trip, got %v, %v", none, err)
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestRatingService_UpdateRating(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.rate(t, "d-1", 2)

	ratings, _ := env.ratingSvc.ListRatings(ctx)
	if len(ratings) != 1 {
		t.Fatalf("expected 1 rating, got %d", len(ratings))
	}
	id := ratings[0].ID

	if _, err := env.ratingSvc.UpdateRating(ctx, "intruder", id, intPtr(5), nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.ratingSvc.UpdateRating(ctx, "seed-passenger", id, intPtr(9), nil); !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
	if _, err := env.ratingSvc.UpdateRating(ctx, "seed-passenger", "missing", intPtr(5), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	updated, err := env.ratingSvc.UpdateRating(ctx, "seed-passenger", id, intPtr(5), strPtr("changed my mind"))
	if err != nil {
		t.Fatalf("UpdateRating failed: %v", err)
	}
	if updated.Score != 5 || updated.Comment != "changed my mind" {
		t.Errorf("unexpected rating %+v", updated)
	}
	avg, _ := env.ratingSvc.AverageScore(ctx, "d-1")
	if avg == nil || *avg != 5.0 {
		t.Errorf("expected average to follow the update, got %v", avg)
	}
}

func TestRatingService_UpdateRatingPartial(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.rate(t, "d-1", 4)
	ratings, _ := env.ratingSvc.ListRatings(ctx)
	id := ratings[0].ID

	updated, err := env.ratingSvc.UpdateRating(ctx, "seed-passenger", id, nil, strPtr("comment only"))
	if err != nil {
		t.Fatalf("comment-only update failed: %v", err)
	}
	if updated.Score != 4 || updated.Comment != "comment only" {
		t.Errorf("score must be kept on a comment-only update, got %+v", updated)
	}

	updated, err = env.ratingSvc.UpdateRating(ctx, "seed-passenger", id, intPtr(3), nil)
	if err != nil {
		t.Fatalf("score-only update failed: %v", err)
	}
	if updated.Score != 3 || updated.Comment != "comment only" {
		t.Errorf("comment must be kept on a score-only update, got %+v", updated)
	}

	if _, err := env.ratingSvc.UpdateRating(ctx, "seed-passenger", id, nil, nil); err != nil {
		t.Errorf("empty update should be a no-op, got %v", err)
	}
}

func TestRatingService_ListDrivers(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", false)
	env.addPassenger(t, "p-1")
	env.rate(t, "d-1", 3, 5)

	drivers, err := env.ratingSvc.ListDrivers(ctx)
	if err != nil {
		t.Fatalf("ListDrivers failed: %v", err)
	}
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
	if drivers[0].ID != "d-1" || drivers[0].AverageScore == nil || *drivers[0].AverageScore != 4.0 {
		t.Errorf("unexpected d-1 summary %+v", drivers[0])
	}
	if drivers[1].AverageScore != nil {
		t.Errorf("expected nil average for unrated d-2")
	}
}

func TestRatingService_StoreFailureIsTransient(t *testing.T) {
	env := setupServices(t)
	svc := NewRatingService(flakyRatingRepo{RatingRepository: env.ratings}, env.trips, env.users, zapNop())

	if _, err := svc.AverageScore(context.Background(), "d-1"); !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient, got %v", err)
	}
	if _, err := svc.TopDrivers(context.Background(), 3); !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient, got %v", err)
	}
}

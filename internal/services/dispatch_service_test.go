package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rides/internal/domain/entities"
	"rides/internal/events"
	"rides/internal/repository/memory"
)

func TestDispatchService_PicksLeastLoadedDriver(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-a", true)
	env.addDriver(t, "d-b", true)
	env.addDriver(t, "d-c", true)
	env.addTrips(t, "d-a", 3, entities.TripStatusPending)
	env.addTrips(t, "d-c", 5, entities.TripStatusOngoing)

	trip, err := env.dispatch.RequestTrip(ctx, "p-1")
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if trip.DriverID != "d-b" {
		t.Errorf("expected d-b (0 active), got %s", trip.DriverID)
	}
	if trip.Status != entities.TripStatusPending {
		t.Errorf("expected PENDING, got %s", trip.Status)
	}
	if trip.PassengerID != "p-1" {
		t.Errorf("expected passenger p-1, got %s", trip.PassengerID)
	}
	if got := env.events.types(); len(got) != 1 || got[0] != events.TypeTripRequested {
		t.Errorf("expected one trip.requested event, got %v", got)
	}
}

func TestDispatchService_TerminalTripsDoNotCountAsLoad(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)
	env.addTrips(t, "d-1", 4, entities.TripStatusCompleted)
	env.addTrips(t, "d-1", 2, entities.TripStatusCancelled)
	env.addTrips(t, "d-2", 1, entities.TripStatusPending)

	trip, err := env.dispatch.RequestTrip(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if trip.DriverID != "d-1" {
		t.Errorf("expected d-1, got %s", trip.DriverID)
	}
}

func TestDispatchService_TieBrokenByLowestID(t *testing.T) {
	for _, reserve := range []bool{false, true} {
		env := setupServices(t)
		if reserve {
			env.build(WithReservations(env.locks, time.Second))
		}
		env.addPassenger(t, "p-1")
		env.addDriver(t, "d-2", true)
		env.addDriver(t, "d-1", true)
		env.addDriver(t, "d-3", true)

		for i := 0; i < 5; i++ {
			// Cancel each dispatched trip so loads stay equal.
			trip, err := env.dispatch.RequestTrip(context.Background(), "p-1")
			if err != nil {
				t.Fatalf("RequestTrip failed: %v", err)
			}
			if trip.DriverID != "d-1" {
				t.Fatalf("reserve=%v: expected d-1 on every tie, got %s", reserve, trip.DriverID)
			}
			if _, err := env.tripSvc.CancelTrip(context.Background(), trip.ID); err != nil {
				t.Fatalf("CancelTrip failed: %v", err)
			}
		}
	}
}

func TestDispatchService_NoDriversAvailable(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-off", false)

	_, err := env.dispatch.RequestTrip(context.Background(), "p-1")
	if !errors.Is(err, ErrNoDriversAvailable) {
		t.Fatalf("expected ErrNoDriversAvailable, got %v", err)
	}
	if n := env.tripCount(t); n != 0 {
		t.Errorf("expected no trip to be written, found %d", n)
	}
	if len(env.events.types()) != 0 {
		t.Error("expected no events")
	}
}

func TestDispatchService_PassengerChecks(t *testing.T) {
	env := setupServices(t)
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)

	tests := []struct {
		name        string
		passengerID string
		want        error
	}{
		{name: "unknown passenger", passengerID: "ghost", want: ErrNotFound},
		{name: "driver without passenger role", passengerID: "d-2", want: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.dispatch.RequestTrip(context.Background(), tt.passengerID)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if n := env.tripCount(t); n != 0 {
		t.Errorf("expected no trips, found %d", n)
	}
}

func TestDispatchService_DriverWhoIsAlsoPassenger(t *testing.T) {
	env := setupServices(t)
	both := entities.NewUser("u-1", "u-1", "u-1@example.com", true, true)
	both.IsAvailable = true
	if err := env.users.Create(context.Background(), both); err != nil {
		t.Fatal(err)
	}

	trip, err := env.dispatch.RequestTrip(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if trip.DriverID != "u-1" || trip.PassengerID != "u-1" {
		t.Errorf("unexpected binding %+v", trip)
	}
}

func TestDispatchService_DoesNotToggleAvailability(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	for i := 0; i < 3; i++ {
		if _, err := env.dispatch.RequestTrip(context.Background(), "p-1"); err != nil {
			t.Fatalf("RequestTrip %d failed: %v", i, err)
		}
	}
	d, _ := env.users.GetByID(context.Background(), "d-1")
	if !d.IsAvailable {
		t.Error("dispatch must not change driver availability")
	}
}

func TestDispatchService_CancelledContextWritesNothing(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.dispatch.RequestTrip(ctx, "p-1")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled as cause, got %v", err)
	}
	if n := env.tripCount(t); n != 0 {
		t.Errorf("expected no trip, found %d", n)
	}
}

func TestDispatchService_StoreFailureIsTransient(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	flaky := flakyTripRepo{TripRepository: env.trips}
	availability := NewAvailabilityService(env.users, flaky)
	dispatch := NewDispatchService(env.users, flaky, availability, env.events, zapNop())

	_, err := dispatch.RequestTrip(context.Background(), "p-1")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected store error as cause, got %v", err)
	}
	if n := env.tripCount(t); n != 0 {
		t.Errorf("expected no trip, found %d", n)
	}
}

func TestDispatchService_SkipsReservedDriver(t *testing.T) {
	env := setupServices(t)
	env.build(WithReservations(env.locks, time.Second))
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)

	ctx := context.Background()
	if _, ok, _ := env.locks.AcquireLock(ctx, "driver:d-1", time.Minute); !ok {
		t.Fatal("could not pre-reserve d-1")
	}

	trip, err := env.dispatch.RequestTrip(ctx, "p-1")
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if trip.DriverID != "d-2" {
		t.Errorf("expected d-2 while d-1 is reserved, got %s", trip.DriverID)
	}
	if _, ok, _ := env.locks.AcquireLock(ctx, "driver:d-2", time.Minute); !ok {
		t.Error("expected reservation on d-2 to be released after commit")
	}
}

func TestDispatchService_AllDriversReservedStillAssigns(t *testing.T) {
	env := setupServices(t)
	env.build(WithReservations(env.locks, time.Second))
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	ctx := context.Background()
	env.locks.AcquireLock(ctx, "driver:d-1", time.Minute)

	trip, err := env.dispatch.RequestTrip(ctx, "p-1")
	if err != nil {
		t.Fatalf("expected an assignment with an eligible driver present, got %v", err)
	}
	if trip.DriverID != "d-1" {
		t.Errorf("expected d-1, got %s", trip.DriverID)
	}
	if n := env.tripCount(t); n != 1 {
		t.Errorf("expected 1 trip, found %d", n)
	}
}

func TestDispatchService_ReservedWaitHonoursContext(t *testing.T) {
	env := setupServices(t)
	env.build(WithReservations(env.locks, time.Second))
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)
	env.locks.AcquireLock(context.Background(), "driver:d-1", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := env.dispatch.RequestTrip(ctx, "p-1")
	if !errors.Is(err, ErrTransient) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Transient caused by the deadline, got %v", err)
	}
	if n := env.tripCount(t); n != 0 {
		t.Errorf("expected no trip, found %d", n)
	}
}

func TestDispatchService_ConcurrentRequestsForSingleDriver(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addPassenger(t, "p-2")
	env.addDriver(t, "d-1", true)

	slow := slowTripRepo{TripRepository: env.trips, delay: 50 * time.Millisecond}
	availability := NewAvailabilityService(env.users, slow)
	dispatch := NewDispatchService(env.users, slow, availability, env.events, zapNop(),
		WithReservations(env.locks, time.Second))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []string{"p-1", "p-2"} {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, errs[i] = dispatch.RequestTrip(context.Background(), p)
		}(i, p)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed with d-1 available: %v", i, err)
		}
	}
	if n := env.tripCount(t); n != 2 {
		t.Errorf("expected 2 trips, found %d", n)
	}
}

// reservationCheckingPublisher records whether the driver's reservation was
// already free when the trip event went out.
type reservationCheckingPublisher struct {
	recordingPublisher
	locks         *memory.LockManager
	key           string
	freeAtPublish bool
}

func (p *reservationCheckingPublisher) Publish(ctx context.Context, ev events.TripEvent) error {
	if token, ok, _ := p.locks.AcquireLock(ctx, p.key, time.Second); ok {
		p.freeAtPublish = true
		p.locks.ReleaseLock(ctx, p.key, token)
	}
	return p.recordingPublisher.Publish(ctx, ev)
}

func TestDispatchService_ReleasesReservationBeforePublishing(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	pub := &reservationCheckingPublisher{locks: env.locks, key: "driver:d-1"}
	availability := NewAvailabilityService(env.users, env.trips)
	dispatch := NewDispatchService(env.users, env.trips, availability, pub, zapNop(),
		WithReservations(env.locks, time.Minute))

	if _, err := dispatch.RequestTrip(context.Background(), "p-1"); err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if !pub.freeAtPublish {
		t.Error("driver reservation still held while the event was published")
	}
}

func TestDispatchService_RevalidatesLoadUnderReservation(t *testing.T) {
	env := setupServices(t)
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)
	env.addTrips(t, "d-1", 2, entities.TripStatusPending)
	env.addTrips(t, "d-2", 1, entities.TripStatusPending)

	// The snapshot still believes d-1 is idle.
	stale := staleTripRepo{TripRepository: env.trips, snapshot: map[string]int{"d-2": 1}}
	availability := NewAvailabilityService(env.users, stale)
	dispatch := NewDispatchService(env.users, stale, availability, env.events, zapNop(),
		WithReservations(env.locks, time.Second))

	trip, err := dispatch.RequestTrip(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if trip.DriverID != "d-2" {
		t.Errorf("expected d-2 once d-1's real load is seen, got %s", trip.DriverID)
	}
}

func TestDispatchService_ConcurrentRequestsSpreadLoad(t *testing.T) {
	env := setupServices(t)
	env.build(WithReservations(env.locks, time.Second))
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)
	env.addDriver(t, "d-3", true)
	env.addDriver(t, "d-4", true)

	const requests = 40
	for i := 0; i < requests; i++ {
		env.addPassenger(t, passengerID(i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := env.dispatch.RequestTrip(context.Background(), passengerID(i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	trips, _ := env.trips.List(context.Background())
	if len(trips) != requests {
		t.Errorf("expected %d trips, got %d", requests, len(trips))
	}
	perDriver := map[string]int{}
	for _, trip := range trips {
		if trip.DriverID == "" {
			t.Errorf("trip %s has no driver", trip.ID)
		}
		perDriver[trip.DriverID]++
	}
	if len(perDriver) != 4 {
		t.Errorf("expected all four drivers to receive trips, got %v", perDriver)
	}
}

func TestDispatchService_PublishFailureKeepsTrip(t *testing.T) {
	env := setupServices(t)
	env.events.err = errors.New("broker down")
	env.addPassenger(t, "p-1")
	env.addDriver(t, "d-1", true)

	trip, err := env.dispatch.RequestTrip(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("RequestTrip should succeed when publishing fails: %v", err)
	}
	if _, err := env.trips.GetByID(context.Background(), trip.ID); err != nil {
		t.Errorf("trip was not kept: %v", err)
	}
}

func TestAvailabilityService_SnapshotOrder(t *testing.T) {
	env := setupServices(t)
	env.addDriver(t, "d-b", true)
	env.addDriver(t, "d-a", true)
	env.addDriver(t, "d-c", true)
	env.addDriver(t, "d-off", false)
	env.addTrips(t, "d-a", 2, entities.TripStatusOngoing)

	loads, err := env.availability.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := []struct {
		id     string
		active int
	}{{"d-b", 0}, {"d-c", 0}, {"d-a", 2}}
	if len(loads) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(loads))
	}
	for i, w := range want {
		if loads[i].Driver.ID != w.id || loads[i].ActiveTrips != w.active {
			t.Errorf("position %d: got %s/%d, want %s/%d", i, loads[i].Driver.ID, loads[i].ActiveTrips, w.id, w.active)
		}
	}
}

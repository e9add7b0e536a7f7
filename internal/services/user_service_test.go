package services

import (
	"context"
	"errors"
	"testing"
)

func TestUserService_RegisterUser(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     RegisterUserRequest
		wantErr error
	}{
		{name: "passenger", req: RegisterUserRequest{ID: "p-1", Username: "ana", IsPassenger: true}},
		{name: "generated id", req: RegisterUserRequest{Username: "bo", IsDriver: true, IsAvailable: true}},
		{name: "duplicate id", req: RegisterUserRequest{ID: "p-1", Username: "ana2", IsPassenger: true}, wantErr: ErrConflict},
		{name: "no role", req: RegisterUserRequest{Username: "cy"}, wantErr: ErrBadRequest},
		{name: "no username", req: RegisterUserRequest{IsPassenger: true}, wantErr: ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.userSvc.RegisterUser(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterUser failed: %v", err)
			}
			if user.ID == "" {
				t.Error("expected an ID")
			}
		})
	}
}

func TestUserService_PassengerCannotBeAvailable(t *testing.T) {
	env := setupServices(t)
	user, err := env.userSvc.RegisterUser(context.Background(), RegisterUserRequest{
		Username: "ana", IsPassenger: true, IsAvailable: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.IsAvailable {
		t.Error("availability should only be set for drivers")
	}
}

func TestUserService_SetAvailability(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.addDriver(t, "d-1", false)
	env.addPassenger(t, "p-1")

	if _, err := env.userSvc.SetAvailability(ctx, "d-1", true); err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}
	loads, _ := env.availability.Snapshot(ctx)
	if len(loads) != 1 || loads[0].Driver.ID != "d-1" {
		t.Errorf("expected d-1 in the availability index, got %v", loads)
	}

	if _, err := env.userSvc.SetAvailability(ctx, "d-1", false); err != nil {
		t.Fatal(err)
	}
	loads, _ = env.availability.Snapshot(ctx)
	if len(loads) != 0 {
		t.Errorf("expected empty index, got %d", len(loads))
	}

	if _, err := env.userSvc.SetAvailability(ctx, "p-1", true); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for a passenger, got %v", err)
	}
	if _, err := env.userSvc.SetAvailability(ctx, "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVehicleService(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.addDriver(t, "d-1", true)
	env.addDriver(t, "d-2", true)
	env.addPassenger(t, "p-1")

	v, err := env.vehicleSvc.RegisterVehicle(ctx, "d-1", " abc123 ", "Corolla", 4)
	if err != nil {
		t.Fatalf("RegisterVehicle failed: %v", err)
	}
	if v.LicensePlate != "ABC123" {
		t.Errorf("expected normalized plate, got %q", v.LicensePlate)
	}

	tests := []struct {
		name     string
		driverID string
		plate    string
		capacity int
		want     error
	}{
		{name: "duplicate plate", driverID: "d-2", plate: "abc123", capacity: 4, want: ErrConflict},
		{name: "passenger", driverID: "p-1", plate: "XYZ1", capacity: 4, want: ErrForbidden},
		{name: "unknown driver", driverID: "ghost", plate: "XYZ2", capacity: 4, want: ErrNotFound},
		{name: "zero capacity", driverID: "d-2", plate: "XYZ3", capacity: 0, want: ErrBadRequest},
		{name: "empty plate", driverID: "d-2", plate: " ", capacity: 4, want: ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.vehicleSvc.RegisterVehicle(ctx, tt.driverID, tt.plate, "Model", tt.capacity)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, err := env.vehicleSvc.GetVehicle(ctx, v.ID)
	if err != nil || got.DriverID != "d-1" {
		t.Errorf("GetVehicle = %+v, %v", got, err)
	}
	if _, err := env.vehicleSvc.GetVehicle(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	list, _ := env.vehicleSvc.ListVehicles(ctx, "d-2")
	if len(list) != 0 {
		t.Errorf("expected no vehicles for d-2, got %d", len(list))
	}
	list, _ = env.vehicleSvc.ListVehicles(ctx, "")
	if len(list) != 1 {
		t.Errorf("expected 1 vehicle, got %d", len(list))
	}
}

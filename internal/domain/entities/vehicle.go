package entities

import "time"

type Vehicle struct {
	ID           string    `json:"id"`
	DriverID     string    `json:"driver_id"`
	LicensePlate string    `json:"license_plate"`
	Model        string    `json:"model"`
	Capacity     int       `json:"capacity"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewVehicle(id, driverID, plate, model string, capacity int) *Vehicle {
	return &Vehicle{
		ID:           id,
		DriverID:     driverID,
		LicensePlate: plate,
		Model:        model,
		Capacity:     capacity,
		CreatedAt:    time.Now(),
	}
}

package memory

import "rides/internal/repository"

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.VehicleRepository = (*VehicleRepository)(nil)
	_ repository.TripRepository    = (*TripRepository)(nil)
	_ repository.RatingRepository  = (*RatingRepository)(nil)
)

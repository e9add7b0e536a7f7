package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rides/internal/domain/entities"
	"rides/internal/repository"
	"rides/pkg/utils"
)

// RegisterUserRequest is the input for RegisterUser.
type RegisterUserRequest struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsDriver    bool   `json:"is_driver"`
	IsPassenger bool   `json:"is_passenger"`
	IsAvailable bool   `json:"is_available"`
}

// UserService provisions accounts and flips driver availability.
type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger.Named("users")}
}

// RegisterUser creates an account. An empty ID gets a generated one. A user
// must hold at least one role; availability is ignored for non-drivers.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*entities.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, newError(ErrBadRequest, "username", "", nil)
	}
	if !req.IsDriver && !req.IsPassenger {
		return nil, newError(ErrBadRequest, "role", "", nil)
	}
	id := req.ID
	if id == "" {
		id = utils.GenerateID()
	}

	user := entities.NewUser(id, req.Username, req.Email, req.IsDriver, req.IsPassenger)
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.IsAvailable = req.IsDriver && req.IsAvailable

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeError("user", id, err, nil)
	}
	s.logger.Info("user registered",
		zap.String("user_id", id),
		zap.Bool("driver", user.IsDriver),
		zap.Bool("passenger", user.IsPassenger),
	)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", userID, err, repository.ErrUserNotFound)
	}
	return user, nil
}

// SetAvailability is the only way a driver enters or leaves the dispatch pool.
// It does not touch the driver's existing trips.
func (s *UserService) SetAvailability(ctx context.Context, driverID string, available bool) (*entities.User, error) {
	user, err := s.GetUser(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !user.IsDriver {
		return nil, newError(ErrForbidden, "driver", driverID, nil)
	}

	user.SetAvailability(available)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeError("user", driverID, err, repository.ErrUserNotFound)
	}
	s.logger.Info("driver availability changed",
		zap.String("driver_id", driverID),
		zap.Bool("available", available),
	)
	return user, nil
}

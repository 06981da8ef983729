package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideService interface {
	// Driver operations
	CreateRide(ctx context.Context, driverID primitive.ObjectID, request *validators.CreateRideRequest) (*models.Ride, error)
	StartRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	CompleteRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	CancelRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	ListDriverRides(ctx context.Context, driverID primitive.ObjectID, status string, params *utils.PaginationParams) ([]*models.Ride, int64, error)

	// Rider operations
	ListOpenRides(ctx context.Context, riderID primitive.ObjectID, destination string, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)

	// Shared
	ActiveRide(ctx context.Context, userID primitive.ObjectID) (*ActiveRide, error)
}

// ActiveRide is the started ride the user is currently part of, and in which role.
type ActiveRide struct {
	Ride *models.Ride `json:"ride"`
	As   models.Role  `json:"as"`
}

// riders with these request statuses hear about ride status changes
var notifiedRequestStatuses = []models.RequestStatus{models.RequestStatusPending, models.RequestStatusAccepted}

type rideService struct {
	rideRepo    interfaces.RideRepository
	requestRepo interfaces.RideRequestRepository
	userRepo    interfaces.UserRepository
	events      EventPublisher
	logger      *logger.Logger
	now         Clock
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	requestRepo interfaces.RideRequestRepository,
	userRepo interfaces.UserRepository,
	events EventPublisher,
	logger *logger.Logger,
) RideService {
	return &rideService{
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		events:      events,
		logger:      logger,
		now:         systemClock,
	}
}

func (s *rideService) CreateRide(ctx context.Context, driverID primitive.ObjectID, request *validators.CreateRideRequest) (*models.Ride, error) {
	request.Normalize()
	now := s.now()
	if err := validationError(validators.ValidateCreateRide(request, now)); err != nil {
		return nil, err
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, storeError("driver", "ride creation", err)
	}

	ride := &models.Ride{
		DriverID:          driver.ID,
		DriverName:        driver.FullName,
		DriverPhone:       driver.PhoneNumber,
		DepartureLocation: request.DepartureLocation,
		Destination:       request.Destination,
		MeetingPoint:      request.MeetingPoint,
		DepartureDateTime: request.DepartureDateTime.UTC(),
		TotalSeats:        request.AvailableSeats,
		AvailableSeats:    request.AvailableSeats,
		RideConditions:    request.RideConditions,
		Status:            models.RideStatusWaiting,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		s.logger.WithUserID(driverID).WithError(err).Error("Failed to create ride")
		return nil, storeError("ride", "ride creation", err)
	}

	s.logger.LogRideEvent(ride.ID, "created", map[string]interface{}{
		"driver_id": driverID.Hex(),
		"seats":     ride.TotalSeats,
	})
	s.events.Publish(ctx, &models.Event{
		Type:       models.EventRideCreated,
		RideID:     ride.ID,
		ActorID:    driverID,
		Recipients: []primitive.ObjectID{driverID},
		Data:       map[string]interface{}{"ride": ride},
		OccurredAt: now,
	})
	return ride, nil
}

func (s *rideService) StartRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	return s.transition(ctx, driverID, rideID, models.RideStatusStarted, models.EventRideStarted,
		"Your ride has started", "%s is on the way to %s")
}

func (s *rideService) CompleteRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	return s.transition(ctx, driverID, rideID, models.RideStatusCompleted, models.EventRideCompleted,
		"Ride completed", "Your ride with %s to %s is complete. Leave a review!")
}

// CancelRide leaves the ride's requests untouched; bookings on a cancelled
// ride move to the rider's completed list on the next read.
func (s *rideService) CancelRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	return s.transition(ctx, driverID, rideID, models.RideStatusCancelled, models.EventRideCancelled,
		"Ride cancelled", "%s cancelled the ride to %s")
}

func (s *rideService) transition(
	ctx context.Context,
	driverID, rideID primitive.ObjectID,
	to models.RideStatus,
	eventType models.EventType,
	title, bodyFormat string,
) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "ride update", err)
	}
	if !ride.IsOwnedBy(driverID) {
		return nil, apperrors.NotOwner("ride")
	}
	if err := models.CheckRideTransition(ride.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.rideRepo.TransitionStatus(ctx, rideID, ride.Status, to, now)
	if errors.Is(err, interfaces.ErrConflict) {
		current := ride.Status
		if fresh, getErr := s.rideRepo.GetByID(ctx, rideID); getErr == nil {
			current = fresh.Status
		}
		return nil, apperrors.InvalidTransition("ride", string(current), string(to))
	}
	if err != nil {
		return nil, storeError("ride", "ride update", err)
	}

	s.logger.LogRideEvent(rideID, strings.ToLower(string(to)), map[string]interface{}{
		"from": ride.Status,
	})

	recipients := []primitive.ObjectID{driverID}
	requests, err := s.requestRepo.ListByRide(ctx, rideID, notifiedRequestStatuses)
	if err != nil {
		s.logger.WithRideID(rideID).WithError(err).Warn("Failed to load riders to notify")
	}
	for _, request := range requests {
		recipients = append(recipients, request.RiderID)
	}

	s.events.Publish(ctx, &models.Event{
		Type:       eventType,
		RideID:     rideID,
		ActorID:    driverID,
		Recipients: recipients,
		Title:      title,
		Body:       fmt.Sprintf(bodyFormat, updated.DriverName, updated.Destination),
		Data:       map[string]interface{}{"ride": updated},
		OccurredAt: now,
	})
	return updated, nil
}

func (s *rideService) ListDriverRides(ctx context.Context, driverID primitive.ObjectID, status string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	var statuses []models.RideStatus
	if status != "" {
		parsed, err := models.ParseRideStatus(status)
		if err != nil {
			return nil, 0, apperrors.ValidationField("status", err.Error())
		}
		statuses = append(statuses, parsed)
	}

	rides, total, err := s.rideRepo.ListByDriver(ctx, driverID, statuses, params)
	if err != nil {
		return nil, 0, storeError("ride", "ride list", err)
	}
	return rides, total, nil
}

func (s *rideService) ListOpenRides(ctx context.Context, riderID primitive.ObjectID, destination string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides, total, err := s.rideRepo.ListOpen(ctx, interfaces.OpenRideFilter{
		DepartsAfter:  s.now(),
		Destination:   strings.TrimSpace(destination),
		ExcludeDriver: riderID,
	}, params)
	if err != nil {
		return nil, 0, storeError("ride", "ride search", err)
	}
	return rides, total, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "ride lookup", err)
	}
	return ride, nil
}

// ActiveRide returns nil when the user is in no started ride. A ride the user
// drives wins over one they ride in.
func (s *rideService) ActiveRide(ctx context.Context, userID primitive.ObjectID) (*ActiveRide, error) {
	driving, _, err := s.rideRepo.ListByDriver(ctx, userID, []models.RideStatus{models.RideStatusStarted}, &utils.PaginationParams{
		Page:     1,
		PageSize: 1,
		Sort:     "departure_date_time",
		Order:    "desc",
	})
	if err != nil {
		return nil, storeError("ride", "active ride", err)
	}
	if len(driving) > 0 {
		return &ActiveRide{Ride: driving[0], As: models.RoleDriver}, nil
	}

	requests, err := s.requestRepo.ListByRider(ctx, userID)
	if err != nil {
		return nil, storeError("ride request", "active ride", err)
	}
	var rideIDs []primitive.ObjectID
	for _, request := range requests {
		if request.Status == models.RequestStatusAccepted {
			rideIDs = append(rideIDs, request.RideID)
		}
	}
	if len(rideIDs) == 0 {
		return nil, nil
	}

	rides, err := s.rideRepo.GetByIDs(ctx, rideIDs)
	if err != nil {
		return nil, storeError("ride", "active ride", err)
	}
	for _, ride := range rides {
		if ride.Status == models.RideStatusStarted {
			return &ActiveRide{Ride: ride, As: models.RoleRider}, nil
		}
	}
	return nil, nil
}

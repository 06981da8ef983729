package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRequestService interface {
	// Rider operations
	Submit(ctx context.Context, riderID primitive.ObjectID, request *validators.SubmitRideRequestRequest) (*models.RideRequest, error)
	Withdraw(ctx context.Context, riderID, requestID primitive.ObjectID) (*models.RideRequest, error)
	ListRiderRequests(ctx context.Context, riderID primitive.ObjectID) ([]*models.RideRequest, error)

	// Driver operations
	Accept(ctx context.Context, driverID, requestID primitive.ObjectID) (*models.RideRequest, error)
	Decline(ctx context.Context, driverID, requestID primitive.ObjectID) (*models.RideRequest, error)
	ListDriverRequests(ctx context.Context, driverID primitive.ObjectID, status, rideID string, params *utils.PaginationParams) ([]*models.RideRequest, int64, error)
}

type rideRequestService struct {
	rideRepo    interfaces.RideRepository
	requestRepo interfaces.RideRequestRepository
	userRepo    interfaces.UserRepository
	events      EventPublisher
	logger      *logger.Logger
	now         Clock
}

func NewRideRequestService(
	rideRepo interfaces.RideRepository,
	requestRepo interfaces.RideRequestRepository,
	userRepo interfaces.UserRepository,
	events EventPublisher,
	logger *logger.Logger,
) RideRequestService {
	return &rideRequestService{
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		events:      events,
		logger:      logger,
		now:         systemClock,
	}
}

func (s *rideRequestService) Submit(ctx context.Context, riderID primitive.ObjectID, request *validators.SubmitRideRequestRequest) (*models.RideRequest, error) {
	if err := validationError(validators.ValidateSubmitRideRequest(request)); err != nil {
		return nil, err
	}
	rideID, err := validators.ParseObjectID(request.RideID)
	if err != nil {
		return nil, apperrors.ValidationField("ride_id", "invalid ride id")
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "ride request", err)
	}
	if ride.IsOwnedBy(riderID) {
		return nil, apperrors.ValidationField("ride_id", "you cannot request a seat on your own ride")
	}

	existing, err := s.requestRepo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, storeError("ride request", "ride request", err)
	}
	for _, r := range existing {
		if r.RideID == rideID && r.Status.BlocksResubmission() {
			return nil, apperrors.DuplicateRequest()
		}
	}

	if !ride.IsOpen() {
		return nil, apperrors.RideNotOpen(string(ride.Status))
	}

	rider, err := s.userRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, storeError("rider", "ride request", err)
	}

	now := s.now()
	rideRequest := models.NewRideRequest(ride, rider, request.Message, now)
	if err := s.requestRepo.Create(ctx, rideRequest); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, apperrors.DuplicateRequest()
		}
		s.logger.WithUserID(riderID).WithRideID(rideID).WithError(err).Error("Failed to create ride request")
		return nil, storeError("ride request", "ride request", err)
	}

	s.logger.LogRideEvent(rideID, "request_submitted", map[string]interface{}{
		"request_id": rideRequest.ID.Hex(),
		"rider_id":   riderID.Hex(),
	})
	s.events.Publish(ctx, &models.Event{
		Type:       models.EventRequestSubmitted,
		RideID:     rideID,
		RequestID:  rideRequest.ID,
		ActorID:    riderID,
		Recipients: []primitive.ObjectID{ride.DriverID},
		Title:      "New ride request",
		Body:       fmt.Sprintf("%s asked to join your ride to %s", rider.FullName, ride.Destination),
		Data:       map[string]interface{}{"request": rideRequest},
		OccurredAt: now,
	})
	return rideRequest, nil
}

// Accept takes a seat on the ride before marking the request accepted. If the
// request was decided elsewhere in between, the seat is given back.
func (s *rideRequestService) Accept(ctx context.Context, driverID, requestID primitive.ObjectID) (*models.RideRequest, error) {
	rideRequest, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError("ride request", "ride request update", err)
	}
	if rideRequest.DriverID != driverID {
		return nil, apperrors.NotOwner("ride request")
	}
	if err := models.CheckRequestTransition(rideRequest.Status, models.RequestStatusAccepted); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.rideRepo.ReserveSeat(ctx, rideRequest.RideID, now); err != nil {
		return nil, s.seatError(ctx, rideRequest.RideID, err)
	}

	accepted, err := s.requestRepo.TransitionStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusAccepted, now)
	if err != nil {
		if releaseErr := s.rideRepo.ReleaseSeat(ctx, rideRequest.RideID, s.now()); releaseErr != nil {
			s.logger.WithRideID(rideRequest.RideID).WithError(releaseErr).Error("Failed to release seat after lost accept")
		}
		return nil, s.requestTransitionError(ctx, requestID, models.RequestStatusAccepted, err)
	}

	s.decided(ctx, accepted, driverID, models.EventRequestAccepted, "Request accepted",
		fmt.Sprintf("%s accepted your request for the ride to %s", accepted.DriverName, accepted.Destination), now)
	return accepted, nil
}

func (s *rideRequestService) Decline(ctx context.Context, driverID, requestID primitive.ObjectID) (*models.RideRequest, error) {
	rideRequest, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError("ride request", "ride request update", err)
	}
	if rideRequest.DriverID != driverID {
		return nil, apperrors.NotOwner("ride request")
	}
	if err := models.CheckRequestTransition(rideRequest.Status, models.RequestStatusDeclined); err != nil {
		return nil, err
	}

	now := s.now()
	declined, err := s.requestRepo.TransitionStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusDeclined, now)
	if err != nil {
		return nil, s.requestTransitionError(ctx, requestID, models.RequestStatusDeclined, err)
	}

	s.decided(ctx, declined, driverID, models.EventRequestDeclined, "Request declined",
		fmt.Sprintf("%s declined your request for the ride to %s", declined.DriverName, declined.Destination), now)
	return declined, nil
}

func (s *rideRequestService) Withdraw(ctx context.Context, riderID, requestID primitive.ObjectID) (*models.RideRequest, error) {
	rideRequest, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError("ride request", "ride request update", err)
	}
	if rideRequest.RiderID != riderID {
		return nil, apperrors.NotOwner("ride request")
	}
	if err := models.CheckRequestTransition(rideRequest.Status, models.RequestStatusWithdrawn); err != nil {
		return nil, err
	}

	now := s.now()
	withdrawn, err := s.requestRepo.TransitionStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusWithdrawn, now)
	if err != nil {
		return nil, s.requestTransitionError(ctx, requestID, models.RequestStatusWithdrawn, err)
	}

	s.logger.LogRideEvent(withdrawn.RideID, "request_withdrawn", map[string]interface{}{
		"request_id": requestID.Hex(),
	})
	s.events.Publish(ctx, &models.Event{
		Type:       models.EventRequestWithdrawn,
		RideID:     withdrawn.RideID,
		RequestID:  withdrawn.ID,
		ActorID:    riderID,
		Recipients: []primitive.ObjectID{withdrawn.DriverID},
		Data:       map[string]interface{}{"request": withdrawn},
		OccurredAt: now,
	})
	return withdrawn, nil
}

func (s *rideRequestService) ListRiderRequests(ctx context.Context, riderID primitive.ObjectID) ([]*models.RideRequest, error) {
	requests, err := s.requestRepo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, storeError("ride request", "ride request list", err)
	}
	return requests, nil
}

func (s *rideRequestService) ListDriverRequests(ctx context.Context, driverID primitive.ObjectID, status, rideID string, params *utils.PaginationParams) ([]*models.RideRequest, int64, error) {
	var filter interfaces.RideRequestFilter
	if status != "" {
		parsed, err := models.ParseRequestStatus(status)
		if err != nil {
			return nil, 0, apperrors.ValidationField("status", err.Error())
		}
		filter.Status = &parsed
	}
	if rideID != "" {
		id, err := validators.ParseObjectID(rideID)
		if err != nil {
			return nil, 0, apperrors.ValidationField("ride_id", "invalid ride id")
		}
		filter.RideID = &id
	}

	requests, total, err := s.requestRepo.ListByDriver(ctx, driverID, filter, params)
	if err != nil {
		return nil, 0, storeError("ride request", "ride request list", err)
	}
	return requests, total, nil
}

func (s *rideRequestService) decided(ctx context.Context, request *models.RideRequest, driverID primitive.ObjectID, eventType models.EventType, title, body string, now time.Time) {
	s.logger.LogRideEvent(request.RideID, string(eventType), map[string]interface{}{
		"request_id": request.ID.Hex(),
		"rider_id":   request.RiderID.Hex(),
	})
	s.events.Publish(ctx, &models.Event{
		Type:       eventType,
		RideID:     request.RideID,
		RequestID:  request.ID,
		ActorID:    driverID,
		Recipients: []primitive.ObjectID{request.RiderID},
		Title:      title,
		Body:       body,
		Data:       map[string]interface{}{"request": request},
		OccurredAt: now,
	})
}

// seatError explains why ReserveSeat refused by looking at the ride again.
func (s *rideRequestService) seatError(ctx context.Context, rideID primitive.ObjectID, err error) error {
	if !errors.Is(err, interfaces.ErrConflict) {
		return storeError("ride", "seat reservation", err)
	}
	ride, getErr := s.rideRepo.GetByID(ctx, rideID)
	if getErr != nil {
		return storeError("ride", "seat reservation", getErr)
	}
	if !ride.IsOpen() {
		return apperrors.RideNotOpen(string(ride.Status))
	}
	if !ride.HasAvailableSeats() {
		return apperrors.RideFull()
	}
	return apperrors.Conflict("seat availability changed, try again")
}

func (s *rideRequestService) requestTransitionError(ctx context.Context, requestID primitive.ObjectID, to models.RequestStatus, err error) error {
	if !errors.Is(err, interfaces.ErrConflict) {
		return storeError("ride request", "ride request update", err)
	}
	current := models.RequestStatusPending
	if fresh, getErr := s.requestRepo.GetByID(ctx, requestID); getErr == nil {
		current = fresh.Status
	}
	return apperrors.InvalidTransition("ride request", string(current), string(to))
}

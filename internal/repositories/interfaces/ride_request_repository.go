package interfaces

import (
	"context"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRequestFilter struct {
	Status *models.RequestStatus
	RideID *primitive.ObjectID
}

type RideRequestRepository interface {
	// Create stores a PENDING request. It returns ErrDuplicate when the rider
	// already holds a request for the ride that was not declined.
	Create(ctx context.Context, request *models.RideRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.RideRequest, error)

	ListByRider(ctx context.Context, riderID primitive.ObjectID) ([]*models.RideRequest, error)
	ListByDriver(ctx context.Context, driverID primitive.ObjectID, filter RideRequestFilter, params *utils.PaginationParams) ([]*models.RideRequest, int64, error)
	ListByRide(ctx context.Context, rideID primitive.ObjectID, statuses []models.RequestStatus) ([]*models.RideRequest, error)
	FindByRideAndRider(ctx context.Context, rideID, riderID primitive.ObjectID, status models.RequestStatus) (*models.RideRequest, error)

	// TransitionStatus applies the change only while the request is still in
	// the expected status and returns ErrConflict otherwise.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, at time.Time) (*models.RideRequest, error)
}

package interfaces

import (
	"context"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OpenRideFilter selects rides a rider may still request.
type OpenRideFilter struct {
	DepartsAfter  time.Time
	Destination   string
	ExcludeDriver primitive.ObjectID
}

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Ride, error)

	ListByDriver(ctx context.Context, driverID primitive.ObjectID, statuses []models.RideStatus, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	// ListOpen returns WAITING rides with a free seat, soonest departure first.
	ListOpen(ctx context.Context, filter OpenRideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error)

	// TransitionStatus moves the ride from one status to another only if it is
	// still in the expected status, stamping the matching timestamp field.
	// It returns ErrConflict when the ride exists in another status.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RideStatus, at time.Time) (*models.Ride, error)
	// ReserveSeat takes one seat from a WAITING ride. It returns ErrConflict
	// when the ride is no longer WAITING or has no seat left.
	ReserveSeat(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error)
	// ReleaseSeat gives back a seat taken by ReserveSeat.
	ReleaseSeat(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

package mongodb

import (
	"context"
	"fmt"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRequestRepository struct {
	collection *mongo.Collection
}

func NewRideRequestRepository(db *mongo.Database) interfaces.RideRequestRepository {
	return &rideRequestRepository{
		collection: db.Collection(database.RideRequestsCollection),
	}
}

// Create relies on the partial unique index over (ride_id, rider_id) for
// non-declined requests to reject duplicates atomically.
func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, request)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}
	return nil
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RideRequest, error) {
	return findOne[models.RideRequest](ctx, r.collection, bson.M{"_id": id}, "ride request")
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *rideRequestRepository) ListByRider(ctx context.Context, riderID primitive.ObjectID) ([]*models.RideRequest, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"rider_id": riderID}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to find rider requests: %w", err)
	}
	return decodeAll[models.RideRequest](ctx, cursor, "ride request")
}

func (r *rideRequestRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID, filter interfaces.RideRequestFilter, params *utils.PaginationParams) ([]*models.RideRequest, int64, error) {
	query := bson.M{"driver_id": driverID}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.RideID != nil {
		query["ride_id"] = *filter.RideID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count driver requests: %w", err)
	}

	opts := newestFirst().
		SetSkip(int64(params.GetSkip())).
		SetLimit(int64(params.GetLimit()))
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find driver requests: %w", err)
	}

	requests, err := decodeAll[models.RideRequest](ctx, cursor, "ride request")
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *rideRequestRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID, statuses []models.RequestStatus) ([]*models.RideRequest, error) {
	query := bson.M{"ride_id": rideID}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}

	cursor, err := r.collection.Find(ctx, query, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to find ride requests: %w", err)
	}
	return decodeAll[models.RideRequest](ctx, cursor, "ride request")
}

func (r *rideRequestRepository) FindByRideAndRider(ctx context.Context, rideID, riderID primitive.ObjectID, status models.RequestStatus) (*models.RideRequest, error) {
	return findOne[models.RideRequest](ctx, r.collection,
		bson.M{"ride_id": rideID, "rider_id": riderID, "status": status},
		"ride request",
	)
}

func (r *rideRequestRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, at time.Time) (*models.RideRequest, error) {
	set := bson.M{"status": to, "updated_at": at}
	if field := models.RequestStatusTimestampField(to); field != "" {
		set[field] = at
	}

	return casUpdate[models.RideRequest](ctx, r.collection, id,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		"ride request status",
	)
}

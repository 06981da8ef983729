package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
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

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(database.RidesCollection),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, ride)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	return findOne[models.Ride](ctx, r.collection, bson.M{"_id": id}, "ride")
}

func (r *rideRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Ride, error) {
	if len(ids) == 0 {
		return []*models.Ride{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find rides: %w", err)
	}
	return decodeAll[models.Ride](ctx, cursor, "rides")
}

func (r *rideRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID, statuses []models.RideStatus, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	filter := bson.M{"driver_id": driverID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.findRidesWithFilter(ctx, filter, params.GetSortOptions())
}

func (r *rideRepository) ListOpen(ctx context.Context, filter interfaces.OpenRideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	query := bson.M{
		"status":              models.RideStatusWaiting,
		"available_seats":     bson.M{"$gt": 0},
		"departure_date_time": bson.M{"$gt": filter.DepartsAfter},
	}
	if destination := strings.TrimSpace(filter.Destination); destination != "" {
		query["destination"] = bson.M{"$regex": regexp.QuoteMeta(destination), "$options": "i"}
	}
	if !filter.ExcludeDriver.IsZero() {
		query["driver_id"] = bson.M{"$ne": filter.ExcludeDriver}
	}

	opts := options.Find().
		SetSkip(int64(params.GetSkip())).
		SetLimit(int64(params.GetLimit())).
		SetSort(bson.D{{Key: "departure_date_time", Value: 1}, {Key: "_id", Value: 1}})
	return r.findRidesWithFilter(ctx, query, opts)
}

func (r *rideRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RideStatus, at time.Time) (*models.Ride, error) {
	set := bson.M{"status": to, "updated_at": at}
	if field := models.RideStatusTimestampField(to); field != "" {
		set[field] = at
	}

	return casUpdate[models.Ride](ctx, r.collection, id,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		"ride status",
	)
}

func (r *rideRepository) ReserveSeat(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error) {
	return casUpdate[models.Ride](ctx, r.collection, id,
		bson.M{
			"_id":             id,
			"status":          models.RideStatusWaiting,
			"available_seats": bson.M{"$gt": 0},
		},
		bson.M{
			"$inc": bson.M{"available_seats": -1},
			"$set": bson.M{"updated_at": at},
		},
		"ride seats",
	)
}

func (r *rideRepository) ReleaseSeat(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := casUpdate[models.Ride](ctx, r.collection, id,
		bson.M{
			"_id":   id,
			"$expr": bson.M{"$lt": bson.A{"$available_seats", "$total_seats"}},
		},
		bson.M{
			"$inc": bson.M{"available_seats": 1},
			"$set": bson.M{"updated_at": at},
		},
		"ride seats",
	)
	return err
}

func (r *rideRepository) findRidesWithFilter(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}

	rides, err := decodeAll[models.Ride](ctx, cursor, "ride")
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

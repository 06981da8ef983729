package mongodb

import (
	"context"
	"fmt"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type emergencyRepository struct {
	collection *mongo.Collection
}

func NewEmergencyRepository(db *mongo.Database) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection(database.EmergenciesCollection),
	}
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	if emergency.ID.IsZero() {
		emergency.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, emergency); err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}
	return nil
}

func (r *emergencyRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.Emergency, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to find emergencies: %w", err)
	}
	return decodeAll[models.Emergency](ctx, cursor, "emergency")
}

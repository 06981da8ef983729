package interfaces

import (
	"context"

	"unicarpool/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyRepository interface {
	Create(ctx context.Context, emergency *models.Emergency) error
	ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.Emergency, error)
}

package interfaces

import (
	"context"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewRepository interface {
	// Create returns ErrDuplicate when the reviewer already reviewed the
	// reviewee for the ride.
	Create(ctx context.Context, review *models.Review) error
	Exists(ctx context.Context, rideID, reviewerID primitive.ObjectID) (bool, error)
	ListByReviewer(ctx context.Context, reviewerID primitive.ObjectID) ([]*models.Review, error)
	ListByReviewee(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error)
	GetStats(ctx context.Context, userID primitive.ObjectID) (*models.RatingStats, error)
}

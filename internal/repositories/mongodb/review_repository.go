package mongodb

import (
	"context"
	"fmt"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/pkg/cache"
	"unicarpool/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ratingStatsTTL = 15 * time.Minute

type reviewRepository struct {
	collection *mongo.Collection
	cache      cache.Cache
}

func NewReviewRepository(db *mongo.Database, c cache.Cache) interfaces.ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(database.ReviewsCollection),
		cache:      c,
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	r.invalidateStats(ctx, review.RevieweeID)
	return nil
}

func (r *reviewRepository) Exists(ctx context.Context, rideID, reviewerID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx,
		bson.M{"ride_id": rideID, "reviewer_id": reviewerID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return count > 0, nil
}

func (r *reviewRepository) ListByReviewer(ctx context.Context, reviewerID primitive.ObjectID) ([]*models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"reviewer_id": reviewerID}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	return decodeAll[models.Review](ctx, cursor, "review")
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	filter := bson.M{"reviewee_id": revieweeID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews, err := decodeAll[models.Review](ctx, cursor, "review")
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) GetStats(ctx context.Context, userID primitive.ObjectID) (*models.RatingStats, error) {
	cacheKey := utils.CacheRatingStatsPrefix + userID.Hex()
	if r.cache != nil {
		var cached models.RatingStats
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reviewee_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rating stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := models.NewRatingStats(userID)
	for cursor.Next(ctx) {
		var bucket struct {
			Rating int   `bson:"_id"`
			Count  int64 `bson:"count"`
		}
		if err := cursor.Decode(&bucket); err != nil {
			return nil, fmt.Errorf("failed to decode rating distribution: %w", err)
		}
		stats.Add(bucket.Rating, bucket.Count)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rating distribution: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, stats, ratingStatsTTL)
	}
	return stats, nil
}

func (r *reviewRepository) invalidateStats(ctx context.Context, userID primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	// A failed delete leaves a stale entry until ratingStatsTTL elapses.
	_ = r.cache.Delete(ctx, utils.CacheRatingStatsPrefix+userID.Hex())
}

package memory

import (
	"context"
	"sync"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewRepository struct {
	mu      sync.RWMutex
	reviews map[primitive.ObjectID]*models.Review
}

func NewReviewRepository() interfaces.ReviewRepository {
	return &reviewRepository{reviews: make(map[primitive.ObjectID]*models.Review)}
}

func (r *reviewRepository) Create(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.RideID == review.RideID && existing.ReviewerID == review.ReviewerID && existing.RevieweeID == review.RevieweeID {
			return interfaces.ErrDuplicate
		}
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	c := *review
	r.reviews[review.ID] = &c
	return nil
}

func (r *reviewRepository) Exists(_ context.Context, rideID, reviewerID primitive.ObjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, review := range r.reviews {
		if review.RideID == rideID && review.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewRepository) collect(match func(*models.Review) bool) []*models.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []*models.Review
	for _, review := range r.reviews {
		if match(review) {
			c := *review
			reviews = append(reviews, &c)
		}
	}
	sortNewestFirst(reviews,
		func(rv *models.Review) time.Time { return rv.CreatedAt },
		func(rv *models.Review) primitive.ObjectID { return rv.ID })
	return reviews
}

func (r *reviewRepository) ListByReviewer(_ context.Context, reviewerID primitive.ObjectID) ([]*models.Review, error) {
	return r.collect(func(rv *models.Review) bool { return rv.ReviewerID == reviewerID }), nil
}

func (r *reviewRepository) ListByReviewee(_ context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	reviews := r.collect(func(rv *models.Review) bool { return rv.RevieweeID == revieweeID })
	items, total := page(reviews, params)
	return items, total, nil
}

func (r *reviewRepository) GetStats(_ context.Context, userID primitive.ObjectID) (*models.RatingStats, error) {
	stats := models.NewRatingStats(userID)
	for _, review := range r.collect(func(rv *models.Review) bool { return rv.RevieweeID == userID }) {
		stats.Add(review.Rating, 1)
	}
	return stats, nil
}

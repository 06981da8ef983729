package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating left after a completed ride, either by a rider for the
// driver or by the driver for one passenger. One per (ride, reviewer, reviewee).
type Review struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID       primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	ReviewerID   primitive.ObjectID `json:"reviewer_id" bson:"reviewer_id"`
	RevieweeID   primitive.ObjectID `json:"reviewee_id" bson:"reviewee_id"`
	RevieweeRole Role               `json:"reviewee_role" bson:"reviewee_role"`
	Rating       int                `json:"rating" bson:"rating"`
	Comment      string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

type RatingStats struct {
	UserID       primitive.ObjectID `json:"user_id" bson:"_id"`
	Average      float64            `json:"average" bson:"average"`
	Total        int64              `json:"total" bson:"total"`
	Distribution map[int]int64      `json:"distribution" bson:"-"`
}

// NewRatingStats returns empty stats with every rating bucket present.
func NewRatingStats(userID primitive.ObjectID) *RatingStats {
	distribution := make(map[int]int64, MaxRating)
	for rating := MinRating; rating <= MaxRating; rating++ {
		distribution[rating] = 0
	}
	return &RatingStats{UserID: userID, Distribution: distribution}
}

// Add folds count ratings of value rating into the stats.
func (s *RatingStats) Add(rating int, count int64) {
	if rating < MinRating || rating > MaxRating || count <= 0 {
		return
	}
	sum := s.Average*float64(s.Total) + float64(rating)*float64(count)
	s.Total += count
	s.Distribution[rating] += count
	s.Average = sum / float64(s.Total)
}

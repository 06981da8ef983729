package services

import (
	"context"
	"errors"
	"fmt"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewService interface {
	SubmitReview(ctx context.Context, reviewerID primitive.ObjectID, request *validators.ReviewRequest) (*models.Review, error)
	SubmitPassengerReview(ctx context.Context, driverID primitive.ObjectID, request *validators.PassengerReviewRequest) (*models.Review, error)
	ReviewsForUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error)
	RatingStats(ctx context.Context, userID primitive.ObjectID) (*models.RatingStats, error)
	ReviewStatus(ctx context.Context, rideID, reviewerID primitive.ObjectID) (*ReviewStatus, error)
}

type ReviewStatus struct {
	RideID    primitive.ObjectID `json:"ride_id"`
	Reviewed  bool               `json:"reviewed"`
	CanReview bool               `json:"can_review"`
}

type reviewService struct {
	reviewRepo  interfaces.ReviewRepository
	rideRepo    interfaces.RideRepository
	requestRepo interfaces.RideRequestRepository
	events      EventPublisher
	logger      *logger.Logger
	now         Clock
}

func NewReviewService(
	reviewRepo interfaces.ReviewRepository,
	rideRepo interfaces.RideRepository,
	requestRepo interfaces.RideRequestRepository,
	events EventPublisher,
	logger *logger.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		events:      events,
		logger:      logger,
		now:         systemClock,
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, reviewerID primitive.ObjectID, request *validators.ReviewRequest) (*models.Review, error) {
	if err := validationError(validators.ValidateReview(request)); err != nil {
		return nil, err
	}
	rideID, err := validators.ParseObjectID(request.RideID)
	if err != nil {
		return nil, apperrors.ValidationField("ride_id", "invalid ride id")
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "review", err)
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, apperrors.ReviewNotAllowed("rides can be reviewed once they are completed")
	}

	accepted, err := s.hasAcceptedRequest(ctx, rideID, reviewerID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperrors.ReviewNotAllowed("only riders who were accepted on this ride can review it")
	}

	reviewed, err := s.reviewRepo.Exists(ctx, rideID, reviewerID)
	if err != nil {
		return nil, storeError("review", "review", err)
	}
	if reviewed {
		return nil, apperrors.AlreadyReviewed()
	}

	return s.create(ctx, &models.Review{
		RideID:       rideID,
		ReviewerID:   reviewerID,
		RevieweeID:   ride.DriverID,
		RevieweeRole: models.RoleDriver,
		Rating:       request.Rating,
		Comment:      request.Comment,
	})
}

// SubmitPassengerReview lets the driver of a completed ride rate a passenger
// who was accepted on it.
func (s *reviewService) SubmitPassengerReview(ctx context.Context, driverID primitive.ObjectID, request *validators.PassengerReviewRequest) (*models.Review, error) {
	if err := validationError(validators.ValidatePassengerReview(request)); err != nil {
		return nil, err
	}
	rideID, err := validators.ParseObjectID(request.RideID)
	if err != nil {
		return nil, apperrors.ValidationField("ride_id", "invalid ride id")
	}
	passengerID, err := validators.ParseObjectID(request.PassengerID)
	if err != nil {
		return nil, apperrors.ValidationField("passenger_id", "invalid passenger id")
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "review", err)
	}
	if !ride.IsOwnedBy(driverID) {
		return nil, apperrors.NotOwner("ride")
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, apperrors.ReviewNotAllowed("passengers can be reviewed once the ride is completed")
	}

	accepted, err := s.hasAcceptedRequest(ctx, rideID, passengerID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperrors.ReviewNotAllowed("only passengers who were accepted on this ride can be reviewed")
	}

	return s.create(ctx, &models.Review{
		RideID:       rideID,
		ReviewerID:   driverID,
		RevieweeID:   passengerID,
		RevieweeRole: models.RoleRider,
		Rating:       request.Rating,
		Comment:      request.Comment,
	})
}

func (s *reviewService) create(ctx context.Context, review *models.Review) (*models.Review, error) {
	now := s.now()
	review.CreatedAt = now
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, apperrors.AlreadyReviewed()
		}
		return nil, storeError("review", "review", err)
	}

	s.logger.LogRideEvent(review.RideID, "reviewed", map[string]interface{}{
		"reviewer_id":   review.ReviewerID.Hex(),
		"reviewee_id":   review.RevieweeID.Hex(),
		"reviewee_role": review.RevieweeRole,
		"rating":        review.Rating,
	})
	s.events.Publish(ctx, &models.Event{
		Type:       models.EventReviewCreated,
		RideID:     review.RideID,
		ActorID:    review.ReviewerID,
		Recipients: []primitive.ObjectID{review.RevieweeID},
		Title:      "New review",
		Body:       fmt.Sprintf("You received a %d-star review", review.Rating),
		Data:       map[string]interface{}{"review": review},
		OccurredAt: now,
	})
	return review, nil
}

func (s *reviewService) ReviewsForUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	reviews, total, err := s.reviewRepo.ListByReviewee(ctx, userID, params)
	if err != nil {
		return nil, 0, storeError("review", "reviews", err)
	}
	return reviews, total, nil
}

func (s *reviewService) RatingStats(ctx context.Context, userID primitive.ObjectID) (*models.RatingStats, error) {
	stats, err := s.reviewRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, storeError("review", "rating stats", err)
	}
	return stats, nil
}

func (s *reviewService) ReviewStatus(ctx context.Context, rideID, reviewerID primitive.ObjectID) (*ReviewStatus, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "review status", err)
	}

	reviewed, err := s.reviewRepo.Exists(ctx, rideID, reviewerID)
	if err != nil {
		return nil, storeError("review", "review status", err)
	}

	status := &ReviewStatus{RideID: rideID, Reviewed: reviewed}
	if ride.Status == models.RideStatusCompleted && !reviewed {
		accepted, err := s.hasAcceptedRequest(ctx, rideID, reviewerID)
		if err != nil {
			return nil, err
		}
		status.CanReview = models.CanReviewRide(ride.Status, models.RequestStatusAccepted, reviewed) && accepted
	}
	return status, nil
}

func (s *reviewService) hasAcceptedRequest(ctx context.Context, rideID, riderID primitive.ObjectID) (bool, error) {
	_, err := s.requestRepo.FindByRideAndRider(ctx, rideID, riderID, models.RequestStatusAccepted)
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError("ride request", "review", err)
	}
	return true, nil
}

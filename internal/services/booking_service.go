package services

import (
	"context"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	// GetBookings loads the rider's requests, their rides and the rider's
	// reviews and buckets them into current and completed bookings.
	GetBookings(ctx context.Context, riderID primitive.ObjectID) (*models.Bookings, error)
}

type bookingService struct {
	rideRepo    interfaces.RideRepository
	requestRepo interfaces.RideRequestRepository
	reviewRepo  interfaces.ReviewRepository
}

func NewBookingService(
	rideRepo interfaces.RideRepository,
	requestRepo interfaces.RideRequestRepository,
	reviewRepo interfaces.ReviewRepository,
) BookingService {
	return &bookingService{
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *bookingService) GetBookings(ctx context.Context, riderID primitive.ObjectID) (*models.Bookings, error) {
	requests, err := s.requestRepo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, storeError("ride request", "bookings", err)
	}

	seen := make(map[primitive.ObjectID]bool, len(requests))
	rideIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, request := range requests {
		if !seen[request.RideID] {
			seen[request.RideID] = true
			rideIDs = append(rideIDs, request.RideID)
		}
	}

	var rides []*models.Ride
	if len(rideIDs) > 0 {
		rides, err = s.rideRepo.GetByIDs(ctx, rideIDs)
		if err != nil {
			return nil, storeError("ride", "bookings", err)
		}
	}

	reviews, err := s.reviewRepo.ListByReviewer(ctx, riderID)
	if err != nil {
		return nil, storeError("review", "bookings", err)
	}

	bookings := models.ProjectBookings(rides, requests, reviews, riderID)
	return &bookings, nil
}

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

type rideRequestRepository struct {
	mu       sync.RWMutex
	requests map[primitive.ObjectID]*models.RideRequest
}

func NewRideRequestRepository() interfaces.RideRequestRepository {
	return &rideRequestRepository{requests: make(map[primitive.ObjectID]*models.RideRequest)}
}

func cloneRequest(r *models.RideRequest) *models.RideRequest {
	c := *r
	c.DecidedAt = cloneTime(r.DecidedAt)
	c.WithdrawnAt = cloneTime(r.WithdrawnAt)
	return &c
}

func (r *rideRequestRepository) Create(_ context.Context, request *models.RideRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.RideID == request.RideID && existing.RiderID == request.RiderID && existing.Status.BlocksResubmission() {
			return interfaces.ErrDuplicate
		}
	}
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	r.requests[request.ID] = cloneRequest(request)
	return nil
}

func (r *rideRequestRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.RideRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneRequest(request), nil
}

func (r *rideRequestRepository) collect(match func(*models.RideRequest) bool) []*models.RideRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var requests []*models.RideRequest
	for _, request := range r.requests {
		if match(request) {
			requests = append(requests, cloneRequest(request))
		}
	}
	sortNewestFirst(requests,
		func(req *models.RideRequest) time.Time { return req.CreatedAt },
		func(req *models.RideRequest) primitive.ObjectID { return req.ID })
	return requests
}

func (r *rideRequestRepository) ListByRider(_ context.Context, riderID primitive.ObjectID) ([]*models.RideRequest, error) {
	return r.collect(func(req *models.RideRequest) bool { return req.RiderID == riderID }), nil
}

func (r *rideRequestRepository) ListByDriver(_ context.Context, driverID primitive.ObjectID, filter interfaces.RideRequestFilter, params *utils.PaginationParams) ([]*models.RideRequest, int64, error) {
	requests := r.collect(func(req *models.RideRequest) bool {
		if req.DriverID != driverID {
			return false
		}
		if filter.Status != nil && req.Status != *filter.Status {
			return false
		}
		return filter.RideID == nil || req.RideID == *filter.RideID
	})

	items, total := page(requests, params)
	return items, total, nil
}

func (r *rideRequestRepository) ListByRide(_ context.Context, rideID primitive.ObjectID, statuses []models.RequestStatus) ([]*models.RideRequest, error) {
	return r.collect(func(req *models.RideRequest) bool {
		return req.RideID == rideID && (len(statuses) == 0 || containsStatus(statuses, req.Status))
	}), nil
}

func (r *rideRequestRepository) FindByRideAndRider(_ context.Context, rideID, riderID primitive.ObjectID, status models.RequestStatus) (*models.RideRequest, error) {
	requests := r.collect(func(req *models.RideRequest) bool {
		return req.RideID == rideID && req.RiderID == riderID && req.Status == status
	})
	if len(requests) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return requests[0], nil
}

func (r *rideRequestRepository) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.RequestStatus, at time.Time) (*models.RideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if request.Status != from {
		return nil, interfaces.ErrConflict
	}
	updated := cloneRequest(request)
	updated.MarkStatus(to, at)
	r.requests[id] = updated
	return cloneRequest(updated), nil
}

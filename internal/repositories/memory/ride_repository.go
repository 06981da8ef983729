package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideRepository struct {
	mu    sync.RWMutex
	rides map[primitive.ObjectID]*models.Ride
}

func NewRideRepository() interfaces.RideRepository {
	return &rideRepository{rides: make(map[primitive.ObjectID]*models.Ride)}
}

func cloneRide(r *models.Ride) *models.Ride {
	c := *r
	c.StartedAt = cloneTime(r.StartedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

func (r *rideRepository) Create(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	if _, exists := r.rides[ride.ID]; exists {
		return interfaces.ErrDuplicate
	}
	r.rides[ride.ID] = cloneRide(ride)
	return nil
}

func (r *rideRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneRide(ride), nil
}

func (r *rideRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rides := make([]*models.Ride, 0, len(ids))
	for _, id := range ids {
		if ride, ok := r.rides[id]; ok {
			rides = append(rides, cloneRide(ride))
		}
	}
	return rides, nil
}

func (r *rideRepository) collect(match func(*models.Ride) bool) []*models.Ride {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rides []*models.Ride
	for _, ride := range r.rides {
		if match(ride) {
			rides = append(rides, cloneRide(ride))
		}
	}
	return rides
}

func (r *rideRepository) ListByDriver(_ context.Context, driverID primitive.ObjectID, statuses []models.RideStatus, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides := r.collect(func(ride *models.Ride) bool {
		return ride.DriverID == driverID && (len(statuses) == 0 || containsStatus(statuses, ride.Status))
	})
	sortNewestFirst(rides,
		func(ride *models.Ride) time.Time { return ride.CreatedAt },
		func(ride *models.Ride) primitive.ObjectID { return ride.ID })

	items, total := page(rides, params)
	return items, total, nil
}

func (r *rideRepository) ListOpen(_ context.Context, filter interfaces.OpenRideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	destination := strings.ToLower(strings.TrimSpace(filter.Destination))
	rides := r.collect(func(ride *models.Ride) bool {
		if ride.Status != models.RideStatusWaiting || ride.AvailableSeats <= 0 {
			return false
		}
		if !ride.DepartureDateTime.After(filter.DepartsAfter) {
			return false
		}
		if !filter.ExcludeDriver.IsZero() && ride.DriverID == filter.ExcludeDriver {
			return false
		}
		return destination == "" || strings.Contains(strings.ToLower(ride.Destination), destination)
	})
	sort.SliceStable(rides, func(i, j int) bool {
		if !rides[i].DepartureDateTime.Equal(rides[j].DepartureDateTime) {
			return rides[i].DepartureDateTime.Before(rides[j].DepartureDateTime)
		}
		return rides[i].ID.Hex() < rides[j].ID.Hex()
	})

	items, total := page(rides, params)
	return items, total, nil
}

func (r *rideRepository) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.RideStatus, at time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if ride.Status != from {
		return nil, interfaces.ErrConflict
	}
	updated := cloneRide(ride)
	updated.MarkStatus(to, at)
	r.rides[id] = updated
	return cloneRide(updated), nil
}

func (r *rideRepository) ReserveSeat(_ context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if ride.Status != models.RideStatusWaiting || ride.AvailableSeats <= 0 {
		return nil, interfaces.ErrConflict
	}
	updated := cloneRide(ride)
	updated.AvailableSeats--
	updated.UpdatedAt = at
	r.rides[id] = updated
	return cloneRide(updated), nil
}

func (r *rideRepository) ReleaseSeat(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if ride.AvailableSeats >= ride.TotalSeats {
		return interfaces.ErrConflict
	}
	updated := cloneRide(ride)
	updated.AvailableSeats++
	updated.UpdatedAt = at
	r.rides[id] = updated
	return nil
}

func containsStatus[S comparable](statuses []S, s S) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

package memory

import (
	"context"
	"sync"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type emergencyRepository struct {
	mu          sync.RWMutex
	emergencies []*models.Emergency
}

func NewEmergencyRepository() interfaces.EmergencyRepository {
	return &emergencyRepository{}
}

func (r *emergencyRepository) Create(_ context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if emergency.ID.IsZero() {
		emergency.ID = primitive.NewObjectID()
	}
	c := *emergency
	c.ContactedBy = append([]string(nil), emergency.ContactedBy...)
	r.emergencies = append(r.emergencies, &c)
	return nil
}

func (r *emergencyRepository) ListByRide(_ context.Context, rideID primitive.ObjectID) ([]*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Emergency
	for _, e := range r.emergencies {
		if e.RideID == rideID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

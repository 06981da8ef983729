package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/repositories/memory"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *recordingPublisher) last() *models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// testEnv wires the lifecycle services over in-memory repositories.
type testEnv struct {
	users       interfaces.UserRepository
	rides       interfaces.RideRepository
	requests    interfaces.RideRequestRepository
	reviews     interfaces.ReviewRepository
	emergencies interfaces.EmergencyRepository
	events      *recordingPublisher

	rideSvc    *rideService
	requestSvc *rideRequestService
	bookingSvc BookingService
	reviewSvc  *reviewService
	userSvc    *userService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	env := &testEnv{
		users:       memory.NewUserRepository(),
		rides:       memory.NewRideRepository(),
		requests:    memory.NewRideRequestRepository(),
		reviews:     memory.NewReviewRepository(),
		emergencies: memory.NewEmergencyRepository(),
		events:      &recordingPublisher{},
	}

	env.rideSvc = NewRideService(env.rides, env.requests, env.users, env.events, log).(*rideService)
	env.rideSvc.now = fixedClock
	env.requestSvc = NewRideRequestService(env.rides, env.requests, env.users, env.events, log).(*rideRequestService)
	env.requestSvc.now = fixedClock
	env.bookingSvc = NewBookingService(env.rides, env.requests, env.reviews)
	env.reviewSvc = NewReviewService(env.reviews, env.rides, env.requests, env.events, log).(*reviewService)
	env.reviewSvc.now = fixedClock
	env.userSvc = NewUserService(env.users, "dal.ca", log).(*userService)
	env.userSvc.now = fixedClock
	return env
}

func (env *testEnv) addUser(t *testing.T, name string, roles ...models.Role) *models.User {
	t.Helper()
	user := &models.User{
		BannerID:      "B00" + primitive.NewObjectID().Hex()[18:],
		FullName:      name,
		SchoolEmail:   primitive.NewObjectID().Hex() + "@dal.ca",
		PhoneNumber:   "902-555-0100",
		Roles:         roles,
		ActiveRole:    roles[0],
		EmailVerified: true,
	}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user
}

func (env *testEnv) createRide(t *testing.T, driver *models.User, seats int) *models.Ride {
	t.Helper()
	ride, err := env.rideSvc.CreateRide(context.Background(), driver.ID, &validators.CreateRideRequest{
		DepartureLocation: "Dalhousie SUB",
		Destination:       "Halifax Airport",
		DepartureDateTime: testNow.Add(24 * time.Hour),
		AvailableSeats:    seats,
		MeetingPoint:      "LeMarchant Place",
	})
	require.NoError(t, err)
	return ride
}

func (env *testEnv) submit(t *testing.T, rider *models.User, ride *models.Ride) *models.RideRequest {
	t.Helper()
	request, err := env.requestSvc.Submit(context.Background(), rider.ID, &validators.SubmitRideRequestRequest{
		RideID:  ride.ID.Hex(),
		Message: "need a seat",
	})
	require.NoError(t, err)
	return request
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.Is(err, code), "want %s, got %v", code, err)
}

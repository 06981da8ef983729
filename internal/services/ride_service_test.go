package services

import (
	"context"
	"testing"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMovesToCompletedAfterRide(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)

	ride := env.createRide(t, driver, 2)
	assert.Equal(t, models.RideStatusWaiting, ride.Status)
	request := env.submit(t, rider, ride)
	assert.Equal(t, "need a seat", request.Message)
	assert.Equal(t, "Dana Driver", request.DriverName)

	_, err := env.requestSvc.Accept(ctx, driver.ID, request.ID)
	require.NoError(t, err)
	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	bookings, err := env.bookingSvc.GetBookings(ctx, rider.ID)
	require.NoError(t, err)
	require.Len(t, bookings.Current, 1)
	assert.Empty(t, bookings.Completed)

	completed, err := env.rideSvc.CompleteRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)
	assert.NotNil(t, completed.CompletedAt)

	bookings, err = env.bookingSvc.GetBookings(ctx, rider.ID)
	require.NoError(t, err)
	assert.Empty(t, bookings.Current)
	require.Len(t, bookings.Completed, 1)
	assert.True(t, bookings.Completed[0].CanReview)
	require.NotNil(t, bookings.PromptReview)
	assert.Equal(t, ride.ID, bookings.PromptReview.Ride.ID)

	assert.Equal(t, []models.EventType{
		models.EventRideCreated,
		models.EventRequestSubmitted,
		models.EventRequestAccepted,
		models.EventRideStarted,
		models.EventRideCompleted,
	}, env.events.types())
	assert.Contains(t, env.events.last().Recipients, rider.ID)
}

func TestCreateRideInThePastCreatesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)

	_, err := env.rideSvc.CreateRide(ctx, driver.ID, &validators.CreateRideRequest{
		DepartureLocation: "Dalhousie SUB",
		Destination:       "Halifax Airport",
		DepartureDateTime: testNow.Add(-24 * time.Hour),
		AvailableSeats:    2,
		MeetingPoint:      "LeMarchant Place",
	})

	requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, apperrors.From(err).Details, "departure_date_time")

	rides, total, err := env.rideSvc.ListDriverRides(ctx, driver.ID, "", utils.DefaultPagination())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rides)
	assert.Empty(t, env.events.types())
}

func TestCreateRideReportsEveryInvalidField(t *testing.T) {
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)

	_, err := env.rideSvc.CreateRide(context.Background(), driver.ID, &validators.CreateRideRequest{
		DepartureLocation: "  ",
		Destination:       "",
		DepartureDateTime: testNow,
		AvailableSeats:    9,
		MeetingPoint:      "",
	})

	requireCode(t, err, apperrors.CodeValidation)
	details := apperrors.From(err).Details
	for _, field := range []string{"departure_location", "destination", "meeting_point", "available_seats", "departure_date_time"} {
		assert.Contains(t, details, field)
	}
}

func TestCancelLeavesRequestsPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)

	ride := env.createRide(t, driver, 3)
	request := env.submit(t, rider, ride)

	cancelled, err := env.rideSvc.CancelRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCancelled, cancelled.Status)

	stored, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)

	bookings, err := env.bookingSvc.GetBookings(ctx, rider.ID)
	require.NoError(t, err)
	assert.Empty(t, bookings.Current)
	require.Len(t, bookings.Completed, 1)
	assert.False(t, bookings.Completed[0].CanReview)
	assert.Contains(t, env.events.last().Recipients, rider.ID)
}

func TestRideTransitionsAreForwardOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	ride := env.createRide(t, driver, 1)

	_, err := env.rideSvc.CompleteRide(ctx, driver.ID, ride.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)
	_, err = env.rideSvc.CancelRide(ctx, driver.ID, ride.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestOnlyOwningDriverTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	other := env.addUser(t, "Omar Other", models.RoleDriver)
	ride := env.createRide(t, driver, 1)

	_, err := env.rideSvc.StartRide(ctx, other.ID, ride.ID)
	requireCode(t, err, apperrors.CodeNotOwner)

	stored, err := env.rideSvc.GetRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusWaiting, stored.Status)
}

func TestListDriverRidesNormalizesStatusFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	env.createRide(t, driver, 1)
	started := env.createRide(t, driver, 1)
	_, err := env.rideSvc.StartRide(ctx, driver.ID, started.ID)
	require.NoError(t, err)

	rides, total, err := env.rideSvc.ListDriverRides(ctx, driver.ID, "in_progress", utils.DefaultPagination())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, started.ID, rides[0].ID)

	_, _, err = env.rideSvc.ListDriverRides(ctx, driver.ID, "parked", utils.DefaultPagination())
	requireCode(t, err, apperrors.CodeValidation)
}

func TestListOpenRidesHidesOwnAndFullRides(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver, models.RoleRider)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	open := env.createRide(t, driver, 2)
	cancelled := env.createRide(t, driver, 2)
	_, err := env.rideSvc.CancelRide(ctx, driver.ID, cancelled.ID)
	require.NoError(t, err)

	rides, total, err := env.rideSvc.ListOpenRides(ctx, rider.ID, "airport", utils.DefaultPagination())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, open.ID, rides[0].ID)

	rides, _, err = env.rideSvc.ListOpenRides(ctx, driver.ID, "", utils.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestActiveRideForDriverAndAcceptedRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	pending := env.addUser(t, "Pat Pending", models.RoleRider)

	ride := env.createRide(t, driver, 2)
	accepted := env.submit(t, rider, ride)
	env.submit(t, pending, ride)
	_, err := env.requestSvc.Accept(ctx, driver.ID, accepted.ID)
	require.NoError(t, err)

	active, err := env.rideSvc.ActiveRide(ctx, rider.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	active, err = env.rideSvc.ActiveRide(ctx, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.RoleDriver, active.As)

	active, err = env.rideSvc.ActiveRide(ctx, rider.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.RoleRider, active.As)
	assert.Equal(t, ride.ID, active.Ride.ID)

	active, err = env.rideSvc.ActiveRide(ctx, pending.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

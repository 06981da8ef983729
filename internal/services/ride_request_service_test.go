package services

import (
	"context"
	"sync"
	"testing"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitTwiceIsDuplicateUntilDeclined(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)

	first := env.submit(t, rider, ride)
	_, err := env.requestSvc.Submit(ctx, rider.ID, &validators.SubmitRideRequestRequest{RideID: ride.ID.Hex()})
	requireCode(t, err, apperrors.CodeDuplicateRequest)

	_, err = env.requestSvc.Decline(ctx, driver.ID, first.ID)
	require.NoError(t, err)

	second := env.submit(t, rider, ride)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.RequestStatusPending, second.Status)
}

func TestWithdrawnRequestBlocksResubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)

	request := env.submit(t, rider, ride)
	withdrawn, err := env.requestSvc.Withdraw(ctx, rider.ID, request.ID)
	require.NoError(t, err)
	assert.NotNil(t, withdrawn.WithdrawnAt)

	_, err = env.requestSvc.Submit(ctx, rider.ID, &validators.SubmitRideRequestRequest{RideID: ride.ID.Hex()})
	requireCode(t, err, apperrors.CodeDuplicateRequest)
}

func TestSubmitChecks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver, models.RoleRider)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)

	t.Run("own ride", func(t *testing.T) {
		_, err := env.requestSvc.Submit(ctx, driver.ID, &validators.SubmitRideRequestRequest{RideID: ride.ID.Hex()})
		requireCode(t, err, apperrors.CodeValidation)
		assert.Contains(t, apperrors.From(err).Details, "ride_id")
	})

	t.Run("malformed ride id", func(t *testing.T) {
		_, err := env.requestSvc.Submit(ctx, rider.ID, &validators.SubmitRideRequestRequest{RideID: "nope"})
		requireCode(t, err, apperrors.CodeValidation)
	})

	t.Run("ride not open", func(t *testing.T) {
		_, err := env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
		require.NoError(t, err)
		_, err = env.requestSvc.Submit(ctx, rider.ID, &validators.SubmitRideRequestRequest{RideID: ride.ID.Hex()})
		requireCode(t, err, apperrors.CodeRideNotOpen)
	})
}

func TestAcceptAndDeclineAreExclusive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)
	request := env.submit(t, rider, ride)

	accepted, err := env.requestSvc.Accept(ctx, driver.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.DecidedAt)

	_, err = env.requestSvc.Decline(ctx, driver.ID, request.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)
	_, err = env.requestSvc.Withdraw(ctx, rider.ID, request.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	stored, err := env.rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableSeats)
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 4)
	request := env.submit(t, rider, ride)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			var err error
			if accept {
				_, err = env.requestSvc.Accept(ctx, driver.ID, request.ID)
			} else {
				_, err = env.requestSvc.Decline(ctx, driver.ID, request.ID)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition), err.Error())
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	stored, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	seats, err := env.rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	if stored.Status == models.RequestStatusAccepted {
		assert.Equal(t, 3, seats.AvailableSeats)
	} else {
		assert.Equal(t, models.RequestStatusDeclined, stored.Status)
		assert.Equal(t, 4, seats.AvailableSeats)
	}
}

func TestAcceptWhenRideIsFull(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	first := env.addUser(t, "Riley Rider", models.RoleRider)
	second := env.addUser(t, "Sam Second", models.RoleRider)
	ride := env.createRide(t, driver, 1)

	r1 := env.submit(t, first, ride)
	r2 := env.submit(t, second, ride)

	_, err := env.requestSvc.Accept(ctx, driver.ID, r1.ID)
	require.NoError(t, err)
	_, err = env.requestSvc.Accept(ctx, driver.ID, r2.ID)
	requireCode(t, err, apperrors.CodeRideFull)

	stored, err := env.requests.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)

	_, err = env.requestSvc.Decline(ctx, driver.ID, r2.ID)
	require.NoError(t, err)
}

func TestAcceptAfterRideStartedIsNotOpen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)
	request := env.submit(t, rider, ride)

	_, err := env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	_, err = env.requestSvc.Accept(ctx, driver.ID, request.ID)
	requireCode(t, err, apperrors.CodeRideNotOpen)
}

func TestDecisionsRequireOwnership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	other := env.addUser(t, "Omar Other", models.RoleDriver, models.RoleRider)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	ride := env.createRide(t, driver, 2)
	request := env.submit(t, rider, ride)

	_, err := env.requestSvc.Accept(ctx, other.ID, request.ID)
	requireCode(t, err, apperrors.CodeNotOwner)
	_, err = env.requestSvc.Decline(ctx, other.ID, request.ID)
	requireCode(t, err, apperrors.CodeNotOwner)
	_, err = env.requestSvc.Withdraw(ctx, other.ID, request.ID)
	requireCode(t, err, apperrors.CodeNotOwner)
	_, err = env.requestSvc.Accept(ctx, driver.ID, ride.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListDriverRequestsFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	second := env.addUser(t, "Sam Second", models.RoleRider)
	rideA := env.createRide(t, driver, 2)
	rideB := env.createRide(t, driver, 2)

	a := env.submit(t, rider, rideA)
	env.submit(t, second, rideB)
	_, err := env.requestSvc.Decline(ctx, driver.ID, a.ID)
	require.NoError(t, err)

	all, total, err := env.requestSvc.ListDriverRequests(ctx, driver.ID, "", "", utils.DefaultPagination())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	rejected, _, err := env.requestSvc.ListDriverRequests(ctx, driver.ID, "rejected", "", utils.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, a.ID, rejected[0].ID)

	forB, _, err := env.requestSvc.ListDriverRequests(ctx, driver.ID, "", rideB.ID.Hex(), utils.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, rideB.ID, forB[0].RideID)

	_, _, err = env.requestSvc.ListDriverRequests(ctx, driver.ID, "", "bogus", utils.DefaultPagination())
	requireCode(t, err, apperrors.CodeValidation)
}

package services

import (
	"context"
	"testing"

	"unicarpool/internal/models"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewGating(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	rider := env.addUser(t, "Riley Rider", models.RoleRider)
	stranger := env.addUser(t, "Stella Stranger", models.RoleRider)
	ride := env.createRide(t, driver, 2)
	request := env.submit(t, rider, ride)

	review := func(reviewer *models.User, rating int) error {
		_, err := env.reviewSvc.SubmitReview(ctx, reviewer.ID, &validators.ReviewRequest{
			RideID:  ride.ID.Hex(),
			Rating:  rating,
			Comment: "Smooth ride",
		})
		return err
	}

	requireCode(t, review(rider, 5), apperrors.CodeReviewNotAllowed)

	_, err := env.requestSvc.Accept(ctx, driver.ID, request.ID)
	require.NoError(t, err)
	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)
	_, err = env.rideSvc.CompleteRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	status, err := env.reviewSvc.ReviewStatus(ctx, ride.ID, rider.ID)
	require.NoError(t, err)
	assert.True(t, status.CanReview)
	assert.False(t, status.Reviewed)

	requireCode(t, review(rider, 6), apperrors.CodeValidation)
	requireCode(t, review(stranger, 4), apperrors.CodeReviewNotAllowed)
	require.NoError(t, review(rider, 4))
	requireCode(t, review(rider, 5), apperrors.CodeAlreadyReviewed)

	status, err = env.reviewSvc.ReviewStatus(ctx, ride.ID, rider.ID)
	require.NoError(t, err)
	assert.True(t, status.Reviewed)
	assert.False(t, status.CanReview)

	bookings, err := env.bookingSvc.GetBookings(ctx, rider.ID)
	require.NoError(t, err)
	require.Len(t, bookings.Completed, 1)
	assert.True(t, bookings.Completed[0].Reviewed)
	assert.Nil(t, bookings.PromptReview)

	stats, err := env.reviewSvc.RatingStats(ctx, driver.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.InDelta(t, 4.0, stats.Average, 0.001)

	reviews, total, err := env.reviewSvc.ReviewsForUser(ctx, driver.ID, utils.DefaultPagination())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, rider.ID, reviews[0].ReviewerID)
	assert.Equal(t, models.EventReviewCreated, env.events.last().Type)
}

func TestDriverReviewsEachAcceptedPassengerOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	driver := env.addUser(t, "Dana Driver", models.RoleDriver)
	otherDriver := env.addUser(t, "Omar Other", models.RoleDriver)
	first := env.addUser(t, "Riley Rider", models.RoleRider)
	second := env.addUser(t, "Sasha Second", models.RoleRider)
	declined := env.addUser(t, "Dev Declined", models.RoleRider)
	ride := env.createRide(t, driver, 3)

	for _, rider := range []*models.User{first, second} {
		request := env.submit(t, rider, ride)
		_, err := env.requestSvc.Accept(ctx, driver.ID, request.ID)
		require.NoError(t, err)
	}
	_, err := env.requestSvc.Decline(ctx, driver.ID, env.submit(t, declined, ride).ID)
	require.NoError(t, err)

	rate := func(reviewer, passenger *models.User, rating int) (*models.Review, error) {
		return env.reviewSvc.SubmitPassengerReview(ctx, reviewer.ID, &validators.PassengerReviewRequest{
			RideID:      ride.ID.Hex(),
			PassengerID: passenger.ID.Hex(),
			Rating:      rating,
		})
	}

	_, err = rate(driver, first, 5)
	requireCode(t, err, apperrors.CodeReviewNotAllowed)

	_, err = env.rideSvc.StartRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)
	_, err = env.rideSvc.CompleteRide(ctx, driver.ID, ride.ID)
	require.NoError(t, err)

	_, err = rate(otherDriver, first, 5)
	requireCode(t, err, apperrors.CodeNotOwner)
	_, err = rate(driver, declined, 3)
	requireCode(t, err, apperrors.CodeReviewNotAllowed)
	_, err = rate(driver, first, 0)
	requireCode(t, err, apperrors.CodeValidation)

	review, err := rate(driver, first, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, review.RevieweeRole)
	assert.Equal(t, first.ID, env.events.last().Recipients[0])

	_, err = rate(driver, second, 3)
	require.NoError(t, err)
	_, err = rate(driver, first, 4)
	requireCode(t, err, apperrors.CodeAlreadyReviewed)

	// the rider can still review the driver of the same ride
	_, err = env.reviewSvc.SubmitReview(ctx, first.ID, &validators.ReviewRequest{RideID: ride.ID.Hex(), Rating: 4})
	require.NoError(t, err)

	stats, err := env.reviewSvc.RatingStats(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.InDelta(t, 5.0, stats.Average, 0.001)
}

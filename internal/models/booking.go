package models

import (
	"bytes"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingView joins a rider's request with the current state of its ride.
// It is derived on every read and never stored.
type BookingView struct {
	Request   RideRequest `json:"request"`
	Ride      Ride        `json:"ride"`
	Reviewed  bool        `json:"reviewed"`
	CanReview bool        `json:"can_review"`
}

type Bookings struct {
	Current      []BookingView `json:"current"`
	Completed    []BookingView `json:"completed"`
	PromptReview *BookingView  `json:"prompt_review,omitempty"`
}

// IsCurrentBooking reports whether a request in reqStatus on a ride in rideStatus
// belongs in the current bucket. Everything else is completed.
func IsCurrentBooking(rideStatus RideStatus, reqStatus RequestStatus) bool {
	if !rideStatus.IsCurrent() {
		return false
	}
	return reqStatus == RequestStatusPending || reqStatus == RequestStatusAccepted
}

// CanReviewRide is the review gate shared by the projection and the review service.
func CanReviewRide(rideStatus RideStatus, reqStatus RequestStatus, reviewed bool) bool {
	return rideStatus == RideStatusCompleted && reqStatus == RequestStatusAccepted && !reviewed
}

// ProjectBookings buckets riderID's requests into current and completed bookings.
// Requests of other riders, requests whose ride is missing from rides and reviews
// written by other users are ignored. Inputs are not modified.
func ProjectBookings(rides []*Ride, requests []*RideRequest, reviews []*Review, riderID primitive.ObjectID) Bookings {
	ridesByID := make(map[primitive.ObjectID]*Ride, len(rides))
	for _, ride := range rides {
		if ride != nil {
			ridesByID[ride.ID] = ride
		}
	}

	reviewed := make(map[primitive.ObjectID]bool, len(reviews))
	for _, review := range reviews {
		if review != nil && review.ReviewerID == riderID {
			reviewed[review.RideID] = true
		}
	}

	result := Bookings{
		Current:   []BookingView{},
		Completed: []BookingView{},
	}

	for _, request := range requests {
		if request == nil || request.RiderID != riderID {
			continue
		}
		ride, ok := ridesByID[request.RideID]
		if !ok {
			continue
		}

		view := BookingView{
			Request:  *request,
			Ride:     *ride,
			Reviewed: reviewed[ride.ID],
		}
		view.CanReview = CanReviewRide(ride.Status, request.Status, view.Reviewed)

		if IsCurrentBooking(ride.Status, request.Status) {
			result.Current = append(result.Current, view)
		} else {
			result.Completed = append(result.Completed, view)
		}
	}

	sortBookings(result.Current)
	sortBookings(result.Completed)

	for i := range result.Completed {
		if result.Completed[i].CanReview {
			prompt := result.Completed[i]
			result.PromptReview = &prompt
			break
		}
	}

	return result
}

// newest request first, ties broken on request id descending
func sortBookings(views []BookingView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Request, views[j].Request
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})
}

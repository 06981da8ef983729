package models

import (
	"time"

	apperrors "unicarpool/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideRequest is a rider's ask to join a ride. Driver, rider and route fields are
// copied from the ride and users when the request is submitted and are not
// refreshed afterwards.
type RideRequest struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID            primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	RiderID           primitive.ObjectID `json:"rider_id" bson:"rider_id"`
	DriverID          primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	RiderName         string             `json:"rider_name" bson:"rider_name"`
	RiderPhone        string             `json:"rider_phone" bson:"rider_phone"`
	DriverName        string             `json:"driver_name" bson:"driver_name"`
	DriverPhone       string             `json:"driver_phone" bson:"driver_phone"`
	DepartureLocation string             `json:"departure_location" bson:"departure_location"`
	Destination       string             `json:"destination" bson:"destination"`
	MeetingPoint      string             `json:"meeting_point" bson:"meeting_point"`
	DepartureDateTime time.Time          `json:"departure_date_time" bson:"departure_date_time"`
	Message           string             `json:"message,omitempty" bson:"message,omitempty"`
	Status            RequestStatus      `json:"status" bson:"status"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
	DecidedAt         *time.Time         `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	WithdrawnAt       *time.Time         `json:"withdrawn_at,omitempty" bson:"withdrawn_at,omitempty"`
}

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {RequestStatusAccepted, RequestStatusDeclined, RequestStatusWithdrawn},
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func CheckRequestTransition(from, to RequestStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.InvalidTransition("ride request", string(from), string(to))
	}
	return nil
}

// BlocksResubmission reports whether a request in this state prevents the same
// rider from submitting another request for the ride.
func (s RequestStatus) BlocksResubmission() bool {
	return s != RequestStatusDeclined
}

// NewRideRequest snapshots the ride and both parties into a pending request.
func NewRideRequest(ride *Ride, rider *User, message string, now time.Time) *RideRequest {
	return &RideRequest{
		RideID:            ride.ID,
		RiderID:           rider.ID,
		DriverID:          ride.DriverID,
		RiderName:         rider.FullName,
		RiderPhone:        rider.PhoneNumber,
		DriverName:        ride.DriverName,
		DriverPhone:       ride.DriverPhone,
		DepartureLocation: ride.DepartureLocation,
		Destination:       ride.Destination,
		MeetingPoint:      ride.MeetingPoint,
		DepartureDateTime: ride.DepartureDateTime,
		Message:           message,
		Status:            RequestStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (r *RideRequest) MarkStatus(status RequestStatus, at time.Time) {
	r.Status = status
	r.UpdatedAt = at
	switch status {
	case RequestStatusAccepted, RequestStatusDeclined:
		r.DecidedAt = &at
	case RequestStatusWithdrawn:
		r.WithdrawnAt = &at
	}
}

func RequestStatusTimestampField(status RequestStatus) string {
	switch status {
	case RequestStatusAccepted, RequestStatusDeclined:
		return "decided_at"
	case RequestStatusWithdrawn:
		return "withdrawn_at"
	}
	return ""
}

package models

import (
	"time"

	apperrors "unicarpool/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRideSeats = 1
	MaxRideSeats = 8
)

// Ride is a driver-published offer of a trip with a fixed route, time and seat capacity.
type Ride struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID          primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	DriverName        string             `json:"driver_name" bson:"driver_name"`
	DriverPhone       string             `json:"driver_phone" bson:"driver_phone"`
	DepartureLocation string             `json:"departure_location" bson:"departure_location"`
	Destination       string             `json:"destination" bson:"destination"`
	MeetingPoint      string             `json:"meeting_point" bson:"meeting_point"`
	DepartureDateTime time.Time          `json:"departure_date_time" bson:"departure_date_time"`
	TotalSeats        int                `json:"total_seats" bson:"total_seats"`
	AvailableSeats    int                `json:"available_seats" bson:"available_seats"`
	RideConditions    string             `json:"ride_conditions,omitempty" bson:"ride_conditions,omitempty"`
	Status            RideStatus         `json:"status" bson:"status"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
	StartedAt         *time.Time         `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusWaiting: {RideStatusStarted, RideStatusCancelled},
	RideStatusStarted: {RideStatusCompleted},
}

// CanTransitionTo reports whether next directly follows s in the ride lifecycle.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckRideTransition returns an INVALID_TRANSITION error unless from -> to is allowed.
func CheckRideTransition(from, to RideStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.InvalidTransition("ride", string(from), string(to))
	}
	return nil
}

func (r *Ride) IsOwnedBy(driverID primitive.ObjectID) bool {
	return r.DriverID == driverID
}

func (r *Ride) IsOpen() bool {
	return r.Status == RideStatusWaiting
}

func (r *Ride) HasAvailableSeats() bool {
	return r.AvailableSeats > 0
}

// MarkStatus applies status to the in-memory copy and stamps the matching timestamp.
func (r *Ride) MarkStatus(status RideStatus, at time.Time) {
	r.Status = status
	r.UpdatedAt = at
	switch status {
	case RideStatusStarted:
		r.StartedAt = &at
	case RideStatusCompleted:
		r.CompletedAt = &at
	case RideStatusCancelled:
		r.CancelledAt = &at
	}
}

// RideStatusTimestampField names the document field stamped when a ride enters status.
func RideStatusTimestampField(status RideStatus) string {
	switch status {
	case RideStatusStarted:
		return "started_at"
	case RideStatusCompleted:
		return "completed_at"
	case RideStatusCancelled:
		return "cancelled_at"
	}
	return ""
}

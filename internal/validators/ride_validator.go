package validators

import (
	"strings"
	"time"
)

type CreateRideRequest struct {
	DepartureLocation string    `json:"departure_location" validate:"notblank,max=200"`
	Destination       string    `json:"destination" validate:"notblank,max=200"`
	DepartureDateTime time.Time `json:"departure_date_time" validate:"required"`
	AvailableSeats    int       `json:"available_seats" validate:"min=1,max=8"`
	MeetingPoint      string    `json:"meeting_point" validate:"notblank,max=200"`
	RideConditions    string    `json:"ride_conditions" validate:"omitempty,max=500"`
}

type SubmitRideRequestRequest struct {
	RideID  string `json:"ride_id" validate:"required,object_id"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

type EmergencyRequest struct {
	RideID      string   `json:"ride_id" validate:"required,object_id"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Description string   `json:"description" validate:"omitempty,max=500"`
}

// ValidateCreateRide checks every field of req and returns all failures together.
// The departure must be strictly after now.
func ValidateCreateRide(req *CreateRideRequest, now time.Time) ValidationErrors {
	errors := ValidateStruct(req)

	if !req.DepartureDateTime.IsZero() && !req.DepartureDateTime.After(now) {
		errors = append(errors, ValidationError{
			Field:   "departure_date_time",
			Tag:     "future",
			Value:   req.DepartureDateTime.Format(time.RFC3339),
			Message: "Departure time must be in the future",
		})
	}

	return errors
}

// Normalize trims the free-text fields in place.
func (r *CreateRideRequest) Normalize() {
	r.DepartureLocation = strings.TrimSpace(r.DepartureLocation)
	r.Destination = strings.TrimSpace(r.Destination)
	r.MeetingPoint = strings.TrimSpace(r.MeetingPoint)
	r.RideConditions = strings.TrimSpace(r.RideConditions)
}

func ValidateSubmitRideRequest(req *SubmitRideRequestRequest) ValidationErrors {
	req.Message = strings.TrimSpace(req.Message)
	return ValidateStruct(req)
}

func ValidateEmergency(req *EmergencyRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if (req.Latitude == nil) != (req.Longitude == nil) {
		errors = append(errors, ValidationError{
			Field:   "latitude",
			Tag:     "coordinates",
			Message: "Latitude and longitude must be sent together",
		})
	}

	return errors
}

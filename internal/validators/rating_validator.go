package validators

import "strings"

type ReviewRequest struct {
	RideID  string `json:"ride_id" validate:"required,object_id"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=500"`
}

func ValidateReview(req *ReviewRequest) ValidationErrors {
	req.Comment = SanitizeInput(strings.TrimSpace(req.Comment))
	return ValidateStruct(req)
}

// PassengerReviewRequest is a driver's rating of one passenger.
type PassengerReviewRequest struct {
	RideID      string `json:"ride_id" validate:"required,object_id"`
	PassengerID string `json:"passenger_id" validate:"required,object_id"`
	Rating      int    `json:"rating" validate:"min=1,max=5"`
	Comment     string `json:"comment" validate:"omitempty,max=500"`
}

func ValidatePassengerReview(req *PassengerReviewRequest) ValidationErrors {
	req.Comment = SanitizeInput(req.Comment)
	return ValidateStruct(req)
}

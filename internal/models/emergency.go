package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyStatus string

const (
	EmergencyStatusActive   EmergencyStatus = "active"
	EmergencyStatusResolved EmergencyStatus = "resolved"
)

type Emergency struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	RideID      primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	Status      EmergencyStatus    `json:"status" bson:"status"`
	Latitude    *float64           `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude   *float64           `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	ContactedBy []string           `json:"contacted_by" bson:"contacted_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

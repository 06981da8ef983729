package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventRideCreated        EventType = "ride.created"
	EventRideStarted        EventType = "ride.started"
	EventRideCompleted      EventType = "ride.completed"
	EventRideCancelled      EventType = "ride.cancelled"
	EventRequestSubmitted   EventType = "ride_request.submitted"
	EventRequestAccepted    EventType = "ride_request.accepted"
	EventRequestDeclined    EventType = "ride_request.declined"
	EventRequestWithdrawn   EventType = "ride_request.withdrawn"
	EventReviewCreated      EventType = "review.created"
	EventEmergencyTriggered EventType = "emergency.triggered"
)

// Event describes a lifecycle change and who should hear about it.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	RideID     primitive.ObjectID     `json:"ride_id,omitempty"`
	RequestID  primitive.ObjectID     `json:"request_id,omitempty"`
	ActorID    primitive.ObjectID     `json:"actor_id"`
	Recipients []primitive.ObjectID   `json:"recipients"`
	Title      string                 `json:"title,omitempty"`
	Body       string                 `json:"body,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// RoutingKey is the broker routing key, identical to the event type.
func (e *Event) RoutingKey() string {
	return string(e.Type)
}

// Pushable reports whether the event is worth a device notification.
func (e *Event) Pushable() bool {
	switch e.Type {
	case EventRequestSubmitted, EventRequestAccepted, EventRequestDeclined,
		EventRideStarted, EventRideCancelled, EventRideCompleted, EventEmergencyTriggered:
		return true
	}
	return false
}

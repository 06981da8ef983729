package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

type RideStatus string
type RequestStatus string

const (
	RideStatusWaiting   RideStatus = "WAITING"
	RideStatusStarted   RideStatus = "STARTED"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"

	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusDeclined  RequestStatus = "DECLINED"
	RequestStatusWithdrawn RequestStatus = "WITHDRAWN"
)

// Older API versions and clients used several spellings for the same ride
// state. Everything entering the system is folded onto the canonical values.
var rideStatusAliases = map[string]RideStatus{
	"WAITING":     RideStatusWaiting,
	"ACTIVE":      RideStatusWaiting,
	"OPEN":        RideStatusWaiting,
	"SCHEDULED":   RideStatusWaiting,
	"STARTED":     RideStatusStarted,
	"IN_PROGRESS": RideStatusStarted,
	"INPROGRESS":  RideStatusStarted,
	"ONGOING":     RideStatusStarted,
	"COMPLETED":   RideStatusCompleted,
	"FINISHED":    RideStatusCompleted,
	"CANCELLED":   RideStatusCancelled,
	"CANCELED":    RideStatusCancelled,
}

var requestStatusAliases = map[string]RequestStatus{
	"PENDING":   RequestStatusPending,
	"ACCEPTED":  RequestStatusAccepted,
	"APPROVED":  RequestStatusAccepted,
	"DECLINED":  RequestStatusDeclined,
	"REJECTED":  RequestStatusDeclined,
	"WITHDRAWN": RequestStatusWithdrawn,
	"CANCELLED": RequestStatusWithdrawn,
	"CANCELED":  RequestStatusWithdrawn,
}

func normalizeStatusText(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

// ParseRideStatus maps any known spelling of a ride status to its canonical value.
func ParseRideStatus(s string) (RideStatus, error) {
	if status, ok := rideStatusAliases[normalizeStatusText(s)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown ride status %q", s)
}

// ParseRequestStatus maps any known spelling of a ride request status to its canonical value.
func ParseRequestStatus(s string) (RequestStatus, error) {
	if status, ok := requestStatusAliases[normalizeStatusText(s)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown ride request status %q", s)
}

func (s RideStatus) String() string { return string(s) }

func (s RideStatus) IsValid() bool {
	switch s {
	case RideStatusWaiting, RideStatusStarted, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

// IsCurrent reports whether a booking on a ride in this state is still upcoming or under way.
func (s RideStatus) IsCurrent() bool {
	return s == RideStatusWaiting || s == RideStatusStarted
}

func (s *RideStatus) UnmarshalText(text []byte) error {
	status, err := ParseRideStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func (s *RideStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw, ok := bsoncore.Value{Type: t, Data: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("ride status: cannot decode BSON %s", t)
	}
	return s.UnmarshalText([]byte(raw))
}

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusDeclined, RequestStatusWithdrawn:
		return true
	}
	return false
}

func (s *RequestStatus) UnmarshalText(text []byte) error {
	status, err := ParseRequestStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func (s *RequestStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw, ok := bsoncore.Value{Type: t, Data: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("ride request status: cannot decode BSON %s", t)
	}
	return s.UnmarshalText([]byte(raw))
}

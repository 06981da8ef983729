package services

import (
	"context"
	"fmt"
	"strings"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyService interface {
	TriggerEmergency(ctx context.Context, userID primitive.ObjectID, request *validators.EmergencyRequest) (*models.Emergency, error)
}

type EmergencyConfig struct {
	// Numbers are always alerted, typically campus security.
	Numbers            []string
	NotifyParticipants bool
	DefaultCountryCode string
	MessagePrefix      string
}

type emergencyService struct {
	emergencyRepo interfaces.EmergencyRepository
	rideRepo      interfaces.RideRepository
	requestRepo   interfaces.RideRequestRepository
	userRepo      interfaces.UserRepository
	sms           sms.SMSProvider
	events        EventPublisher
	config        EmergencyConfig
	logger        *logger.Logger
	now           Clock
}

// NewEmergencyService builds the SOS flow. smsProvider may be nil, in which
// case alerts are recorded and published but no text messages go out.
func NewEmergencyService(
	emergencyRepo interfaces.EmergencyRepository,
	rideRepo interfaces.RideRepository,
	requestRepo interfaces.RideRequestRepository,
	userRepo interfaces.UserRepository,
	smsProvider sms.SMSProvider,
	events EventPublisher,
	config EmergencyConfig,
	logger *logger.Logger,
) EmergencyService {
	return &emergencyService{
		emergencyRepo: emergencyRepo,
		rideRepo:      rideRepo,
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		sms:           smsProvider,
		events:        events,
		config:        config,
		logger:        logger,
		now:           systemClock,
	}
}

type participant struct {
	id    primitive.ObjectID
	phone string
}

func (s *emergencyService) TriggerEmergency(ctx context.Context, userID primitive.ObjectID, request *validators.EmergencyRequest) (*models.Emergency, error) {
	if err := validationError(validators.ValidateEmergency(request)); err != nil {
		return nil, err
	}
	rideID, err := validators.ParseObjectID(request.RideID)
	if err != nil {
		return nil, apperrors.ValidationField("ride_id", "invalid ride id")
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeError("ride", "emergency alert", err)
	}
	if ride.Status != models.RideStatusStarted {
		return nil, apperrors.Conflict("emergency alerts can only be sent during a started ride")
	}

	accepted, err := s.requestRepo.ListByRide(ctx, rideID, []models.RequestStatus{models.RequestStatusAccepted})
	if err != nil {
		return nil, storeError("ride request", "emergency alert", err)
	}

	participants := []participant{{id: ride.DriverID, phone: ride.DriverPhone}}
	for _, r := range accepted {
		participants = append(participants, participant{id: r.RiderID, phone: r.RiderPhone})
	}

	var caller string
	isParticipant := false
	for _, p := range participants {
		if p.id == userID {
			isParticipant = true
		}
	}
	if !isParticipant {
		return nil, apperrors.Forbidden("only people on this ride can send an emergency alert", nil)
	}
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		caller = user.FullName
	}

	now := s.now()
	emergency := &models.Emergency{
		UserID:      userID,
		RideID:      rideID,
		Status:      models.EmergencyStatusActive,
		Latitude:    request.Latitude,
		Longitude:   request.Longitude,
		Description: request.Description,
		ContactedBy: []string{},
		CreatedAt:   now,
	}

	var others []primitive.ObjectID
	for _, p := range participants {
		if p.id != userID {
			others = append(others, p.id)
		}
	}

	emergency.ContactedBy = s.sendAlerts(ctx, s.alertNumbers(participants, userID), s.alertMessage(caller, ride, request))

	if err := s.emergencyRepo.Create(ctx, emergency); err != nil {
		s.logger.WithRideID(rideID).WithError(err).Error("Failed to store emergency")
		return nil, storeError("emergency", "emergency alert", err)
	}

	s.logger.LogSecurityEvent("emergency_triggered", "critical", map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
		"ride_id":      rideID.Hex(),
		"user_id":      userID.Hex(),
		"contacted":    len(emergency.ContactedBy),
	})
	s.events.Publish(ctx, &models.Event{
		Type:       models.EventEmergencyTriggered,
		RideID:     rideID,
		ActorID:    userID,
		Recipients: others,
		Title:      "Emergency alert",
		Body:       fmt.Sprintf("%s raised an emergency alert on the ride to %s", caller, ride.Destination),
		Data:       map[string]interface{}{"emergency": emergency},
		OccurredAt: now,
	})
	return emergency, nil
}

// alertNumbers returns the configured numbers followed by the other
// participants' phones, normalized and without duplicates.
func (s *emergencyService) alertNumbers(participants []participant, caller primitive.ObjectID) []string {
	seen := make(map[string]bool)
	var numbers []string
	add := func(raw string) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		number := utils.FormatPhone(raw, s.config.DefaultCountryCode)
		if !seen[number] {
			seen[number] = true
			numbers = append(numbers, number)
		}
	}

	for _, number := range s.config.Numbers {
		add(number)
	}
	if s.config.NotifyParticipants {
		for _, p := range participants {
			if p.id != caller {
				add(p.phone)
			}
		}
	}
	return numbers
}

func (s *emergencyService) alertMessage(caller string, ride *models.Ride, request *validators.EmergencyRequest) string {
	var b strings.Builder
	prefix := s.config.MessagePrefix
	if prefix == "" {
		prefix = "Emergency"
	}
	fmt.Fprintf(&b, "%s: %s needs help on the ride from %s to %s (driver %s, %s).",
		prefix, caller, ride.DepartureLocation, ride.Destination, ride.DriverName, ride.DriverPhone)
	if request.Latitude != nil && request.Longitude != nil {
		fmt.Fprintf(&b, " Location: https://maps.google.com/?q=%.6f,%.6f", *request.Latitude, *request.Longitude)
	}
	if request.Description != "" {
		fmt.Fprintf(&b, " Note: %s", request.Description)
	}
	return b.String()
}

// sendAlerts texts every number and returns the ones that were accepted by the provider.
func (s *emergencyService) sendAlerts(ctx context.Context, numbers []string, message string) []string {
	contacted := []string{}
	if s.sms == nil || len(numbers) == 0 {
		return contacted
	}

	requests := make([]*sms.SMSRequest, 0, len(numbers))
	for _, number := range numbers {
		requests = append(requests, &sms.SMSRequest{To: number, Message: message, Type: "emergency"})
	}

	responses, err := s.sms.SendBulkSMS(ctx, requests)
	if err != nil {
		s.logger.WithError(err).Error("Emergency SMS delivery failed")
		return contacted
	}
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		if resp.Error != "" {
			s.logger.WithField("to", utils.MaskPhone(resp.To)).WithField("error", resp.Error).Warn("Emergency SMS not delivered")
			continue
		}
		contacted = append(contacted, resp.To)
	}
	return contacted
}

package services

import (
	"context"
	"sync"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/push"
	"unicarpool/pkg/websocket"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventPublisher fans a lifecycle event out to every configured channel.
// Delivery is best-effort: failures are logged and never returned.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event)
}

// EventDispatcher is an EventPublisher that delivers to the broker and to
// devices in the background. Close waits for deliveries already under way.
type EventDispatcher interface {
	EventPublisher
	Close() error
}

// RealtimeNotifier delivers messages to connected websocket clients.
type RealtimeNotifier interface {
	SendToUser(userID primitive.ObjectID, message websocket.Message) int
}

// BrokerPublisher sends a payload to the message broker under a routing key.
type BrokerPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

const fanOutTimeout = 10 * time.Second

type notificationService struct {
	userRepo interfaces.UserRepository
	realtime RealtimeNotifier
	broker   BrokerPublisher
	push     map[models.DevicePlatform]push.PushProvider
	logger   *logger.Logger
	now      Clock
	inflight sync.WaitGroup
}

// NewNotificationService wires the event channels. Any of realtime, broker
// and the push providers may be nil when the channel is not configured.
func NewNotificationService(
	userRepo interfaces.UserRepository,
	realtime RealtimeNotifier,
	broker BrokerPublisher,
	pushProviders map[models.DevicePlatform]push.PushProvider,
	logger *logger.Logger,
) EventDispatcher {
	providers := make(map[models.DevicePlatform]push.PushProvider, len(pushProviders))
	for platform, provider := range pushProviders {
		if provider != nil {
			providers[platform] = provider
		}
	}
	return &notificationService{
		userRepo: userRepo,
		realtime: realtime,
		broker:   broker,
		push:     providers,
		logger:   logger,
		now:      systemClock,
	}
}

func (s *notificationService) Publish(ctx context.Context, event *models.Event) {
	if event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	s.deliverRealtime(event)

	pushable := event.Pushable() && len(s.push) > 0
	if s.broker == nil && !pushable {
		return
	}

	// The mutation already happened; a client hanging up must not cut delivery short.
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.deliverRemote(ctx, event, pushable)
	}()
}

func (s *notificationService) Close() error {
	s.inflight.Wait()
	return nil
}

func (s *notificationService) deliverRemote(ctx context.Context, event *models.Event, pushable bool) {
	ctx, cancel := context.WithTimeout(ctx, fanOutTimeout)
	defer cancel()

	log := s.logger.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	if s.broker != nil {
		if err := s.broker.Publish(ctx, event.RoutingKey(), event); err != nil {
			log.WithError(err).Warn("Failed to publish event to broker")
		}
	}

	if pushable {
		s.deliverPush(ctx, event, log)
	}
}

func (s *notificationService) deliverRealtime(event *models.Event) {
	if s.realtime == nil {
		return
	}
	for _, recipient := range event.Recipients {
		s.realtime.SendToUser(recipient, websocket.Message{
			Type:      string(event.Type),
			UserID:    recipient,
			Timestamp: event.OccurredAt.Unix(),
			Data:      event,
		})
	}
}

func (s *notificationService) deliverPush(ctx context.Context, event *models.Event, log *logger.Logger) {
	if len(event.Recipients) == 0 {
		return
	}
	users, err := s.userRepo.GetByIDs(ctx, event.Recipients)
	if err != nil {
		log.WithError(err).Warn("Failed to load push recipients")
		return
	}

	data := map[string]string{
		"event_type": string(event.Type),
		"event_id":   event.ID,
	}
	if !event.RideID.IsZero() {
		data["ride_id"] = event.RideID.Hex()
	}
	if !event.RequestID.IsZero() {
		data["request_id"] = event.RequestID.Hex()
	}

	for platform, provider := range s.push {
		var requests []*push.NotificationRequest
		for _, user := range users {
			for _, token := range user.TokensFor(platform) {
				requests = append(requests, &push.NotificationRequest{
					Token:       token,
					Title:       event.Title,
					Body:        event.Body,
					Data:        data,
					Sound:       "default",
					Priority:    "high",
					CollapseKey: string(event.Type),
				})
			}
		}
		if len(requests) == 0 {
			continue
		}

		responses, err := provider.SendBulkNotifications(ctx, requests)
		if err != nil {
			log.WithError(err).WithField("platform", platform).Warn("Push delivery failed")
			continue
		}
		for _, resp := range responses {
			if resp == nil || !resp.InvalidToken {
				continue
			}
			if err := s.userRepo.RemoveDeviceToken(ctx, resp.Token); err != nil {
				log.WithError(err).Warn("Failed to drop invalid device token")
			}
		}
	}
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Event) {}
